// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by callers that move large payloads (snapshot
// archives) and need a much longer timeout than regular API calls.
var HTTPClient = &http.Client{
	Timeout: 300 * time.Second,
}
