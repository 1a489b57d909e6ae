// utils/file.go
package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

const corpusUploadDir = "uploads/corpus"

// EnsureUploadDir creates the local corpus upload directory. Raw reference
// documents are kept on disk so the corpus can be re-ingested after an
// embedding-model change without asking admins to re-upload.
func EnsureUploadDir() error {
	return os.MkdirAll(corpusUploadDir, os.ModePerm)
}

// CorpusUploadPath returns where a raw reference document is stored.
func CorpusUploadPath(filename string) string {
	return filepath.Join(corpusUploadDir, filename)
}

// SaveFile writes an uploaded reference document to destPath, creating any
// missing parent directories.
func SaveFile(fileHeader *multipart.FileHeader, destPath string) error {
	if err := os.MkdirAll(filepath.Dir(destPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create upload dir: %w", err)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded document: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}
