// workers/backup_worker.go
package workers

import (
	"context"
	"fmt"
	"log"
	"time"

	"daily-guess-system/game"
	"daily-guess-system/utils"
	"daily-guess-system/vector"
)

// BackupClient snapshots the vector collections and ships them to R2 storage.
type BackupClient struct {
	Vector *vector.Client
}

func NewBackupClient(v *vector.Client) *BackupClient {
	return &BackupClient{Vector: v}
}

// BackupCollection creates a snapshot of one collection, downloads it and
// uploads the archive to R2. Returns the public URL of the stored archive.
func (b *BackupClient) BackupCollection(ctx context.Context, collection string) (string, error) {
	name, err := b.Vector.CreateSnapshot(ctx, collection)
	if err != nil {
		return "", fmt.Errorf("failed to snapshot collection %s: %w", collection, err)
	}

	data, err := b.Vector.DownloadSnapshot(ctx, collection, name)
	if err != nil {
		return "", fmt.Errorf("failed to download snapshot %s/%s: %w", collection, name, err)
	}

	key := fmt.Sprintf("backups/%s/%s", collection, name)
	url, err := utils.UploadBytesToR2(key, data, "application/octet-stream")
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot %s to R2: %w", key, err)
	}

	log.Printf("✅ Backed up collection %s (%d bytes) → %s", collection, len(data), url)
	return url, nil
}

// BackupAllCollections snapshots every fragment and question collection.
// A failing collection does not stop the rest.
func (b *BackupClient) BackupAllCollections(ctx context.Context) error {
	var firstErr error
	for _, desc := range game.All() {
		for _, collection := range []string{desc.Collection, desc.QuestionCollection} {
			if _, err := b.BackupCollection(ctx, collection); err != nil {
				log.Printf("❌ Backup of %s failed: %v", collection, err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

// PollBackups runs BackupAllCollections on a fixed interval until ctx is cancelled.
func PollBackups(ctx context.Context, client *BackupClient, interval time.Duration) {
	log.Println("Starting vector collection backup polling...")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Backup polling stopped.")
			return
		case <-ticker.C:
			log.Printf("Backing up vector collections at %s...", time.Now().UTC().Format(time.RFC3339))
			if err := client.BackupAllCollections(ctx); err != nil {
				log.Printf("❌ Scheduled backup finished with errors: %v", err)
				continue
			}
			log.Println("✅ Scheduled backup of all collections completed.")
		}
	}
}
