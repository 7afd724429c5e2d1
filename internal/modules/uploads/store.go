// README: Attachment store. Disk-backed blob storage keyed by session
// and document role, returning URLs served under /uploads.
package uploads

import (
	"fmt"
	"os"
	"path/filepath"

	"tlx/internal/types"
)

// Store persists uploaded documents and returns an addressable URL.
type Store interface {
	Save(sessionID types.ID, roleTag string, data []byte, originalName string) (string, error)
}

// DiskStore writes files under a single directory as
// {sessionID}_{roleTag}_{basename}.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir reports the backing directory, for static file serving.
func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) Save(sessionID types.ID, roleTag string, data []byte, originalName string) (string, error) {
	// Base() strips any client-supplied path components.
	name := fmt.Sprintf("%s_%s_%s", sessionID, roleTag, filepath.Base(originalName))
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("uploads: write %s: %w", name, err)
	}
	return "/uploads/" + name, nil
}
