package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrEmptyFile is returned when an upload carries no bytes.
var ErrEmptyFile = errors.New("empty file")

// DiskStore writes uploaded images to a local directory and returns a
// publicly resolvable URL for each stored file. Stored names get a random
// suffix so repeated uploads of the same filename never collide.
type DiskStore struct {
	dir       string
	publicURL string
}

// NewDiskStore creates the upload directory if needed. publicBaseURL is the
// externally visible base (e.g. "http://localhost:8080"); stored files are
// served under <publicBaseURL>/uploads/.
func NewDiskStore(dir, publicBaseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &DiskStore{
		dir:       dir,
		publicURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Dir returns the local directory backing the store.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Store writes the file and returns its public URL.
func (s *DiskStore) Store(filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}

	name := suffixed(filename)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	return s.publicURL + "/uploads/" + name, nil
}

// suffixed inserts a random fragment before the extension, sanitizing the
// base name down to its final path element.
func suffixed(filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" || stem == "." {
		stem = "upload"
	}
	return fmt.Sprintf("%s-%s%s", stem, uuid.NewString()[:8], ext)
}
