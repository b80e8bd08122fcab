// Package blobstore persists uploaded files. The service only needs a flat
// write-once store for event images and invitation CSVs, so the production
// implementation writes to a local directory and returns the stored path.
package blobstore

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store accepts an uploaded file and returns an opaque stored path.
type Store interface {
	Save(name string, r io.Reader) (string, error)
}

// LocalStore writes uploads to a directory on disk. Stored names are
// prefixed with random hex so concurrent uploads of the same filename never
// collide.
type LocalStore struct {
	Dir string
}

// NewLocalStore creates the directory if needed and returns a store over it.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &LocalStore{Dir: dir}, nil
}

// Save streams r into a new file under the store directory and returns its
// path relative to the directory root.
func (s *LocalStore) Save(name string, r io.Reader) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	stored := hex.EncodeToString(buf) + "_" + sanitize(name)

	f, err := os.Create(filepath.Join(s.Dir, stored))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return stored, nil
}

// sanitize strips path separators from a client-supplied filename.
func sanitize(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	if name == "" || name == "." {
		name = "upload"
	}
	return name
}

// AllowedImage reports whether the filename carries an accepted image
// extension.
func AllowedImage(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// AllowedCSV reports whether the filename carries a csv extension.
func AllowedCSV(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".csv"
}
