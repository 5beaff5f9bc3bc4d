// Package storage keeps uploaded media on local disk under a configured
// root. Stored names are random; the original file name only contributes
// its extension.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type MediaStore struct {
	root    string
	baseURL string
}

func NewMediaStore(root, baseURL string) (*MediaStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "events"), 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &MediaStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Save writes the uploaded file and returns its path relative to the
// media root (e.g. "events/7f3a….jpg").
func (s *MediaStore) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" {
		ext = ".bin"
	}
	rel := path.Join("events", uuid.NewString()+ext)

	dst, err := os.Create(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return rel, nil
}

// Remove deletes a stored file; a missing file is not an error.
func (s *MediaStore) Remove(rel string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL returns the serving path for a stored file, e.g. "/media/events/x.jpg".
func (s *MediaStore) URL(rel string) string {
	return s.baseURL + "/" + strings.TrimPrefix(rel, "/")
}

// Root exposes the directory for the static file handler.
func (s *MediaStore) Root() string {
	return s.root
}
