// Package media stores uploaded images on the local filesystem. Uploads arrive
// as base64 data URIs and are written under Root; URL turns a stored relative
// path into a public link below URL.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

const (
	KindRecipes = "recipes"
	KindAvatars = "avatars"
)

// MaxImageBytes bounds a decoded upload.
const MaxImageBytes = 10 << 20

var (
	ErrInvalidDataURI  = errors.New("image must be a base64 data URI")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image is too large")
)

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

type Store struct {
	Root string
	URL  string
}

func NewStore(root, url string) *Store {
	return &Store{Root: root, URL: strings.TrimRight(url, "/")}
}

// IsDataURI reports whether s looks like "data:<mime>;base64,<payload>".
func IsDataURI(s string) bool {
	_, _, err := parseDataURI(s)
	return err == nil
}

func parseDataURI(s string) (string, string, error) {
	if !strings.HasPrefix(s, "data:") {
		return "", "", ErrInvalidDataURI
	}
	header, payload, found := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !found || payload == "" {
		return "", "", ErrInvalidDataURI
	}
	mime, enc, found := strings.Cut(header, ";")
	if !found || enc != "base64" {
		return "", "", ErrInvalidDataURI
	}
	ext, ok := extensions[strings.ToLower(mime)]
	if !ok {
		return "", "", ErrUnsupportedType
	}
	return ext, payload, nil
}

// SaveBase64 decodes dataURI and writes it to <Root>/<kind>/<uuid>.<ext>.
// It returns the path relative to Root, with forward slashes.
func (s *Store) SaveBase64(kind, dataURI string) (string, error) {
	ext, payload, err := parseDataURI(dataURI)
	if err != nil {
		return "", err
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes {
		return "", ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}

	dir := filepath.Join(s.Root, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}

	name := uuid.New().String() + "." + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}

	rel := path.Join(kind, name)
	log.WithFields(logrus.Fields{"path": rel, "bytes": len(data)}).Debug("Image stored")
	return rel, nil
}

// URLFor returns the public URL of a stored relative path.
func (s *Store) URLFor(rel string) string {
	if rel == "" {
		return ""
	}
	return s.URL + "/" + strings.TrimLeft(rel, "/")
}

// Delete removes a stored file. Missing files and paths escaping Root are ignored.
func (s *Store) Delete(rel string) {
	if rel == "" {
		return
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return
	}
	if err := os.Remove(filepath.Join(s.Root, clean)); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).WithField("path", rel).Warn("Failed to delete image")
	}
}
