package chat

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	ErrBadName     = errors.New("chat: invalid artifact name")
	ErrNoContent   = errors.New("chat: no content to store")
	ErrImageDecode = errors.New("chat: image decode failed")
)

// Store writes command artifacts under the files and images directories.
// Directories are shared across all connection handlers; creation is
// idempotent and no exclusive access is assumed. Concurrent writes to the
// same name are last-writer-wins.
type Store struct {
	fileDir  string
	imageDir string
}

func NewStore(fileDir, imageDir string) *Store {
	return &Store{fileDir: fileDir, imageDir: imageDir}
}

// SaveFile writes data verbatim to <fileDir>/<base(name)> and returns the
// stored path.
func (s *Store) SaveFile(name string, data []byte) (string, error) {
	base, err := artifactName(name)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrNoContent
	}
	return writeArtifact(s.fileDir, base, data)
}

// SaveImage decodes data as image content, re-encodes it as PNG and writes
// it to <imageDir>/<stem(name)>.png. Input already in PNG format is stored
// verbatim. The second result reports whether a format conversion happened.
func (s *Store) SaveImage(name string, data []byte) (string, bool, error) {
	base, err := artifactName(name)
	if err != nil {
		return "", false, err
	}
	if len(data) == 0 {
		return "", false, ErrNoContent
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", false, fmt.Errorf("%w: %s", ErrImageDecode, err)
	}

	target := strings.TrimSuffix(base, filepath.Ext(base)) + ".png"
	if format == "png" {
		path, err := writeArtifact(s.imageDir, target, data)
		return path, false, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", false, err
	}
	path, err := writeArtifact(s.imageDir, target, buf.Bytes())
	return path, true, err
}

func writeArtifact(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// artifactName reduces a client-supplied name to a safe base file name.
func artifactName(name string) (string, error) {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return base, nil
}
