package asset

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store accepts an uploaded file under a category tag and returns a stable
// public reference URL for it. Image canvas objects carry that URL.
type Store interface {
	Save(ctx context.Context, category, filename string, r io.Reader) (string, error)
}

// DiskStore writes uploads under a local directory, one subdirectory per
// category, and serves them from a static base URL.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) *DiskStore {
	return &DiskStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (s *DiskStore) Save(ctx context.Context, category, filename string, r io.Reader) (string, error) {
	if category == "" {
		category = "misc"
	}
	category = sanitize(category)

	// stable name: new id + original extension
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))

	dir := filepath.Join(s.dir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return fmt.Sprintf("%s/%s/%s", s.baseURL, category, name), nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, s)
}
