package storage

import (
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

var ErrBadKey = errors.New("invalid blob key")

type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
}

// UploadKey names a user's uploaded source file: uploads/<owner>/<uuid><ext>.
func UploadKey(owner, ext string) string {
	return path.Join("uploads", owner, uuid.NewString()+strings.ToLower(ext))
}

// OwnedBy reports whether key lives under owner's upload prefix.
func OwnedBy(key, owner string) bool {
	clean, err := cleanKey(key)
	return err == nil && owner != "" && strings.HasPrefix(clean, "uploads/"+owner+"/")
}

// cleanKey normalizes a slash-separated key and refuses anything that escapes the root.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", ErrBadKey
	}
	c := path.Clean("/" + key)[1:]
	if c == "" || c != strings.TrimPrefix(key, "/") {
		return "", ErrBadKey
	}
	return c, nil
}
