package blobsvc

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
)

// localStore keeps blobs under a directory and serves them from baseURL.
type localStore struct {
	root    string
	baseURL string
}

var _ core.BlobStore = (*localStore)(nil)

func NewLocalStore(root, baseURL string) core.BlobStore {
	return &localStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

// path resolves key under root, refusing keys that escape it.
func (s *localStore) path(key string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", errors.Errorf("invalid blob key %q", key)
	}
	return p, nil
}

func (s *localStore) Put(_ context.Context, key string, r io.Reader, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrap(err, "creating blob dir")
	}
	f, err := os.Create(p)
	if err != nil {
		return errors.Wrap(err, "creating blob file")
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "writing blob")
	}
	return f.Close()
}

func (s *localStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if os.IsNotExist(err) {
		return nil, core.ErrBlobNotFound
	}
	return f, errors.Wrap(err, "opening blob")
}

func (s *localStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "deleting blob")
	}
	return nil
}

func (s *localStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, errors.Wrap(err, "checking blob")
}

func (s *localStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}
