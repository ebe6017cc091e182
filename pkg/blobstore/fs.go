package blobstore

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// FSStore keeps objects as files below a root directory. Keys use forward
// slashes. Writes go through a temp file and a rename.
type FSStore struct {
	root string
}

func NewFSStore(root string) (*FSStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "resolve root")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create root %s", abs)
	}
	return &FSStore{root: abs}, nil
}

func (s *FSStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == "." {
		return "", fmt.Errorf("invalid key: %s", key)
	}
	full := filepath.Join(s.root, clean)
	rel, err := filepath.Rel(s.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid key: %s", key)
	}
	return full, nil
}

func (s *FSStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.Contains(d.Name(), ".tmp.") {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, ObjectInfo{Key: key, Size: info.Size(), Modified: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, storeErr("fs", "list", prefix, errors.WithStack(err))
	}
	return sortInfos(out), nil
}

func (s *FSStore) Get(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, storeErr("fs", "get", key, err)
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound("fs", "get", key)
	}
	if err != nil {
		return nil, storeErr("fs", "get", key, errors.WithStack(err))
	}
	return b, nil
}

func (s *FSStore) Put(ctx context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return storeErr("fs", "put", key, err)
	}
	return storeErr("fs", "put", key, atomicWrite(p, data))
}

func atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create directory")
	}
	tmp := fmt.Sprintf("%s.tmp.%d", path, time.Now().UnixNano())
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrap(err, "write temp file")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.Wrap(err, "sync temp file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "rename temp file")
	}
	return nil
}

// StartCopy copies synchronously; the copy is complete when it returns.
func (s *FSStore) StartCopy(ctx context.Context, src, dst string) error {
	b, err := s.Get(ctx, src)
	if err != nil {
		var se *StoreError
		if errors.As(err, &se) {
			se.Op = "copy"
		}
		return err
	}
	p, err := s.path(dst)
	if err != nil {
		return storeErr("fs", "copy", dst, err)
	}
	return storeErr("fs", "copy", dst, atomicWrite(p, b))
}

func (s *FSStore) CopyStatus(ctx context.Context, key string) (CopyState, error) {
	p, err := s.path(key)
	if err != nil {
		return "", storeErr("fs", "copy-status", key, err)
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", notFound("fs", "copy-status", key)
		}
		return "", storeErr("fs", "copy-status", key, errors.WithStack(err))
	}
	return CopySuccess, nil
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return storeErr("fs", "delete", key, err)
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return notFound("fs", "delete", key)
		}
		return storeErr("fs", "delete", key, errors.WithStack(err))
	}
	return nil
}

func (s *FSStore) Close() error { return nil }
