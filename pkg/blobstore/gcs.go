package blobstore

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

type GCSOptions struct {
	Bucket   string
	Endpoint string // optional, e.g. an emulator
}

// GCSStore is a Store over one Cloud Storage bucket. Copies run server-side
// and return once the rewrite is done.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(ctx context.Context, o GCSOptions) (*GCSStore, error) {
	var opts []option.ClientOption
	if o.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(o.Endpoint), option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create GCS client")
	}
	return &GCSStore{client: client, bucket: o.Bucket}, nil
}

func (s *GCSStore) object(key string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(key)
}

func (s *GCSStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var out []ObjectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, storeErr("gcs", "list", prefix, errors.WithStack(err))
		}
		out = append(out, ObjectInfo{Key: attrs.Name, Size: attrs.Size, Modified: attrs.Updated})
	}
	return sortInfos(out), nil
}

func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, notFound("gcs", "get", key)
	}
	if err != nil {
		return nil, storeErr("gcs", "get", key, errors.WithStack(err))
	}
	defer func() { _ = r.Close() }()
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, storeErr("gcs", "get", key, errors.Wrap(err, "read object"))
	}
	return b, nil
}

func (s *GCSStore) Put(ctx context.Context, key string, data []byte) error {
	w := s.object(key).NewWriter(ctx)
	w.ContentType = contentType(key)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return storeErr("gcs", "put", key, errors.Wrap(err, "write object"))
	}
	if err := w.Close(); err != nil {
		return storeErr("gcs", "put", key, errors.Wrap(err, "finalize object"))
	}
	return nil
}

func (s *GCSStore) StartCopy(ctx context.Context, src, dst string) error {
	_, err := s.object(dst).CopierFrom(s.object(src)).Run(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return notFound("gcs", "copy", src)
	}
	return storeErr("gcs", "copy", dst, errors.WithStack(err))
}

func (s *GCSStore) CopyStatus(ctx context.Context, key string) (CopyState, error) {
	_, err := s.object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return "", notFound("gcs", "copy-status", key)
	}
	if err != nil {
		return "", storeErr("gcs", "copy-status", key, errors.WithStack(err))
	}
	return CopySuccess, nil
}

func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return notFound("gcs", "delete", key)
	}
	return storeErr("gcs", "delete", key, errors.WithStack(err))
}

func (s *GCSStore) Close() error { return s.client.Close() }
