package blobstore

import (
	"context"
	"fmt"
	"path"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFS     = "fs"
	BackendS3     = "s3"
	BackendGCS    = "gcs"
	BackendAzure  = "azure"
)

// Options selects and configures a backend. Container is the bucket or
// container name, or the root directory for fs.
type Options struct {
	Backend          string
	Container        string
	ConnectionString string
	Region           string
	Endpoint         string
	PathStyle        bool
}

// Open constructs the backend named by o.Backend.
func Open(ctx context.Context, o Options) (Store, error) {
	switch o.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFS:
		return NewFSStore(o.Container)
	case BackendS3:
		return NewS3Store(ctx, S3Options{Bucket: o.Container, Region: o.Region, Endpoint: o.Endpoint, PathStyle: o.PathStyle})
	case BackendGCS:
		return NewGCSStore(ctx, GCSOptions{Bucket: o.Container, Endpoint: o.Endpoint})
	case BackendAzure:
		if o.ConnectionString == "" {
			return nil, fmt.Errorf("azure backend needs a connection string")
		}
		return NewAzureStore(o.ConnectionString, o.Container)
	default:
		return nil, fmt.Errorf("unsupported backend: %q", o.Backend)
	}
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".csv":
		return "text/csv"
	case ".parquet":
		return "application/vnd.apache.parquet"
	default:
		return "application/octet-stream"
	}
}
