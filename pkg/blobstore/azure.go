package blobstore

import (
	"context"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/pkg/errors"
)

// AzureStore is a Store over one blob container. Copies are asynchronous:
// StartCopy returns once the service has accepted the copy and CopyStatus
// reports its progress.
type AzureStore struct {
	client    *azblob.Client
	container *container.Client
	name      string
}

func NewAzureStore(connectionString, containerName string) (*AzureStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create blob client")
	}
	return &AzureStore{
		client:    client,
		container: client.ServiceClient().NewContainerClient(containerName),
		name:      containerName,
	}, nil
}

func (s *AzureStore) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	pager := s.container.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{Prefix: &prefix})
	var out []ObjectInfo
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, storeErr("azure", "list", prefix, errors.WithStack(err))
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			info := ObjectInfo{Key: *item.Name}
			if p := item.Properties; p != nil {
				if p.ContentLength != nil {
					info.Size = *p.ContentLength
				}
				if p.LastModified != nil {
					info.Modified = *p.LastModified
				}
			}
			out = append(out, info)
		}
	}
	return sortInfos(out), nil
}

func (s *AzureStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.DownloadStream(ctx, s.name, key, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return nil, notFound("azure", "get", key)
	}
	if err != nil {
		return nil, storeErr("azure", "get", key, errors.WithStack(err))
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, storeErr("azure", "get", key, errors.Wrap(err, "read blob"))
	}
	return b, nil
}

func (s *AzureStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.UploadBuffer(ctx, s.name, key, data, nil)
	return storeErr("azure", "put", key, errors.WithStack(err))
}

func (s *AzureStore) StartCopy(ctx context.Context, src, dst string) error {
	source := s.container.NewBlobClient(src)
	_, err := s.container.NewBlobClient(dst).StartCopyFromURL(ctx, source.URL(), nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.CannotVerifyCopySource) {
		return notFound("azure", "copy", src)
	}
	return storeErr("azure", "copy", dst, errors.WithStack(err))
}

func (s *AzureStore) CopyStatus(ctx context.Context, key string) (CopyState, error) {
	props, err := s.container.NewBlobClient(key).GetProperties(ctx, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return "", notFound("azure", "copy-status", key)
	}
	if err != nil {
		return "", storeErr("azure", "copy-status", key, errors.WithStack(err))
	}
	if props.CopyStatus == nil {
		return CopySuccess, nil
	}
	switch *props.CopyStatus {
	case blob.CopyStatusTypePending:
		return CopyPending, nil
	case blob.CopyStatusTypeAborted:
		return CopyAborted, nil
	case blob.CopyStatusTypeFailed:
		return CopyFailed, nil
	default:
		return CopySuccess, nil
	}
}

func (s *AzureStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteBlob(ctx, s.name, key, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return notFound("azure", "delete", key)
	}
	return storeErr("azure", "delete", key, errors.WithStack(err))
}

func (s *AzureStore) Close() error { return nil }
