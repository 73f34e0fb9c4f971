package blobsvc

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/pkg/errors"

	"github.com/janisrealty/janis/core"
)

type azureStore struct {
	client    *azblob.Client
	container string
}

var _ core.BlobStore = (*azureStore)(nil)

func NewAzureStore(connectionString, container string) (core.BlobStore, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating azure blob client")
	}
	return &azureStore{client: client, container: container}, nil
}

func (s *azureStore) blobClient(key string) *blob.Client {
	return s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(key)
}

func (s *azureStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	opts := &azblob.UploadStreamOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	_, err := s.client.UploadStream(ctx, s.container, key, r, opts)
	return errors.Wrapf(err, "uploading blob %s", key)
}

func (s *azureStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, core.ErrBlobNotFound
		}
		return nil, errors.Wrapf(err, "downloading blob %s", key)
	}
	return resp.Body, nil
}

func (s *azureStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteBlob(ctx, s.container, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return errors.Wrapf(err, "deleting blob %s", key)
	}
	return nil
}

func (s *azureStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.blobClient(key).GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return false, nil
	}
	return false, errors.Wrapf(err, "checking blob %s", key)
}

func (s *azureStore) URL(key string) string {
	if key == "" {
		return ""
	}
	base := strings.TrimRight(s.client.URL(), "/")
	return base + "/" + s.container + "/" + (&url.URL{Path: key}).EscapedPath()
}
