package blob

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	azureblob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
)

// AzureUploadFunc uploads one block blob to a container.
type AzureUploadFunc func(ctx context.Context, blobName string, data []byte, opts *blockblob.UploadBufferOptions) error

type azureSink struct {
	upload    AzureUploadFunc
	account   string
	container string
	prefix    string
}

// NewAzureSink writes blobs to an Azure Storage container using DefaultAzureCredential.
func NewAzureSink(account, containerName, prefix string) (Sink, error) {
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure credential: %w", err)
	}

	containerURL := fmt.Sprintf("https://%s.blob.core.windows.net/%s", account, containerName)
	client, err := container.NewClient(containerURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("new azure container client: %w", err)
	}

	upload := func(ctx context.Context, blobName string, data []byte, opts *blockblob.UploadBufferOptions) error {
		_, err := client.NewBlockBlobClient(blobName).UploadBuffer(ctx, data, opts)
		return err
	}
	return NewAzureSinkWithUploader(account, containerName, prefix, upload), nil
}

func NewAzureSinkWithUploader(account, containerName, prefix string, upload AzureUploadFunc) Sink {
	return &azureSink{upload: upload, account: account, container: containerName, prefix: prefix}
}

func (s *azureSink) Put(ctx context.Context, key string, payload string) error {
	remoteKey := ResolveKey(s.prefix, key)
	ct := contentType(payload)
	err := s.upload(ctx, remoteKey, []byte(payload), &blockblob.UploadBufferOptions{
		HTTPHeaders: &azureblob.HTTPHeaders{BlobContentType: &ct},
	})
	if err != nil {
		return fmt.Errorf("failed to write azure://%s/%s/%s: %w", s.account, s.container, remoteKey, err)
	}
	return nil
}

func (s *azureSink) Close() error {
	return nil
}
