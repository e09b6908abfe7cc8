package md2docx

import (
	"context"

	"github.com/alnah/go-md2docx/internal/remote"
)

// RemoteConverter converts through the HTTP conversion service.
type RemoteConverter struct {
	client *remote.Client
}

// NewRemoteConverter creates a converter for the service at endpoint.
func NewRemoteConverter(endpoint string, opts ...remote.Option) (*RemoteConverter, error) {
	client, err := remote.New(endpoint, opts...)
	if err != nil {
		return nil, err
	}
	return &RemoteConverter{client: client}, nil
}

// Client returns the underlying service client.
func (c *RemoteConverter) Client() *remote.Client { return c.client }

// Convert implements Converter.
func (c *RemoteConverter) Convert(ctx context.Context, markdown string) (*Document, error) {
	doc, err := c.client.Convert(ctx, markdown)
	if err != nil {
		return nil, err
	}
	return &Document{Data: doc.Data, Filename: doc.Filename, ContentType: doc.ContentType}, nil
}

// Health reports the service status.
func (c *RemoteConverter) Health(ctx context.Context) (*remote.Health, error) {
	return c.client.Health(ctx)
}

var _ Converter = (*RemoteConverter)(nil)
