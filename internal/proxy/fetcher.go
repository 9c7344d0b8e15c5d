package proxy

import (
	"context"

	"github.com/aleister1102/faleproxy/internal/httpclient"
	"github.com/aleister1102/faleproxy/internal/models"
)

// PageFetcher retrieves a single upstream document.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (*models.Page, error)
}

// PageTransformer turns an upstream document into rewritten HTML.
type PageTransformer interface {
	Transform(page *models.Page) (*models.RewriteResult, error)
}

// HTTPPageFetcher fetches pages through an httpclient.HTTPClient.
type HTTPPageFetcher struct {
	client *httpclient.HTTPClient
}

// NewHTTPPageFetcher creates a new page fetcher
func NewHTTPPageFetcher(client *httpclient.HTTPClient) *HTTPPageFetcher {
	return &HTTPPageFetcher{client: client}
}

// FetchPage issues one GET. Non-2xx responses are errors.
func (f *HTTPPageFetcher) FetchPage(ctx context.Context, url string) (*models.Page, error) {
	result, err := f.client.FetchContent(httpclient.FetchContentInput{
		URL:     url,
		Context: ctx,
	})
	if err != nil {
		return nil, err
	}

	return &models.Page{
		URL:         url,
		FinalURL:    result.FinalURL,
		StatusCode:  result.HTTPStatusCode,
		ContentType: result.ContentType,
		Content:     result.Content,
	}, nil
}

var _ PageFetcher = (*HTTPPageFetcher)(nil)
