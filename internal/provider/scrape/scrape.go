// Package scrape implements content-acquisition providers.
package scrape

import (
	"context"

	"github.com/castforge/castforge/internal/provider"
)

// Page is the extracted content of one URL.
type Page struct {
	Title string
	Text  string
}

// Fetcher is the content-acquisition capability interface.
type Fetcher interface {
	provider.Provider
	Fetch(ctx context.Context, url string) (*Page, error)
}
