// Package catalog retrieves and decodes software update catalogs.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lincolnep/xcode-tools/internal/models"
	"github.com/lincolnep/xcode-tools/internal/transfer"
	"github.com/lincolnep/xcode-tools/internal/utils"
	"github.com/sirupsen/logrus"
)

// URL builds the catalog address for an OS release and optional channel.
func URL(baseURL, osRelease, channel string) (string, error) {
	suffix, err := models.ChannelSuffix(channel)
	if err != nil {
		return "", models.NewError(models.ErrConfiguration, err)
	}
	return fmt.Sprintf("%s/index-%s%s.merged-1.sucatalog.gz", strings.TrimRight(baseURL, "/"), osRelease, suffix), nil
}

// Fetcher retrieves catalogs through a Retriever
type Fetcher struct {
	retriever transfer.Retriever
	baseURL   string
}

// NewFetcher creates a catalog fetcher
func NewFetcher(r transfer.Retriever, baseURL string) *Fetcher {
	return &Fetcher{retriever: r, baseURL: baseURL}
}

// Fetch retrieves, decompresses and decodes the catalog for osRelease.
func (f *Fetcher) Fetch(ctx context.Context, osRelease, channel string) (*models.CatalogDocument, error) {
	catalogURL, err := URL(f.baseURL, osRelease, channel)
	if err != nil {
		return nil, err
	}

	logrus.Infof("Retrieving software catalog: %s", catalogURL)

	var doc *models.CatalogDocument
	err = f.retriever.Retrieve(ctx, catalogURL, func(r io.Reader) error {
		raw, err := io.ReadAll(r)
		if err != nil {
			return &transfer.TransferError{URL: catalogURL, Err: err}
		}
		doc, err = Parse(raw)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}

	logrus.Debugf("Catalog lists %d products", len(doc.Products))
	return doc, nil
}

// Parse decompresses raw if needed and decodes it into a CatalogDocument.
func Parse(raw []byte) (*models.CatalogDocument, error) {
	data, err := utils.Decompress(raw)
	if err != nil {
		return nil, models.NewError(models.ErrCatalogParse, fmt.Errorf("decompressing catalog: %w", err))
	}
	return decode(data)
}

func classify(err error) error {
	var te *models.ToolError
	if errors.As(err, &te) {
		return err
	}
	var xe *transfer.TransferError
	if errors.As(err, &xe) {
		return models.NewError(models.ErrCatalogUnavailable, err)
	}
	return models.NewError(models.ErrCatalogParse, err)
}
