package catalog

import (
	"fmt"
	"time"

	"github.com/lincolnep/xcode-tools/internal/models"
	"howett.net/plist"
)

// Plist structures for the catalog. Pointers mark keys whose absence must
// be detected.

type catalogPlist struct {
	Products map[string]productPlist `plist:"Products"`
}

type productPlist struct {
	ServerMetadataURL string          `plist:"ServerMetadataURL"`
	PostDate          *time.Time      `plist:"PostDate"`
	Packages          *[]packagePlist `plist:"Packages"`
}

type packagePlist struct {
	URL         string `plist:"URL"`
	MetadataURL string `plist:"MetadataURL"`
	Size        int64  `plist:"Size"`
	Digest      string `plist:"Digest"`
}

// decode validates the catalog against the minimal schema: every product has
// a package list and a post date, every package has a URL.
func decode(data []byte) (*models.CatalogDocument, error) {
	var cat catalogPlist
	if _, err := plist.Unmarshal(data, &cat); err != nil {
		return nil, models.NewError(models.ErrCatalogParse, fmt.Errorf("decoding catalog: %w", err))
	}
	if cat.Products == nil {
		return nil, models.NewError(models.ErrCatalogParse, fmt.Errorf("catalog has no Products dictionary"))
	}

	doc := &models.CatalogDocument{Products: make(map[string]models.Product, len(cat.Products))}
	for id, p := range cat.Products {
		if p.Packages == nil {
			return nil, models.NewPackageError(models.ErrMetadataIncomplete, id, fmt.Errorf("product has no Packages list"))
		}
		if p.PostDate == nil {
			return nil, models.NewPackageError(models.ErrMetadataIncomplete, id, fmt.Errorf("product has no PostDate"))
		}

		product := models.Product{
			ID:                id,
			PostDate:          *p.PostDate,
			ServerMetadataURL: p.ServerMetadataURL,
		}
		for i, pkg := range *p.Packages {
			if pkg.URL == "" {
				return nil, models.NewPackageError(models.ErrMetadataIncomplete, id, fmt.Errorf("package %d has no URL", i))
			}
			product.Packages = append(product.Packages, models.PackageEntry{
				URL:               pkg.URL,
				MetadataURL:       pkg.MetadataURL,
				ProductID:         id,
				PostDate:          *p.PostDate,
				ServerMetadataURL: p.ServerMetadataURL,
				Size:              pkg.Size,
				Digest:            pkg.Digest,
			})
		}
		doc.Products[id] = product
	}

	return doc, nil
}
