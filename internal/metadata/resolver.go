// Package metadata extracts version and identity fields from the auxiliary
// documents published for each catalog package.
package metadata

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/lincolnep/xcode-tools/internal/models"
	"github.com/lincolnep/xcode-tools/internal/transfer"
	"github.com/sirupsen/logrus"
	"howett.net/plist"
)

// Resolver fetches server metadata (.smd) and package manifest (.pkm)
// documents and merges their fields.
type Resolver struct {
	retriever transfer.Retriever
}

// NewResolver creates a metadata resolver
func NewResolver(r transfer.Retriever) *Resolver {
	return &Resolver{retriever: r}
}

type serverMetadata struct {
	ShortVersion string                       `plist:"CFBundleShortVersionString"`
	Localization map[string]localizedMetadata `plist:"localization"`
}

type localizedMetadata struct {
	Title string `plist:"title"`
}

type packageManifest struct {
	Version    string `xml:"version,attr"`
	Identifier string `xml:"identifier,attr"`
}

// Resolve retrieves both documents for entry and returns the combined
// metadata. A missing document URL or field is a MetadataIncomplete error.
func (r *Resolver) Resolve(ctx context.Context, entry models.PackageEntry) (models.PackageMetadata, error) {
	name := entry.Basename()
	serverMetadataURL := entry.ServerMetadataURL
	var md models.PackageMetadata

	if serverMetadataURL == "" {
		return md, models.NewPackageError(models.ErrMetadataIncomplete, name, errors.New("product has no ServerMetadataURL"))
	}
	if entry.MetadataURL == "" {
		return md, models.NewPackageError(models.ErrMetadataIncomplete, name, errors.New("package has no MetadataURL"))
	}

	var smd serverMetadata
	if err := r.retriever.Retrieve(ctx, serverMetadataURL, func(rd io.Reader) error {
		return decodePlist(serverMetadataURL, rd, &smd)
	}); err != nil {
		return md, wrap(name, serverMetadataURL, err)
	}

	var pkm packageManifest
	if err := r.retriever.Retrieve(ctx, entry.MetadataURL, func(rd io.Reader) error {
		return xml.NewDecoder(rd).Decode(&pkm)
	}); err != nil {
		return md, wrap(name, entry.MetadataURL, err)
	}

	md = models.PackageMetadata{
		Version:     smd.ShortVersion,
		LongVersion: pkm.Version,
		Identifier:  pkm.Identifier,
		Title:       title(smd.Localization),
	}
	if err := checkComplete(md); err != nil {
		return models.PackageMetadata{}, models.NewPackageError(models.ErrMetadataIncomplete, name, err)
	}

	logrus.Debugf("Resolved %s: %s %s (%s)", name, md.Identifier, md.LongVersion, md.Version)
	return md, nil
}

func decodePlist(rawURL string, rd io.Reader, v interface{}) error {
	data, err := io.ReadAll(rd)
	if err != nil {
		return &transfer.TransferError{URL: rawURL, Err: err}
	}
	_, err = plist.Unmarshal(data, v)
	return err
}

func title(loc map[string]localizedMetadata) string {
	for _, key := range []string{"English", "en"} {
		if l, ok := loc[key]; ok && l.Title != "" {
			return l.Title
		}
	}
	return ""
}

func checkComplete(md models.PackageMetadata) error {
	switch {
	case md.Version == "":
		return errors.New("server metadata has no CFBundleShortVersionString")
	case md.Title == "":
		return errors.New("server metadata has no English title")
	case md.LongVersion == "":
		return errors.New("package manifest has no version attribute")
	case md.Identifier == "":
		return errors.New("package manifest has no identifier attribute")
	}
	return nil
}

func wrap(name, rawURL string, err error) error {
	var te *transfer.TransferError
	if errors.As(err, &te) {
		return models.NewPackageError(models.ErrCatalogUnavailable, name, err)
	}
	return models.NewPackageError(models.ErrCatalogParse, name, fmt.Errorf("decoding %s: %w", rawURL, err))
}
