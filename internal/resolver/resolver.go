// Package resolver selects the catalog packages of interest and reduces them
// to one resolved package per basename.
package resolver

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/lincolnep/xcode-tools/internal/models"
	"github.com/lincolnep/xcode-tools/internal/version"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MetadataSource supplies metadata for a catalog entry
type MetadataSource interface {
	Resolve(ctx context.Context, entry models.PackageEntry) (models.PackageMetadata, error)
}

// Options controls package selection
type Options struct {
	OSRelease    string
	Destination  string
	PackageNames []string

	// Jobs bounds concurrent metadata fetches
	Jobs int

	// SkipIncomplete drops entries with incomplete metadata instead of
	// failing the run
	SkipIncomplete bool
}

// Skipped records an entry dropped because of incomplete metadata
type Skipped struct {
	Entry models.PackageEntry
	Err   error
}

// Result is the outcome of a resolution
type Result struct {
	Packages *models.ResolvedPackageSet
	Skipped  []Skipped
}

// Resolver turns a catalog into a ResolvedPackageSet
type Resolver struct {
	source MetadataSource
	opts   Options
}

// New creates a resolver
func New(source MetadataSource, opts Options) *Resolver {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	return &Resolver{source: source, opts: opts}
}

// Resolve filters doc by the configured name fragments, resolves metadata
// for every retained entry and keeps, per basename, the entry with the
// greatest long version. Ties keep the first entry in catalog order.
func (r *Resolver) Resolve(ctx context.Context, doc *models.CatalogDocument) (*Result, error) {
	entries := Filter(doc.Entries(), r.opts.PackageNames)
	logrus.Debugf("%d catalog entries match %s", len(entries), strings.Join(r.opts.PackageNames, ", "))

	metadata, errs, err := r.fetchAll(ctx, entries)
	if err != nil {
		return nil, err
	}

	result := &Result{Packages: models.NewResolvedPackageSet()}
	for i, entry := range entries {
		if errs[i] != nil {
			logrus.Warnf("Skipping %s: %v", entry.URL, errs[i])
			result.Skipped = append(result.Skipped, Skipped{Entry: entry, Err: errs[i]})
			continue
		}

		pkg := &models.ResolvedPackage{
			PackageEntry:    entry,
			PackageMetadata: metadata[i],
			Name:            entry.Basename(),
		}
		pkg.DownloadPath = filepath.Join(r.opts.Destination, DestinationName(pkg.Name, r.opts.OSRelease, pkg.LongVersion))

		existing, ok := result.Packages.Get(pkg.Name)
		switch {
		case !ok:
			result.Packages.Put(pkg)
		case version.Greater(pkg.LongVersion, existing.LongVersion):
			logrus.Debugf("%s: %s supersedes %s", pkg.Name, pkg.LongVersion, existing.LongVersion)
			result.Packages.Put(pkg)
		default:
			logrus.Debugf("%s: keeping %s over %s", pkg.Name, existing.LongVersion, pkg.LongVersion)
		}
	}

	return result, nil
}

// fetchAll resolves metadata for entries with at most Jobs requests in
// flight. Results are indexed by entry position so that ordering does not
// depend on completion order. Incomplete metadata lands in errs when
// skipping is enabled; every other failure aborts.
func (r *Resolver) fetchAll(ctx context.Context, entries []models.PackageEntry) ([]models.PackageMetadata, []error, error) {
	metadata := make([]models.PackageMetadata, len(entries))
	errs := make([]error, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Jobs)

	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			md, err := r.source.Resolve(gctx, entry)
			if err != nil {
				if r.opts.SkipIncomplete && models.IsErrorType(err, models.ErrMetadataIncomplete) {
					errs[i] = err
					return nil
				}
				return err
			}
			metadata[i] = md
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return metadata, errs, nil
}

// Filter keeps the entries whose URL contains any of the name fragments,
// preserving order.
func Filter(entries []models.PackageEntry, names []string) []models.PackageEntry {
	var out []models.PackageEntry
	for _, entry := range entries {
		for _, name := range names {
			if strings.Contains(entry.URL, name) {
				out = append(out, entry)
				break
			}
		}
	}
	return out
}

// DestinationName encodes the OS release and the first three segments of
// the long version into a package basename.
func DestinationName(basename, osRelease, longVersion string) string {
	tag := "_" + osRelease + "-" + version.Truncate(longVersion, 3)
	if stem, ok := strings.CutSuffix(basename, ".pkg"); ok {
		return stem + tag + ".pkg"
	}
	return basename + tag
}
