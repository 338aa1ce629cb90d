package models

import (
	"path"
	"sort"
	"time"
)

// CatalogDocument is the decoded software update catalog.
type CatalogDocument struct {
	// Products keyed by product identifier
	Products map[string]Product
}

// Entries returns every package entry in catalog encounter order: products
// by identifier, then each product's packages as listed.
func (d *CatalogDocument) Entries() []PackageEntry {
	ids := make([]string, 0, len(d.Products))
	for id := range d.Products {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var entries []PackageEntry
	for _, id := range ids {
		entries = append(entries, d.Products[id].Packages...)
	}
	return entries
}

// Product is one catalog product and the packages it ships.
type Product struct {
	ID                string
	PostDate          time.Time
	ServerMetadataURL string
	Packages          []PackageEntry
}

// PackageEntry is a raw package reference read from the catalog.
type PackageEntry struct {
	URL         string
	MetadataURL string
	ProductID   string
	PostDate    time.Time

	// Inherited from the parent product
	ServerMetadataURL string

	// Optional integrity data published alongside the URL
	Size   int64
	Digest string
}

// Basename returns the last path element of the entry URL.
func (e PackageEntry) Basename() string {
	return path.Base(e.URL)
}

// PackageMetadata holds the fields extracted from the server metadata and
// package manifest documents of an entry.
type PackageMetadata struct {
	Version     string // short, user facing version
	LongVersion string // precise multi-segment version used for ordering
	Identifier  string
	Title       string
}

// ResolvedPackage is a catalog entry merged with its metadata and local
// download location.
type ResolvedPackage struct {
	PackageEntry
	PackageMetadata

	Name         string // URL basename, the dedup key
	DownloadPath string
}

// ResolvedPackageSet maps basename to package while remembering the order in
// which basenames were first seen.
type ResolvedPackageSet struct {
	order  []string
	byName map[string]*ResolvedPackage
}

// NewResolvedPackageSet returns an empty set.
func NewResolvedPackageSet() *ResolvedPackageSet {
	return &ResolvedPackageSet{byName: make(map[string]*ResolvedPackage)}
}

// Get returns the package stored under name.
func (s *ResolvedPackageSet) Get(name string) (*ResolvedPackage, bool) {
	pkg, ok := s.byName[name]
	return pkg, ok
}

// Put stores pkg under its name. Replacing an existing name keeps the
// original position.
func (s *ResolvedPackageSet) Put(pkg *ResolvedPackage) {
	if _, ok := s.byName[pkg.Name]; !ok {
		s.order = append(s.order, pkg.Name)
	}
	s.byName[pkg.Name] = pkg
}

// Len returns the number of packages in the set.
func (s *ResolvedPackageSet) Len() int {
	return len(s.order)
}

// Names returns basenames in first-seen order.
func (s *ResolvedPackageSet) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Packages returns the packages in first-seen order.
func (s *ResolvedPackageSet) Packages() []*ResolvedPackage {
	out := make([]*ResolvedPackage, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// InstallPlan is the ordered execution plan. Removal packages always run
// before the remaining packages.
type InstallPlan struct {
	Removals  []*ResolvedPackage
	Remaining []*ResolvedPackage
}

// Ordered returns removal packages followed by the remaining packages.
func (p InstallPlan) Ordered() []*ResolvedPackage {
	out := make([]*ResolvedPackage, 0, len(p.Removals)+len(p.Remaining))
	out = append(out, p.Removals...)
	return append(out, p.Remaining...)
}

// Len returns the total number of packages in the plan.
func (p InstallPlan) Len() int {
	return len(p.Removals) + len(p.Remaining)
}
