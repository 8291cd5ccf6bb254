// Package metadata models the Data Extension catalog the suggestion
// engine completes against: the table registry snapshot and the field
// lookup contract with its HTTP and caching implementations.
package metadata

import (
	"context"
	"strings"
)

// Field is one column of a Data Extension.
type Field struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	IsPrimaryKey bool   `json:"isPrimaryKey"`
	IsNullable   bool   `json:"isNullable"`
	Length       int    `json:"length"`
}

// DataExtension is one queryable table in the account.
type DataExtension struct {
	Name        string `json:"name"`
	CustomerKey string `json:"customerKey"`
	FolderID    int    `json:"folderId"`
}

// Registry is an immutable snapshot of the account's Data Extensions
// plus the set of shared folders. Suggestions qualify tables living in
// a shared folder with the "ENT." prefix.
type Registry struct {
	extensions []DataExtension
	shared     map[int]bool
}

// NewRegistry builds a snapshot. The inputs are copied; mutating them
// afterwards does not affect the registry.
func NewRegistry(extensions []DataExtension, sharedFolderIDs []int) *Registry {
	shared := make(map[int]bool, len(sharedFolderIDs))
	for _, id := range sharedFolderIDs {
		shared[id] = true
	}

	exts := make([]DataExtension, len(extensions))
	copy(exts, extensions)

	return &Registry{extensions: exts, shared: shared}
}

// Extensions returns the snapshot's Data Extensions in catalog order.
func (r *Registry) Extensions() []DataExtension {
	out := make([]DataExtension, len(r.extensions))
	copy(out, r.extensions)

	return out
}

// Lookup finds a Data Extension by name or customer key,
// case-insensitively.
func (r *Registry) Lookup(nameOrKey string) (DataExtension, bool) {
	for _, de := range r.extensions {
		if strings.EqualFold(de.Name, nameOrKey) || strings.EqualFold(de.CustomerKey, nameOrKey) {
			return de, true
		}
	}

	return DataExtension{}, false
}

// IsShared reports whether folderID belongs to the shared folder tree.
func (r *Registry) IsShared(folderID int) bool {
	return r.shared[folderID]
}

// FieldFetcher resolves the field list of a Data Extension by customer
// key. Implementations must honor context cancellation; callers treat
// any error as "zero fields known".
type FieldFetcher interface {
	FetchFields(ctx context.Context, customerKey string) ([]Field, error)
}

// FetcherFunc adapts a function to the FieldFetcher interface.
type FetcherFunc func(ctx context.Context, customerKey string) ([]Field, error)

// FetchFields calls f.
func (f FetcherFunc) FetchFields(ctx context.Context, customerKey string) ([]Field, error) {
	return f(ctx, customerKey)
}
