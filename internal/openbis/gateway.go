// Package openbis provides the client for an openBIS-style laboratory data
// catalog: authentication, search, dataset transfer, and parent/child
// relationship access. The relationship subsystem consumes the catalog only
// through the Gateway interface so it can be exercised without a server.
package openbis

import "context"

// Gateway is the catalog capability consumed by the relationship subsystem.
// Any call may fail with *ConnectionError, *AuthError, or *NotFoundError;
// LinkParents may additionally fail with *LinkError identifying the parent
// that could not be linked.
type Gateway interface {
	// SearchByProperty returns entries of the given type whose property
	// matches value. An empty property matches every entry, which combined
	// with Filters.Collection lists a collection's contents. Wildcards (*)
	// in value are honored by the server.
	SearchByProperty(ctx context.Context, typ EntryType, property, value string, f Filters) ([]CatalogEntry, error)

	// GetChildren returns the datasets derived from the given dataset.
	GetChildren(ctx context.Context, datasetID string) ([]CatalogEntry, error)

	// GetParents returns the datasets the given dataset was derived from.
	GetParents(ctx context.Context, datasetID string) ([]CatalogEntry, error)

	// LinkParents records a lineage link from the dataset to each parent in
	// order, one write per parent. It stops at the first failure and returns
	// a *LinkError naming the parent that failed; earlier parents stay
	// linked.
	LinkParents(ctx context.Context, datasetID string, parentIDs []string) error
}
