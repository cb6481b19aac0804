// Package store implements the indexed-store capability set: connecting to
// a repository of eggs (a local directory, a remote HTTP mirror, or an
// unindexed local directory of archives), querying its metadata, and
// streaming individual egg archives.
package store

import (
	"context"
	"io"

	"github.com/hatchpm/hatch/internal/egg"
)

// Credentials carries optional basic-auth credentials for a remote store.
// A zero value means "connect without authentication".
type Credentials struct {
	Username string
	Password string
}

// Filter narrows a Query to records matching a canonicalized name. An empty
// Name matches every record in the store.
type Filter struct {
	Name string
}

// Entry pairs a store key (its egg filename) with the metadata record it
// resolves to.
type Entry struct {
	Key    string
	Record egg.Record
}

// Store is the capability set shared by every store variant: connect,
// query, metadata and data retrieval, and existence checks.
type Store interface {
	// Connect prepares the store for queries: parsing a local index,
	// fetching and parsing a remote one, or walking a directory of
	// archives. It is idempotent and must be called before Query.
	Connect(ctx context.Context, creds Credentials) error

	// Query returns every entry matching f, in a stable order.
	Query(ctx context.Context, f Filter) ([]Entry, error)

	// GetMetadata returns the record for key, or a *herrors.KeyNotFound.
	GetMetadata(ctx context.Context, key string) (egg.Record, error)

	// GetData streams the egg archive's bytes. The caller must Close it.
	GetData(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether key is known to this store.
	Exists(ctx context.Context, key string) (bool, error)

	// Name identifies the store for diagnostics and StoreUnavailable errors.
	Name() string
}
