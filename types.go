package lineage

import (
	"context"

	"github.com/jward/lineage/internal/fault"
	"github.com/jward/lineage/internal/store"
)

// Public type aliases for the internal store's query types. These are Go
// type aliases (=), identical to the internal types at compile time.

type Store = store.Store
type Query = store.Query
type Pattern = store.Pattern
type Group = store.Group
type Filter = store.Filter
type Node = store.Node
type Row = store.Row
type Term = store.Term

// Graph is the query capability the resolvers need. *Store implements it.
type Graph interface {
	Select(ctx context.Context, q *Query) ([]Row, error)
	Ask(ctx context.Context, q *Query) (bool, error)
}

var _ Graph = (*store.Store)(nil)

// Error is the coded error returned throughout the package.
type Error = fault.Error

// Sentinels for errors.Is.
var (
	ErrGraphQueryFailed       = fault.ErrGraphQueryFailed
	ErrBindingNotFound        = fault.ErrBindingNotFound
	ErrDataFormat             = fault.ErrDataFormat
	ErrDataSize               = fault.ErrDataSize
	ErrResourceNotFound       = fault.ErrResourceNotFound
	ErrMultipleResourcesFound = fault.ErrMultipleResourcesFound
	ErrInputContract          = fault.ErrInputContract
	ErrInternalContract       = fault.ErrInternalContract
)
