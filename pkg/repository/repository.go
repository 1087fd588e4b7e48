// Package repository provides an append-only, delimited text table used by
// every ledger of the point of sale. A table is one file: a header row
// followed by one record per line.
package repository

import (
	"context"
	"errors"
)

// DefaultSeparator separates the columns of a ledger row.
const DefaultSeparator = "|"

var (
	ErrCorruptRow = errors.New("corrupt_row")
	ErrNilRecord  = errors.New("nil_record")
)

// Codec maps a record to the columns of one row and back.
type Codec[T any] interface {
	Header() []string
	Encode(record *T) []string
	Decode(fields []string) (*T, error)
}

// Repository is a typed view over one delimited file. Rows are never
// updated or deleted in place.
type Repository[T any] interface {
	Path() string
	Find(ctx context.Context, filter func(*T) bool) ([]*T, error)
	FindOne(ctx context.Context, filter func(*T) bool) (*T, error)
	Create(ctx context.Context, resource *T) error
	BatchCreate(ctx context.Context, resources []*T) error
}
