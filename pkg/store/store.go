// Package store provides durable CRUD over homogeneous entity collections.
// One backend resource exists per entity kind; the configured backend is
// resolved by the Factory.
package store

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "store").Logger()

var (
	ErrUnsupportedBackend = errors.New("unsupported database backend")
	ErrBackendUnavailable = errors.New("database backend not available yet")
	ErrNotInitialized     = errors.New("store factory accessed before initialization")
)

// Record is the constraint every stored entity satisfies through its embedded
// models.Meta plus a per-type Kind and Clone.
type Record[T any] interface {
	*T
	EntityID() string
	SetEntityID(string)
	Created() time.Time
	StampCreated(time.Time)
	StampUpdated(time.Time)
	Kind() string
	Clone() T
}

// ListOptions selects a 1-based page of a collection. The zero value selects
// everything.
type ListOptions struct {
	Page  int
	Limit int
}

func (o ListOptions) paged() bool { return o.Page > 0 && o.Limit > 0 }

// Page is one slice of a collection plus the unfiltered total count.
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// Repository is the CRUD contract over one entity kind.
//
// Not-found is reported through the boolean results, never as an error, so
// callers can distinguish "absent" from "failed". Update applies the mutator
// to a copy of the current record and persists the result; the mutator must
// not retain the pointer.
type Repository[T any] interface {
	Get(id string) (T, bool, error)
	List(opts ListOptions) (Page[T], error)
	Create(rec T) (T, error)
	Update(id string, mutate func(*T) error) (T, bool, error)
	Delete(id string) (bool, error)
}

// slicePage cuts the requested page out of an already-ordered collection.
// Out-of-range pages yield an empty slice, not an error.
func slicePage[T any](all []T, opts ListOptions) Page[T] {
	page := Page[T]{Data: all, Total: len(all)}
	if !opts.paged() {
		return page
	}
	start := (opts.Page - 1) * opts.Limit
	if start >= len(all) {
		page.Data = []T{}
		return page
	}
	end := start + opts.Limit
	if end > len(all) {
		end = len(all)
	}
	page.Data = all[start:end]
	return page
}
