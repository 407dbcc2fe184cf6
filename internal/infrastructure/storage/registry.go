// Package storage selects and opens an event store backend by name.
package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"TimeTracker/internal/infrastructure/storage/boltstore"
	"TimeTracker/internal/infrastructure/storage/csvstore"
	"TimeTracker/internal/infrastructure/storage/postgres"
	"TimeTracker/internal/ports"
)

// Options carries everything a driver may need.
type Options struct {
	Path     string
	DSN      string
	Location *time.Location
	Logger   *slog.Logger
}

// Driver opens one kind of event store.
type Driver interface {
	Name() string
	Open(ctx context.Context, opts Options) (ports.EventStore, io.Closer, error)
}

// Registry keeps a mapping from driver names to their implementations.
type Registry struct {
	drivers map[string]Driver
}

// NewRegistry builds a registry with the built-in drivers.
func NewRegistry() *Registry {
	r := &Registry{drivers: map[string]Driver{}}
	r.Register(csvDriver{})
	r.Register(boltDriver{})
	r.Register(postgresDriver{})
	return r
}

// Register adds or replaces a driver implementation.
func (r *Registry) Register(driver Driver) {
	if r.drivers == nil {
		r.drivers = map[string]Driver{}
	}
	r.drivers[driver.Name()] = driver
}

// Resolve returns a driver by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Driver, error) {
	if driver, ok := r.drivers[name]; ok {
		return driver, nil
	}
	return nil, fmt.Errorf("store driver %s is not registered (known: %v)", name, r.Names())
}

// Names lists registered drivers alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type csvDriver struct{}

func (csvDriver) Name() string { return "csv" }

func (csvDriver) Open(_ context.Context, opts Options) (ports.EventStore, io.Closer, error) {
	store, err := csvstore.New(opts.Path, opts.Location, opts.Logger)
	if err != nil {
		return nil, nil, err
	}
	return store, nopCloser{}, nil
}

type boltDriver struct{}

func (boltDriver) Name() string { return "bolt" }

func (boltDriver) Open(_ context.Context, opts Options) (ports.EventStore, io.Closer, error) {
	store, err := boltstore.Open(opts.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}

type postgresDriver struct{}

func (postgresDriver) Name() string { return "postgres" }

func (postgresDriver) Open(ctx context.Context, opts Options) (ports.EventStore, io.Closer, error) {
	db, err := postgres.Open(ctx, opts.DSN)
	if err != nil {
		return nil, nil, err
	}
	repo := postgres.NewRepository(db, opts.Location)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repo, db, nil
}
