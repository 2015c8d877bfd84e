// Package seeders fills a store with the data a fresh storefront needs: an
// admin account and the sample lighting catalog.
//
// Seeders register from init and run in registration order:
//
//	func init() { seeders.Register("users", SeedUsers) }
//
// Every seeder is idempotent so `storefront seed` can run repeatedly.
package seeders

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/shashiranjanraj/storefront/app/repositories"
)

// SeederFunc writes seed data through the store's repositories, so the same
// seeders fill the SQL and in-memory backends.
type SeederFunc func(ctx context.Context, store repositories.Store) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder to the global registry.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// RunAll executes every registered seeder in order, reporting progress to
// out. It stops on the first error.
func RunAll(ctx context.Context, store repositories.Store, out io.Writer) error {
	mu.Lock()
	current := append([]seederEntry(nil), entries...)
	mu.Unlock()

	if len(current) == 0 {
		fmt.Fprintln(out, "  (no seeders registered)")
		return nil
	}

	for _, e := range current {
		fmt.Fprintf(out, "  • Running seeder: %s … ", e.name)
		if err := e.fn(ctx, store); err != nil {
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
		fmt.Fprintln(out, "done")
	}
	return nil
}
