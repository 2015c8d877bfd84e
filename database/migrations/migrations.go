// Package migrations registers the storefront schema. Import it for its side
// effects before running pkg/migration.
package migrations
