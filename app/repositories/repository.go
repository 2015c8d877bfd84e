// Package repositories is the storage abstraction: one CRUD contract per
// entity, a Store that groups them, and a unit-of-work for changes that must
// commit together.
//
// Two backends satisfy the contract without any caller noticing:
//
//	store := repositories.NewMemoryStore()              // in-process maps
//	store := repositories.NewGormStore(database.DB)     // sqlite/postgres/mysql/sqlserver
//
// Ids are assigned on Create, increase monotonically per entity type and are
// never handed out again after a delete.
package repositories

import (
	"context"
	"errors"

	"github.com/shashiranjanraj/storefront/app/models"
)

var (
	// ErrNotFound is returned by Get, Update and Delete for an unknown id.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientStock is returned by DecrementStock when stock < quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidQuantity is returned by DecrementStock for a quantity below 1.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	// ErrDuplicate is returned when a unique key (slug, username) is taken.
	ErrDuplicate = errors.New("duplicate record")
)

// Repository is the CRUD contract shared by every entity.
type Repository[T any] interface {
	Get(ctx context.Context, id uint) (T, error)
	List(ctx context.Context) ([]T, error)
	// Create persists entity and writes the assigned id back into it.
	Create(ctx context.Context, entity *T) error
	// Update loads the record, lets apply mutate it, and saves the result.
	// An error from apply aborts the update.
	Update(ctx context.Context, id uint, apply func(*T) error) (T, error)
	Delete(ctx context.Context, id uint) error
}

// ProductFilter narrows ProductRepository.Search. Zero value matches all.
type ProductFilter struct {
	CategoryID *uint
	Featured   *bool
	ActiveOnly bool
}

func (f ProductFilter) match(p models.Product) bool {
	if f.ActiveOnly && !p.Active {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
		return false
	}
	return true
}

type ProductRepository interface {
	Repository[models.Product]
	Search(ctx context.Context, f ProductFilter) ([]models.Product, error)
	// DecrementStock atomically subtracts qty if and only if stock >= qty.
	DecrementStock(ctx context.Context, id uint, qty int) error
}

type CategoryRepository interface {
	Repository[models.Category]
	FindBySlug(ctx context.Context, slug string) (models.Category, error)
}

type OrderRepository interface {
	Repository[models.Order]
	// ListByStatus returns orders newest first; an empty status returns all.
	ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)
}

type UserRepository interface {
	Repository[models.User]
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// Store groups the repositories of one backend.
type Store interface {
	Products() ProductRepository
	Categories() CategoryRepository
	Orders() OrderRepository
	Users() UserRepository

	// Transaction runs fn against a transactional view of the store. If fn
	// returns an error nothing it wrote is kept.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
