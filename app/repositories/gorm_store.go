package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shashiranjanraj/storefront/app/models"
)

// GormStore backs the repositories with any gorm dialect. Schema comes from
// database/migrations.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle (the transaction handle inside Transaction).
func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Products() ProductRepository {
	return &gormProductRepo{gormRepo[models.Product]{s.db, func(p *models.Product) *uint { return &p.ID }}}
}

func (s *GormStore) Categories() CategoryRepository {
	return &gormCategoryRepo{gormRepo[models.Category]{s.db, func(c *models.Category) *uint { return &c.ID }}}
}

func (s *GormStore) Orders() OrderRepository {
	return &gormOrderRepo{gormRepo[models.Order]{s.db, func(o *models.Order) *uint { return &o.ID }}}
}

func (s *GormStore) Users() UserRepository {
	return &gormUserRepo{gormRepo[models.User]{s.db, func(u *models.User) *uint { return &u.ID }}}
}

// Transaction runs fn inside db.Transaction. gorm turns a nested call into a
// savepoint, so joining an outer transaction is safe.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ─── Generic repository ───────────────────────────────────────────────────────

type gormRepo[T any] struct {
	db   *gorm.DB
	idOf func(*T) *uint
}

func (r gormRepo[T]) Get(ctx context.Context, id uint) (T, error) {
	var out T
	err := r.db.WithContext(ctx).First(&out, id).Error
	return out, translate(err)
}

func (r gormRepo[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	err := r.db.WithContext(ctx).Order("id").Find(&out).Error
	return out, translate(err)
}

func (r gormRepo[T]) Create(ctx context.Context, entity *T) error {
	return translate(r.db.WithContext(ctx).Create(entity).Error)
}

// Update reads the row under a row lock (where the dialect has one), applies
// the mutation and saves every column inside a single transaction.
func (r gormRepo[T]) Update(ctx context.Context, id uint, apply func(*T) error) (T, error) {
	var out T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).First(&out, id).Error; err != nil {
			return translate(err)
		}
		if err := apply(&out); err != nil {
			return err
		}
		*r.idOf(&out) = id
		return translate(tx.Save(&out).Error)
	})
	return out, err
}

func (r gormRepo[T]) Delete(ctx context.Context, id uint) error {
	var zero T
	res := r.db.WithContext(ctx).Delete(&zero, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── Entity repositories ──────────────────────────────────────────────────────

type gormProductRepo struct{ gormRepo[models.Product] }

func (r *gormProductRepo) Search(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if f.ActiveOnly {
		q = q.Where("active = ?", true)
	}
	if f.Featured != nil {
		q = q.Where("featured = ?", *f.Featured)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}

	var out []models.Product
	err := q.Order("id").Find(&out).Error
	return out, translate(err)
}

// DecrementStock is a single conditional UPDATE, so two concurrent buyers can
// never both take the last unit.
func (r *gormProductRepo) DecrementStock(ctx context.Context, id uint, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return translate(err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrInsufficientStock
}

type gormCategoryRepo struct{ gormRepo[models.Category] }

func (r *gormCategoryRepo) FindBySlug(ctx context.Context, slug string) (models.Category, error) {
	var out models.Category
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&out).Error
	return out, translate(err)
}

type gormOrderRepo struct{ gormRepo[models.Order] }

func (r *gormOrderRepo) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.Order
	err := q.Order("id desc").Find(&out).Error
	return out, translate(err)
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// forUpdate adds SELECT ... FOR UPDATE except on SQLite, which has no row
// locks and serialises writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

// isUniqueViolation catches drivers that do not translate errors for gorm.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
