package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/pkg/apperror"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/event"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

const (
	productsCachePrefix = "catalog:products:"
	categoriesCacheKey  = "catalog:categories"
)

// ProductQuery is the public listing filter. Category accepts an id or a
// slug; Featured accepts anything strconv.ParseBool does.
type ProductQuery struct {
	Category string
	Featured string
}

// CatalogService manages products and categories. Listings are cached and
// invalidated on every catalog write.
type CatalogService struct {
	store  repositories.Store
	cache  cache.Store
	events *event.Bus
	ttl    time.Duration
	now    func() time.Time
}

func NewCatalogService(store repositories.Store, c cache.Store, events *event.Bus, ttl time.Duration) *CatalogService {
	if c == nil {
		c = cache.NewMemory()
	}
	return &CatalogService{store: store, cache: c, events: events, ttl: ttl, now: time.Now}
}

// ─── Products ─────────────────────────────────────────────────────────────────

func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	filter := repositories.ProductFilter{ActiveOnly: true}

	if q.Featured != "" {
		b, err := strconv.ParseBool(q.Featured)
		if err != nil {
			return nil, apperror.InvalidField("featured", "The featured field must be true or false.")
		}
		filter.Featured = &b
	}

	if q.Category != "" {
		id, err := s.resolveCategory(ctx, q.Category)
		if errors.Is(err, repositories.ErrNotFound) {
			return []models.Product{}, nil
		}
		if err != nil {
			return nil, apperror.Internal("could not load category", err)
		}
		filter.CategoryID = &id
	}

	key := productsCacheKey(filter)
	var out []models.Product
	if s.cache.Get(ctx, key, &out) {
		return out, nil
	}

	out, err := s.store.Products().Search(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("could not list products", err)
	}
	if out == nil {
		out = []models.Product{}
	}
	if err := s.cache.Set(ctx, key, out, s.ttl); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache set failed", "key", key, "error", err)
	}
	return out, nil
}

func (s *CatalogService) resolveCategory(ctx context.Context, ref string) (uint, error) {
	if n, err := strconv.ParseUint(ref, 10, 64); err == nil {
		if _, err := s.store.Categories().Get(ctx, uint(n)); err != nil {
			return 0, err
		}
		return uint(n), nil
	}
	c, err := s.store.Categories().FindBySlug(ctx, strings.ToLower(ref))
	if err != nil {
		return 0, err
	}
	return c.ID, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (models.Product, error) {
	p, err := s.store.Products().Get(ctx, id)
	if err != nil {
		return models.Product{}, notFoundOr(err, "product", id)
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, req requests.CreateProduct) (models.Product, error) {
	errs := validate.Struct(req)
	if req.SalePrice != nil && *req.SalePrice >= req.Price && errs["salePrice"] == "" {
		errs["salePrice"] = "The sale price must be lower than the price."
	}
	if validate.HasErrors(errs) {
		return models.Product{}, apperror.Validation(errs)
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return models.Product{}, err
	}

	now := s.now()
	p := models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		SalePrice:   req.SalePrice,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		Image:       req.Image,
		Featured:    req.Featured,
		Active:      req.Active == nil || *req.Active,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Products().Create(ctx, &p); err != nil {
		return models.Product{}, apperror.Internal("could not create product", err)
	}
	s.changed(ctx, "product.created", p.ID)
	return p, nil
}

// UpdateProduct applies the non-nil fields of req. The sale-below-price rule
// is checked against the merged row, so lowering only the price can fail.
func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req requests.UpdateProduct) (models.Product, error) {
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		return models.Product{}, apperror.Validation(errs)
	}
	if req.CategoryID != nil && *req.CategoryID != 0 {
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return models.Product{}, err
		}
	}

	p, err := s.store.Products().Update(ctx, id, func(p *models.Product) error {
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.Price != nil {
			p.Price = *req.Price
		}
		if req.SalePrice != nil {
			if *req.SalePrice == 0 {
				p.SalePrice = nil
			} else {
				sale := *req.SalePrice
				p.SalePrice = &sale
			}
		}
		if req.Stock != nil {
			p.Stock = *req.Stock
		}
		if req.CategoryID != nil {
			if *req.CategoryID == 0 {
				p.CategoryID = nil
			} else {
				cid := *req.CategoryID
				p.CategoryID = &cid
			}
		}
		if req.Image != nil {
			p.Image = *req.Image
		}
		if req.Featured != nil {
			p.Featured = *req.Featured
		}
		if req.Active != nil {
			p.Active = *req.Active
		}
		if p.SalePrice != nil && *p.SalePrice >= p.Price {
			return apperror.InvalidField("salePrice", "The sale price must be lower than the price.")
		}
		p.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindValidation {
			return models.Product{}, err
		}
		return models.Product{}, notFoundOr(err, "product", id)
	}
	s.changed(ctx, "product.updated", id)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.store.Products().Delete(ctx, id); err != nil {
		return notFoundOr(err, "product", id)
	}
	s.changed(ctx, "product.deleted", id)
	return nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	_, err := s.store.Categories().Get(ctx, *id)
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return apperror.InvalidField("categoryId", "The selected category does not exist.")
	case err != nil:
		return apperror.Internal("could not load category", err)
	}
	return nil
}

// ─── Categories ───────────────────────────────────────────────────────────────

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	if s.cache.Get(ctx, categoriesCacheKey, &out) {
		return out, nil
	}
	out, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, apperror.Internal("could not list categories", err)
	}
	if out == nil {
		out = []models.Category{}
	}
	_ = s.cache.Set(ctx, categoriesCacheKey, out, s.ttl)
	return out, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (models.Category, error) {
	c, err := s.store.Categories().Get(ctx, id)
	if err != nil {
		return models.Category{}, notFoundOr(err, "category", id)
	}
	return c, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, req requests.CreateCategory) (models.Category, error) {
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		return models.Category{}, apperror.Validation(errs)
	}
	c := models.Category{Name: strings.TrimSpace(req.Name), Slug: req.Slug, Image: req.Image}
	if err := s.store.Categories().Create(ctx, &c); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return models.Category{}, apperror.InvalidField("slug", "The slug has already been taken.")
		}
		return models.Category{}, apperror.Internal("could not create category", err)
	}
	s.changed(ctx, "category.created", c.ID)
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, req requests.UpdateCategory) (models.Category, error) {
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		return models.Category{}, apperror.Validation(errs)
	}
	c, err := s.store.Categories().Update(ctx, id, func(c *models.Category) error {
		if req.Name != nil {
			c.Name = strings.TrimSpace(*req.Name)
		}
		if req.Slug != nil {
			c.Slug = *req.Slug
		}
		if req.Image != nil {
			c.Image = *req.Image
		}
		return nil
	})
	if errors.Is(err, repositories.ErrDuplicate) {
		return models.Category{}, apperror.InvalidField("slug", "The slug has already been taken.")
	}
	if err != nil {
		return models.Category{}, notFoundOr(err, "category", id)
	}
	s.changed(ctx, "category.updated", id)
	return c, nil
}

// DeleteCategory detaches the category's products and removes it in one
// transaction.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Categories().Get(ctx, id); err != nil {
			return err
		}
		linked, err := tx.Products().Search(ctx, repositories.ProductFilter{CategoryID: &id})
		if err != nil {
			return err
		}
		for _, p := range linked {
			if _, err := tx.Products().Update(ctx, p.ID, func(p *models.Product) error {
				p.CategoryID = nil
				return nil
			}); err != nil {
				return err
			}
		}
		return tx.Categories().Delete(ctx, id)
	})
	if err != nil {
		return notFoundOr(err, "category", id)
	}
	s.changed(ctx, "category.deleted", id)
	return nil
}

// ─── Cache ────────────────────────────────────────────────────────────────────

// Invalidate drops every cached listing. Also called when checkouts move
// stock.
func (s *CatalogService) Invalidate(ctx context.Context) {
	if err := s.cache.DelPrefix(ctx, productsCachePrefix); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache invalidation failed", "error", err)
	}
	if err := s.cache.Del(ctx, categoriesCacheKey); err != nil {
		logger.WithCtx(ctx).Warn("catalog: cache invalidation failed", "error", err)
	}
}

func (s *CatalogService) changed(ctx context.Context, what string, id uint) {
	s.Invalidate(ctx)
	logger.WithCtx(ctx).Info("catalog changed", "change", what, "id", id)
	s.events.Fire(ctx, EventCatalogChanged, what)
}

func productsCacheKey(f repositories.ProductFilter) string {
	cat, featured := "any", "any"
	if f.CategoryID != nil {
		cat = strconv.FormatUint(uint64(*f.CategoryID), 10)
	}
	if f.Featured != nil {
		featured = strconv.FormatBool(*f.Featured)
	}
	return fmt.Sprintf("%scategory=%s:featured=%s", productsCachePrefix, cat, featured)
}

// notFoundOr maps repositories.ErrNotFound to a 404 and anything else to a 500.
func notFoundOr(err error, resource string, id uint) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.NotFound(resource, id)
	}
	return apperror.Internal("could not access "+resource, err)
}
