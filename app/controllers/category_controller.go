package controllers

import (
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

type CategoryController struct {
	catalog *services.CatalogService
}

func NewCategoryController(catalog *services.CatalogService) *CategoryController {
	return &CategoryController{catalog: catalog}
}

func (cc *CategoryController) Index(c *ctx.Context) {
	cats, err := cc.catalog.ListCategories(c.Context())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cats)
}

func (cc *CategoryController) Show(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	cat, err := cc.catalog.GetCategory(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cat)
}

func (cc *CategoryController) Store(c *ctx.Context) {
	var req requests.CreateCategory
	if !c.DecodeJSON(&req) {
		return
	}
	cat, err := cc.catalog.CreateCategory(c.Context(), req)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(cat)
}

func (cc *CategoryController) Update(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	var req requests.UpdateCategory
	if !c.DecodeJSON(&req) {
		return
	}
	cat, err := cc.catalog.UpdateCategory(c.Context(), id, req)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(cat)
}

// Destroy deletes the category; its products stay, uncategorised.
func (cc *CategoryController) Destroy(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	if err := cc.catalog.DeleteCategory(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}
