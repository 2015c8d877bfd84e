package controllers

import (
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

type ProductController struct {
	catalog *services.CatalogService
}

func NewProductController(catalog *services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// Index lists active products, optionally filtered by ?category= (id or
// slug) and ?featured=.
func (pc *ProductController) Index(c *ctx.Context) {
	products, err := pc.catalog.ListProducts(c.Context(), services.ProductQuery{
		Category: c.Query("category"),
		Featured: c.Query("featured"),
	})
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(products)
}

func (pc *ProductController) Show(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	p, err := pc.catalog.GetProduct(c.Context(), id)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Store(c *ctx.Context) {
	var req requests.CreateProduct
	if !c.DecodeJSON(&req) {
		return
	}
	p, err := pc.catalog.CreateProduct(c.Context(), req)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Created(p)
}

func (pc *ProductController) Update(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	var req requests.UpdateProduct
	if !c.DecodeJSON(&req) {
		return
	}
	p, err := pc.catalog.UpdateProduct(c.Context(), id, req)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Destroy(c *ctx.Context) {
	id, ok := c.ParamID("id")
	if !ok {
		return
	}
	if err := pc.catalog.DeleteProduct(c.Context(), id); err != nil {
		c.Fail(err)
		return
	}
	c.NoContent()
}
