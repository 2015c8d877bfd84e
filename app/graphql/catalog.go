// Package graphql exposes the catalog and price quotes as a read-only
// GraphQL schema:
//
//	{ products(category: "led-strips", featured: true) { id name effectivePrice category { slug } } }
//	{ quote(items: [{productId: 1, quantity: 2}]) { subtotal tax shipping total } }
package graphql

import (
	"strconv"

	gql "github.com/graphql-go/graphql"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/requests"
	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/apperror"
	schemautil "github.com/shashiranjanraj/storefront/pkg/graphql"
)

// NewSchema builds the storefront schema on top of the catalog and order
// services. Results come from the same cached reads the REST API uses.
func NewSchema(catalog *services.CatalogService, orders *services.OrderService) (gql.Schema, error) {
	categoryType := gql.NewObject(gql.ObjectConfig{
		Name: "Category",
		Fields: gql.Fields{
			"id":    &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"name":  &gql.Field{Type: gql.NewNonNull(gql.String)},
			"slug":  &gql.Field{Type: gql.NewNonNull(gql.String)},
			"image": &gql.Field{Type: gql.String},
		},
	})

	productType := gql.NewObject(gql.ObjectConfig{
		Name: "Product",
		Fields: gql.Fields{
			"id":          &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"name":        &gql.Field{Type: gql.NewNonNull(gql.String)},
			"description": &gql.Field{Type: gql.String},
			"image":       &gql.Field{Type: gql.String},
			"price":       &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"stock":       &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"featured":    &gql.Field{Type: gql.NewNonNull(gql.Boolean)},
			"salePrice": &gql.Field{
				Type: gql.Int,
				Resolve: func(p gql.ResolveParams) (any, error) {
					prod := p.Source.(models.Product)
					if !prod.OnSale() {
						return nil, nil
					}
					return *prod.SalePrice, nil
				},
			},
			"effectivePrice": &gql.Field{
				Type: gql.NewNonNull(gql.Int),
				Resolve: func(p gql.ResolveParams) (any, error) {
					return p.Source.(models.Product).EffectivePrice(), nil
				},
			},
			"onSale": &gql.Field{
				Type: gql.NewNonNull(gql.Boolean),
				Resolve: func(p gql.ResolveParams) (any, error) {
					return p.Source.(models.Product).OnSale(), nil
				},
			},
			"category": &gql.Field{
				Type: categoryType,
				Resolve: func(p gql.ResolveParams) (any, error) {
					prod := p.Source.(models.Product)
					if prod.CategoryID == nil {
						return nil, nil
					}
					c, err := catalog.GetCategory(p.Context, *prod.CategoryID)
					if apperror.KindOf(err) == apperror.KindNotFound {
						return nil, nil
					}
					return c, err
				},
			},
		},
	})

	totalsType := gql.NewObject(gql.ObjectConfig{
		Name: "Totals",
		Fields: gql.Fields{
			"subtotal": &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"tax":      &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"shipping": &gql.Field{Type: gql.NewNonNull(gql.Int)},
			"total":    &gql.Field{Type: gql.NewNonNull(gql.Int)},
		},
	})

	lineInput := gql.NewInputObject(gql.InputObjectConfig{
		Name: "LineInput",
		Fields: gql.InputObjectConfigFieldMap{
			"productId": &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.Int)},
			"quantity":  &gql.InputObjectFieldConfig{Type: gql.NewNonNull(gql.Int)},
		},
	})

	query := gql.NewObject(gql.ObjectConfig{
		Name: "Query",
		Fields: gql.Fields{
			"products": &gql.Field{
				Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(productType))),
				Args: gql.FieldConfigArgument{
					"category": &gql.ArgumentConfig{Type: gql.String},
					"featured": &gql.ArgumentConfig{Type: gql.Boolean},
				},
				Resolve: func(p gql.ResolveParams) (any, error) {
					q := services.ProductQuery{}
					if c, ok := p.Args["category"].(string); ok {
						q.Category = c
					}
					if f, ok := p.Args["featured"].(bool); ok {
						q.Featured = strconv.FormatBool(f)
					}
					return catalog.ListProducts(p.Context, q)
				},
			},
			"product": &gql.Field{
				Type: productType,
				Args: gql.FieldConfigArgument{
					"id": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.Int)},
				},
				Resolve: func(p gql.ResolveParams) (any, error) {
					id, _ := p.Args["id"].(int)
					if id <= 0 {
						return nil, nil
					}
					prod, err := catalog.GetProduct(p.Context, uint(id))
					if apperror.KindOf(err) == apperror.KindNotFound {
						return nil, nil
					}
					return prod, err
				},
			},
			"categories": &gql.Field{
				Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(categoryType))),
				Resolve: func(p gql.ResolveParams) (any, error) {
					return catalog.ListCategories(p.Context)
				},
			},
			"category": &gql.Field{
				Type: categoryType,
				Args: gql.FieldConfigArgument{
					"slug": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.String)},
				},
				Resolve: func(p gql.ResolveParams) (any, error) {
					slug, _ := p.Args["slug"].(string)
					cats, err := catalog.ListCategories(p.Context)
					if err != nil {
						return nil, err
					}
					for _, c := range cats {
						if c.Slug == slug {
							return c, nil
						}
					}
					return nil, nil
				},
			},
			"quote": &gql.Field{
				Type: gql.NewNonNull(totalsType),
				Args: gql.FieldConfigArgument{
					"items": &gql.ArgumentConfig{Type: gql.NewNonNull(gql.NewList(gql.NewNonNull(lineInput)))},
				},
				Resolve: func(p gql.ResolveParams) (any, error) {
					raw, _ := p.Args["items"].([]any)
					req := requests.Quote{Items: make([]requests.OrderLine, 0, len(raw))}
					for _, it := range raw {
						m, _ := it.(map[string]any)
						id, _ := m["productId"].(int)
						qty, _ := m["quantity"].(int)
						if id < 0 {
							id = 0
						}
						req.Items = append(req.Items, requests.OrderLine{ProductID: uint(id), Quantity: qty})
					}
					return orders.Quote(p.Context, req)
				},
			},
		},
	})

	return schemautil.NewSchema(query)
}
