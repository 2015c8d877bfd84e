package seeders

import (
	"context"
	"errors"
	"time"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
)

func init() {
	Register("catalog", SeedCatalog)
}

var sampleCategories = []models.Category{
	{Name: "Pendant Lights", Slug: "pendant-lights", Image: "https://images.unsplash.com/photo-1513506003901-1e6a229e2d15?auto=format&fit=crop&w=500&h=500"},
	{Name: "LED Strips", Slug: "led-strips", Image: "https://images.unsplash.com/photo-1558002038-1055907df827?auto=format&fit=crop&w=500&h=500"},
	{Name: "Spotlights", Slug: "spotlights", Image: "https://images.unsplash.com/photo-1513694203232-719a280e022f?auto=format&fit=crop&w=500&h=500"},
	{Name: "Outdoor Lighting", Slug: "outdoor-lighting", Image: "https://images.unsplash.com/photo-1565538420870-da08ff96a207?auto=format&fit=crop&w=500&h=500"},
}

type sampleProduct struct {
	category string
	product  models.Product
}

func price(v int64) *int64 { return &v }

var sampleProducts = []sampleProduct{
	{"pendant-lights", models.Product{
		Name:        "Smart LED Bulb",
		Description: "Color changing, compatible with Alexa & Google Home. Multiple vibrant colors, adjustable brightness and smart home support.",
		Price:       79900, Stock: 45, Featured: true,
		Image: "https://images.unsplash.com/photo-1565814329452-e1efa11c5b89?auto=format&fit=crop&w=800&h=800",
	}},
	{"led-strips", models.Product{
		Name:        "LED Strip Light Kit",
		Description: "16 colors, remote controlled, 5m length. Accent lighting for living rooms, bedrooms and entertainment areas.",
		Price:       129900, Stock: 32, Featured: true,
		Image: "https://images.unsplash.com/photo-1558002038-1055907df827?auto=format&fit=crop&w=800&h=800",
	}},
	{"pendant-lights", models.Product{
		Name:        "Designer Pendant Light",
		Description: "Modern geometric design, adjustable height.",
		Price:       249900, Stock: 18, Featured: true,
		Image: "https://images.unsplash.com/photo-1513506003901-1e6a229e2d15?auto=format&fit=crop&w=800&h=800",
	}},
	// The listed sale price is above the regular price, so shoppers pay 999.
	{"outdoor-lighting", models.Product{
		Name:        "Solar Garden Lights",
		Description: "Set of 6, waterproof, auto on/off at dusk.",
		Price:       99900, SalePrice: price(149900), Stock: 0, Featured: true,
		Image: "https://images.unsplash.com/photo-1565538420870-da08ff96a207?auto=format&fit=crop&w=500&h=400",
	}},
	{"spotlights", models.Product{
		Name:        "Recessed Spotlight",
		Description: "Adjustable angle, warm white, 12W.",
		Price:       69900, Stock: 25,
		Image: "https://images.unsplash.com/photo-1513694203232-719a280e022f?auto=format&fit=crop&w=800&h=800",
	}},
	{"pendant-lights", models.Product{
		Name:        "LED Desk Lamp",
		Description: "Touch control, 5 brightness levels, USB charging port.",
		Price:       149900, Stock: 12,
		Image: "https://images.unsplash.com/photo-1507473885765-e6ed057f782c?auto=format&fit=crop&w=800&h=800",
	}},
	{"pendant-lights", models.Product{
		Name:        "Wall Sconce Light",
		Description: "Indoor, geometric design, warm light.",
		Price:       189900, Stock: 15,
		Image: "https://images.unsplash.com/photo-1517991104123-1d56a6e81ed9?auto=format&fit=crop&w=500&h=400",
	}},
	{"led-strips", models.Product{
		Name:        "LED Fairy Lights",
		Description: "String lights, 10m, battery operated.",
		Price:       59900, Stock: 40,
		Image: "https://images.unsplash.com/photo-1513151233558-d860c5398176?auto=format&fit=crop&w=800&h=800",
	}},
}

// SeedCatalog creates the sample categories (matched by slug) and, when the
// catalog has no products yet, the sample products.
func SeedCatalog(ctx context.Context, store repositories.Store) error {
	return store.Transaction(ctx, func(tx repositories.Store) error {
		ids := make(map[string]uint, len(sampleCategories))
		for _, c := range sampleCategories {
			existing, err := tx.Categories().FindBySlug(ctx, c.Slug)
			switch {
			case err == nil:
				ids[c.Slug] = existing.ID
				continue
			case !errors.Is(err, repositories.ErrNotFound):
				return err
			}
			if err := tx.Categories().Create(ctx, &c); err != nil {
				return err
			}
			ids[c.Slug] = c.ID
		}

		products, err := tx.Products().List(ctx)
		if err != nil {
			return err
		}
		if len(products) > 0 {
			return nil
		}
		now := time.Now()
		for _, s := range sampleProducts {
			p := s.product.Clone()
			id := ids[s.category]
			p.CategoryID = &id
			p.Active = true
			p.CreatedAt, p.UpdatedAt = now, now
			if err := tx.Products().Create(ctx, &p); err != nil {
				return err
			}
		}
		return nil
	})
}
