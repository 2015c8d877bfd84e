package requests

type CreateProduct struct {
	Name        string `json:"name"        validate:"required,min=2,max=255"`
	Description string `json:"description" validate:"max=5000"`
	Price       int64  `json:"price"       validate:"gt=0"`
	SalePrice   *int64 `json:"salePrice"   validate:"omitempty,gt=0"`
	Stock       int    `json:"stock"       validate:"gte=0"`
	CategoryID  *uint  `json:"categoryId"  validate:"omitempty,gte=1"`
	Image       string `json:"image"       validate:"max=512"`
	Featured    bool   `json:"featured"`
	// Active defaults to true when omitted.
	Active *bool `json:"active"`
}

// UpdateProduct is a partial update; nil fields are left untouched.
// A SalePrice of 0 ends the sale and a CategoryID of 0 detaches the category.
type UpdateProduct struct {
	Name        *string `json:"name"        validate:"omitempty,min=2,max=255"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Price       *int64  `json:"price"       validate:"omitempty,gt=0"`
	SalePrice   *int64  `json:"salePrice"   validate:"omitempty,gte=0"`
	Stock       *int    `json:"stock"       validate:"omitempty,gte=0"`
	CategoryID  *uint   `json:"categoryId"  validate:"omitempty,gte=0"`
	Image       *string `json:"image"       validate:"omitempty,max=512"`
	Featured    *bool   `json:"featured"`
	Active      *bool   `json:"active"`
}

type CreateCategory struct {
	Name  string `json:"name"  validate:"required,min=2,max=255"`
	Slug  string `json:"slug"  validate:"required,slug,max=255"`
	Image string `json:"image" validate:"max=512"`
}

type UpdateCategory struct {
	Name  *string `json:"name"  validate:"omitempty,min=2,max=255"`
	Slug  *string `json:"slug"  validate:"omitempty,slug,max=255"`
	Image *string `json:"image" validate:"omitempty,max=512"`
}

type Login struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}
