package models

import "github.com/google/uuid"

// DimensionsInput is the request shape of Dimensions.
type DimensionsInput struct {
	Length *float64 `json:"length" validate:"required,gt=0"`
	Width  *float64 `json:"width" validate:"required,gt=0"`
	Height *float64 `json:"height" validate:"required,gt=0"`
}

// SellerInput is the request shape of Seller.
type SellerInput struct {
	ID      *string `json:"id" validate:"required,uuid_any"`
	Name    *string `json:"name" validate:"required,min=2,max=60"`
	Email   *string `json:"email" validate:"required,email,seller_domain"`
	Website *string `json:"website" validate:"required,url"`
}

// ProductInput is the body accepted when creating a product. Pointer fields
// let validation tell a missing value from a zero one.
type ProductInput struct {
	SKU             *string          `json:"sku" validate:"required,min=6,max=30,sku_hyphen,sku_suffix"`
	Name            *string          `json:"name" validate:"required,min=3,max=80"`
	Description     *string          `json:"description" validate:"required,max=200"`
	Category        *string          `json:"category" validate:"required,min=3,max=30"`
	Brand           *string          `json:"brand" validate:"required,min=2,max=20"`
	Price           *float64         `json:"price" validate:"required,gt=0"`
	Currency        *string          `json:"currency" validate:"omitempty,eq=INR"`
	DiscountPercent *int             `json:"discount_percent" validate:"omitempty,gte=0,lte=90"`
	Stock           *int             `json:"stock" validate:"required,gte=0"`
	IsActive        *bool            `json:"is_active" validate:"required"`
	Rating          *float64         `json:"rating" validate:"required,gte=0,lte=5"`
	Tags            []string         `json:"tags" validate:"omitempty,max=10"`
	ImageURLs       []string         `json:"image_urls" validate:"required,min=1,max=10,dive,url"`
	Dimensions      *DimensionsInput `json:"dimensions_cm" validate:"required"`
	Seller          *SellerInput     `json:"seller" validate:"required"`
}

// ToProduct copies a validated input into a Product, applying defaults.
// The caller assigns ID and CreatedAt.
func (in *ProductInput) ToProduct() *Product {
	p := &Product{
		SKU:         *in.SKU,
		Name:        *in.Name,
		Description: *in.Description,
		Category:    *in.Category,
		Brand:       *in.Brand,
		Price:       *in.Price,
		Currency:    Currency,
		Stock:       *in.Stock,
		IsActive:    *in.IsActive,
		Rating:      *in.Rating,
		Tags:        in.Tags,
		ImageURLs:   in.ImageURLs,
		Dimensions: Dimensions{
			Length: *in.Dimensions.Length,
			Width:  *in.Dimensions.Width,
			Height: *in.Dimensions.Height,
		},
		Seller: Seller{
			ID:      canonicalUUID(*in.Seller.ID),
			Name:    *in.Seller.Name,
			Email:   *in.Seller.Email,
			Website: *in.Seller.Website,
		},
	}
	if in.DiscountPercent != nil {
		p.DiscountPercent = *in.DiscountPercent
	}
	return p
}

// canonicalUUID returns id in lower-case hyphenated form, or id unchanged
// if it does not parse.
func canonicalUUID(id string) string {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return parsed.String()
}
