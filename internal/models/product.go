package models

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the only currency the catalog prices products in.
const Currency = "INR"

// Dimensions holds the physical size of a product in centimetres.
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Seller is the vendor listing a product. It is owned by the product.
type Seller struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Website string `json:"website"`
}

// Product represents a catalog item. FinalPrice and Volume are derived and
// never stored.
type Product struct {
	ID              string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SKU             string     `json:"sku" gorm:"uniqueIndex;type:varchar(30)"`
	Name            string     `json:"name" gorm:"type:varchar(80)"`
	Description     string     `json:"description" gorm:"type:varchar(200)"`
	Category        string     `json:"category" gorm:"type:varchar(30)"`
	Brand           string     `json:"brand" gorm:"type:varchar(20)"`
	Price           float64    `json:"price"`
	Currency        string     `json:"currency" gorm:"type:varchar(3)"`
	DiscountPercent int        `json:"discount_percent"`
	Stock           int        `json:"stock"`
	IsActive        bool       `json:"is_active"`
	Rating          float64    `json:"rating"`
	Tags            []string   `json:"tags" gorm:"serializer:json"`
	ImageURLs       []string   `json:"image_urls" gorm:"serializer:json"`
	Dimensions      Dimensions `json:"dimensions_cm" gorm:"serializer:json"`
	Seller          Seller     `json:"seller" gorm:"serializer:json"`
	CreatedAt       time.Time  `json:"created_at"`
}

// FinalPrice is the price after discount, rounded to 2 decimals. The
// discount is applied in float64 and the result rounded half-to-even on the
// float's exact value.
func (p Product) FinalPrice() float64 {
	f := p.Price * (1 - float64(p.DiscountPercent)/100)
	return decimal.RequireFromString(strconv.FormatFloat(f, 'f', 2, 64)).InexactFloat64()
}

// Volume is length x width x height rounded half-to-even to a whole number
// of cm3.
func (d Dimensions) Volume() float64 {
	return math.RoundToEven(d.Length * d.Width * d.Height)
}

// MarshalJSON adds the derived fields to the encoded product.
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		FinalPrice float64 `json:"finalPrice"`
		Volume     float64 `json:"volume_cm3"`
	}{
		product:    product(p),
		FinalPrice: p.FinalPrice(),
		Volume:     p.Dimensions.Volume(),
	})
}
