package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rating is the aggregate customer rating attached to a product. Both
// sub-fields default to zero so a product is never stored with a partially
// populated rating.
type Rating struct {
	Rate  float64 `json:"rate" gorm:"column:rating_rate;default:0"`
	Count int     `json:"count" gorm:"column:rating_count;default:0"`
}

// Product represents a catalog product. The primary store assigns IDs on
// creation; rating is persisted as the flattened rating_rate/rating_count
// column pair.
type Product struct {
	ID          uint   `json:"id" gorm:"primarykey"`
	Title       string `json:"title" gorm:"type:varchar(255);not null"`
	Price       Price  `json:"price" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category" gorm:"type:varchar(100)"`
	Image       string `json:"image" gorm:"type:text;not null"`
	Rating      Rating `json:"rating" gorm:"embedded"`
}

// TableName overrides the gorm table name.
func (Product) TableName() string {
	return "products"
}

// Price is a non-negative amount. Clients occasionally submit prices as
// numeric strings ("12.5"), so decoding accepts both forms and normalizes
// to a number.
type Price float64

// UnmarshalJSON accepts a JSON number or a quoted numeric string.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*p = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid price %q", s)
	}
	*p = Price(v)
	return nil
}

// Display formats the price with two decimal places for presentation.
// Anything that is not a finite number renders as "0.00".
func (p Price) Display() string {
	v := float64(p)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Valid reports whether the price is a finite, non-negative number.
func (p Price) Valid() bool {
	v := float64(p)
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// RatingPatch carries partial rating changes.
type RatingPatch struct {
	Rate  *float64 `json:"rate,omitempty"`
	Count *int     `json:"count,omitempty"`
}

// Patch is a partial product update. Nil fields are left untouched when the
// patch is applied, so an update never overwrites columns the caller did not
// supply.
type Patch struct {
	Title       *string      `json:"title,omitempty"`
	Price       *Price       `json:"price,omitempty"`
	Description *string      `json:"description,omitempty"`
	Category    *string      `json:"category,omitempty"`
	Image       *string      `json:"image,omitempty"`
	Rating      *RatingPatch `json:"rating,omitempty"`
}

// Apply merges the non-nil fields of the patch onto the product.
func (patch Patch) Apply(p *Product) {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.Rating != nil {
		if patch.Rating.Rate != nil {
			p.Rating.Rate = *patch.Rating.Rate
		}
		if patch.Rating.Count != nil {
			p.Rating.Count = *patch.Rating.Count
		}
	}
}

// Empty reports whether the patch carries no changes at all.
func (patch Patch) Empty() bool {
	return patch.Title == nil && patch.Price == nil && patch.Description == nil &&
		patch.Category == nil && patch.Image == nil && patch.Rating == nil
}

// FromPatch builds a product from a creation payload. Missing rating
// sub-fields fall back to zero.
func FromPatch(patch Patch) Product {
	var p Product
	patch.Apply(&p)
	return p
}
