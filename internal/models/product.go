package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is the read-only catalog view used for pricing and shipping weight.
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Price       float64            `bson:"price" json:"price"`
	SaleEnabled bool               `bson:"saleEnabled" json:"saleEnabled"`
	SalePrice   float64            `bson:"salePrice" json:"salePrice"`
	Weight      float64            `bson:"weight,omitempty" json:"weight,omitempty"`
	Category    StringList         `bson:"category" json:"category"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	IsDeleted   bool               `bson:"isDeleted" json:"isDeleted,omitempty"`
}

// IsOnSale reports whether the sale price currently undercuts the list price.
func (p Product) IsOnSale() bool {
	return p.SaleEnabled && p.SalePrice > 0 && p.SalePrice < p.Price
}

// EffectivePrice is the unit price an order is charged for this product.
func (p Product) EffectivePrice() float64 {
	if p.IsOnSale() {
		return p.SalePrice
	}
	return p.Price
}
