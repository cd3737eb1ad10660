package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Setting holds storefront texts and delivery pricing for one store owner.
type Setting struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StoreID           primitive.ObjectID `bson:"storeId" json:"storeId"`
	MarqueeText       string             `bson:"marquee_text" json:"marquee_text"`
	BannerText        string             `bson:"banner_text" json:"banner_text"`
	DeliveryCharge    *float64           `bson:"deliveryCharge,omitempty" json:"deliveryCharge,omitempty"`
	FreeDeliveryAbove *float64           `bson:"freeDeliveryAbove,omitempty" json:"freeDeliveryAbove,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Banner struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ImageURL  string             `bson:"imageUrl" json:"imageUrl"`
	PublicID  string             `bson:"publicId" json:"publicId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
