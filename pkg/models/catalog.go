package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"categoryName" json:"categoryName"`
	ImageURL      *string            `bson:"imageUrl" json:"imageUrl"`
	ImagePublicID *string            `bson:"imagePublicId" json:"-"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type Subcategory struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CategoryID primitive.ObjectID `bson:"categoryId" json:"categoryId"`
	Name       string             `bson:"subcategoryName" json:"subcategoryName"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ImageFields are the four product image slots, in display order.
var ImageFields = []string{"image_url1", "image_url2", "image_url3", "image_url4"}

type Product struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name           string              `bson:"productname" json:"productname"`
	Size           string              `bson:"size,omitempty" json:"size,omitempty"`
	Details        string              `bson:"product_details,omitempty" json:"product_details,omitempty"`
	CategoryID     primitive.ObjectID  `bson:"categoryId" json:"categoryId"`
	SubcategoryID  *primitive.ObjectID `bson:"sub_categoryId,omitempty" json:"sub_categoryId,omitempty"`
	MRP            float64             `bson:"mrp" json:"mrp"`
	StorePrice     float64             `bson:"store_price" json:"store_price"`
	Offer          string              `bson:"offer,omitempty" json:"offer,omitempty"`
	VideoURL       string              `bson:"video_url,omitempty" json:"video_url,omitempty"`
	ShowWarning    bool                `bson:"show_warning" json:"show_warning"`
	ImageURL1      string              `bson:"image_url1,omitempty" json:"image_url1,omitempty"`
	ImagePublicID1 string              `bson:"image_url1_public_id,omitempty" json:"-"`
	ImageURL2      string              `bson:"image_url2,omitempty" json:"image_url2,omitempty"`
	ImagePublicID2 string              `bson:"image_url2_public_id,omitempty" json:"-"`
	ImageURL3      string              `bson:"image_url3,omitempty" json:"image_url3,omitempty"`
	ImagePublicID3 string              `bson:"image_url3_public_id,omitempty" json:"-"`
	ImageURL4      string              `bson:"image_url4,omitempty" json:"image_url4,omitempty"`
	ImagePublicID4 string              `bson:"image_url4_public_id,omitempty" json:"-"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ImagePublicIDs returns the hosted image ids attached to the product.
func (p *Product) ImagePublicIDs() []string {
	var ids []string
	for _, id := range []string{p.ImagePublicID1, p.ImagePublicID2, p.ImagePublicID3, p.ImagePublicID4} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ImageSlot returns the public id currently stored in field.
func (p *Product) ImageSlot(field string) (publicID string, ok bool) {
	switch field {
	case "image_url1":
		return p.ImagePublicID1, true
	case "image_url2":
		return p.ImagePublicID2, true
	case "image_url3":
		return p.ImagePublicID3, true
	case "image_url4":
		return p.ImagePublicID4, true
	}
	return "", false
}

// SetImage stores url and publicID in field.
func (p *Product) SetImage(field, url, publicID string) bool {
	switch field {
	case "image_url1":
		p.ImageURL1, p.ImagePublicID1 = url, publicID
	case "image_url2":
		p.ImageURL2, p.ImagePublicID2 = url, publicID
	case "image_url3":
		p.ImageURL3, p.ImagePublicID3 = url, publicID
	case "image_url4":
		p.ImageURL4, p.ImagePublicID4 = url, publicID
	default:
		return false
	}
	return true
}

// ProductInput is the writable product surface shared by create and update.
type ProductInput struct {
	Name          string
	Size          string
	Details       string
	CategoryID    primitive.ObjectID
	SubcategoryID *primitive.ObjectID
	MRP           float64
	StorePrice    float64
	Offer         string
	VideoURL      string
	ShowWarning   bool
}

// SearchProduct is a product flattened with its category and subcategory
// names for search results.
type SearchProduct struct {
	ID              primitive.ObjectID  `json:"_id"`
	Name            string              `json:"productname"`
	Size            string              `json:"size,omitempty"`
	Details         string              `json:"product_details,omitempty"`
	CategoryID      *primitive.ObjectID `json:"categoryId"`
	CategoryName    *string             `json:"categoryName"`
	SubcategoryID   *primitive.ObjectID `json:"sub_categoryId"`
	SubcategoryName *string             `json:"subcategoryName"`
	MRP             float64             `json:"mrp"`
	StorePrice      float64             `json:"store_price"`
	Offer           string              `json:"offer,omitempty"`
	VideoURL        string              `json:"video_url,omitempty"`
	ShowWarning     bool                `json:"show_warning"`
	ImageURL1       string              `json:"image_url1,omitempty"`
}

// CategoryGroup is a category with the products filed under it.
type CategoryGroup struct {
	ID           primitive.ObjectID `json:"_id"`
	CategoryName string             `json:"categoryName"`
	ImageURL     *string            `json:"imageUrl"`
	Products     []Product          `json:"products"`
}
