package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Admin struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StoreName string             `bson:"storeName" json:"storeName"`
	Email     string             `bson:"email" json:"email"`
	Mobile    string             `bson:"mobile" json:"mobile"`
	Password  string             `bson:"password" json:"-"`
	FCMToken  string             `bson:"fcmToken,omitempty" json:"fcmToken,omitempty"`
	Currency  string             `bson:"currency" json:"currency"`
	TimeZone  string             `bson:"timeZone" json:"timeZone"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Store is the storefront profile owned by exactly one admin.
type Store struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AdminID      primitive.ObjectID `bson:"adminId" json:"adminId"`
	StoreName    string             `bson:"storeName" json:"storeName"`
	Mobile       string             `bson:"mobile" json:"mobile"`
	Email        string             `bson:"email" json:"email"`
	Currency     string             `bson:"currency" json:"currency"`
	Timezone     string             `bson:"timezone" json:"timezone"`
	LogoURL      *string            `bson:"logoUrl" json:"logoUrl"`
	LogoPublicID *string            `bson:"logoPublicId" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type StoreProfile struct {
	StoreName string
	Mobile    string
	Email     string
	Currency  string
	Timezone  string
}

type MobileUser struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName   string             `bson:"fullName" json:"fullName"`
	Email      string             `bson:"email" json:"email"`
	Mobile     string             `bson:"mobile" json:"mobile"`
	FCMToken   string             `bson:"fcmToken,omitempty" json:"fcmToken,omitempty"`
	DoorNumber string             `bson:"doorNumber,omitempty" json:"doorNumber,omitempty"`
	StreetArea string             `bson:"streetArea,omitempty" json:"streetArea,omitempty"`
	Landmark   string             `bson:"landmark,omitempty" json:"landmark,omitempty"`
	State      string             `bson:"state,omitempty" json:"state,omitempty"`
	City       string             `bson:"city,omitempty" json:"city,omitempty"`
	Pincode    string             `bson:"pincode,omitempty" json:"pincode,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MobileUserUpdate carries the profile fields a user may change; nil fields
// are left untouched.
type MobileUserUpdate struct {
	FullName   *string
	Mobile     *string
	FCMToken   *string
	DoorNumber *string
	StreetArea *string
	Landmark   *string
	State      *string
	City       *string
	Pincode    *string
}

type Customer struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Email     string             `bson:"email" json:"email"`
	Phone     string             `bson:"phone" json:"phone"`
	Address   string             `bson:"address,omitempty" json:"address,omitempty"`
	Pincode   string             `bson:"pincode,omitempty" json:"pincode,omitempty"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type CustomerUpdate struct {
	Username *string
	Email    *string
	Phone    *string
	Address  *string
	Pincode  *string
	Active   *bool
}

// NormalizeEmail lower-cases and trims an address the way unique email
// indexes expect it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
