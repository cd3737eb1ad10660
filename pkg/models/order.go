package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "PLACED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusReturned  OrderStatus = "RETURNED"
)

var orderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturned,
}

// OrderStatuses returns the fixed set of statuses an order may take.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

// ParseOrderStatus reports whether s names one of the allowed statuses.
// Matching is exact; "shipped" is not SHIPPED.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range orderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "ONLINE"
	PaymentMethodCOD    PaymentMethod = "COD"
)

type OrderItem struct {
	ProductID   primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName string             `bson:"productName,omitempty" json:"productName,omitempty"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	Price       float64            `bson:"price" json:"price"`
}

// Address is the delivery address snapshot stored on an order and on the
// mobile user profile.
type Address struct {
	FullName   string `bson:"fullName,omitempty" json:"fullName,omitempty"`
	Mobile     string `bson:"mobile,omitempty" json:"mobile,omitempty"`
	DoorNumber string `bson:"doorNumber,omitempty" json:"doorNumber,omitempty"`
	StreetArea string `bson:"streetArea" json:"streetArea"`
	Landmark   string `bson:"landmark,omitempty" json:"landmark,omitempty"`
	State      string `bson:"state" json:"state"`
	City       string `bson:"city" json:"city"`
	Pincode    string `bson:"pincode" json:"pincode"`
}

// MissingFields lists the mandatory geographic fields that are blank.
func (a Address) MissingFields() []string {
	var missing []string
	if isBlank(a.StreetArea) {
		missing = append(missing, "streetArea")
	}
	if isBlank(a.State) {
		missing = append(missing, "state")
	}
	if isBlank(a.City) {
		missing = append(missing, "city")
	}
	if isBlank(a.Pincode) {
		missing = append(missing, "pincode")
	}
	return missing
}

type PaymentInfo struct {
	RazorpayOrderID   string `bson:"razorpayOrderId" json:"razorpay_order_id"`
	RazorpayPaymentID string `bson:"razorpayPaymentId" json:"razorpay_payment_id"`
}

type Order struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Items         []OrderItem        `bson:"items" json:"items"`
	TotalAmount   float64            `bson:"totalAmount" json:"totalAmount"`
	Address       Address            `bson:"address" json:"address"`
	PaymentMethod PaymentMethod      `bson:"paymentMethod" json:"paymentMethod"`
	PaymentInfo   *PaymentInfo       `bson:"paymentInfo,omitempty" json:"paymentInfo,omitempty"`
	OrderStatus   OrderStatus        `bson:"orderStatus" json:"orderStatus"`
	TrackingID    *string            `bson:"trackingId" json:"trackingId"`
	TrackingURL   *string            `bson:"trackingUrl" json:"trackingUrl"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProductIDs returns the distinct product ids referenced by the order items.
func (o *Order) ProductIDs() []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(o.Items))
	ids := make([]primitive.ObjectID, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	return ids
}

type OrderFilter struct {
	Status *OrderStatus
	UserID *primitive.ObjectID
	From   *time.Time
	To     *time.Time
}
