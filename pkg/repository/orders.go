package repository

import (
	"context"
	"time"

	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type OrderRepository struct {
	coll *mongo.Collection
}

func NewOrderRepository(m *MongoRepository) *OrderRepository {
	return &OrderRepository{coll: m.collection(collOrders)}
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	order.CreatedAt, order.UpdatedAt = now, now

	_, err := r.coll.InsertOne(ctx, order)
	return mapError(err)
}

func (r *OrderRepository) FindOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return findOne[models.Order](ctx, r.coll, bson.M{"_id": id})
}

func (r *OrderRepository) FindOrderByPaymentID(ctx context.Context, paymentID string) (*models.Order, error) {
	return findOne[models.Order](ctx, r.coll, bson.M{"paymentInfo.razorpayPaymentId": paymentID})
}

func (r *OrderRepository) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	filter := bson.M{}
	if f.Status != nil {
		filter["orderStatus"] = *f.Status
	}
	if f.UserID != nil {
		filter["userId"] = *f.UserID
	}
	if f.From != nil || f.To != nil {
		created := bson.M{}
		if f.From != nil {
			created["$gte"] = *f.From
		}
		if f.To != nil {
			created["$lte"] = *f.To
		}
		filter["createdAt"] = created
	}
	return findAll[models.Order](ctx, r.coll, filter, newestFirst())
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	update := bson.M{"$set": bson.M{"orderStatus": status, "updatedAt": time.Now().UTC()}}
	var order models.Order
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, afterUpdate()).Decode(&order); err != nil {
		return nil, mapError(err)
	}
	return &order, nil
}

func (r *OrderRepository) UpdateOrderTracking(ctx context.Context, id primitive.ObjectID, trackingID, trackingURL string) (*models.Order, error) {
	update := bson.M{"$set": bson.M{
		"trackingId":  trackingID,
		"trackingUrl": trackingURL,
		"updatedAt":   time.Now().UTC(),
	}}
	var order models.Order
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, afterUpdate()).Decode(&order); err != nil {
		return nil, mapError(err)
	}
	return &order, nil
}

// ReferencedProductIDs returns the subset of productIDs that appear in at
// least one order's item list.
func (r *OrderRepository) ReferencedProductIDs(ctx context.Context, productIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	raw, err := r.coll.Distinct(ctx, "items.productId", bson.M{"items.productId": bson.M{"$in": productIDs}})
	if err != nil {
		return nil, err
	}

	wanted := make(map[primitive.ObjectID]struct{}, len(productIDs))
	for _, id := range productIDs {
		wanted[id] = struct{}{}
	}

	var used []primitive.ObjectID
	for _, v := range raw {
		id, ok := v.(primitive.ObjectID)
		if !ok {
			continue
		}
		if _, ok := wanted[id]; ok {
			used = append(used, id)
		}
	}
	return used, nil
}
