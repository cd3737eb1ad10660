package repository

import (
	"context"
	"time"

	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type PaymentRepository struct {
	coll *mongo.Collection
}

func NewPaymentRepository(m *MongoRepository) *PaymentRepository {
	return &PaymentRepository{coll: m.collection(collPayments)}
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, p *models.PaymentRecord) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := r.coll.InsertOne(ctx, p)
	return mapError(err)
}

func (r *PaymentRepository) FindPayment(ctx context.Context, gatewayOrderID string, userID primitive.ObjectID) (*models.PaymentRecord, error) {
	return findOne[models.PaymentRecord](ctx, r.coll, bson.M{"razorpayOrderId": gatewayOrderID, "userId": userID})
}

func (r *PaymentRepository) MarkPaymentPaid(ctx context.Context, id primitive.ObjectID, gatewayPaymentID string) error {
	return r.setStatus(ctx, id, bson.M{
		"status":            models.PaymentStatusPaid,
		"razorpayPaymentId": gatewayPaymentID,
	})
}

func (r *PaymentRepository) MarkPaymentFailed(ctx context.Context, id primitive.ObjectID, reason string) error {
	return r.setStatus(ctx, id, bson.M{
		"status":        models.PaymentStatusFailed,
		"failureReason": reason,
	})
}

func (r *PaymentRepository) setStatus(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
