package repository

import (
	"context"
	"time"

	"github.com/example/storefront/pkg/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AdminRepository struct {
	admins *mongo.Collection
	stores *mongo.Collection
}

func NewAdminRepository(m *MongoRepository) *AdminRepository {
	return &AdminRepository{
		admins: m.collection(collAdmins),
		stores: m.collection(collStores),
	}
}

func (r *AdminRepository) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	if admin.ID.IsZero() {
		admin.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	admin.CreatedAt, admin.UpdatedAt = now, now

	_, err := r.admins.InsertOne(ctx, admin)
	return mapError(err)
}

func (r *AdminRepository) FindAdmin(ctx context.Context, id primitive.ObjectID) (*models.Admin, error) {
	return findOne[models.Admin](ctx, r.admins, bson.M{"_id": id})
}

func (r *AdminRepository) FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return findOne[models.Admin](ctx, r.admins, bson.M{"email": models.NormalizeEmail(email)})
}

func (r *AdminRepository) UpdateAdminPassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	return r.setAdmin(ctx, id, bson.M{"password": hash})
}

func (r *AdminRepository) UpdateAdminDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return r.setAdmin(ctx, id, bson.M{"fcmToken": token})
}

// AdminDeviceTokens returns the device tokens of every active admin that has
// registered one.
func (r *AdminRepository) AdminDeviceTokens(ctx context.Context) ([]string, error) {
	filter := bson.M{"isActive": true, "fcmToken": bson.M{"$nin": bson.A{nil, ""}}}
	opts := options.Find().SetProjection(bson.M{"fcmToken": 1})
	admins, err := findAll[models.Admin](ctx, r.admins, filter, opts)
	if err != nil {
		return nil, err
	}
	tokens := make([]string, 0, len(admins))
	for _, a := range admins {
		tokens = append(tokens, a.FCMToken)
	}
	return tokens, nil
}

func (r *AdminRepository) setAdmin(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	res, err := r.admins.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *AdminRepository) FindStore(ctx context.Context, adminID primitive.ObjectID) (*models.Store, error) {
	return findOne[models.Store](ctx, r.stores, bson.M{"adminId": adminID})
}

// SaveStore upserts the profile of the store owned by adminID.
func (r *AdminRepository) SaveStore(ctx context.Context, adminID primitive.ObjectID, p models.StoreProfile) (*models.Store, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"storeName": p.StoreName,
			"mobile":    p.Mobile,
			"email":     models.NormalizeEmail(p.Email),
			"currency":  p.Currency,
			"timezone":  p.Timezone,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"adminId":      adminID,
			"logoUrl":      nil,
			"logoPublicId": nil,
			"createdAt":    now,
		},
	}
	opts := afterUpdate().SetUpsert(true)

	var store models.Store
	if err := r.stores.FindOneAndUpdate(ctx, bson.M{"adminId": adminID}, update, opts).Decode(&store); err != nil {
		return nil, mapError(err)
	}
	return &store, nil
}

func (r *AdminRepository) UpdateStoreLogo(ctx context.Context, adminID primitive.ObjectID, url, publicID string) (*models.Store, error) {
	update := bson.M{"$set": bson.M{
		"logoUrl":      url,
		"logoPublicId": publicID,
		"updatedAt":    time.Now().UTC(),
	}}
	var store models.Store
	if err := r.stores.FindOneAndUpdate(ctx, bson.M{"adminId": adminID}, update, afterUpdate()).Decode(&store); err != nil {
		return nil, mapError(err)
	}
	return &store, nil
}

type MobileUserRepository struct {
	coll *mongo.Collection
}

func NewMobileUserRepository(m *MongoRepository) *MobileUserRepository {
	return &MobileUserRepository{coll: m.collection(collMobileUsers)}
}

func (r *MobileUserRepository) CreateMobileUser(ctx context.Context, u *models.MobileUser) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Email = models.NormalizeEmail(u.Email)

	_, err := r.coll.InsertOne(ctx, u)
	return mapError(err)
}

func (r *MobileUserRepository) FindMobileUser(ctx context.Context, id primitive.ObjectID) (*models.MobileUser, error) {
	return findOne[models.MobileUser](ctx, r.coll, bson.M{"_id": id})
}

func (r *MobileUserRepository) FindMobileUserByEmail(ctx context.Context, email string) (*models.MobileUser, error) {
	return findOne[models.MobileUser](ctx, r.coll, bson.M{"email": models.NormalizeEmail(email)})
}

func (r *MobileUserRepository) UpdateMobileUser(ctx context.Context, id primitive.ObjectID, upd models.MobileUserUpdate) (*models.MobileUser, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	setIf := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	setIf("fullName", upd.FullName)
	setIf("mobile", upd.Mobile)
	setIf("fcmToken", upd.FCMToken)
	setIf("doorNumber", upd.DoorNumber)
	setIf("streetArea", upd.StreetArea)
	setIf("landmark", upd.Landmark)
	setIf("state", upd.State)
	setIf("city", upd.City)
	setIf("pincode", upd.Pincode)

	var user models.MobileUser
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, afterUpdate()).Decode(&user); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

type CustomerRepository struct {
	coll *mongo.Collection
}

func NewCustomerRepository(m *MongoRepository) *CustomerRepository {
	return &CustomerRepository{coll: m.collection(collCustomers)}
}

func (r *CustomerRepository) CreateCustomer(ctx context.Context, c *models.Customer) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	c.Email = models.NormalizeEmail(c.Email)

	_, err := r.coll.InsertOne(ctx, c)
	return mapError(err)
}

func (r *CustomerRepository) FindCustomer(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	return findOne[models.Customer](ctx, r.coll, bson.M{"_id": id})
}

func (r *CustomerRepository) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	return findAll[models.Customer](ctx, r.coll, bson.M{}, newestFirst())
}

func (r *CustomerRepository) SaveCustomer(ctx context.Context, c *models.Customer) error {
	c.UpdatedAt = time.Now().UTC()
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": c.ID}, c)
	if err != nil {
		return mapError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CustomerRepository) DeleteCustomer(ctx context.Context, id primitive.ObjectID) error {
	return deleteByID(ctx, r.coll, id)
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
