// Package testutil provides in-memory stand-ins for the repositories and
// external clients so services and handlers can be tested without MongoDB,
// Redis or third-party APIs.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store implements every repository interface over maps. Create methods
// enforce the same unique keys as the MongoDB indexes.
type Store struct {
	mu sync.Mutex

	Admins        map[primitive.ObjectID]models.Admin
	Stores        map[primitive.ObjectID]models.Store // keyed by admin id
	Categories    map[primitive.ObjectID]models.Category
	Subcategories map[primitive.ObjectID]models.Subcategory
	Products      map[primitive.ObjectID]models.Product
	MobileUsers   map[primitive.ObjectID]models.MobileUser
	Orders        []models.Order
	Payments      map[primitive.ObjectID]models.PaymentRecord
	Customers     map[primitive.ObjectID]models.Customer
	Settings      map[primitive.ObjectID]models.Setting
	Banners       map[primitive.ObjectID]models.Banner

	clock time.Time
}

func NewStore() *Store {
	return &Store{
		Admins:        map[primitive.ObjectID]models.Admin{},
		Stores:        map[primitive.ObjectID]models.Store{},
		Categories:    map[primitive.ObjectID]models.Category{},
		Subcategories: map[primitive.ObjectID]models.Subcategory{},
		Products:      map[primitive.ObjectID]models.Product{},
		MobileUsers:   map[primitive.ObjectID]models.MobileUser{},
		Payments:      map[primitive.ObjectID]models.PaymentRecord{},
		Customers:     map[primitive.ObjectID]models.Customer{},
		Settings:      map[primitive.ObjectID]models.Setting{},
		Banners:       map[primitive.ObjectID]models.Banner{},
		clock:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// now returns a strictly increasing timestamp so newest-first ordering is
// deterministic.
func (s *Store) now() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func newID(id primitive.ObjectID) primitive.ObjectID {
	if id.IsZero() {
		return primitive.NewObjectID()
	}
	return id
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Orders

func (s *Store) CreateOrder(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order.PaymentInfo != nil && order.PaymentInfo.RazorpayPaymentID != "" {
		for _, o := range s.Orders {
			if o.PaymentInfo != nil && o.PaymentInfo.RazorpayPaymentID == order.PaymentInfo.RazorpayPaymentID {
				return repository.ErrDuplicate
			}
		}
	}
	order.ID = newID(order.ID)
	order.CreatedAt = s.now()
	order.UpdatedAt = order.CreatedAt
	s.Orders = append(s.Orders, *order)
	return nil
}

func (s *Store) orderIndex(id primitive.ObjectID) int {
	for i, o := range s.Orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) FindOrder(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndex(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	o := s.Orders[i]
	return &o, nil
}

func (s *Store) FindOrderByPaymentID(_ context.Context, paymentID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.Orders {
		if o.PaymentInfo != nil && o.PaymentInfo.RazorpayPaymentID == paymentID {
			o := o
			return &o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) ListOrders(_ context.Context, f models.OrderFilter) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, 0)
	for _, o := range s.Orders {
		if f.Status != nil && o.OrderStatus != *f.Status {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.From != nil && o.CreatedAt.Before(*f.From) {
			continue
		}
		if f.To != nil && o.CreatedAt.After(*f.To) {
			continue
		}
		out = append(out, o)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateOrderStatus(_ context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndex(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	s.Orders[i].OrderStatus = status
	s.Orders[i].UpdatedAt = s.now()
	o := s.Orders[i]
	return &o, nil
}

func (s *Store) UpdateOrderTracking(_ context.Context, id primitive.ObjectID, trackingID, trackingURL string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.orderIndex(id)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	s.Orders[i].TrackingID = &trackingID
	s.Orders[i].TrackingURL = &trackingURL
	s.Orders[i].UpdatedAt = s.now()
	o := s.Orders[i]
	return &o, nil
}

func (s *Store) ReferencedProductIDs(_ context.Context, productIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	referenced := map[primitive.ObjectID]bool{}
	for _, o := range s.Orders {
		for _, it := range o.Items {
			referenced[it.ProductID] = true
		}
	}
	var used []primitive.ObjectID
	for _, id := range productIDs {
		if referenced[id] {
			used = append(used, id)
		}
	}
	return used, nil
}

// Payments

func (s *Store) CreatePayment(_ context.Context, p *models.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Payments {
		if existing.RazorpayOrderID == p.RazorpayOrderID {
			return repository.ErrDuplicate
		}
	}
	p.ID = newID(p.ID)
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	s.Payments[p.ID] = *p
	return nil
}

func (s *Store) FindPayment(_ context.Context, gatewayOrderID string, userID primitive.ObjectID) (*models.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Payments {
		if p.RazorpayOrderID == gatewayOrderID && p.UserID == userID {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) MarkPaymentPaid(_ context.Context, id primitive.ObjectID, gatewayPaymentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = models.PaymentStatusPaid
	p.RazorpayPaymentID = gatewayPaymentID
	p.UpdatedAt = s.now()
	s.Payments[id] = p
	return nil
}

func (s *Store) MarkPaymentFailed(_ context.Context, id primitive.ObjectID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.Payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Status = models.PaymentStatusFailed
	p.FailureReason = reason
	p.UpdatedAt = s.now()
	s.Payments[id] = p
	return nil
}

// Admins and stores

func (s *Store) CreateAdmin(_ context.Context, admin *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.Admins {
		if a.Email == admin.Email {
			return repository.ErrDuplicate
		}
	}
	admin.ID = newID(admin.ID)
	admin.CreatedAt = s.now()
	admin.UpdatedAt = admin.CreatedAt
	s.Admins[admin.ID] = *admin
	return nil
}

func (s *Store) FindAdmin(_ context.Context, id primitive.ObjectID) (*models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Admins[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *Store) FindAdminByEmail(_ context.Context, email string) (*models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, a := range s.Admins {
		if a.Email == email {
			a := a
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) UpdateAdminPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.Password = hash
	s.Admins[id] = a
	return nil
}

func (s *Store) UpdateAdminDeviceToken(_ context.Context, id primitive.ObjectID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Admins[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.FCMToken = token
	s.Admins[id] = a
	return nil
}

func (s *Store) AdminDeviceTokens(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tokens []string
	for _, a := range s.Admins {
		if a.IsActive && a.FCMToken != "" {
			tokens = append(tokens, a.FCMToken)
		}
	}
	sort.Strings(tokens)
	return tokens, nil
}

func (s *Store) FindStore(_ context.Context, adminID primitive.ObjectID) (*models.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.Stores[adminID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &st, nil
}

func (s *Store) SaveStore(_ context.Context, adminID primitive.ObjectID, p models.StoreProfile) (*models.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.Stores[adminID]
	if !ok {
		st = models.Store{ID: primitive.NewObjectID(), AdminID: adminID, CreatedAt: s.now()}
	}
	st.StoreName, st.Mobile, st.Email = p.StoreName, p.Mobile, models.NormalizeEmail(p.Email)
	st.Currency, st.Timezone = p.Currency, p.Timezone
	st.UpdatedAt = s.now()
	s.Stores[adminID] = st
	return &st, nil
}

func (s *Store) UpdateStoreLogo(_ context.Context, adminID primitive.ObjectID, url, publicID string) (*models.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.Stores[adminID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	st.LogoURL, st.LogoPublicID = &url, &publicID
	s.Stores[adminID] = st
	return &st, nil
}

// Mobile users

func (s *Store) CreateMobileUser(_ context.Context, u *models.MobileUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = models.NormalizeEmail(u.Email)
	for _, existing := range s.MobileUsers {
		if existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = newID(u.ID)
	u.CreatedAt = s.now()
	u.UpdatedAt = u.CreatedAt
	s.MobileUsers[u.ID] = *u
	return nil
}

func (s *Store) FindMobileUser(_ context.Context, id primitive.ObjectID) (*models.MobileUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.MobileUsers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) FindMobileUserByEmail(_ context.Context, email string) (*models.MobileUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, u := range s.MobileUsers {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) UpdateMobileUser(_ context.Context, id primitive.ObjectID, upd models.MobileUserUpdate) (*models.MobileUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.MobileUsers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.FullName, upd.FullName)
	set(&u.Mobile, upd.Mobile)
	set(&u.FCMToken, upd.FCMToken)
	set(&u.DoorNumber, upd.DoorNumber)
	set(&u.StreetArea, upd.StreetArea)
	set(&u.Landmark, upd.Landmark)
	set(&u.State, upd.State)
	set(&u.City, upd.City)
	set(&u.Pincode, upd.Pincode)
	u.UpdatedAt = s.now()
	s.MobileUsers[id] = u
	return &u, nil
}

// Customers

func (s *Store) CreateCustomer(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.Customers {
		if existing.Email == c.Email {
			return repository.ErrDuplicate
		}
	}
	c.ID = newID(c.ID)
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	s.Customers[c.ID] = *c
	return nil
}

func (s *Store) FindCustomer(_ context.Context, id primitive.ObjectID) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.Customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Customer, 0, len(s.Customers))
	for _, c := range s.Customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SaveCustomer(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Customers[c.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range s.Customers {
		if id != c.ID && existing.Email == c.Email {
			return repository.ErrDuplicate
		}
	}
	c.UpdatedAt = s.now()
	s.Customers[c.ID] = *c
	return nil
}

func (s *Store) DeleteCustomer(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Customers[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.Customers, id)
	return nil
}
