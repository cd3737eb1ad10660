package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/service"
	"github.com/example/storefront/pkg/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

const rzpSecret = "rzp_test_secret"

type testEnv struct {
	store   *testutil.Store
	pusher  *testutil.Pusher
	tokens  *auth.TokenIssuer
	svc     Services
	handler http.Handler
}

func newTestEnv(t *testing.T, tweak func(*config.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zaptest.NewLogger(t)

	cfg := &config.Config{
		Razorpay: config.RazorpayConfig{KeyID: "rzp_test_key", Currency: "INR"},
		Auth:     config.AuthConfig{RateLimit: 1, RateBurst: 5},
		Limits: config.LimitsConfig{
			Categories:       10,
			SubcategoriesPer: 10,
			MaxUploadBytes:   1 << 20,
			SearchResults:    20,
		},
	}
	if tweak != nil {
		tweak(cfg)
	}

	env := &testEnv{
		store:  testutil.NewStore(),
		pusher: &testutil.Pusher{},
		tokens: auth.NewTokenIssuer("jwt-secret", time.Hour),
	}
	images := &testutil.ImageHost{}
	audit := &testutil.AuditLog{}
	publisher := &testutil.Publisher{}
	notifier := service.NewNotifier(env.store, env.store, env.pusher, logger)

	env.svc = Services{
		Accounts: service.NewAccountService(env.store, env.store, images, env.tokens, auth.NewPasswordHasher(bcrypt.MinCost), 6, logger),
		Catalog:  service.NewCatalogService(env.store, env.store, images, cfg.Limits, audit, logger),
		Orders:   service.NewOrderService(env.store, env.store, notifier, publisher, audit, logger),
		Payments: service.NewPaymentService(service.PaymentDeps{
			Users:     env.store,
			Payments:  env.store,
			Orders:    env.store,
			Gateway:   testutil.NewGateway(rzpSecret),
			Locker:    &testutil.Locker{},
			Ledger:    &testutil.Ledger{},
			Notifier:  notifier,
			Publisher: publisher,
			Audit:     audit,
		}, logger),
		Customers: service.NewCustomerService(env.store, logger),
		Content:   service.NewContentService(env.store, env.store, &testutil.SettingsCache{}, images, logger),
		Tokens:    env.tokens,
	}
	env.handler = NewGateway(cfg, logger, env.svc).Handler()
	return env
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.serve(t, req)
}

func (e *testEnv) serve(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (e *testEnv) adminToken(t *testing.T) (string, models.Admin) {
	t.Helper()
	admin := &models.Admin{Email: "owner@shop.com", FCMToken: "admin-tok", IsActive: true}
	require.NoError(t, e.store.CreateAdmin(context.Background(), admin))
	token, err := e.tokens.Issue(admin.ID, admin.Email, auth.RoleAdmin)
	require.NoError(t, err)
	return token, *admin
}

func (e *testEnv) userToken(t *testing.T, fcm string) (string, models.MobileUser) {
	t.Helper()
	user := &models.MobileUser{FullName: "Asha", Email: "asha@example.com", Mobile: "9000000000", FCMToken: fcm}
	require.NoError(t, e.store.CreateMobileUser(context.Background(), user))
	token, err := e.tokens.Issue(user.ID, user.Email, auth.RoleUser)
	require.NoError(t, err)
	return token, *user
}

func address() models.Address {
	return models.Address{StreetArea: "MG Road", State: "Karnataka", City: "Bengaluru", Pincode: "560001"}
}

func TestRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, nil)

	w, body := env.do(t, http.MethodGet, "/mobile/orders/my-orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Authorization header is missing", body.Message)

	w, body = env.do(t, http.MethodGet, "/category", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token", body.Message)

	userTok, _ := env.userToken(t, "")
	w, _ = env.do(t, http.MethodGet, "/category", userTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminTok, _ := env.adminToken(t)
	w, _ = env.do(t, http.MethodGet, "/mobile/orders/my-orders", adminTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestVerifyPaymentFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	token, user := env.userToken(t, "user-tok")

	w, body := env.do(t, http.MethodPost, "/mobile/orders/create-order", token, gin.H{
		"userId":      user.ID.Hex(),
		"totalAmount": 120.5,
	})
	require.Equal(t, http.StatusOK, w.Code, body.Message)
	var created struct {
		Order payment.Intent `json:"order"`
		Key   string         `json:"key"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "rzp_test_key", created.Key)
	assert.Equal(t, int64(12050), created.Order.Amount)

	verify := gin.H{
		"razorpay_order_id":   created.Order.ID,
		"razorpay_payment_id": "pay_1",
		"razorpay_signature":  payment.Sign(rzpSecret, created.Order.ID, "pay_1"),
		"userId":              user.ID.Hex(),
		"items": []gin.H{{
			"productId": primitive.NewObjectID().Hex(),
			"quantity":  1,
			"price":     120.5,
		}},
		"totalAmount": 120.5,
		"address":     address(),
	}

	w, body = env.do(t, http.MethodPost, "/mobile/orders/verify-payment", token, verify)
	require.Equal(t, http.StatusCreated, w.Code, body.Message)
	var order models.Order
	require.NoError(t, json.Unmarshal(body.Data, &order))
	assert.Equal(t, models.OrderStatusPlaced, order.OrderStatus)
	assert.Equal(t, "pay_1", order.PaymentInfo.RazorpayPaymentID)

	w, body = env.do(t, http.MethodPost, "/mobile/orders/verify-payment", token, verify)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Payment already processed", body.Message)
	assert.Len(t, env.store.Orders, 1)

	verify["razorpay_payment_id"] = "pay_2"
	w, body = env.do(t, http.MethodPost, "/mobile/orders/verify-payment", token, verify)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "payment verification failed", body.Message)
	assert.Len(t, env.store.Orders, 1)
}

func TestOrderRoutesRejectForeignUserID(t *testing.T) {
	env := newTestEnv(t, nil)
	token, _ := env.userToken(t, "")

	w, body := env.do(t, http.MethodPost, "/mobile/orders/place-cod-order", token, gin.H{
		"userId":      primitive.NewObjectID().Hex(),
		"items":       []gin.H{{"productId": primitive.NewObjectID().Hex(), "quantity": 1, "price": 10}},
		"totalAmount": 10,
		"address":     address(),
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "userId does not match the signed-in user", body.Message)
	assert.Empty(t, env.store.Orders)
}

func TestUpdateOrderStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	userTok, user := env.userToken(t, "user-tok")
	adminTok, _ := env.adminToken(t)

	w, body := env.do(t, http.MethodPost, "/mobile/orders/place-cod-order", userTok, gin.H{
		"userId":      user.ID.Hex(),
		"items":       []gin.H{{"productId": primitive.NewObjectID().Hex(), "qty": 2, "price": 5}},
		"totalAmount": 10,
		"address":     address(),
	})
	require.Equal(t, http.StatusCreated, w.Code, body.Message)
	var order models.Order
	require.NoError(t, json.Unmarshal(body.Data, &order))
	assert.Equal(t, models.PaymentMethodCOD, order.PaymentMethod)

	w, body = env.do(t, http.MethodPut, "/mobile/orders/update-status", adminTok, gin.H{
		"orderId":     order.ID.Hex(),
		"orderStatus": "shipped",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body.Message, "PLACED")

	w, _ = env.do(t, http.MethodPut, "/mobile/orders/update-status", userTok, gin.H{
		"orderId":     order.ID.Hex(),
		"orderStatus": "SHIPPED",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = env.do(t, http.MethodPut, "/mobile/orders/update-status", adminTok, gin.H{
		"orderId":     order.ID.Hex(),
		"orderStatus": "SHIPPED",
	})
	require.Equal(t, http.StatusOK, w.Code, body.Message)
	var res struct {
		Order         models.Order         `json:"order"`
		Notifications service.NotifyResult `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &res))
	assert.Equal(t, models.OrderStatusShipped, res.Order.OrderStatus)
	assert.Equal(t, service.NotifyResult{User: 1, Admins: 1}, res.Notifications)

	w, body = env.do(t, http.MethodGet, "/orders/orderlist?status=SHIPPED", adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []models.Order
	require.NoError(t, json.Unmarshal(body.Data, &listed))
	assert.Len(t, listed, 1)
}

func TestDeleteCategoryReportsPartialDelete(t *testing.T) {
	env := newTestEnv(t, nil)
	adminTok, _ := env.adminToken(t)
	ctx := context.Background()

	category, err := env.svc.Catalog.CreateCategory(ctx, "Snacks", nil)
	require.NoError(t, err)
	kept := &models.Product{Name: "Chips", CategoryID: category.ID, StorePrice: 10}
	gone := &models.Product{Name: "Nuts", CategoryID: category.ID, StorePrice: 12}
	require.NoError(t, env.store.CreateProduct(ctx, kept))
	require.NoError(t, env.store.CreateProduct(ctx, gone))
	require.NoError(t, env.store.CreateOrder(ctx, &models.Order{
		UserID:        primitive.NewObjectID(),
		Items:         []models.OrderItem{{ProductID: kept.ID, Quantity: 1, Price: 10}},
		TotalAmount:   10,
		PaymentMethod: models.PaymentMethodCOD,
		OrderStatus:   models.OrderStatusDelivered,
	}))

	w, body := env.do(t, http.MethodDelete, "/category/"+category.ID.Hex(), adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code, body.Message)
	assert.Contains(t, body.Message, "partially deleted")
	var res service.DeleteResult
	require.NoError(t, json.Unmarshal(body.Data, &res))
	assert.False(t, res.Deleted)
	assert.Equal(t, 1, res.DeletedProducts)
	assert.Equal(t, []primitive.ObjectID{kept.ID}, res.KeptProducts)

	w, _ = env.do(t, http.MethodDelete, "/products/"+kept.ID.Hex(), adminTok, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteCategoryRemovesUnusedTree(t *testing.T) {
	env := newTestEnv(t, nil)
	adminTok, _ := env.adminToken(t)

	category, err := env.svc.Catalog.CreateCategory(context.Background(), "Dairy", nil)
	require.NoError(t, err)

	w, body := env.do(t, http.MethodDelete, "/category/"+category.ID.Hex(), adminTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Category and all related data deleted successfully", body.Message)
	assert.Empty(t, env.store.Categories)

	w, _ = env.do(t, http.MethodDelete, "/category/"+category.ID.Hex(), adminTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func multipartRequest(t *testing.T, path, token string, fields map[string]string, fileField string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, "photo.jpg")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestCategoryUpload(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Limits.MaxUploadBytes = 1 << 20
	})
	adminTok, _ := env.adminToken(t)

	req := multipartRequest(t, "/category", adminTok, map[string]string{"categoryName": "Fruits"}, "image", []byte("jpeg"))
	w, body := env.serve(t, req)
	require.Equal(t, http.StatusCreated, w.Code, body.Message)
	var category models.Category
	require.NoError(t, json.Unmarshal(body.Data, &category))
	assert.Equal(t, "Fruits", category.Name)

	big := bytes.Repeat([]byte("x"), 1<<20+1)
	req = multipartRequest(t, "/category", adminTok, map[string]string{"categoryName": "Veg"}, "image", big)
	w, body = env.serve(t, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "image must be less than 1MB", body.Message)
	assert.Len(t, env.store.Categories, 1)
}

func TestLoginIsRateLimited(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Auth.RateLimit = 0.001
		cfg.Auth.RateBurst = 2
	})

	creds := gin.H{"email": "nobody@shop.com", "password": "secret1"}
	for i := 0; i < 2; i++ {
		w, _ := env.do(t, http.MethodPost, "/admin/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w, body := env.do(t, http.MethodPost, "/admin/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "too many requests, try again later", body.Message)
}

func TestIPLimiterForgetsIdleClients(t *testing.T) {
	l := newIPLimiter(1, 1)
	now := time.Now()

	assert.True(t, l.allow("10.0.0.1", now))
	assert.False(t, l.allow("10.0.0.1", now))

	later := now.Add(11 * time.Minute)
	assert.True(t, l.allow("10.0.0.2", later))
	assert.NotContains(t, l.clients, "10.0.0.1")
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	w, _ := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	env.svc.Health = func(context.Context) error { return errors.New("mongo unreachable") }
	env.handler = NewGateway(&config.Config{}, zaptest.NewLogger(t), env.svc).Handler()
	w, _ = env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "mongo unreachable")
}
