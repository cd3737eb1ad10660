package service

import (
	"context"
	"testing"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testSecret = "rzp_test_secret"

type fixture struct {
	store     *testutil.Store
	gateway   *testutil.Gateway
	images    *testutil.ImageHost
	pusher    *testutil.Pusher
	publisher *testutil.Publisher
	ledger    *testutil.Ledger
	audit     *testutil.AuditLog
	locker    *testutil.Locker
	cache     *testutil.SettingsCache

	payments *PaymentService
	orders   *OrderService
	catalog  *CatalogService
	content  *ContentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	f := &fixture{
		store:     testutil.NewStore(),
		gateway:   testutil.NewGateway(testSecret),
		images:    &testutil.ImageHost{},
		pusher:    &testutil.Pusher{Fail: map[string]bool{}},
		publisher: &testutil.Publisher{},
		ledger:    &testutil.Ledger{},
		audit:     &testutil.AuditLog{},
		locker:    &testutil.Locker{},
		cache:     &testutil.SettingsCache{},
	}

	notifier := NewNotifier(f.store, f.store, f.pusher, logger)
	f.payments = NewPaymentService(PaymentDeps{
		Users:     f.store,
		Payments:  f.store,
		Orders:    f.store,
		Gateway:   f.gateway,
		Locker:    f.locker,
		Ledger:    f.ledger,
		Notifier:  notifier,
		Publisher: f.publisher,
		Audit:     f.audit,
		Currency:  "INR",
	}, logger)
	f.orders = NewOrderService(f.store, f.store, notifier, f.publisher, f.audit, logger)
	f.catalog = NewCatalogService(f.store, f.store, f.images, config.LimitsConfig{
		Categories:       3,
		SubcategoriesPer: 2,
		SearchResults:    20,
	}, f.audit, logger)
	f.content = NewContentService(f.store, f.store, f.cache, f.images, logger)
	return f
}

func (f *fixture) addUser(t *testing.T, email, token string) models.MobileUser {
	t.Helper()
	u := &models.MobileUser{FullName: "Asha", Email: email, Mobile: "9000000000", FCMToken: token}
	require.NoError(t, f.store.CreateMobileUser(context.Background(), u))
	return *u
}

func (f *fixture) addAdmin(t *testing.T, email, token string, active bool) models.Admin {
	t.Helper()
	a := &models.Admin{Email: email, FCMToken: token, IsActive: active}
	require.NoError(t, f.store.CreateAdmin(context.Background(), a))
	return *a
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func validAddress() models.Address {
	return models.Address{
		FullName:   "Asha",
		StreetArea: "MG Road",
		State:      "Karnataka",
		City:       "Bengaluru",
		Pincode:    "560001",
	}
}
