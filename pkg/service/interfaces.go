package service

import (
	"context"
	"io"

	"github.com/example/storefront/pkg/events"
	"github.com/example/storefront/pkg/ledger"
	"github.com/example/storefront/pkg/media"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/notify"
	"github.com/example/storefront/pkg/payment"
	"github.com/example/storefront/pkg/repository"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	FindOrderByPaymentID(ctx context.Context, paymentID string) (*models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (*models.Order, error)
	UpdateOrderTracking(ctx context.Context, id primitive.ObjectID, trackingID, trackingURL string) (*models.Order, error)
	ReferencedProductIDs(ctx context.Context, productIDs []primitive.ObjectID) ([]primitive.ObjectID, error)
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p *models.PaymentRecord) error
	FindPayment(ctx context.Context, gatewayOrderID string, userID primitive.ObjectID) (*models.PaymentRecord, error)
	MarkPaymentPaid(ctx context.Context, id primitive.ObjectID, gatewayPaymentID string) error
	MarkPaymentFailed(ctx context.Context, id primitive.ObjectID, reason string) error
}

type AdminStore interface {
	CreateAdmin(ctx context.Context, admin *models.Admin) error
	FindAdmin(ctx context.Context, id primitive.ObjectID) (*models.Admin, error)
	FindAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	UpdateAdminPassword(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateAdminDeviceToken(ctx context.Context, id primitive.ObjectID, token string) error
	AdminDeviceTokens(ctx context.Context) ([]string, error)

	FindStore(ctx context.Context, adminID primitive.ObjectID) (*models.Store, error)
	SaveStore(ctx context.Context, adminID primitive.ObjectID, p models.StoreProfile) (*models.Store, error)
	UpdateStoreLogo(ctx context.Context, adminID primitive.ObjectID, url, publicID string) (*models.Store, error)
}

type MobileUserStore interface {
	CreateMobileUser(ctx context.Context, u *models.MobileUser) error
	FindMobileUser(ctx context.Context, id primitive.ObjectID) (*models.MobileUser, error)
	FindMobileUserByEmail(ctx context.Context, email string) (*models.MobileUser, error)
	UpdateMobileUser(ctx context.Context, id primitive.ObjectID, upd models.MobileUserUpdate) (*models.MobileUser, error)
}

type CustomerStore interface {
	CreateCustomer(ctx context.Context, c *models.Customer) error
	FindCustomer(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]models.Customer, error)
	SaveCustomer(ctx context.Context, c *models.Customer) error
	DeleteCustomer(ctx context.Context, id primitive.ObjectID) error
}

type CatalogStore interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	FindCategory(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CountCategories(ctx context.Context) (int64, error)
	SaveCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id primitive.ObjectID) error
	FindCategoriesByName(ctx context.Context, keyword string) ([]models.Category, error)

	CreateSubcategory(ctx context.Context, s *models.Subcategory) error
	FindSubcategory(ctx context.Context, id primitive.ObjectID) (*models.Subcategory, error)
	ListSubcategories(ctx context.Context, categoryID *primitive.ObjectID) ([]models.Subcategory, error)
	CountSubcategories(ctx context.Context, categoryID primitive.ObjectID) (int64, error)
	SaveSubcategory(ctx context.Context, s *models.Subcategory) error
	DeleteSubcategory(ctx context.Context, id primitive.ObjectID) error
	FindSubcategoriesByName(ctx context.Context, keyword string) ([]models.Subcategory, error)

	CreateProduct(ctx context.Context, p *models.Product) error
	FindProduct(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	SaveProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id primitive.ObjectID) error
	ListProductsUnder(ctx context.Context, categoryID primitive.ObjectID, subcategoryIDs []primitive.ObjectID) ([]models.Product, error)
	CountProductsUnder(ctx context.Context, categoryID primitive.ObjectID, subcategoryIDs []primitive.ObjectID) (int64, error)
	ListProductsInSubcategory(ctx context.Context, subcategoryID primitive.ObjectID) ([]models.Product, error)
	CountProductsInSubcategory(ctx context.Context, subcategoryID primitive.ObjectID) (int64, error)
	SearchProducts(ctx context.Context, keyword string, categoryIDs, subcategoryIDs []primitive.ObjectID, limit int64) ([]models.Product, error)
}

type ContentStore interface {
	FindSettings(ctx context.Context, storeID primitive.ObjectID) (*models.Setting, error)
	SaveSettingTexts(ctx context.Context, storeID primitive.ObjectID, marquee, banner string) (*models.Setting, error)
	SaveDeliverySettings(ctx context.Context, storeID primitive.ObjectID, charge, freeAbove *float64) (*models.Setting, error)

	CreateBanner(ctx context.Context, b *models.Banner) error
	FindBanner(ctx context.Context, id primitive.ObjectID) (*models.Banner, error)
	ListBanners(ctx context.Context) ([]models.Banner, error)
	DeleteBanner(ctx context.Context, id primitive.ObjectID) error
}

type SettingsCache interface {
	CacheSettings(ctx context.Context, s *models.Setting) error
	CachedSettings(ctx context.Context, storeID primitive.ObjectID) (*models.Setting, error)
	InvalidateSettings(ctx context.Context, storeID primitive.ObjectID) error
}

type Locker interface {
	AcquireLock(ctx context.Context, name string) (func(), error)
}

type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, receipt string) (*payment.Intent, error)
	Secret() string
}

type ImageHost interface {
	Upload(ctx context.Context, file io.Reader, folder, transformation string) (*media.Image, error)
	Destroy(ctx context.Context, publicID string) error
}

type Pusher interface {
	Push(ctx context.Context, token string, msg notify.Message) error
}

type EventPublisher interface {
	PublishOrder(ctx context.Context, ev events.OrderEvent) error
}

type Ledger interface {
	Record(ctx context.Context, tx *ledger.PaymentTransaction) error
}

type AuditLogger interface {
	CreateAuditLog(ctx context.Context, log *repository.AuditLog) error
}
