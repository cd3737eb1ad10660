package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/config"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "SUCCESS"
	StatusFailed  TransactionStatus = "FAILED"

	ProviderRazorpay = "RAZORPAY"
)

// PaymentTransaction is one verification outcome recorded in the relational
// ledger.
type PaymentTransaction struct {
	ID                uint              `gorm:"primaryKey"`
	OrderID           string            `gorm:"size:24;index"`
	UserID            string            `gorm:"size:24;index;not null"`
	RazorpayOrderID   string            `gorm:"size:64;index;not null"`
	RazorpayPaymentID string            `gorm:"size:64;index"`
	RazorpaySignature string            `gorm:"size:128"`
	Amount            float64           `gorm:"type:decimal(12,2);not null"`
	Currency          string            `gorm:"size:8;default:INR"`
	Status            TransactionStatus `gorm:"size:16;not null"`
	FailureReason     string            `gorm:"size:255"`
	Provider          string            `gorm:"size:32;default:RAZORPAY"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (PaymentTransaction) TableName() string {
	return "payment_transactions"
}

type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(cfg *config.MySQLConfig) (*GormLedger, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	// Auto migrate
	if err := db.AutoMigrate(&PaymentTransaction{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return &GormLedger{db: db}, nil
}

func (l *GormLedger) Record(ctx context.Context, tx *PaymentTransaction) error {
	if tx.Provider == "" {
		tx.Provider = ProviderRazorpay
	}
	if err := l.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to record payment transaction: %w", err)
	}
	return nil
}

func (l *GormLedger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Nop discards ledger rows when no MySQL host is configured.
type Nop struct{}

func (Nop) Record(context.Context, *PaymentTransaction) error { return nil }
