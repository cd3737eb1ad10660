package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.uber.org/zap"
)

type CustomerInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
	Pincode  *string `json:"pincode"`
	Active   *bool   `json:"active"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

type CustomerService struct {
	store  CustomerStore
	logger *zap.Logger
}

func NewCustomerService(store CustomerStore, logger *zap.Logger) *CustomerService {
	return &CustomerService{store: store, logger: logger.Named("customers")}
}

func (s *CustomerService) Register(ctx context.Context, in CustomerInput) (*models.Customer, error) {
	c := &models.Customer{
		Username: deref(in.Username),
		Email:    models.NormalizeEmail(deref(in.Email)),
		Phone:    deref(in.Phone),
		Address:  deref(in.Address),
		Pincode:  deref(in.Pincode),
		Active:   true,
	}
	if in.Active != nil {
		c.Active = *in.Active
	}
	if c.Username == "" || c.Email == "" || c.Phone == "" {
		return nil, fail(ErrValidation, "username, email and phone are required")
	}

	if err := s.store.CreateCustomer(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fail(ErrValidation, "email already registered")
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return c, nil
}

func (s *CustomerService) List(ctx context.Context) ([]models.Customer, error) {
	return s.store.ListCustomers(ctx)
}

func (s *CustomerService) Get(ctx context.Context, id string) (*models.Customer, error) {
	oid, err := parseID("customer id", id)
	if err != nil {
		return nil, err
	}
	c, err := s.store.FindCustomer(ctx, oid)
	if err != nil {
		return nil, notFound(err, "customer")
	}
	return c, nil
}

func (s *CustomerService) Update(ctx context.Context, id string, in CustomerInput) (*models.Customer, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		if c.Username = deref(in.Username); c.Username == "" {
			return nil, fail(ErrValidation, "username cannot be empty")
		}
	}
	if in.Email != nil {
		if c.Email = models.NormalizeEmail(*in.Email); c.Email == "" {
			return nil, fail(ErrValidation, "email cannot be empty")
		}
	}
	if in.Phone != nil {
		if c.Phone = deref(in.Phone); c.Phone == "" {
			return nil, fail(ErrValidation, "phone cannot be empty")
		}
	}
	if in.Address != nil {
		c.Address = deref(in.Address)
	}
	if in.Pincode != nil {
		c.Pincode = deref(in.Pincode)
	}
	if in.Active != nil {
		c.Active = *in.Active
	}

	if err := s.store.SaveCustomer(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fail(ErrValidation, "email already registered")
		}
		return nil, notFound(err, "customer")
	}
	return c, nil
}

func (s *CustomerService) Delete(ctx context.Context, id string) error {
	oid, err := parseID("customer id", id)
	if err != nil {
		return err
	}
	return notFound(s.store.DeleteCustomer(ctx, oid), "customer")
}
