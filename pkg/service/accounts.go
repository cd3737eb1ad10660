package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/storefront/pkg/auth"
	"github.com/example/storefront/pkg/media"
	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	defaultCurrency = "INR"
	defaultTimezone = "Asia/Kolkata"
)

type RegisterAdminInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	StoreName string `json:"storeName"`
	Mobile    string `json:"mobile"`
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type StoreInput struct {
	StoreName string `json:"storeName"`
	Mobile    string `json:"mobile"`
	Email     string `json:"email"`
	Currency  string `json:"currency"`
	Timezone  string `json:"timezone"`
}

type MobileSignupInput struct {
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	Mobile     string `json:"mobile"`
	FCMToken   string `json:"fcmToken"`
	DoorNumber string `json:"doorNumber"`
	StreetArea string `json:"streetArea"`
	Landmark   string `json:"landmark"`
	State      string `json:"state"`
	City       string `json:"city"`
	Pincode    string `json:"pincode"`
}

type ProfileInput struct {
	FullName   *string `json:"fullName"`
	Mobile     *string `json:"mobile"`
	FCMToken   *string `json:"fcmToken"`
	DoorNumber *string `json:"doorNumber"`
	StreetArea *string `json:"streetArea"`
	Landmark   *string `json:"landmark"`
	State      *string `json:"state"`
	City       *string `json:"city"`
	Pincode    *string `json:"pincode"`
}

// Session is a signed-in principal and its bearer token.
type Session struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type AccountService struct {
	admins      AdminStore
	users       MobileUserStore
	images      ImageHost
	tokens      *auth.TokenIssuer
	hasher      *auth.PasswordHasher
	minPassword int
	logger      *zap.Logger
}

func NewAccountService(admins AdminStore, users MobileUserStore, images ImageHost, tokens *auth.TokenIssuer, hasher *auth.PasswordHasher, minPassword int, logger *zap.Logger) *AccountService {
	if minPassword <= 0 {
		minPassword = 6
	}
	return &AccountService{
		admins:      admins,
		users:       users,
		images:      images,
		tokens:      tokens,
		hasher:      hasher,
		minPassword: minPassword,
		logger:      logger.Named("accounts"),
	}
}

// Admins

func (s *AccountService) RegisterAdmin(ctx context.Context, in RegisterAdminInput) (*models.Admin, error) {
	email := models.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, fail(ErrValidation, "email and password are required")
	}
	if len(in.Password) < s.minPassword {
		return nil, fail(ErrValidation, "password must be at least %d characters", s.minPassword)
	}

	if _, err := s.admins.FindAdminByEmail(ctx, email); err == nil {
		return nil, fail(ErrConflict, "email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	admin := &models.Admin{
		StoreName: strings.TrimSpace(in.StoreName),
		Email:     email,
		Mobile:    strings.TrimSpace(in.Mobile),
		Password:  hash,
		Currency:  defaultCurrency,
		TimeZone:  defaultTimezone,
		IsActive:  true,
	}
	if err := s.admins.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fail(ErrConflict, "email already registered")
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	if _, err := s.admins.SaveStore(ctx, admin.ID, models.StoreProfile{
		StoreName: admin.StoreName,
		Mobile:    admin.Mobile,
		Email:     admin.Email,
		Currency:  defaultCurrency,
		Timezone:  defaultTimezone,
	}); err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	s.logger.Info("Admin registered", zap.String("admin_id", admin.ID.Hex()))
	return admin, nil
}

func (s *AccountService) LoginAdmin(ctx context.Context, email, password string) (*Session, *models.Admin, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, nil, fail(ErrValidation, "email and password are required")
	}
	admin, err := s.admins.FindAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fail(ErrUnauthorized, "invalid email or password")
		}
		return nil, nil, err
	}
	if !s.hasher.Compare(admin.Password, password) {
		return nil, nil, fail(ErrUnauthorized, "invalid email or password")
	}
	if !admin.IsActive {
		return nil, nil, fail(ErrForbidden, "account is disabled")
	}

	token, err := s.tokens.Issue(admin.ID, admin.Email, auth.RoleAdmin)
	if err != nil {
		return nil, nil, err
	}
	return &Session{Token: token, Role: auth.RoleAdmin}, admin, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, adminID primitive.ObjectID, in ChangePasswordInput) error {
	if in.CurrentPassword == "" || in.NewPassword == "" || in.ConfirmPassword == "" {
		return fail(ErrValidation, "currentPassword, newPassword and confirmPassword are required")
	}
	if in.NewPassword != in.ConfirmPassword {
		return fail(ErrValidation, "new password and confirm password do not match")
	}
	if len(in.NewPassword) < s.minPassword {
		return fail(ErrValidation, "password must be at least %d characters", s.minPassword)
	}

	admin, err := s.admins.FindAdmin(ctx, adminID)
	if err != nil {
		return notFound(err, "admin")
	}
	if !s.hasher.Compare(admin.Password, in.CurrentPassword) {
		return fail(ErrValidation, "current password is incorrect")
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.admins.UpdateAdminPassword(ctx, adminID, hash); err != nil {
		return notFound(err, "admin")
	}
	return nil
}

func (s *AccountService) SetAdminDeviceToken(ctx context.Context, adminID primitive.ObjectID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fail(ErrValidation, "fcmToken is required")
	}
	return notFound(s.admins.UpdateAdminDeviceToken(ctx, adminID, token), "admin")
}

// Stores

func (s *AccountService) GetStore(ctx context.Context, adminID primitive.ObjectID) (*models.Store, error) {
	store, err := s.admins.FindStore(ctx, adminID)
	if err != nil {
		return nil, notFound(err, "store")
	}
	return store, nil
}

func (s *AccountService) SaveStore(ctx context.Context, adminID primitive.ObjectID, in StoreInput) (*models.Store, error) {
	p := models.StoreProfile{
		StoreName: strings.TrimSpace(in.StoreName),
		Mobile:    strings.TrimSpace(in.Mobile),
		Email:     models.NormalizeEmail(in.Email),
		Currency:  strings.TrimSpace(in.Currency),
		Timezone:  strings.TrimSpace(in.Timezone),
	}
	if p.StoreName == "" || p.Mobile == "" || p.Email == "" {
		return nil, fail(ErrValidation, "storeName, mobile and email are required")
	}
	if p.Currency == "" {
		p.Currency = defaultCurrency
	}
	if p.Timezone == "" {
		p.Timezone = defaultTimezone
	}
	return s.admins.SaveStore(ctx, adminID, p)
}

// UpdateStoreLogo replaces the store logo, destroying the previous one
// before uploading.
func (s *AccountService) UpdateStoreLogo(ctx context.Context, adminID primitive.ObjectID, logo io.Reader) (*models.Store, error) {
	if logo == nil {
		return nil, fail(ErrValidation, "logo is required")
	}
	store, err := s.GetStore(ctx, adminID)
	if err != nil {
		return nil, err
	}

	if store.LogoPublicID != nil && *store.LogoPublicID != "" {
		if err := s.images.Destroy(ctx, *store.LogoPublicID); err != nil {
			s.logger.Warn("Failed to destroy old logo", zap.String("public_id", *store.LogoPublicID), zap.Error(err))
		}
	}

	img, err := s.images.Upload(ctx, logo, media.FolderStoreLogo, media.LimitLogo)
	if err != nil {
		return nil, fail(ErrGateway, "%s", err.Error())
	}
	updated, err := s.admins.UpdateStoreLogo(ctx, adminID, img.URL, img.PublicID)
	if err != nil {
		return nil, notFound(err, "store")
	}
	return updated, nil
}

// Mobile users

// CheckEmailResult tells the app whether to show signup. Existing users
// receive a session.
type CheckEmailResult struct {
	IsNewUser bool               `json:"isNewUser"`
	User      *models.MobileUser `json:"user,omitempty"`
	Session   *Session           `json:"session,omitempty"`
}

func (s *AccountService) CheckEmail(ctx context.Context, email string) (*CheckEmailResult, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fail(ErrValidation, "email is required")
	}
	user, err := s.users.FindMobileUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return &CheckEmailResult{IsNewUser: true}, nil
	}
	if err != nil {
		return nil, err
	}
	session, err := s.userSession(user)
	if err != nil {
		return nil, err
	}
	return &CheckEmailResult{User: user, Session: session}, nil
}

// MobileSignup registers a new app user, or signs in the existing one with
// the same email. created reports which happened.
func (s *AccountService) MobileSignup(ctx context.Context, in MobileSignupInput) (user *models.MobileUser, session *Session, created bool, err error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Mobile = strings.TrimSpace(in.Mobile)
	email := models.NormalizeEmail(in.Email)
	if in.FullName == "" || email == "" || in.Mobile == "" {
		return nil, nil, false, fail(ErrValidation, "fullName, email and mobile are required")
	}

	user, err = s.users.FindMobileUserByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		user = &models.MobileUser{
			FullName:   in.FullName,
			Email:      email,
			Mobile:     in.Mobile,
			FCMToken:   strings.TrimSpace(in.FCMToken),
			DoorNumber: in.DoorNumber,
			StreetArea: in.StreetArea,
			Landmark:   in.Landmark,
			State:      in.State,
			City:       in.City,
			Pincode:    in.Pincode,
		}
		if err := s.users.CreateMobileUser(ctx, user); err != nil {
			if !errors.Is(err, repository.ErrDuplicate) {
				return nil, nil, false, fmt.Errorf("failed to create user: %w", err)
			}
			// Lost a race with a concurrent signup for the same email.
			if user, err = s.users.FindMobileUserByEmail(ctx, email); err != nil {
				return nil, nil, false, err
			}
		} else {
			created = true
		}
	default:
		return nil, nil, false, err
	}

	session, err = s.userSession(user)
	if err != nil {
		return nil, nil, false, err
	}
	return user, session, created, nil
}

func (s *AccountService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.MobileUser, error) {
	user, err := s.users.FindMobileUser(ctx, userID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileInput) (*models.MobileUser, error) {
	if in.FullName != nil && strings.TrimSpace(*in.FullName) == "" {
		return nil, fail(ErrValidation, "fullName cannot be empty")
	}
	if in.Mobile != nil && strings.TrimSpace(*in.Mobile) == "" {
		return nil, fail(ErrValidation, "mobile cannot be empty")
	}
	user, err := s.users.UpdateMobileUser(ctx, userID, models.MobileUserUpdate{
		FullName:   in.FullName,
		Mobile:     in.Mobile,
		FCMToken:   in.FCMToken,
		DoorNumber: in.DoorNumber,
		StreetArea: in.StreetArea,
		Landmark:   in.Landmark,
		State:      in.State,
		City:       in.City,
		Pincode:    in.Pincode,
	})
	if err != nil {
		return nil, notFound(err, "user")
	}
	return user, nil
}

func (s *AccountService) userSession(user *models.MobileUser) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email, auth.RoleUser)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Role: auth.RoleUser}, nil
}
