package service

import (
	"context"
	"testing"

	"github.com/example/storefront/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap/zaptest"
)

func TestCustomerLifecycle(t *testing.T) {
	svc := NewCustomerService(testutil.NewStore(), zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := svc.Register(ctx, CustomerInput{Username: strPtr("ravi")})
	require.ErrorIs(t, err, ErrValidation)

	ravi, err := svc.Register(ctx, CustomerInput{Username: strPtr("ravi"), Email: strPtr("Ravi@x.com"), Phone: strPtr("900")})
	require.NoError(t, err)
	assert.Equal(t, "ravi@x.com", ravi.Email)
	assert.True(t, ravi.Active)

	_, err = svc.Register(ctx, CustomerInput{Username: strPtr("r2"), Email: strPtr("ravi@x.com"), Phone: strPtr("901")})
	assert.ErrorIs(t, err, ErrValidation)

	meena, err := svc.Register(ctx, CustomerInput{Username: strPtr("meena"), Email: strPtr("meena@x.com"), Phone: strPtr("902")})
	require.NoError(t, err)

	_, err = svc.Update(ctx, meena.ID.Hex(), CustomerInput{Email: strPtr("ravi@x.com")})
	assert.ErrorIs(t, err, ErrValidation)

	inactive := false
	updated, err := svc.Update(ctx, meena.ID.Hex(), CustomerInput{Pincode: strPtr("560001"), Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "560001", updated.Pincode)
	assert.False(t, updated.Active)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, svc.Delete(ctx, ravi.ID.Hex()))
	_, err = svc.Get(ctx, ravi.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, primitive.NewObjectID().Hex()), ErrNotFound)
}
