package contextutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetLogger_FallsBackWithoutPanicking(t *testing.T) {
	ctx := context.Background()

	assert.NotNil(t, GetLogger(ctx, nil))
	assert.NotNil(t, GetLogger(nil, nil))

	fallback := zap.NewNop().Named("fallback")
	assert.Same(t, fallback, GetLogger(ctx, fallback))
}

func TestGetLogger_PrefersContextLogger(t *testing.T) {
	scoped := zap.NewNop().Named("scoped")
	ctx := WithLogger(context.Background(), scoped)

	assert.Same(t, scoped, GetLogger(ctx, zap.NewNop()))
}

func TestActorAndCompanyRoundTrip(t *testing.T) {
	ctx := WithActorID(context.Background(), "emp-1")
	ctx = WithCompanyID(ctx, "co-1")

	assert.Equal(t, "emp-1", GetActorID(ctx))
	assert.Equal(t, "co-1", GetCompanyID(ctx))
	assert.Equal(t, "", GetActorID(context.Background()))
}
