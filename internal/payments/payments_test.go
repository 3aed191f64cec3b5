package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToCentsRounds(t *testing.T) {
	assert.Equal(t, int64(2999), toCents(29.99))
	assert.Equal(t, int64(1000), toCents(10))
	assert.Equal(t, int64(10), toCents(0.1))
	assert.Equal(t, int64(5), toCents(0.049999999))
}

func TestWrapUpstreamDistinguishesTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := wrapUpstream(ctx, ctx.Err())
	assert.ErrorIs(t, err, ErrUpstreamTimeout)

	err = wrapUpstream(context.Background(), errors.New("connection refused"))
	assert.ErrorIs(t, err, ErrUpstream)
	assert.NotErrorIs(t, err, ErrUpstreamTimeout)
}

func TestNewStripeProcessorRequiresKey(t *testing.T) {
	_, err := NewStripeProcessor("", "https://shop.test/success", "https://shop.test/cancel", time.Second)
	assert.Error(t, err)
}
