package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestUnlimited_NeverBlocks(t *testing.T) {
	l := Unlimited()
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(APIIEX))
	}
	assert.NoError(t, l.Wait(context.Background(), APIIEX))
}

func TestUnknownAPI_IsUnlimited(t *testing.T) {
	l := New(nil)
	assert.True(t, l.Allow("other"))
	assert.NoError(t, l.Wait(context.Background(), "other"))
}

func TestLimit_BurstOfOne(t *testing.T) {
	l := New(map[API]rate.Limit{APIIEX: rate.Every(time.Hour)})
	assert.True(t, l.Allow(APIIEX))
	assert.False(t, l.Allow(APIIEX))
}

func TestWait_ContextCancelled(t *testing.T) {
	l := New(map[API]rate.Limit{APIIEX: rate.Every(time.Hour)})
	assert.True(t, l.Allow(APIIEX))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, l.Wait(ctx, APIIEX))
}
