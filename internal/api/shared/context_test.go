package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceID(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))

	a := GetTraceID(SetTraceID(context.Background()))
	b := GetTraceID(SetTraceID(context.Background()))
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestUserID(t *testing.T) {
	_, ok := GetUserID(context.Background())
	assert.False(t, ok)

	_, ok = GetUserID(SetUserID(context.Background(), 0))
	assert.False(t, ok)

	id, ok := GetUserID(SetUserID(context.Background(), 42))
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)
}
