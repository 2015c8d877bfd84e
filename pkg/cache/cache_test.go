package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var got item
	assert.False(t, m.Get(ctx, "missing", &got))

	require.NoError(t, m.Set(ctx, "p:1", item{"Bulb", 79900}, 0))
	assert.True(t, m.Get(ctx, "p:1", &got))
	assert.Equal(t, item{"Bulb", 79900}, got)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "k", 1, time.Minute))
	var v int
	assert.True(t, m.Get(ctx, "k", &v))

	now = now.Add(time.Minute)
	assert.False(t, m.Get(ctx, "k", &v))
}

func TestMemoryDelPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "products:all", 1, 0))
	require.NoError(t, m.Set(ctx, "products:featured", 2, 0))
	require.NoError(t, m.Set(ctx, "categories:all", 3, 0))

	require.NoError(t, m.DelPrefix(ctx, "products:"))

	var v int
	assert.False(t, m.Get(ctx, "products:all", &v))
	assert.False(t, m.Get(ctx, "products:featured", &v))
	assert.True(t, m.Get(ctx, "categories:all", &v))
}

func TestMemoryStoresCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	src := []item{{"Bulb", 1}}
	require.NoError(t, m.Set(ctx, "k", src, 0))
	src[0].Name = "changed"

	var got []item
	require.True(t, m.Get(ctx, "k", &got))
	assert.Equal(t, "Bulb", got[0].Name)
}

func TestDefaultFallsBackToMemory(t *testing.T) {
	RDB = nil
	_, ok := Default().(*Memory)
	assert.True(t, ok)
}
