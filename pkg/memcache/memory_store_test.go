package mem

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "ring:routes", []byte("[]"), time.Minute))

	v, ok, err := s.Get(ctx, "ring:routes")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", string(v))

	now = now.Add(time.Minute)
	_, ok, err = s.Get(ctx, "ring:routes")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreDeletePrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "ring:routes", []byte("a"), time.Minute))
	require.NoError(t, s.Set(ctx, "ring:route:1", []byte("b"), time.Minute))
	require.NoError(t, s.Set(ctx, "menus", []byte("c"), time.Minute))

	require.NoError(t, s.DeletePrefix(ctx, "ring:"))

	_, ok, _ := s.Get(ctx, "ring:routes")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "ring:route:1")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "menus")
	assert.True(t, ok)
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "short", []byte("x"), time.Second))
	require.NoError(t, s.Set(ctx, "long", []byte("y"), time.Hour))
	now = now.Add(2 * time.Second)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type payload struct {
		Name string `json:"name"`
	}
	require.NoError(t, SetJSON(ctx, s, "k", payload{Name: "Blue line"}, time.Minute))

	var got payload
	ok, err := GetJSON(ctx, s, "k", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Blue line", got.Name)

	require.NoError(t, s.Set(ctx, "bad", []byte("{"), time.Minute))
	ok, err = GetJSON(ctx, s, "bad", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Set(ctx, "k", []byte("v"), time.Minute)
				_, _, _ = s.Get(ctx, "k")
				_ = s.DeletePrefix(ctx, "k")
			}
		}()
	}
	wg.Wait()
}

func TestNoopStore(t *testing.T) {
	ctx := context.Background()
	var s Store = NoopStore{}
	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
