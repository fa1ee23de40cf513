package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/stubd/pkg/stub"
)

func TestInMemoryStore_PutAssignsIDAndTimestamps(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	def := &stub.Definition{Name: "a", Enabled: true}
	require.NoError(t, s.Put(ctx, def))

	assert.NotEmpty(t, def.ID)
	assert.False(t, def.CreatedAt.IsZero())
	assert.Equal(t, def.CreatedAt, def.UpdatedAt)

	got, err := s.Get(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Name)
}

func TestInMemoryStore_PutKeepsCreatedAt(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	def := &stub.Definition{Name: "a"}
	require.NoError(t, s.Put(ctx, def))
	created := def.CreatedAt

	clock = clock.Add(time.Hour)
	update := &stub.Definition{ID: def.ID, Name: "b"}
	require.NoError(t, s.Put(ctx, update))

	got, err := s.Get(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, clock, got.UpdatedAt)
}

func TestInMemoryStore_StoresCopies(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	def := &stub.Definition{Name: "orig"}
	require.NoError(t, s.Put(ctx, def))
	def.Name = "changed"

	got, err := s.Get(ctx, def.ID)
	require.NoError(t, err)
	assert.Equal(t, "orig", got.Name)

	got.Name = "changed again"
	again, _ := s.Get(ctx, def.ID)
	assert.Equal(t, "orig", again.Name)
}

func TestInMemoryStore_NotFound(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "missing"), ErrNotFound)
}

func TestInMemoryStore_Delete(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	def := &stub.Definition{Name: "a"}
	require.NoError(t, s.Put(ctx, def))

	require.NoError(t, s.Delete(ctx, def.ID))
	_, err := s.Get(ctx, def.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_ListOrderAndFilter(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	for _, d := range []*stub.Definition{
		{Name: "first", Enabled: true},
		{Name: "second", Enabled: false},
		{Name: "third", Enabled: true},
	} {
		require.NoError(t, s.Put(ctx, d))
	}

	all, err := s.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Name)
	assert.Equal(t, "third", all[2].Name)

	enabled := true
	list, err := s.List(ctx, &Filter{Enabled: &enabled})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.List(ctx, &Filter{Name: "second"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Enabled)
}

func TestInMemoryStore_Replace(t *testing.T) {
	s := NewInMemoryStore()
	s.Replace([]*stub.Definition{{ID: "1", Name: "a"}, {Name: "no id"}, nil})

	list, err := s.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "1", list[0].ID)
}

func TestInMemoryStore_CanceledContext(t *testing.T) {
	s := NewInMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, &stub.Definition{}), context.Canceled)
	_, err := s.List(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultDataDir_XDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/stubd", DefaultDataDir())
}
