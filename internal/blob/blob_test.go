package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "templates/react-vite.zip", []byte("archive")))

	got, err := s.Get(ctx, "templates/react-vite.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("archive"), got)

	// Stored bytes are copies; the caller's slice stays independent.
	got[0] = 'X'
	again, err := s.Get(ctx, "templates/react-vite.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("archive"), again)
}

func TestMemoryStoreMissingKey(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRequiresKey(t *testing.T) {
	s := NewMemoryStore()
	assert.Error(t, s.Put(context.Background(), "  ", []byte("x")))
}
