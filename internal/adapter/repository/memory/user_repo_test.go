package memory

import (
	"context"
	"testing"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/listing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStore(t *testing.T) {
	s := NewUserStore(domain.Seller{ID: "u1", Email: "u1@example.com"})

	got, err := s.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", got.Email)

	_, err = s.GetByID(context.Background(), "u2")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	s.Put(domain.Seller{ID: "u2", IsPremium: true})
	got, err = s.GetByID(context.Background(), "u2")
	require.NoError(t, err)
	assert.True(t, got.IsPremium)
}

func TestOpenUserStore(t *testing.T) {
	s := NewOpenUserStore()

	got, err := s.GetByID(context.Background(), "anyone")
	require.NoError(t, err)
	assert.Equal(t, domain.Seller{ID: "anyone"}, *got)

	_, err = s.GetByID(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	s.Put(domain.Seller{ID: "bad", IsBanned: true})
	got, err = s.GetByID(context.Background(), "bad")
	require.NoError(t, err)
	assert.True(t, got.IsBanned)
}
