package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-reconciliation-backend/internal/models"
)

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()
	session := &models.Session{ID: uuid.New(), Status: models.SessionPending, CreatedAt: time.Now()}

	store.Put(session)
	assert.Equal(t, 1, store.Count())

	got, err := store.Get(session.ID)
	require.NoError(t, err)
	assert.Same(t, session, got)

	_, err = store.Get(uuid.New())
	assert.ErrorIs(t, err, models.ErrSessionNotFound)

	store.Delete(session.ID)
	assert.Equal(t, 0, store.Count())
	_, err = store.Get(session.ID)
	assert.ErrorIs(t, err, models.ErrSessionNotFound)
}
