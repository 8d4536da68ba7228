package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefolio/notefolio/pkg/models"
)

func TestMemoryCurrent(t *testing.T) {
	m := NewMemory()

	_, err := m.Current()
	assert.ErrorIs(t, err, ErrNotSignedIn)

	user := models.User{ID: models.NewUserID(), Name: "Ada", Email: "ada@example.com"}
	m.SignIn(user)
	got, err := m.Current()
	require.NoError(t, err)
	assert.Equal(t, user, got)

	m.SignOut()
	_, err = m.Current()
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestMemoryOnChange(t *testing.T) {
	m := NewMemory()

	var events []models.User
	cancel := m.OnChange(func(u models.User) { events = append(events, u) })

	user := models.User{ID: models.NewUserID(), Name: "Ada"}
	m.SignIn(user)
	m.SignOut()
	require.Len(t, events, 2)
	assert.Equal(t, user, events[0])
	assert.True(t, events[1].ID.IsZero(), "sign-out delivers the zero user")

	cancel()
	cancel() // idempotent
	m.SignIn(user)
	assert.Len(t, events, 2, "no delivery after cancel")
}
