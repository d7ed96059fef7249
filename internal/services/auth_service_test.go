package services

import (
	"freelyforms-backend/internal/database"
	"freelyforms-backend/internal/models"
	"freelyforms-backend/internal/utils"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUser(t *testing.T) {
	setupTestDB(t)

	first, err := RegisterUser("first@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, first.Role, "first account becomes admin")
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, "secret1", first.Password)

	second, err := RegisterUser("second@example.com", "secret2")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, second.Role)

	_, err = RegisterUser("second@example.com", "other")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginUser(t *testing.T) {
	setupTestDB(t)

	u, err := RegisterUser("ada@example.com", "secret")
	require.NoError(t, err)

	token, got, err := LoginUser("ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	claims, err := utils.ValidateToken(token)
	require.NoError(t, err)
	id, _ := utils.ClaimUserID(claims)
	assert.Equal(t, u.ID, id)
	assert.Equal(t, []string{models.RoleUser, models.RoleAdmin}, utils.ClaimRoles(claims))

	_, _, err = LoginUser("ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = LoginUser("nobody@example.com", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureAdmin(t *testing.T) {
	setupTestDB(t)

	require.NoError(t, EnsureAdmin("", ""))
	require.NoError(t, EnsureAdmin("root@example.com", "secret"))
	require.NoError(t, EnsureAdmin("root@example.com", "secret"))

	var users []models.User
	require.NoError(t, database.DB.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
}

func TestFindUserByID(t *testing.T) {
	setupTestDB(t)
	mr := setupTestRedis(t)

	u, err := RegisterUser("ada@example.com", "secret")
	require.NoError(t, err)

	got, err := FindUserByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, got.Username)
	assert.True(t, mr.Exists(userCacheKey(u.ID)))

	_, err = FindUserByID("missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDenylist(t *testing.T) {
	mr := setupTestRedis(t)

	listed, err := IsDenylisted("tok")
	require.NoError(t, err)
	assert.False(t, listed)

	require.NoError(t, AddToDenylist("tok", time.Minute))
	listed, err = IsDenylisted("tok")
	require.NoError(t, err)
	assert.True(t, listed)

	mr.FastForward(2 * time.Minute)
	listed, err = IsDenylisted("tok")
	require.NoError(t, err)
	assert.False(t, listed)

	require.NoError(t, AddToDenylist("expired", 0))
	assert.False(t, mr.Exists(denylistPrefix+"expired"))
}
