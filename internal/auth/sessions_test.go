package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eanlabs/bioplast/internal/models"
)

func TestGenerateToken(t *testing.T) {
	a, err := generateToken()
	require.NoError(t, err)
	b, err := generateToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, tokenPrefix))
	assert.Len(t, a, len(tokenPrefix)+24)
	assert.NotEqual(t, a, b)
}

func TestMemorySessions(t *testing.T) {
	ctx := context.Background()
	sessions := NewMemorySessions()

	token, err := sessions.Create(ctx, &models.Session{
		UserID: "u1",
		Name:   "Ana",
		Email:  "ana@example.com",
		Role:   models.RoleStudent,
	})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	sess, err := sessions.Resolve(ctx, token)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, models.RoleStudent, sess.Role)

	unknown, err := sessions.Resolve(ctx, "sk-biopl-000000000000000000000000")
	require.NoError(t, err)
	assert.Nil(t, unknown, "unknown token resolves to no session, not an error")

	require.NoError(t, sessions.Destroy(ctx, token))
	sess, err = sessions.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, sess)

	assert.NoError(t, sessions.Close())
}
