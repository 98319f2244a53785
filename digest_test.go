package authority_test

import (
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-authority"
)

func TestHashPassword(t *testing.T) {
	hash, err := authority.HashPassword("realm-salt", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.NotContains(t, hash, "correct horse battery")

	require.NoError(t, authority.ComparePasswordAndHash("realm-salt", "correct horse battery", hash))
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := authority.HashPassword("realm-salt", "")
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, authority.ErrNoEmptyPassword))
}

func TestComparePasswordAndHashMismatch(t *testing.T) {
	hash, err := authority.HashPassword("realm-salt", "correct horse battery")
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		err := authority.ComparePasswordAndHash("realm-salt", "wrong password", hash)
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, authority.ErrAuthenticationFailed))
	})

	t.Run("wrong salt", func(t *testing.T) {
		err := authority.ComparePasswordAndHash("other-salt", "correct horse battery", hash)
		require.Error(t, err)
		assert.True(t, goerrors.Is(err, authority.ErrAuthenticationFailed))
	})
}
