package filevault_test

import (
	"testing"

	"github.com/sanketpal/filevault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, salt, err := filevault.HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.Len(t, salt, 16)

	t.Run("same password different salt gives different hash", func(t *testing.T) {
		hash2, salt2, err := filevault.HashPassword("hunter2")
		require.NoError(t, err)
		assert.NotEqual(t, salt, salt2)
		assert.NotEqual(t, hash, hash2)
	})
}

func TestCheckPassword(t *testing.T) {
	hash, salt, err := filevault.HashPassword("hunter2")
	require.NoError(t, err)

	assert.True(t, filevault.CheckPassword("hunter2", hash, salt))
	assert.False(t, filevault.CheckPassword("hunter3", hash, salt))
	assert.False(t, filevault.CheckPassword("", hash, salt))

	t.Run("wrong salt fails", func(t *testing.T) {
		otherSalt := make([]byte, len(salt))
		copy(otherSalt, salt)
		otherSalt[0] ^= 0xff
		assert.False(t, filevault.CheckPassword("hunter2", hash, otherSalt))
	})
}
