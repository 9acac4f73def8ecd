package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles {
		got, err := ParseRole(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
		assert.True(t, got.Valid())
	}

	got, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, got)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
	assert.False(t, Role("superuser").Valid())
}

func TestParsePrivacy(t *testing.T) {
	p, err := ParsePrivacy("")
	require.NoError(t, err)
	assert.Equal(t, PrivacyPublic, p)

	p, err = ParsePrivacy(" Private ")
	require.NoError(t, err)
	assert.Equal(t, PrivacyPrivate, p)

	_, err = ParsePrivacy("friends")
	assert.Error(t, err)
}

func TestImageIDGenerator(t *testing.T) {
	a, b := newImageID(), newImageID()
	assert.Len(t, a, 21)
	assert.NotEqual(t, a, b)
}
