package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := ParseRole("user")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)

	role, err = ParseRole(" admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	for _, raw := range []string{"", "Admin", "superuser", "root"} {
		_, err := ParseRole(raw)
		assert.Error(t, err, raw)
	}
}

func TestTaskOwnedBy(t *testing.T) {
	task := &Task{ID: 1, OwnerID: 7}
	assert.True(t, task.OwnedBy(7))
	assert.False(t, task.OwnedBy(8))

	var missing *Task
	assert.False(t, missing.OwnedBy(7))
}
