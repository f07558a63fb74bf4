package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUsername(t *testing.T) {
	assert.Equal(t, "alice", NormalizeUsername("  Alice "))
}

func TestValidate(t *testing.T) {
	ok := User{ID: "u1", Username: "alice", PasswordHash: "$2a$10$x"}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Username = "al ice"
	assert.Error(t, bad.Validate())

	bad = ok
	bad.PasswordHash = ""
	assert.Error(t, bad.Validate())
}
