package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want AccountID
	}{
		{"lowercases", "Alice", "alice"},
		{"trims whitespace", "  bob  ", "bob"},
		{"separators become underscores", "some-name.v2", "some_name_v2"},
		{"commas and spaces become underscores", "a b,c", "a_b_c"},
		{"literal underscores dropped", "under_score", "underscore"},
		{"newlines dropped", "li\nne", "line"},
		{"non-ascii dropped", "náme!", "nme"},
		{"digits kept", "player42", "player42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeID(tt.in))
		})
	}
}

func TestNewAccountNormalizesID(t *testing.T) {
	account := NewAccount("Some Name", "pw")
	assert.Equal(t, AccountID("some_name"), account.ID)
	assert.NotEmpty(t, account.Hash)
}

func TestAccountCheck(t *testing.T) {
	account := NewAccount("alice", "hunter2")

	assert.True(t, account.Check("hunter2"))
	assert.False(t, account.Check("wrong"))
	assert.False(t, account.Check(""))
}

func TestAccountHashDeterministic(t *testing.T) {
	a := NewAccount("alice", "pw")
	b := NewAccount("alice", "pw")
	c := NewAccount("alice", "other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Hash, c.Hash)
}

func TestAccountEqualityIsByValue(t *testing.T) {
	a := NewAccount("alice", "pw")
	b := NewAccount("ALICE", "pw")

	// Normalization makes the ids identical, so the accounts are identical.
	assert.Equal(t, a, b)

	m := map[Account]bool{a: true}
	assert.True(t, m[b])
}
