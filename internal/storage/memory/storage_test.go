package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netpad-project/netpad/internal/model"
)

func TestAccountRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	account := model.NewAccount("alice", "secret")
	require.NoError(t, s.SaveAccount(ctx, account))

	got, err := s.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account, got)

	_, err = s.GetAccount(ctx, "nobody")
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestDeleteAccount(t *testing.T) {
	s := New()
	ctx := context.Background()

	account := model.NewAccount("alice", "secret")
	require.NoError(t, s.SaveAccount(ctx, account))
	require.NoError(t, s.DeleteAccount(ctx, account.ID))

	_, err := s.GetAccount(ctx, account.ID)
	assert.ErrorIs(t, err, model.ErrAccountNotFound)
}

func TestListAccountsSorted(t *testing.T) {
	s := New()
	ctx := context.Background()

	for _, id := range []string{"carol", "alice", "bob"} {
		require.NoError(t, s.SaveAccount(ctx, model.NewAccount(id, "pw")))
	}

	accounts, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 3)
	assert.Equal(t, model.AccountID("alice"), accounts[0].ID)
	assert.Equal(t, model.AccountID("carol"), accounts[2].ID)
}

func TestArchiveRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	archive := model.Archive{Banned: []model.Account{model.NewAccount("mallory", "pw")}}
	require.NoError(t, s.SaveArchive(ctx, "Demo", archive))

	got, err := s.GetArchive(ctx, "Demo")
	require.NoError(t, err)
	assert.Equal(t, archive, got)

	_, err = s.GetArchive(ctx, "Other")
	assert.ErrorIs(t, err, model.ErrArchiveNotFound)

	require.NoError(t, s.DeleteArchive(ctx, "Demo"))
	_, err = s.GetArchive(ctx, "Demo")
	assert.ErrorIs(t, err, model.ErrArchiveNotFound)
}
