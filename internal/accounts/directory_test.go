package accounts

import (
	"testing"

	"crypto_wallet/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_Register(t *testing.T) {
	d := NewDirectory()

	account, err := d.Register("alice", "s3cret-pass", domain.NewWallet())
	require.NoError(t, err)
	require.NotNil(t, account)

	assert.Equal(t, "alice", account.Username)
	assert.NotEqual(t, "s3cret-pass", account.PasswordHash, "password must be stored hashed")
	assert.Equal(t, domain.SessionNew, account.SessionState())
	assert.Equal(t, 1, d.Len())
}

func TestDirectory_RegisterTakenUsername(t *testing.T) {
	d := NewDirectory()

	_, err := d.Register("alice", "s3cret-pass", domain.NewWallet())
	require.NoError(t, err)

	_, err = d.Register("alice", "another-pass", domain.NewWallet())
	assert.ErrorIs(t, err, domain.ErrTakenUsername)
	assert.Equal(t, 1, d.Len(), "failed registration must not mutate the directory")
}

func TestDirectory_RegisterValidation(t *testing.T) {
	d := NewDirectory()

	tests := []struct {
		name     string
		username string
		password string
		wallet   *domain.Wallet
		wantErr  error
	}{
		{"blank username", "", "s3cret-pass", domain.NewWallet(), domain.ErrInvalidUsername},
		{"username with space", "a lice", "s3cret-pass", domain.NewWallet(), domain.ErrInvalidUsername},
		{"password with space", "alice", "s3cret pass", domain.NewWallet(), domain.ErrInvalidPassword},
		{"short password", "alice", "abc12", domain.NewWallet(), domain.ErrWeakPassword},
		{"missing wallet", "alice", "s3cret-pass", nil, domain.ErrMissingWallet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Register(tt.username, tt.password, tt.wallet)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, d.Len(), "no failure path may mutate the directory")
		})
	}
}

func TestDirectory_Login(t *testing.T) {
	d := NewDirectory()
	registered, err := d.Register("alice", "s3cret-pass", domain.NewWallet())
	require.NoError(t, err)

	account, err := d.Login("alice", "s3cret-pass")
	require.NoError(t, err)
	assert.Same(t, registered, account)
	// the directory does not toggle the session flag, the caller does
	assert.False(t, account.IsLoggedIn())
}

func TestDirectory_LoginFailuresAreIndistinguishable(t *testing.T) {
	d := NewDirectory()
	_, err := d.Register("alice", "s3cret-pass", domain.NewWallet())
	require.NoError(t, err)

	_, unknownErr := d.Login("bob", "s3cret-pass")
	_, wrongPassErr := d.Login("alice", "wrong-pass")

	assert.ErrorIs(t, unknownErr, domain.ErrAccountNotFound)
	assert.ErrorIs(t, wrongPassErr, domain.ErrAccountNotFound)
	assert.Equal(t, unknownErr.Error(), wrongPassErr.Error(),
		"unknown username and wrong password must not be distinguishable")
}

func TestDirectory_SessionFlag(t *testing.T) {
	d := NewDirectory()
	account, err := d.Register("alice", "s3cret-pass", domain.NewWallet())
	require.NoError(t, err)

	assert.Equal(t, domain.SessionNew, account.SessionState())

	account.MarkLoggedIn()
	assert.True(t, account.IsLoggedIn())

	account.MarkLoggedOut()
	assert.False(t, account.IsLoggedIn())
	assert.Equal(t, domain.SessionLoggedOut, account.SessionState(),
		"logged-out is distinct from never-logged-in")
}
