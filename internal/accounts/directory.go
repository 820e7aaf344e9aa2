// Package accounts holds the username -> account directory: registration,
// login and lookup. Session flag toggling is owned by the caller, not the
// directory. The directory is touched only from the dispatcher goroutine
// (startup load and shutdown flush happen before and after it runs), so
// there is no locking here.
package accounts

import (
	"strings"

	"crypto_wallet/internal/domain"
)

const minPasswordLength = 6

// Directory maps usernames to accounts.
type Directory struct {
	accounts map[string]*domain.Account
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{accounts: make(map[string]*domain.Account)}
}

// Register validates the username and password, hashes the password and
// stores a new account owning the given wallet. Nothing is mutated on any
// failure path.
func (d *Directory) Register(username, password string, wallet *domain.Wallet) (*domain.Account, error) {
	if !validCredentialString(username) {
		return nil, domain.ErrInvalidUsername
	}
	if _, taken := d.accounts[username]; taken {
		return nil, domain.ErrTakenUsername
	}
	if !validCredentialString(password) {
		return nil, domain.ErrInvalidPassword
	}
	if len(password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}
	if wallet == nil {
		return nil, domain.ErrMissingWallet
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	account := domain.NewAccount(username, hash, wallet)
	d.accounts[username] = account

	return account, nil
}

// Login returns the account for the credentials. An unknown username and a
// wrong password both fail with ErrAccountNotFound so the caller cannot tell
// whether the username exists. The caller is responsible for marking the
// account logged in.
func (d *Directory) Login(username, password string) (*domain.Account, error) {
	account, ok := d.accounts[username]
	if !ok || !checkPassword(account.PasswordHash, password) {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

// Get looks up an account by username.
func (d *Directory) Get(username string) (*domain.Account, bool) {
	account, ok := d.accounts[username]
	return account, ok
}

// All returns every registered account. Used by the persistence flush.
func (d *Directory) All() []*domain.Account {
	accounts := make([]*domain.Account, 0, len(d.accounts))
	for _, a := range d.accounts {
		accounts = append(accounts, a)
	}
	return accounts
}

// Put inserts an already-built account, replacing any existing entry.
// Used when loading persisted accounts at startup.
func (d *Directory) Put(account *domain.Account) {
	d.accounts[account.Username] = account
}

// Len returns the number of registered accounts.
func (d *Directory) Len() int {
	return len(d.accounts)
}

// validCredentialString rejects blank strings and any whitespace.
func validCredentialString(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n")
}
