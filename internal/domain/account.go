package domain

// SessionState tracks whether an account is currently bound to a live
// connection. Tri-state on purpose: a never-logged-in account is
// distinguishable from one that logged out.
type SessionState int

const (
	SessionNew SessionState = iota
	SessionLoggedIn
	SessionLoggedOut
)

func (s SessionState) String() string {
	switch s {
	case SessionLoggedIn:
		return "logged-in"
	case SessionLoggedOut:
		return "logged-out"
	default:
		return "new"
	}
}

// Account binds a unique username to a password hash and one wallet.
// Accounts live for the process lifetime; the session flag is runtime-only
// state and is never persisted.
type Account struct {
	Username     string
	PasswordHash string
	Wallet       *Wallet

	session SessionState
}

// NewAccount creates an account with a freshly hashed password and wallet.
func NewAccount(username, passwordHash string, wallet *Wallet) *Account {
	return &Account{
		Username:     username,
		PasswordHash: passwordHash,
		Wallet:       wallet,
	}
}

// SessionState returns the current session flag.
func (a *Account) SessionState() SessionState {
	return a.session
}

// IsLoggedIn reports whether the account is bound to a live connection.
func (a *Account) IsLoggedIn() bool {
	return a.session == SessionLoggedIn
}

// MarkLoggedIn flips the session flag to logged-in. Owned by the dispatcher;
// at most one live connection holds this state for an account.
func (a *Account) MarkLoggedIn() {
	a.session = SessionLoggedIn
}

// MarkLoggedOut releases the session so the account is available again.
func (a *Account) MarkLoggedOut() {
	a.session = SessionLoggedOut
}
