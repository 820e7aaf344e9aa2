package domain

import "errors"

// The error vocabulary of the trading core. Every failure a command handler
// can produce maps to exactly one of these sentinels; the server replies with
// the error text and the connection stays open.

// Protocol errors: the request itself is malformed.
var (
	// ErrInvalidCommand is returned when the verb is not in the command vocabulary.
	ErrInvalidCommand = errors.New("invalid command")

	// ErrInvalidParameters is returned on an argument count mismatch or a
	// missing --offering=/--money= flag.
	ErrInvalidParameters = errors.New("invalid command parameters")

	// ErrInvalidNumber is returned when a numeric argument does not parse.
	ErrInvalidNumber = errors.New("invalid number parameter given")
)

// Authorization errors: no state is mutated on any of these paths.
var (
	// ErrAccountNotFound covers both an unknown username and a wrong
	// password. The two cases are indistinguishable to the caller.
	ErrAccountNotFound = errors.New("incorrect username or password")

	// ErrActiveSession is returned when a login targets an account that is
	// already bound to a live connection.
	ErrActiveSession = errors.New("account already has an active session")

	ErrTakenUsername = errors.New("the username has been taken")
	ErrWeakPassword  = errors.New("the selected password is too weak, make it at least 6 symbols long")

	ErrInvalidUsername = errors.New("invalid username, it cannot be blank or contain whitespace")
	ErrInvalidPassword = errors.New("invalid password, it cannot be blank or contain whitespace")
)

// Domain errors: validated before any mutation, so a failed buy/sell leaves
// balance and lots untouched.
var (
	ErrInsufficientFunds = errors.New("not enough money in the wallet for this transaction")

	// ErrCryptoNotFound is returned by a sell of a symbol with no lots.
	ErrCryptoNotFound = errors.New("crypto not found in the wallet")

	// ErrAssetNotOffered is returned when a symbol is absent from the
	// current market snapshot.
	ErrAssetNotOffered = errors.New("there is not an asset with that name")

	// ErrMissingSnapshot is returned when no market snapshot has been
	// published yet.
	ErrMissingSnapshot = errors.New("stock exchange information is missing")

	ErrNonPositiveAmount = errors.New("any given number should be positive")
	ErrBlankSymbol       = errors.New("invalid crypto name")
	ErrMissingWallet     = errors.New("invalid crypto wallet")
)
