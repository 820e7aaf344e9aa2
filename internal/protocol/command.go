// Package protocol parses raw input lines into typed commands. A command is
// immutable once parsed and carries no behavior beyond classification.
package protocol

import (
	"fmt"
	"strings"

	"crypto_wallet/internal/domain"

	"github.com/shopspring/decimal"
)

// CommandType is the closed verb vocabulary.
type CommandType int

const (
	Unknown CommandType = iota
	Login
	Register
	Buy
	Sell
	Deposit
	ListOfferings
	WalletSummary
	WalletOverall
	Help
	Exit
)

func (t CommandType) String() string {
	switch t {
	case Login:
		return "login"
	case Register:
		return "register"
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	case Deposit:
		return "deposit-money"
	case ListOfferings:
		return "list-offerings"
	case WalletSummary:
		return "get-wallet-summary"
	case WalletOverall:
		return "get-wallet-overall-summary"
	case Help:
		return "help"
	case Exit:
		return "exit"
	default:
		return "unknown"
	}
}

// Flagged argument prefixes for buy and sell.
const (
	FlagOffering = "--offering="
	FlagMoney    = "--money="
)

// argCounts is the exact expected argument count per verb. Checked exactly,
// not "at least".
var argCounts = map[CommandType]int{
	Login:         2,
	Register:      2,
	Buy:           2,
	Sell:          1,
	Deposit:       1,
	ListOfferings: 0,
	WalletSummary: 0,
	WalletOverall: 0,
	Help:          0,
	Exit:          0,
}

// Command is a parsed input line: a verb plus its ordered arguments.
type Command struct {
	Type CommandType
	Args []string
}

// Parse splits a raw line on whitespace, matches the first token
// case-insensitively against the vocabulary and checks the argument count.
func Parse(input string) (Command, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Command{}, domain.ErrInvalidCommand
	}

	verb := fields[0]
	args := fields[1:]

	typ := typeOf(verb)
	if typ == Unknown {
		return Command{}, fmt.Errorf("%w: %s is not a valid command", domain.ErrInvalidCommand, verb)
	}

	if len(args) != argCounts[typ] {
		return Command{}, fmt.Errorf("%w: %s expects %d argument(s), got %d",
			domain.ErrInvalidParameters, typ, argCounts[typ], len(args))
	}

	return Command{Type: typ, Args: args}, nil
}

func typeOf(verb string) CommandType {
	switch strings.ToLower(verb) {
	case "login":
		return Login
	case "register":
		return Register
	case "buy":
		return Buy
	case "sell":
		return Sell
	case "deposit-money":
		return Deposit
	case "list-offerings":
		return ListOfferings
	case "get-wallet-summary":
		return WalletSummary
	case "get-wallet-overall-summary":
		return WalletOverall
	case "help":
		return Help
	case "exit", "disconnect":
		return Exit
	default:
		return Unknown
	}
}

// IsEntry reports whether the command authenticates a session.
func (c Command) IsEntry() bool {
	return c.Type == Login || c.Type == Register
}

// Offering extracts the --offering=<symbol> flag. The flags of buy/sell may
// appear in any order.
func (c Command) Offering() (string, error) {
	raw, err := c.flag(FlagOffering)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", fmt.Errorf("%w: empty offering", domain.ErrInvalidParameters)
	}
	return raw, nil
}

// Money extracts and parses the --money=<amount> flag.
func (c Command) Money() (decimal.Decimal, error) {
	raw, err := c.flag(FlagMoney)
	if err != nil {
		return decimal.Zero, err
	}
	return ParseAmount(raw)
}

func (c Command) flag(prefix string) (string, error) {
	for _, arg := range c.Args {
		if strings.HasPrefix(arg, prefix) {
			return strings.TrimPrefix(arg, prefix), nil
		}
	}
	return "", fmt.Errorf("%w: missing %s", domain.ErrInvalidParameters, prefix)
}

// ParseAmount parses a decimal amount argument.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", domain.ErrInvalidNumber, raw)
	}
	return amount, nil
}
