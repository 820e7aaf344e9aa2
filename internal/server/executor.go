package server

import (
	"fmt"
	"sort"
	"strings"

	"crypto_wallet/internal/accounts"
	"crypto_wallet/internal/domain"
	"crypto_wallet/internal/protocol"
	"crypto_wallet/internal/service"
)

const maxOfferingsDisplayed = 30

const helpText = `Commands and their usage:
login <username> <password>
register <username> <password>
deposit-money <amount>
buy --offering=<symbol> --money=<amount>
sell --offering=<symbol>
list-offerings
get-wallet-summary
get-wallet-overall-summary
help
exit`

// Executor runs parsed commands against the account directory and a wallet.
// It owns no session state; the dispatcher decides what may run when.
type Executor struct {
	directory *accounts.Directory
}

// NewExecutor creates an executor over the given directory.
func NewExecutor(directory *accounts.Directory) *Executor {
	return &Executor{directory: directory}
}

// Authorize runs an entry command (login or register) and returns the
// account to bind. A login against an account with a live session fails with
// ErrActiveSession; the directory itself is untouched in that case.
func (e *Executor) Authorize(cmd protocol.Command) (*domain.Account, error) {
	switch cmd.Type {
	case protocol.Login:
		account, err := e.directory.Login(cmd.Args[0], cmd.Args[1])
		if err != nil {
			return nil, err
		}
		if account.IsLoggedIn() {
			return nil, domain.ErrActiveSession
		}
		return account, nil
	case protocol.Register:
		return e.directory.Register(cmd.Args[0], cmd.Args[1], domain.NewWallet())
	default:
		return nil, domain.ErrInvalidCommand
	}
}

// Execute runs an authenticated command against the wallet and the current
// market snapshot. Returns the reply text and whether wallet state mutated
// (the dispatcher persists after mutations).
func (e *Executor) Execute(cmd protocol.Command, wallet *domain.Wallet, snap service.Snapshot) (string, bool) {
	switch cmd.Type {
	case protocol.Deposit:
		return e.deposit(cmd, wallet)
	case protocol.Buy:
		return e.buy(cmd, wallet, snap)
	case protocol.Sell:
		return e.sell(cmd, wallet, snap)
	case protocol.ListOfferings:
		return e.listOfferings(snap), false
	case protocol.WalletSummary:
		return wallet.Summary(), false
	case protocol.WalletOverall:
		if snap == nil {
			return reply(domain.ErrMissingSnapshot), false
		}
		return wallet.OverallStats(snap), false
	case protocol.Help:
		return helpText, false
	default:
		return "Cannot execute that operation!", false
	}
}

func (e *Executor) deposit(cmd protocol.Command, wallet *domain.Wallet) (string, bool) {
	amount, err := protocol.ParseAmount(cmd.Args[0])
	if err != nil {
		return reply(err), false
	}
	if err := wallet.DepositMoney(amount); err != nil {
		return reply(err), false
	}
	return fmt.Sprintf("Your balance is now %s$", wallet.Balance().StringFixed(2)), true
}

func (e *Executor) buy(cmd protocol.Command, wallet *domain.Wallet, snap service.Snapshot) (string, bool) {
	symbol, err := cmd.Offering()
	if err != nil {
		return reply(err), false
	}
	money, err := cmd.Money()
	if err != nil {
		return reply(err), false
	}

	asset, err := lookupAsset(symbol, snap)
	if err != nil {
		return reply(err), false
	}

	units, err := wallet.BuyAsset(symbol, asset.Price, money)
	if err != nil {
		return reply(err), false
	}

	return fmt.Sprintf("Successfully bought %s of %s!", units.String(), symbol), true
}

func (e *Executor) sell(cmd protocol.Command, wallet *domain.Wallet, snap service.Snapshot) (string, bool) {
	symbol, err := cmd.Offering()
	if err != nil {
		return reply(err), false
	}

	asset, err := lookupAsset(symbol, snap)
	if err != nil {
		return reply(err), false
	}

	proceeds, err := wallet.SellAsset(symbol, asset.Price)
	if err != nil {
		return reply(err), false
	}

	return fmt.Sprintf("Successfully earned %s from selling your %s!", proceeds.StringFixed(2), symbol), true
}

// listOfferings renders at most 30 assets, sorted by price descending.
func (e *Executor) listOfferings(snap service.Snapshot) string {
	if snap == nil {
		return reply(domain.ErrMissingSnapshot)
	}

	assets := make([]domain.Asset, 0, len(snap))
	for _, asset := range snap {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool {
		if !assets[i].Price.Equal(assets[j].Price) {
			return assets[i].Price.GreaterThan(assets[j].Price)
		}
		return assets[i].ID < assets[j].ID
	})
	if len(assets) > maxOfferingsDisplayed {
		assets = assets[:maxOfferingsDisplayed]
	}

	var sb strings.Builder
	for _, asset := range assets {
		fmt.Fprintf(&sb, "ID: %s, Name: %s, Price: %s$\n", asset.ID, asset.Name, asset.Price.StringFixed(2))
	}
	return sb.String()
}

func lookupAsset(symbol string, snap service.Snapshot) (domain.Asset, error) {
	if snap == nil {
		return domain.Asset{}, domain.ErrMissingSnapshot
	}
	asset, ok := snap[symbol]
	if !ok {
		return domain.Asset{}, domain.ErrAssetNotOffered
	}
	return asset, nil
}

// reply turns a classified error into the client-visible text.
func reply(err error) string {
	return err.Error()
}
