package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Lot is a single purchase record fixing the cost basis of one buy.
// Lots are never merged or split; each buy appends a new one.
type Lot struct {
	Amount   decimal.Decimal `json:"amount"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// Wallet is the per-account ledger: a cash balance plus, per symbol, the
// ordered list of lots still held. Only the dispatcher goroutine touches a
// wallet, so there is no locking here.
type Wallet struct {
	balance decimal.Decimal
	lots    map[string][]Lot
}

// WalletState is the serialization shape of a wallet: balance plus
// symbol -> ordered {amount, unit cost} pairs. The persistence layer
// round-trips exactly this.
type WalletState struct {
	Balance decimal.Decimal  `json:"balance"`
	Lots    map[string][]Lot `json:"lots"`
}

// NewWallet creates an empty wallet with zero balance.
func NewWallet() *Wallet {
	return &Wallet{
		balance: decimal.Zero,
		lots:    make(map[string][]Lot),
	}
}

// WalletFromState rebuilds a wallet from its persisted state.
func WalletFromState(st WalletState) *Wallet {
	w := NewWallet()
	w.balance = st.Balance
	for symbol, lots := range st.Lots {
		w.lots[symbol] = append([]Lot(nil), lots...)
	}
	return w
}

// State returns a deep copy of the wallet in its serialization shape.
func (w *Wallet) State() WalletState {
	lots := make(map[string][]Lot, len(w.lots))
	for symbol, ls := range w.lots {
		lots[symbol] = append([]Lot(nil), ls...)
	}
	return WalletState{Balance: w.balance, Lots: lots}
}

// Balance returns the current cash balance.
func (w *Wallet) Balance() decimal.Decimal {
	return w.balance
}

// Lots returns a copy of the lot list for a symbol, oldest first.
func (w *Wallet) Lots(symbol string) []Lot {
	return append([]Lot(nil), w.lots[symbol]...)
}

// DepositMoney credits the balance. The amount must be strictly positive.
func (w *Wallet) DepositMoney(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	w.balance = w.balance.Add(amount)
	return nil
}

// BuyAsset spends money on a symbol at unitPrice and appends a new lot of
// money/unitPrice units. Validation happens fully before any mutation, so a
// failed buy leaves balance and lots untouched. Returns the units bought.
func (w *Wallet) BuyAsset(symbol string, unitPrice, money decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(symbol) == "" {
		return decimal.Zero, ErrBlankSymbol
	}
	if !unitPrice.IsPositive() || !money.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}
	if money.GreaterThan(w.balance) {
		return decimal.Zero, ErrInsufficientFunds
	}

	units := money.Div(unitPrice)
	w.lots[symbol] = append(w.lots[symbol], Lot{Amount: units, UnitCost: unitPrice})
	w.balance = w.balance.Sub(money)

	return units, nil
}

// SellAsset liquidates the full holding of a symbol at currentPrice. There is
// no partial sell: every lot for the symbol is removed and the cost basis is
// discarded. Returns the proceeds credited to the balance.
func (w *Wallet) SellAsset(symbol string, currentPrice decimal.Decimal) (decimal.Decimal, error) {
	if strings.TrimSpace(symbol) == "" {
		return decimal.Zero, ErrBlankSymbol
	}
	if !currentPrice.IsPositive() {
		return decimal.Zero, ErrNonPositiveAmount
	}
	lots, ok := w.lots[symbol]
	if !ok {
		return decimal.Zero, ErrCryptoNotFound
	}

	totalUnits := decimal.Zero
	for _, lot := range lots {
		totalUnits = totalUnits.Add(lot.Amount)
	}

	delete(w.lots, symbol)

	proceeds := totalUnits.Mul(currentPrice)
	w.balance = w.balance.Add(proceeds)

	return proceeds, nil
}

// Summary renders the balance and the total units held per symbol.
// No cost or price information is included.
func (w *Wallet) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Balance: %s$\n", w.balance.String())

	for _, symbol := range w.heldSymbols() {
		total := decimal.Zero
		for _, lot := range w.lots[symbol] {
			total = total.Add(lot.Amount)
		}
		fmt.Fprintf(&sb, "Crypto: %s, Amount: %s\n", symbol, total.String())
	}

	return sb.String()
}

// OverallStats renders per-symbol profit and loss against the given price
// snapshot plus the total across symbols. A symbol missing from the snapshot
// is valued at zero.
func (w *Wallet) OverallStats(prices map[string]Asset) string {
	var sb strings.Builder

	totalPNL := decimal.Zero
	for _, symbol := range w.heldSymbols() {
		pnl := w.profitAndLoss(symbol, prices)
		totalPNL = totalPNL.Add(pnl)
		fmt.Fprintf(&sb, "Crypto: %s, P&L: %s$\n", symbol, pnl.StringFixed(2))
	}

	fmt.Fprintf(&sb, "Total P&L: %s$\n", totalPNL.StringFixed(2))

	return sb.String()
}

// profitAndLoss is current value minus cost basis for one held symbol.
func (w *Wallet) profitAndLoss(symbol string, prices map[string]Asset) decimal.Decimal {
	amount := decimal.Zero
	costBasis := decimal.Zero
	for _, lot := range w.lots[symbol] {
		amount = amount.Add(lot.Amount)
		costBasis = costBasis.Add(lot.Amount.Mul(lot.UnitCost))
	}

	currentPrice := decimal.Zero
	if asset, ok := prices[symbol]; ok {
		currentPrice = asset.Price
	}

	return amount.Mul(currentPrice).Sub(costBasis)
}

// heldSymbols returns the held symbols sorted for deterministic output.
func (w *Wallet) heldSymbols() []string {
	symbols := make([]string, 0, len(w.lots))
	for symbol := range w.lots {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
