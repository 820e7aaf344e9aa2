package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return v
}

// tolerance for values produced by non-terminating division
var epsilon = decimal.New(1, -9)

func assertClose(t *testing.T, got, want decimal.Decimal, label string) {
	t.Helper()
	if got.Sub(want).Abs().GreaterThan(epsilon) {
		t.Errorf("%s: expected %s, got %s", label, want, got)
	}
}

func TestWallet_DepositMoney(t *testing.T) {
	w := NewWallet()

	if err := w.DepositMoney(d(t, "10")); err != nil {
		t.Fatalf("DepositMoney failed: %v", err)
	}
	if !w.Balance().Equal(d(t, "10")) {
		t.Errorf("expected balance 10, got %s", w.Balance())
	}

	if err := w.DepositMoney(decimal.Zero); !errors.Is(err, ErrNonPositiveAmount) {
		t.Errorf("expected ErrNonPositiveAmount for zero deposit, got %v", err)
	}
	if err := w.DepositMoney(d(t, "-1")); !errors.Is(err, ErrNonPositiveAmount) {
		t.Errorf("expected ErrNonPositiveAmount for negative deposit, got %v", err)
	}
	if !w.Balance().Equal(d(t, "10")) {
		t.Errorf("failed deposits must not change balance, got %s", w.Balance())
	}
}

func TestWallet_BuySellScenario(t *testing.T) {
	w := NewWallet()
	if err := w.DepositMoney(d(t, "10")); err != nil {
		t.Fatal(err)
	}

	// buy BTC at 10 for 2.4, ETH at 2 for 3, BTC again at 12 for 2
	units, err := w.BuyAsset("BTC", d(t, "10"), d(t, "2.4"))
	if err != nil {
		t.Fatalf("buy BTC failed: %v", err)
	}
	if !units.Equal(d(t, "0.24")) {
		t.Errorf("expected 0.24 BTC, got %s", units)
	}

	if _, err := w.BuyAsset("ETH", d(t, "2"), d(t, "3")); err != nil {
		t.Fatalf("buy ETH failed: %v", err)
	}
	if _, err := w.BuyAsset("BTC", d(t, "12"), d(t, "2")); err != nil {
		t.Fatalf("second BTC buy failed: %v", err)
	}

	if !w.Balance().Equal(d(t, "2.6")) {
		t.Errorf("expected balance 2.6, got %s", w.Balance())
	}

	// lots are appended, never merged
	btcLots := w.Lots("BTC")
	if len(btcLots) != 2 {
		t.Fatalf("expected 2 BTC lots, got %d", len(btcLots))
	}
	if !btcLots[0].Amount.Equal(d(t, "0.24")) || !btcLots[0].UnitCost.Equal(d(t, "10")) {
		t.Errorf("unexpected first BTC lot: %+v", btcLots[0])
	}
	assertClose(t, btcLots[1].Amount, d(t, "0.1666666666666667"), "second BTC lot amount")
	if !btcLots[1].UnitCost.Equal(d(t, "12")) {
		t.Errorf("unexpected second BTC lot cost: %s", btcLots[1].UnitCost)
	}

	ethLots := w.Lots("ETH")
	if len(ethLots) != 1 {
		t.Fatalf("expected 1 ETH lot, got %d", len(ethLots))
	}
	if !ethLots[0].Amount.Equal(d(t, "1.5")) || !ethLots[0].UnitCost.Equal(d(t, "2")) {
		t.Errorf("unexpected ETH lot: %+v", ethLots[0])
	}

	// selling ETH at 0.3 liquidates the full holding: 1.5 * 0.3 = 0.45
	proceeds, err := w.SellAsset("ETH", d(t, "0.3"))
	if err != nil {
		t.Fatalf("sell ETH failed: %v", err)
	}
	if !proceeds.Equal(d(t, "0.45")) {
		t.Errorf("expected proceeds 0.45, got %s", proceeds)
	}
	if len(w.Lots("ETH")) != 0 {
		t.Error("ETH lots must be removed after sell")
	}
	if !w.Balance().Equal(d(t, "3.05")) {
		t.Errorf("expected balance 3.05, got %s", w.Balance())
	}
}

func TestWallet_CostBasisIsLossless(t *testing.T) {
	w := NewWallet()
	if err := w.DepositMoney(d(t, "1000")); err != nil {
		t.Fatal(err)
	}

	buys := []struct {
		symbol string
		price  string
		money  string
	}{
		{"BTC", "37000.5", "120.75"},
		{"BTC", "41999.99", "33"},
		{"ETH", "2222.22", "99.9"},
		{"BTC", "39000", "7.5"},
	}

	spentPerSymbol := map[string]decimal.Decimal{}
	totalSpent := decimal.Zero
	for _, b := range buys {
		if _, err := w.BuyAsset(b.symbol, d(t, b.price), d(t, b.money)); err != nil {
			t.Fatalf("buy %s failed: %v", b.symbol, err)
		}
		money := d(t, b.money)
		spentPerSymbol[b.symbol] = spentPerSymbol[b.symbol].Add(money)
		totalSpent = totalSpent.Add(money)
	}

	// balance decreases by exactly the money spent
	if !w.Balance().Equal(d(t, "1000").Sub(totalSpent)) {
		t.Errorf("expected balance %s, got %s", d(t, "1000").Sub(totalSpent), w.Balance())
	}

	// sum(lot.amount * lot.unitCost) recovers the money spent per symbol
	for symbol, spent := range spentPerSymbol {
		costBasis := decimal.Zero
		for _, lot := range w.Lots(symbol) {
			costBasis = costBasis.Add(lot.Amount.Mul(lot.UnitCost))
		}
		assertClose(t, costBasis, spent, "cost basis of "+symbol)
	}
}

func TestWallet_BuyInsufficientFunds(t *testing.T) {
	w := NewWallet()
	if err := w.DepositMoney(d(t, "5")); err != nil {
		t.Fatal(err)
	}

	_, err := w.BuyAsset("BTC", d(t, "10"), d(t, "5.01"))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	// failed buy leaves everything untouched
	if !w.Balance().Equal(d(t, "5")) {
		t.Errorf("balance changed on failed buy: %s", w.Balance())
	}
	if len(w.Lots("BTC")) != 0 {
		t.Error("lots created on failed buy")
	}
}

func TestWallet_BuyValidation(t *testing.T) {
	w := NewWallet()
	if err := w.DepositMoney(d(t, "5")); err != nil {
		t.Fatal(err)
	}

	if _, err := w.BuyAsset("  ", d(t, "10"), d(t, "1")); !errors.Is(err, ErrBlankSymbol) {
		t.Errorf("expected ErrBlankSymbol, got %v", err)
	}
	if _, err := w.BuyAsset("BTC", decimal.Zero, d(t, "1")); !errors.Is(err, ErrNonPositiveAmount) {
		t.Errorf("expected ErrNonPositiveAmount for zero price, got %v", err)
	}
	if _, err := w.BuyAsset("BTC", d(t, "10"), d(t, "-1")); !errors.Is(err, ErrNonPositiveAmount) {
		t.Errorf("expected ErrNonPositiveAmount for negative money, got %v", err)
	}
}

func TestWallet_SellUnheldSymbol(t *testing.T) {
	w := NewWallet()
	if err := w.DepositMoney(d(t, "5")); err != nil {
		t.Fatal(err)
	}

	_, err := w.SellAsset("DOGE", d(t, "0.1"))
	if !errors.Is(err, ErrCryptoNotFound) {
		t.Fatalf("expected ErrCryptoNotFound, got %v", err)
	}
	if !w.Balance().Equal(d(t, "5")) {
		t.Errorf("balance changed on failed sell: %s", w.Balance())
	}
}

func TestWallet_Summary(t *testing.T) {
	w := NewWallet()
	if err := w.DepositMoney(d(t, "10")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.BuyAsset("BTC", d(t, "10"), d(t, "2.4")); err != nil {
		t.Fatal(err)
	}

	summary := w.Summary()
	if !strings.Contains(summary, "Balance: 7.6$") {
		t.Errorf("summary missing balance: %q", summary)
	}
	if !strings.Contains(summary, "Crypto: BTC, Amount: 0.24") {
		t.Errorf("summary missing BTC amount: %q", summary)
	}
	// no cost or price info in the summary
	if strings.Contains(summary, "P&L") {
		t.Errorf("summary must not contain P&L: %q", summary)
	}
}

func TestWallet_OverallStats(t *testing.T) {
	w := NewWallet()
	if err := w.DepositMoney(d(t, "100")); err != nil {
		t.Fatal(err)
	}
	// 2 BTC at 10, cost 20; 5 ETH at 2, cost 10
	if _, err := w.BuyAsset("BTC", d(t, "10"), d(t, "20")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.BuyAsset("ETH", d(t, "2"), d(t, "10")); err != nil {
		t.Fatal(err)
	}

	prices := map[string]Asset{
		"BTC": {ID: "BTC", Name: "Bitcoin", Price: d(t, "12"), TypeIsCrypto: 1},
		// ETH missing from the snapshot: valued at zero
	}

	stats := w.OverallStats(prices)
	if !strings.Contains(stats, "Crypto: BTC, P&L: 4.00$") {
		t.Errorf("unexpected BTC P&L: %q", stats)
	}
	if !strings.Contains(stats, "Crypto: ETH, P&L: -10.00$") {
		t.Errorf("unexpected ETH P&L: %q", stats)
	}
	if !strings.Contains(stats, "Total P&L: -6.00$") {
		t.Errorf("unexpected total P&L: %q", stats)
	}
}

func TestWallet_StateRoundTrip(t *testing.T) {
	w := NewWallet()
	if err := w.DepositMoney(d(t, "10")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.BuyAsset("BTC", d(t, "10"), d(t, "2.4")); err != nil {
		t.Fatal(err)
	}
	if _, err := w.BuyAsset("BTC", d(t, "12"), d(t, "2")); err != nil {
		t.Fatal(err)
	}

	restored := WalletFromState(w.State())

	if !restored.Balance().Equal(w.Balance()) {
		t.Errorf("balance mismatch after round trip: %s vs %s", restored.Balance(), w.Balance())
	}
	orig, back := w.Lots("BTC"), restored.Lots("BTC")
	if len(orig) != len(back) {
		t.Fatalf("lot count mismatch: %d vs %d", len(orig), len(back))
	}
	for i := range orig {
		if !orig[i].Amount.Equal(back[i].Amount) || !orig[i].UnitCost.Equal(back[i].UnitCost) {
			t.Errorf("lot %d mismatch: %+v vs %+v", i, orig[i], back[i])
		}
	}
}
