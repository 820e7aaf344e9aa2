package domain

import "github.com/shopspring/decimal"

const cryptoTypeCode = 1

// Asset is one tradable offering as reported by the market-data API.
// Field tags follow the CoinAPI /v1/assets response.
type Asset struct {
	ID           string          `json:"asset_id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price_usd"`
	TypeIsCrypto int             `json:"type_is_crypto"`
}

// IsCrypto reports whether the asset is a cryptocurrency. The price cache
// keeps only crypto assets in its snapshots.
func (a Asset) IsCrypto() bool {
	return a.TypeIsCrypto == cryptoTypeCode
}
