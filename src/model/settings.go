package model

import "time"

// AccountSettings are the persisted per-account preferences that used to
// live in an ambient store: slippage, the price-protection toggle and any
// tokens the user imported by hand. Loaded once at startup (hydrate) and
// written through on every change.
type AccountSettings struct {
	Account string `gorm:"primaryKey;size:60" json:"account"`
	ChainID uint64 `gorm:"primaryKey" json:"chainId"`

	SlippagePercent        float64 `json:"slippagePercent"`
	PriceProtectionEnabled bool    `json:"priceProtectionEnabled"`
	// PriceProtectionPercent is the max tolerated deviation between the
	// quoted output and an independent reference price.
	PriceProtectionPercent float64 `json:"priceProtectionPercent"`

	// ImportedTokens is a comma-separated list of token addresses the user
	// added manually.
	ImportedTokens string `json:"importedTokens,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

func (AccountSettings) TableName() string {
	return "account_settings"
}
