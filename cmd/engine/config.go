package engine

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ChainID  uint64 `envconfig:"CHAIN_ID" default:"137"`
	Account  string `envconfig:"ACCOUNT" default:""`
	Exchange string `envconfig:"EXCHANGE_ADAPTER" default:""`

	// Settlement deployment the conditional-order witness is bound to.
	ReactorAddress  string `envconfig:"REACTOR_ADDRESS" default:""`
	ExecutorAddress string `envconfig:"EXECUTOR_ADDRESS" default:""`
	FeeAddress      string `envconfig:"FEE_ADDRESS" default:""`

	// Quote pair kept fresh by the quote loop; the loop stays off when any
	// of the three is empty.
	SrcToken string `envconfig:"SRC_TOKEN" default:""`
	DstToken string `envconfig:"DST_TOKEN" default:""`
	InAmount string `envconfig:"IN_AMOUNT" default:""`

	SrcTokenSymbol   string `envconfig:"SRC_TOKEN_SYMBOL" default:""`
	DstTokenSymbol   string `envconfig:"DST_TOKEN_SYMBOL" default:""`
	SrcTokenDecimals int32  `envconfig:"SRC_TOKEN_DECIMALS" default:"18"`
	DstTokenDecimals int32  `envconfig:"DST_TOKEN_DECIMALS" default:"18"`

	SignerKeyEncrypted bool `envconfig:"SIGNER_KEY_ENCRYPTED" default:"false"`
	AnalyticsDisabled  bool `envconfig:"ANALYTICS_DISABLED" default:"false"`
}

func GetConfig() *Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return &config
}
