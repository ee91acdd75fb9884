package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// HubBaseURL overrides the built-in per-chain hub table when set.
	HubBaseURL   string        `envconfig:"HUB_BASE_URL" default:""`
	OrdersAPIURL string        `envconfig:"ORDERS_API_URL" default:"https://hub.orbs.network"`
	IndexerURL   string        `envconfig:"INDEXER_URL" default:"https://twap-indexer.orbs.network"`
	Partner      string        `envconfig:"HUB_PARTNER" default:"widget"`
	QuoteTimeout time.Duration `envconfig:"QUOTE_TIMEOUT" default:"10s"`
	HTTPTimeout  time.Duration `envconfig:"HUB_HTTP_TIMEOUT" default:"15s"`

	RPCURL           string `envconfig:"RPC_URL" default:""`
	OrdersStreamURL  string `envconfig:"ORDERS_STREAM_URL" default:""`
	SignerPrivateKey string `envconfig:"SIGNER_PRIVATE_KEY" default:""`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
