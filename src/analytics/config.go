package analytics

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Endpoint    string        `envconfig:"ANALYTICS_ENDPOINT" default:"https://bi.orbs.network/putes/liquidity-hub-ui-2"`
	SendTimeout time.Duration `envconfig:"ANALYTICS_SEND_TIMEOUT" default:"5s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
