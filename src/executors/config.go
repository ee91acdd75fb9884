package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	QuotePeriod time.Duration `envconfig:"QUOTE_PERIOD" default:"10s"`
	SyncPeriod  time.Duration `envconfig:"ORDER_SYNC_PERIOD" default:"20s"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
