package controller

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RePermitAddress is the spender approved for permit-based settlement.
	RePermitAddress string `envconfig:"REPERMIT_ADDRESS" default:""`
	// ApproveExact approves only the swap amount instead of unlimited.
	ApproveExact bool `envconfig:"APPROVE_EXACT" default:"false"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
