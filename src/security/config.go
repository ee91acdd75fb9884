package security

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// SignerKeyKey is the base64 symmetric key protecting the signer
	// private key at rest.
	SignerKeyKey string `envconfig:"SIGNER_KEY_ENCRYPTION_KEY" default:""`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
