package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"spotengine/cmd/engine"
	"spotengine/src/security"
)

var Version string

func main() {
	_ = godotenv.Load()

	app := cli.NewApp()
	app.Name = "Spotengine CMD"
	app.Usage = "The spotengine command line interface"

	app.Commands = []cli.Command{
		engineCMD,
		syncCMD,
		keysCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	engineCMD = cli.Command{
		Name:        "engine",
		Usage:       "run the swap engine",
		Action:      engineAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Run the quote, sync and API loops for one account`,
	}
	syncCMD = cli.Command{
		Name:        "sync",
		Usage:       "sync the order cache once",
		Action:      syncAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Reconcile the cached orders against both stores and exit`,
	}
	keysCMD = cli.Command{
		Name:        "encrypt_key",
		Usage:       "encrypt a signer key",
		Action:      keysAction,
		ArgsUsage:   "<key>",
		Flags:       []cli.Flag{},
		Description: `Encrypt a signer private key for storage in the environment`,
	}
)

func engineAction(_ *cli.Context) error {

	logrus.Info("Starting engine CMD")
	logrus.WithField("cmd", "engine")

	e := &engine.Engine{}
	err := e.Start()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func syncAction(_ *cli.Context) error {

	logrus.Info("Starting sync CMD")
	logrus.WithField("cmd", "sync")

	e := &engine.Engine{}
	err := e.RunSync()
	if err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func keysAction(c *cli.Context) error {
	key := c.Args().First()
	if key == "" {
		return fmt.Errorf("usage: encrypt_key <key>")
	}

	encrypted, err := security.EncryptString(key)
	if err != nil {
		logrus.WithError(err).Error("Failed to encrypt key")
		return err
	}

	fmt.Println(encrypted)
	return nil
}
