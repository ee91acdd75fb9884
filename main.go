package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/sirupsen/logrus"

	"spotengine/src/database"
	"spotengine/src/repository"
	"spotengine/src/server"
)

var (
	APP_NAME = os.Getenv("APP_NAME")
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

// main serves the read-only orders API. The full engine, with swap
// execution, order submission and cancellation enabled, runs through the
// engine command under cmd/.
func main() {
	SetupLogger()
	_ = godotenv.Load()
	defer handlePanic()

	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	server.StartServer(server.GetConfig().Port, repository.NewOrderCacheRepository(), nil, nil, nil)
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
