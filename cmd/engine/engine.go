package engine

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"spotengine/src/analytics"
	"spotengine/src/connectors"
	"spotengine/src/controller"
	"spotengine/src/database"
	"spotengine/src/encoder"
	"spotengine/src/executors"
	"spotengine/src/model"
	"spotengine/src/reconciler"
	"spotengine/src/repository"
	"spotengine/src/risk"
	"spotengine/src/security"
	"spotengine/src/server"
)

type Engine struct {
}

// Start wires the whole engine for one account scope and blocks until
// SIGINT or SIGTERM: the quote loop, the order sync loop, the push stream
// nudging it, and the HTTP API with swap execution, order submission and
// cancellation enabled.
func (e *Engine) Start() error {
	config := GetConfig()
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	settingsRep := repository.NewSettingsRepository()
	if _, err := settingsRep.Hydrate(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to hydrate account settings")
	}

	connConfig := connectors.GetConfig()
	signerKey := connConfig.SignerPrivateKey
	if config.SignerKeyEncrypted {
		decrypted, err := security.DecryptString(signerKey)
		if err != nil {
			logrus.WithError(err).Error("Failed to decrypt signer key")
			return err
		}
		signerKey = decrypted
	}

	wallet, err := connectors.NewEthWallet(connConfig.RPCURL, signerKey, config.ChainID)
	if err != nil {
		logrus.WithError(err).Error("Failed to initialize wallet")
		return err
	}
	logrus.WithFields(logrus.Fields{
		"address": wallet.Address(),
		"chainId": config.ChainID,
	}).Info("Wallet ready")

	recorder := analytics.NewRecorder(config.ChainID, connConfig.Partner, config.AnalyticsDisabled)
	hub := connectors.NewHubConnector(config.ChainID, recorder)
	ordersAPI := connectors.NewOrdersAPIConnector()
	indexer := connectors.NewIndexerConnector()

	orderRep := repository.NewOrderCacheRepository()
	excRep := repository.NewExceptionRepository()

	rec := reconciler.New(orderRep, config.Exchange, reconciler.Signals{
		OnOrderFilled: func(order model.Order, fill model.OrderFill) {
			logrus.WithFields(logrus.Fields{
				"order":  order.ID,
				"txHash": fill.TxHash,
			}).Info("Order fill observed")
		},
		OnOrderStatusChanged: func(order model.Order, previous model.OrderStatus) {
			logrus.WithFields(logrus.Fields{
				"order": order.ID,
				"from":  string(previous),
				"to":    string(order.Status),
			}).Info("Order status changed")
		},
	}, reconciler.NewV1Source(indexer), reconciler.NewV2Source(ordersAPI, config.Exchange))

	ctlConfig := controller.GetConfig()
	canceler := reconciler.NewCanceler(wallet, rec, ctlConfig.RePermitAddress, recorder)
	swapController := controller.NewSwapController(hub, wallet, recorder, excRep, config.ChainID)
	orderController := controller.NewOrderController(ordersAPI, wallet, rec, recorder, excRep, encoder.SpotConfig{
		Reactor:  config.ReactorAddress,
		Executor: config.ExecutorAddress,
		Adapter:  config.Exchange,
		Fee:      config.FeeAddress,
		RePermit: ctlConfig.RePermitAddress,
	}, config.ChainID)

	syncLoop := executors.NewSyncLoop(rec, config.Account, config.ChainID)
	swapController.OnBalancesStale = syncLoop.Nudge
	go syncLoop.Run(ctx)

	if connConfig.OrdersStreamURL != "" {
		stream := connectors.NewOrdersStream(connConfig.OrdersStreamURL, func(event connectors.OrderEvent) {
			if strings.EqualFold(event.Swapper, config.Account) {
				syncLoop.Nudge()
			}
		})
		go stream.Run(ctx)
	}

	settings, err := settingsRep.Load(ctx, strings.ToLower(config.Account), config.ChainID)
	if err != nil {
		logrus.WithError(err).Error("Failed to load account settings")
		return err
	}

	if config.SrcToken != "" && config.DstToken != "" && config.InAmount != "" {
		quoteLoop := executors.NewQuoteLoop(hub, swapController)
		if settings.PriceProtectionEnabled && config.SrcTokenSymbol != "" && config.DstTokenSymbol != "" {
			guard := risk.NewPriceGuard(connectors.NewBinancePriceFeed(), settings.PriceProtectionPercent)
			quoteLoop.OnQuote = func(quote *model.Quote) {
				rate := quotedRate(quote, config.SrcTokenDecimals, config.DstTokenDecimals)
				if err := guard.Check(config.SrcTokenSymbol, config.DstTokenSymbol, rate); err != nil {
					logrus.WithError(err).Warn("Quote outside price protection bounds")
				}
			}
		}

		req := connectors.QuoteRequest{
			FromToken: config.SrcToken,
			ToToken:   config.DstToken,
			InAmount:  config.InAmount,
			Account:   config.Account,
			Slippage:  settings.SlippagePercent,
		}
		go func() {
			if err := quoteLoop.Run(ctx, req); err != nil {
				logrus.WithError(err).Warn("Quote loop stopped")
			}
		}()
	}

	server.StartServer(server.GetConfig().Port, orderRep, canceler, swapController, orderController)
	return nil
}

// RunSync reconciles the order cache once and exits, for cron-style use.
func (e *Engine) RunSync() error {
	config := GetConfig()
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	rec := reconciler.New(
		repository.NewOrderCacheRepository(),
		config.Exchange,
		reconciler.Signals{},
		reconciler.NewV1Source(connectors.NewIndexerConnector()),
		reconciler.NewV2Source(connectors.NewOrdersAPIConnector(), config.Exchange),
	)

	orders, err := rec.Sync(ctx, config.Account, config.ChainID)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"account": config.Account,
		"orders":  len(orders),
	}).Info("Order cache synced")
	return nil
}

// quotedRate converts a quote into a human rate for the reference check.
func quotedRate(quote *model.Quote, srcDecimals, dstDecimals int32) decimal.Decimal {
	in, err := decimal.NewFromString(quote.InAmount)
	if err != nil || !in.IsPositive() {
		return decimal.Zero
	}
	out, err := decimal.NewFromString(quote.OutAmount)
	if err != nil {
		return decimal.Zero
	}
	return out.Shift(-dstDecimals).Div(in.Shift(-srcDecimals))
}
