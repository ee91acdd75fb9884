package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"spotengine/src/controller"
	"spotengine/src/handler"
	"spotengine/src/reconciler"
	"spotengine/src/repository"
)

// StartServer exposes the engine over HTTP and blocks until shutdown. The
// swap and order controllers are optional; the bare cache-serving process
// passes nil and the matching routes stay off.
func StartServer(
	port string,
	orderRepo *repository.OrderCacheRepository,
	canceler *reconciler.Canceler,
	swapCtl *controller.SwapController,
	orderCtl *controller.OrderController,
) {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("/healthcheck error")
		}
	})

	r.Get("/orders", handler.ListOrdersHandler(orderRepo))
	if canceler != nil {
		r.Post("/orders/cancel", handler.CancelOrdersHandler(orderRepo, canceler))
	}
	if orderCtl != nil {
		r.Post("/orders/submit", handler.SubmitOrderHandler(orderCtl))
	}
	if swapCtl != nil {
		r.Post("/swap", handler.ExecuteSwapHandler(swapCtl))
	}

	settingsRepo := repository.NewSettingsRepository()
	r.Get("/settings", handler.GetSettingsHandler(settingsRepo))
	r.Post("/settings", handler.SaveSettingsHandler(settingsRepo))

	r.Get("/exceptions", handler.ListExceptionsHandler(repository.NewExceptionRepository()))

	// Graceful server
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
