package connectors

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

// OrderEvent is one push notification from the orders stream. The payload
// is advisory; consumers refetch from the REST sources rather than trusting
// the pushed fields.
type OrderEvent struct {
	Type    string `json:"type"`
	Hash    string `json:"hash,omitempty"`
	Swapper string `json:"swapper,omitempty"`
}

// OrdersStream keeps a websocket open to the order push feed and invokes
// the handler on every event. It reconnects with a flat backoff until the
// context is canceled.
type OrdersStream struct {
	url     string
	handler func(OrderEvent)
}

func NewOrdersStream(url string, handler func(OrderEvent)) *OrdersStream {
	return &OrdersStream{url: url, handler: handler}
}

func (s *OrdersStream) Run(ctx context.Context) {
	if s.url == "" {
		logger.Debug("orders stream url not set, push notifications disabled")
		return
	}
	for {
		if err := s.consume(ctx); err != nil {
			logger.WithError(err).Warn("orders stream disconnected")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func (s *OrdersStream) consume(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
		Proxy:            http.ProxyFromEnvironment,
	}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var event OrderEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			logger.WithError(err).Debug("orders stream dropped malformed event")
			continue
		}
		s.handler(event)
	}
}
