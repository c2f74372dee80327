package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// wsWriteWait is the time allowed to write a message to the peer.
	wsWriteWait = 10 * time.Second

	// wsPongWait is the time allowed to read the next pong message.
	wsPongWait = 30 * time.Second

	// wsPingPeriod sends pings at this interval. Must be less than pongWait.
	wsPingPeriod = (wsPongWait * 9) / 10

	// wsReconnectDelay is the base delay before attempting to reconnect.
	wsReconnectDelay = 2 * time.Second

	// wsMaxReconnectDelay caps the exponential backoff.
	wsMaxReconnectDelay = 60 * time.Second
)

// BboHandler is called for every top-of-book update received over the
// websocket.
type BboHandler func(BboData)

// WSClient is a websocket client for Hyperliquid market data. It keeps the
// set of subscribed coins and restores them after a reconnect.
type WSClient struct {
	wsURL string
	conn  *websocket.Conn

	mu     sync.RWMutex
	closed bool

	subscribedCoins []string

	handlerMu   sync.RWMutex
	bboHandlers []BboHandler

	// done is closed when the client shuts down.
	done chan struct{}
}

// NewWSClient creates a websocket client for the given endpoint, e.g.
// "wss://api.hyperliquid.xyz/ws".
func NewWSClient(wsURL string) *WSClient {
	return &WSClient{
		wsURL: wsURL,
		done:  make(chan struct{}),
	}
}

// Connect establishes the websocket connection and starts the read and ping
// loops. Previously subscribed coins are re-subscribed.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("hyperliquid/ws: client is closed")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("hyperliquid/ws: connect: %w", err)
	}

	w.conn = conn
	w.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	w.conn.SetPongHandler(func(string) error {
		w.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	go w.readLoop()
	go w.pingLoop()

	for _, coin := range w.subscribedCoins {
		if err := w.sendSubscribe(coin); err != nil {
			return fmt.Errorf("hyperliquid/ws: restore subscription %s: %w", coin, err)
		}
	}

	return nil
}

// SubscribeBbo subscribes to top-of-book updates for a coin.
func (w *WSClient) SubscribeBbo(ctx context.Context, coin string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("hyperliquid/ws: not connected")
	}
	if err := w.sendSubscribe(coin); err != nil {
		return fmt.Errorf("hyperliquid/ws: subscribe bbo %s: %w", coin, err)
	}

	for _, c := range w.subscribedCoins {
		if c == coin {
			return nil
		}
	}
	w.subscribedCoins = append(w.subscribedCoins, coin)
	return nil
}

// OnBbo registers a handler invoked for every bbo frame.
func (w *WSClient) OnBbo(handler BboHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.bboHandlers = append(w.bboHandlers, handler)
}

// Close shuts down the websocket connection.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)

	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}
	return nil
}

// sendSubscribe sends a bbo subscribe message. Caller must hold w.mu.
func (w *WSClient) sendSubscribe(coin string) error {
	msg := wsSubscribeMsg{
		Method: "subscribe",
		Subscription: wsSubscription{
			Type: "bbo",
			Coin: coin,
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal subscribe: %w", err)
	}
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop reads frames and dispatches bbo updates. On disconnect it
// attempts reconnection with backoff.
func (w *WSClient) readLoop() {
	defer func() {
		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn != nil {
			conn.Close()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		default:
		}

		w.mu.RLock()
		conn := w.conn
		w.mu.RUnlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				return
			default:
			}
			w.reconnect()
			return
		}

		w.handleMessage(message)
	}
}

// pingLoop sends periodic pings to keep the connection alive.
func (w *WSClient) pingLoop() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.RLock()
			conn := w.conn
			w.mu.RUnlock()
			if conn == nil {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses a raw frame and routes bbo updates to handlers.
func (w *WSClient) handleMessage(raw []byte) {
	var envelope wsEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return
	}
	if envelope.Channel != "bbo" {
		return
	}

	var bbo BboData
	if err := json.Unmarshal(envelope.Data, &bbo); err != nil {
		return
	}

	w.handlerMu.RLock()
	handlers := w.bboHandlers
	w.handlerMu.RUnlock()
	for _, h := range handlers {
		h(bbo)
	}
}

// reconnect re-establishes the connection with exponential backoff.
func (w *WSClient) reconnect() {
	delay := wsReconnectDelay

	for {
		select {
		case <-w.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := w.Connect(ctx)
		cancel()
		if err == nil {
			return
		}

		delay *= 2
		if delay > wsMaxReconnectDelay {
			delay = wsMaxReconnectDelay
		}
	}
}
