package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"frizo/binary_futures/internal/logger"

	"github.com/gammazero/deque"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

const (
	defaultHistorySize = 256
	defaultReadTimeout = 60 * time.Second
)

// tradeMessage is the subset of an exchange trade event we read.
// Field names follow the aggTrade/trade stream format.
type tradeMessage struct {
	Event     string `json:"e"`
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	TradeTime int64  `json:"T"` // milliseconds
}

// WSFeed follows a websocket trade stream and keeps the most recent observations.
type WSFeed struct {
	URL         string
	Symbol      string // subscribed when set, e.g. "ETHUSDT"
	Decimals    int32
	HistorySize int
	ReadTimeout time.Duration

	history deque.Deque[Observation]
	log     *logger.Logger

	mu sync.RWMutex
}

func NewWSFeed(url, symbol string, decimals int32, log *logger.Logger) *WSFeed {
	if log == nil {
		log = logger.Default()
	}
	return &WSFeed{
		URL:         url,
		Symbol:      symbol,
		Decimals:    decimals,
		HistorySize: defaultHistorySize,
		ReadTimeout: defaultReadTimeout,
		log:         log.With("component", "ws_feed", "url", url),
	}
}

// Run dials the stream and consumes it until ctx is done or the connection fails.
func (f *WSFeed) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.URL, nil)
	if err != nil {
		return fmt.Errorf("dial price stream: %w", err)
	}
	defer conn.Close()

	f.log.Info("price stream connected")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	if f.Symbol != "" {
		if err := conn.WriteJSON(map[string]interface{}{
			"method": "SUBSCRIBE",
			"params": []string{strings.ToLower(f.Symbol) + "@aggTrade"},
			"id":     time.Now().Unix(),
		}); err != nil {
			return fmt.Errorf("subscribe %s: %w", f.Symbol, err)
		}
	}

	for {
		if f.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(f.ReadTimeout))
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read price stream: %w", err)
		}

		obs, ok, err := f.parse(raw)
		if err != nil {
			f.log.Warn("dropping malformed trade message", "error", err)
			continue
		}
		if ok {
			f.push(obs)
		}
	}
}

// Follow keeps Run alive, redialing after retry whenever the stream drops.
func (f *WSFeed) Follow(ctx context.Context, retry time.Duration) error {
	for {
		err := f.Run(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.log.Warn("price stream lost, reconnecting", "error", err, "retry", retry.String())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
}

func (f *WSFeed) LatestPrice(ctx context.Context) (Observation, error) {
	if err := ctx.Err(); err != nil {
		return Observation{}, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.history.Len() == 0 {
		return Observation{}, ErrNoPrice
	}
	return f.history.Back(), nil
}

// History returns the retained observations, oldest first.
func (f *WSFeed) History() []Observation {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]Observation, f.history.Len())
	for i := range out {
		out[i] = f.history.At(i)
	}
	return out
}

// parse returns ok=false for events that carry no trade (acks, other streams).
func (f *WSFeed) parse(raw []byte) (Observation, bool, error) {
	var msg tradeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Observation{}, false, err
	}
	if msg.Event != "aggTrade" && msg.Event != "trade" {
		return Observation{}, false, nil
	}
	if f.Symbol != "" && !strings.EqualFold(msg.Symbol, f.Symbol) {
		return Observation{}, false, nil
	}

	p, err := decimal.NewFromString(msg.Price)
	if err != nil {
		return Observation{}, false, fmt.Errorf("price %q: %w", msg.Price, err)
	}
	if !p.IsPositive() {
		return Observation{}, false, fmt.Errorf("non positive price %s", p)
	}

	return Observation{
		Price:     ToFixedPoint(p, f.Decimals),
		Timestamp: msg.TradeTime / 1000,
		Source:    f.URL,
	}, true, nil
}

func (f *WSFeed) push(obs Observation) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.history.PushBack(obs)
	for f.HistorySize > 0 && f.history.Len() > f.HistorySize {
		f.history.PopFront()
	}
}
