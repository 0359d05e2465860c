package oracle

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"frizo/binary_futures/internal/logger"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFixedPoint(t *testing.T) {
	assert.Equal(t, "12150000000", ToFixedPoint(decimal.RequireFromString("121.5"), 8).String())
	assert.Equal(t, "12000000000", ToFixedPoint(decimal.NewFromInt(120), 8).String())
	assert.Equal(t, "12", ToFixedPoint(decimal.RequireFromString("1.299"), 1).String())
}

func TestStaticFeed(t *testing.T) {
	ctx := context.Background()
	f := NewStaticFeed("static")

	_, err := f.LatestPrice(ctx)
	assert.ErrorIs(t, err, ErrNoPrice)

	f.Set(decimal.NewFromInt(12100000000), 1700000000)
	obs, err := f.LatestPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12100000000", obs.Price.String())
	assert.Equal(t, int64(1700000000), obs.Timestamp)
	assert.Equal(t, "static", obs.Source)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = f.LatestPrice(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWSFeedParse(t *testing.T) {
	f := NewWSFeed("ws://test", "ETHUSDT", 8, logger.Discard())

	obs, ok, err := f.parse([]byte(`{"e":"aggTrade","s":"ETHUSDT","p":"121.25","T":1700000000123}`))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "12125000000", obs.Price.String())
	assert.Equal(t, int64(1700000000), obs.Timestamp)

	_, ok, err = f.parse([]byte(`{"result":null,"id":1}`))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = f.parse([]byte(`{"e":"aggTrade","s":"BTCUSDT","p":"50000","T":1}`))
	require.NoError(t, err)
	assert.False(t, ok, "other symbols are ignored")

	_, _, err = f.parse([]byte(`{"e":"trade","s":"ETHUSDT","p":"abc","T":1}`))
	assert.Error(t, err)

	_, _, err = f.parse([]byte(`{"e":"trade","s":"ETHUSDT","p":"-1","T":1}`))
	assert.Error(t, err)

	_, _, err = f.parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestWSFeedHistoryBound(t *testing.T) {
	f := NewWSFeed("ws://test", "", 8, logger.Discard())
	f.HistorySize = 3

	for i := 1; i <= 5; i++ {
		f.push(Observation{Price: decimal.NewFromInt(int64(i))})
	}

	h := f.History()
	require.Len(t, h, 3)
	assert.Equal(t, "3", h[0].Price.String())
	assert.Equal(t, "5", h[2].Price.String())

	obs, err := f.LatestPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "5", obs.Price.String())
}

// tradeServer upgrades one connection, waits for the subscribe frame, then streams prices.
func tradeServer(t *testing.T, prices []string) (*httptest.Server, <-chan string) {
	subscribed := make(chan string, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, sub, err := conn.ReadMessage()
		if err != nil {
			return
		}
		subscribed <- string(sub)

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"result":null,"id":1}`))
		for i, p := range prices {
			msg := fmt.Sprintf(`{"e":"aggTrade","s":"ETHUSDT","p":%q,"T":%d}`, p, 1700000000000+int64(i)*1000)
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// hold the connection open until the client leaves
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, subscribed
}

func TestWSFeedRun(t *testing.T) {
	srv, subscribed := tradeServer(t, []string{"119.5", "120.0", "121.75"})
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	f := NewWSFeed(url, "ETHUSDT", 8, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	select {
	case sub := <-subscribed:
		assert.Contains(t, sub, "ethusdt@aggTrade")
	case <-time.After(5 * time.Second):
		t.Fatal("no subscribe frame")
	}

	require.Eventually(t, func() bool {
		return len(f.History()) == 3
	}, 5*time.Second, 10*time.Millisecond)

	obs, err := f.LatestPrice(ctx)
	require.NoError(t, err)
	assert.Equal(t, "12175000000", obs.Price.String())
	assert.Equal(t, int64(1700000002), obs.Timestamp)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("feed did not stop")
	}
}

func TestWSFeedDialError(t *testing.T) {
	f := NewWSFeed("ws://127.0.0.1:1/none", "", 8, logger.Discard())
	err := f.Run(context.Background())
	assert.Error(t, err)
}

func TestWSFeedFollowStopsOnCancel(t *testing.T) {
	f := NewWSFeed("ws://127.0.0.1:1/none", "", 8, logger.Discard())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := f.Follow(ctx, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
