package contract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSide(t *testing.T) {
	assert.Equal(t, "long", Long.String())
	assert.Equal(t, "short", Short.String())
	assert.Equal(t, "unknown", Side(0).String())
	assert.Equal(t, Short, Long.Opposite())
	assert.Equal(t, Long, Short.Opposite())

	for in, want := range map[string]Side{"long": Long, "LONG": Long, "buy": Long, "short": Short, " sell ": Short} {
		got, err := ParseSide(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseSide("up")
	assert.ErrorIs(t, err, ErrInvalidSide)
}

func TestStatusOrdering(t *testing.T) {
	assert.Less(t, int(StatusCreated), int(StatusOneSideFilled))
	assert.Less(t, int(StatusOneSideFilled), int(StatusActive))
	assert.Less(t, int(StatusActive), int(StatusSettled))

	assert.True(t, StatusCreated.Open())
	assert.True(t, StatusOneSideFilled.Open())
	assert.False(t, StatusActive.Open())
	assert.False(t, StatusSettled.Open())
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{StatusCreated, StatusOneSideFilled, StatusActive, StatusSettled} {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseStatus("liquidating")
	assert.Error(t, err)
}

func TestParseTiePolicy(t *testing.T) {
	for in, want := range map[string]TiePolicy{"": TieRefund, "refund": TieRefund, "split": TieRefund, "long": TieLong, "Short": TieShort} {
		got, err := ParseTiePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseTiePolicy("coinflip")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	cases := map[string]func(*Config){
		"ZeroTarget":         func(c *Config) { c.TargetPrice = decimal.Zero },
		"FractionalTarget":   func(c *Config) { c.TargetPrice = decimal.RequireFromString("120.5") },
		"ZeroCollateral":     func(c *Config) { c.RequiredCollateral = decimal.Zero },
		"NegativeDuration":   func(c *Config) { c.DurationSeconds = -1 },
		"NegativeBuffer":     func(c *Config) { c.ExpirationBufferSeconds = -1 },
		"UnknownTiePolicy":   func(c *Config) { c.TiePolicy = TiePolicy(9) },
		"NegativeCollateral": func(c *Config) { c.RequiredCollateral = decimal.NewFromInt(-5) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	assert.True(t, decimal.NewFromInt(10).Equal(testConfig().Pot()))
}

func TestSnapshotJSON(t *testing.T) {
	c, _ := activeContract(t)

	raw, err := json.Marshal(c.Snapshot())
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "active", out["status"])
	assert.Equal(t, "refund", out["tie_policy"])
	assert.Equal(t, "12000000000", out["target_price"])
	assert.Equal(t, "5", out["escrowed_long"])
	assert.Equal(t, strings.ToLower(alice.Hex()), out["long"])
}
