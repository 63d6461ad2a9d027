package db

import (
	"encoding/json"
	"testing"

	"streambook/internal/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityConfigPricingDecodes(t *testing.T) {
	cfg := DefaultAvailabilityConfig("prov-1")
	cfg.Enabled = true
	cfg.Pricing[Duration10] = money.MustParse("90.00")

	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"10":`)

	var got AvailabilityConfig
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, cfg.Pricing, got.Pricing)
}

func TestSessionDurationDecodesNumbersAndStrings(t *testing.T) {
	var d SessionDuration
	require.NoError(t, json.Unmarshal([]byte(`15`), &d))
	assert.Equal(t, Duration15, d)

	require.NoError(t, json.Unmarshal([]byte(`"30"`), &d))
	assert.Equal(t, Duration30, d)

	assert.Error(t, json.Unmarshal([]byte(`"ten"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))
}
