package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]int64{
		"90":      9000,
		"90.0":    9000,
		"90.00":   9000,
		"0.5":     50,
		".25":     25,
		"1.005":   101,
		"1.0049":  100,
		"-2.345":  -235,
		" 12.34 ": 1234,
	}
	for in, want := range cases {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.Cents(), in)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "1,50", ".", "-", "1e3", "1234567890123456"} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "90.00", FromCents(9000).String())
	assert.Equal(t, "0.05", FromCents(5).String())
	assert.Equal(t, "-1.50", FromCents(-150).String())
}

func TestMulRateRoundsHalfUp(t *testing.T) {
	// 10% of 0.05 is 0.005, which rounds up to 0.01.
	assert.Equal(t, int64(1), FromCents(5).MulRate(1000).Cents())
	// 10% of 0.04 is 0.004, which rounds down.
	assert.Equal(t, int64(0), FromCents(4).MulRate(1000).Cents())
	assert.Equal(t, int64(-1), FromCents(-5).MulRate(1000).Cents())
}

func TestSessionFeeSplit(t *testing.T) {
	split := SessionFee.Split(MustParse("90.00"))
	assert.Equal(t, "9.00", split.PlatformFee.String())
	assert.Equal(t, "81.00", split.CreatorEarnings.String())
}

func TestSubscriptionFeeSplit(t *testing.T) {
	split := SubscriptionFee.Split(MustParse("49.90"))
	assert.Equal(t, "9.98", split.PlatformFee.String())
	assert.Equal(t, "39.92", split.CreatorEarnings.String())
}

func TestSplitAlwaysSumsToCharged(t *testing.T) {
	for _, policy := range []FeePolicy{SessionFee, SubscriptionFee} {
		for cents := int64(0); cents <= 100000; cents += 7 {
			split := policy.Split(FromCents(cents))
			require.Equal(t, cents, split.PlatformFee.Add(split.CreatorEarnings).Cents(), "%s %d", policy.Name, cents)
			require.False(t, split.CreatorEarnings.IsNegative())
		}
	}
}

func TestJSON(t *testing.T) {
	var body struct {
		A Money `json:"a"`
		B Money `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 90.5, "b": "12.345"}`), &body))
	assert.Equal(t, int64(9050), body.A.Cents())
	assert.Equal(t, int64(1235), body.B.Cents())

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 90.50, "b": 12.35}`, string(out))
}
