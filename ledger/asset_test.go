package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAsset(t *testing.T) {
	amount, symbol, err := ParseAsset("12.345 HBD")
	require.NoError(t, err)
	assert.Equal(t, "HBD", symbol)
	assert.True(t, amount.Equal(decimal.RequireFromString("12.345")))

	amount, symbol, err = ParseAsset("  0.001 HIVE ")
	require.NoError(t, err)
	assert.Equal(t, "HIVE", symbol)
	assert.True(t, amount.Equal(decimal.RequireFromString("0.001")))

	for _, bad := range []string{"", "12.345", "HBD", "12.345 HBD extra", "abc HBD"} {
		_, _, err := ParseAsset(bad)
		assert.Error(t, err, "ParseAsset(%q)", bad)
	}
}

func TestFormatAsset(t *testing.T) {
	assert.Equal(t, "30.000 HBD", FormatAsset(decimal.RequireFromString("30"), "HBD"))
	assert.Equal(t, "0.100 HIVE", FormatAsset(decimal.RequireFromString("0.1"), "HIVE"))
	assert.Equal(t, "12.346 HBD", FormatAsset(decimal.RequireFromString("12.3456"), "HBD"))
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("30")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("30")))

	_, err = ParseAmount("-5")
	assert.Error(t, err)

	_, err = ParseAmount("0")
	assert.Error(t, err)

	_, err = ParseAmount("abc")
	assert.Error(t, err)

	_, err = ParseAmount("")
	assert.Error(t, err)
}
