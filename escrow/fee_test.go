// Copyright 2025 Trustline Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package escrow_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustline-labs/trustline/escrow"
)

func testFeeConfig() escrow.FeeConfig {
	return escrow.FeeConfig{
		Threshold:     decimal.NewFromInt(10000),
		BelowRate:     5,
		AtOrAboveRate: 2,
	}
}

func TestQuoteFeeBelowThreshold(t *testing.T) {
	quote := escrow.QuoteFee(decimal.NewFromInt(9999), testFeeConfig())
	assert.Equal(t, int64(5), quote.Rate)
	assert.Equal(t, "499.95", quote.Fee.String())
	assert.Equal(t, "10498.95", quote.BuyerTotal.String())
}

func TestQuoteFeeAtThreshold(t *testing.T) {
	// The threshold itself gets the lower rate
	quote := escrow.QuoteFee(decimal.NewFromInt(10000), testFeeConfig())
	assert.Equal(t, int64(2), quote.Rate)
	assert.Equal(t, "200", quote.Fee.String())
	assert.Equal(t, "10200", quote.BuyerTotal.String())
}

func TestQuoteFeeRoundingOrder(t *testing.T) {
	// Rounding applies to the percent-scaled product before the final
	// division, so 33.33 * 3 = 99.99 rounds to 100 and yields exactly 1
	cfg := escrow.FeeConfig{
		Threshold:     decimal.NewFromInt(10000),
		BelowRate:     3,
		AtOrAboveRate: 1,
	}
	amount, err := decimal.NewFromString("33.33")
	require.NoError(t, err)
	quote := escrow.QuoteFee(amount, cfg)
	assert.Equal(t, "1", quote.Fee.String())
	assert.Equal(t, "34.33", quote.BuyerTotal.String())
}

func TestQuoteFeeZeroAmount(t *testing.T) {
	quote := escrow.QuoteFee(decimal.Zero, testFeeConfig())
	assert.True(t, quote.Fee.IsZero())
	assert.True(t, quote.BuyerTotal.IsZero())
}

func TestQuoteFeeFractionalAmounts(t *testing.T) {
	testDefs := []struct {
		amount    string
		wantRate  int64
		wantFee   string
		wantTotal string
	}{
		{"100", 5, "5", "105"},
		{"0.01", 5, "0", "0.01"},
		{"9999.99", 5, "500", "10499.99"},
		{"10000.01", 2, "200", "10200.01"},
		{"250000", 2, "5000", "255000"},
	}
	for _, testDef := range testDefs {
		amount, err := decimal.NewFromString(testDef.amount)
		require.NoError(t, err)
		quote := escrow.QuoteFee(amount, testFeeConfig())
		assert.Equal(
			t,
			testDef.wantRate,
			quote.Rate,
			"rate for %s",
			testDef.amount,
		)
		assert.Equal(
			t,
			testDef.wantFee,
			quote.Fee.String(),
			"fee for %s",
			testDef.amount,
		)
		assert.Equal(
			t,
			testDef.wantTotal,
			quote.BuyerTotal.String(),
			"total for %s",
			testDef.amount,
		)
	}
}
