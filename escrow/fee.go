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

package escrow

import "github.com/shopspring/decimal"

// Settings keys for the runtime fee configuration
const (
	SettingFeeThreshold     = "fee_threshold"
	SettingFeeRateBelow     = "fee_rate_below"
	SettingFeeRateAtOrAbove = "fee_rate_at_or_above"
)

// FeeConfig is the tiered service fee configuration. Rates are whole
// percent values; amounts at or above the threshold get the (lower)
// AtOrAboveRate.
type FeeConfig struct {
	Threshold     decimal.Decimal
	BelowRate     int64
	AtOrAboveRate int64
}

// FeeQuote is the buyer-facing cost breakdown for a base amount. The fee
// is never stored on the transaction; it is recomputed from the current
// FeeConfig wherever it is displayed or charged.
type FeeQuote struct {
	Base       decimal.Decimal
	Rate       int64
	Fee        decimal.Decimal
	BuyerTotal decimal.Decimal
}

// QuoteFee computes the service fee and buyer total for a base amount.
// Rounding happens on the percent-scaled product, then the result is
// divided by 100; this exact order is load-bearing for compatibility
// with amounts already shown to users.
func QuoteFee(base decimal.Decimal, cfg FeeConfig) FeeQuote {
	rate := cfg.BelowRate
	if base.GreaterThanOrEqual(cfg.Threshold) {
		rate = cfg.AtOrAboveRate
	}
	fee := base.Mul(decimal.NewFromInt(rate)).
		Round(0).
		Div(decimal.NewFromInt(100))
	return FeeQuote{
		Base:       base,
		Rate:       rate,
		Fee:        fee,
		BuyerTotal: base.Add(fee),
	}
}
