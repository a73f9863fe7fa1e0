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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustline-labs/trustline/escrow"
)

func bankAccountParams() escrow.PayoutAccountParams {
	return escrow.PayoutAccountParams{
		PayoutType:    escrow.PayoutTypeBank,
		BankName:      "First Bank",
		AccountNumber: "0123456789",
		AccountName:   "Jane Doe",
	}
}

func TestPayoutAccountValidation(t *testing.T) {
	l := newTestLedger(t)
	user := newSeller()

	_, err := l.CreatePayoutAccount(user, escrow.PayoutAccountParams{
		PayoutType: escrow.PayoutTypeBank,
		BankName:   "First Bank",
	})
	assert.ErrorIs(t, err, escrow.ErrValidation)

	_, err = l.CreatePayoutAccount(user, escrow.PayoutAccountParams{
		PayoutType: escrow.PayoutTypeCrypto,
	})
	assert.ErrorIs(t, err, escrow.ErrValidation)

	_, err = l.CreatePayoutAccount(user, escrow.PayoutAccountParams{
		PayoutType: "paypal",
	})
	assert.ErrorIs(t, err, escrow.ErrValidation)

	_, err = l.CreatePayoutAccount(
		escrow.Identity{},
		bankAccountParams(),
	)
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)
}

func TestPayoutAccountDefaultInvariant(t *testing.T) {
	l := newTestLedger(t)
	user := newSeller()

	// The first account becomes the default automatically
	first, err := l.CreatePayoutAccount(user, bankAccountParams())
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	// A second account does not steal the default unless asked
	second, err := l.CreatePayoutAccount(
		user,
		escrow.PayoutAccountParams{
			PayoutType:     escrow.PayoutTypeCrypto,
			CryptoCurrency: "USDT",
			WalletAddress:  "0xabc123",
		},
	)
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	// Explicit default moves the flag, exactly one account holds it
	err = l.SetDefaultPayoutAccount(user, second.ID)
	require.NoError(t, err)
	accounts, err := l.ListPayoutAccounts(user)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	defaults := 0
	for _, account := range accounts {
		if account.IsDefault {
			defaults++
			assert.Equal(t, second.ID, account.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestPayoutAccountOwnership(t *testing.T) {
	l := newTestLedger(t)
	owner := newSeller()
	other := newSeller()

	account, err := l.CreatePayoutAccount(owner, bankAccountParams())
	require.NoError(t, err)

	// Another user cannot touch it
	err = l.SetDefaultPayoutAccount(other, account.ID)
	assert.ErrorIs(t, err, escrow.ErrNotFound)
	err = l.DeletePayoutAccount(other, account.ID)
	assert.ErrorIs(t, err, escrow.ErrNotFound)

	// Other users see their own empty list
	accounts, err := l.ListPayoutAccounts(other)
	require.NoError(t, err)
	assert.Empty(t, accounts)

	require.NoError(t, l.DeletePayoutAccount(owner, account.ID))
	accounts, err = l.ListPayoutAccounts(owner)
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
