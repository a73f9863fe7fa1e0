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

import (
	"errors"
	"strings"

	"github.com/trustline-labs/trustline/database/models"
	"gorm.io/gorm"
)

// Payout destination types
const (
	PayoutTypeBank   = "bank"
	PayoutTypeCrypto = "crypto"
)

// PayoutAccountParams are the caller-supplied fields for a new payout
// destination
type PayoutAccountParams struct {
	PayoutType     string
	BankName       string
	AccountNumber  string
	AccountName    string
	CryptoCurrency string
	WalletAddress  string
	IsDefault      bool
}

func (p PayoutAccountParams) validate() error {
	switch p.PayoutType {
	case PayoutTypeBank:
		if strings.TrimSpace(p.BankName) == "" ||
			strings.TrimSpace(p.AccountNumber) == "" ||
			strings.TrimSpace(p.AccountName) == "" {
			return validationErrorf(
				"bank payout accounts require bank name, account number, and account name",
			)
		}
	case PayoutTypeCrypto:
		if strings.TrimSpace(p.CryptoCurrency) == "" ||
			strings.TrimSpace(p.WalletAddress) == "" {
			return validationErrorf(
				"crypto payout accounts require currency and wallet address",
			)
		}
	default:
		return validationErrorf("unknown payout type %q", p.PayoutType)
	}
	return nil
}

// CreatePayoutAccount registers a payout destination for the caller. The
// first account for a user becomes the default automatically.
func (l *Ledger) CreatePayoutAccount(
	ident Identity,
	params PayoutAccountParams,
) (*models.PayoutAccount, error) {
	if ident.UserID == "" {
		return nil, ErrUnauthorized
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	existing, err := l.store().ListPayoutAccounts(ident.UserID, nil)
	if err != nil {
		return nil, err
	}
	account := &models.PayoutAccount{
		UserID:         ident.UserID,
		PayoutType:     params.PayoutType,
		BankName:       params.BankName,
		AccountNumber:  params.AccountNumber,
		AccountName:    params.AccountName,
		CryptoCurrency: params.CryptoCurrency,
		WalletAddress:  params.WalletAddress,
	}
	if err := l.store().CreatePayoutAccount(account, nil); err != nil {
		return nil, err
	}
	if params.IsDefault || len(existing) == 0 {
		err := l.store().SetDefaultPayoutAccount(account.ID, ident.UserID)
		if err != nil {
			return nil, err
		}
		account.IsDefault = true
	}
	return account, nil
}

// ListPayoutAccounts lists the caller's payout destinations
func (l *Ledger) ListPayoutAccounts(
	ident Identity,
) ([]models.PayoutAccount, error) {
	if ident.UserID == "" {
		return nil, ErrUnauthorized
	}
	return l.store().ListPayoutAccounts(ident.UserID, nil)
}

// SetDefaultPayoutAccount marks one of the caller's accounts as the
// default, clearing the flag on all others
func (l *Ledger) SetDefaultPayoutAccount(ident Identity, id uint) error {
	if ident.UserID == "" {
		return ErrUnauthorized
	}
	err := l.store().SetDefaultPayoutAccount(id, ident.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// DeletePayoutAccount removes one of the caller's payout destinations
func (l *Ledger) DeletePayoutAccount(ident Identity, id uint) error {
	if ident.UserID == "" {
		return ErrUnauthorized
	}
	ok, err := l.store().DeletePayoutAccount(id, ident.UserID, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
