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

package models

import "time"

// PayoutAccount is a seller's bank or crypto payout destination. At most
// one account per user is the default; SetDefaultPayoutAccount enforces
// this inside a single store transaction.
type PayoutAccount struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         string `gorm:"index;size:36;not null"`
	PayoutType     string `gorm:"size:16;not null"`
	BankName       string `gorm:"size:128"`
	AccountNumber  string `gorm:"size:32"`
	AccountName    string `gorm:"size:128"`
	CryptoCurrency string `gorm:"size:16"`
	WalletAddress  string `gorm:"size:128"`
	IsDefault      bool   `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (PayoutAccount) TableName() string {
	return "payout_account"
}
