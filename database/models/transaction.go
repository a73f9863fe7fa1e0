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

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents an escrow transaction record. Amount is stored
// as a decimal string to avoid float drift; the Version column backs the
// optimistic check-and-set used for every status change.
type Transaction struct {
	ID               string `gorm:"primaryKey;size:36"`
	BuyerID          string `gorm:"index;size:36;not null"`
	BuyerEmail       string `gorm:"size:255"`
	SellerID         string `gorm:"index;size:36"`
	SellerEmail      string `gorm:"size:255"`
	SellerPhone      string `gorm:"size:32"`
	Amount           string `gorm:"size:64;not null"`
	Currency         string `gorm:"size:8;not null"`
	ProductType      string `gorm:"size:32;not null"`
	Status           string `gorm:"index;size:32;not null"`
	PaymentReference string `gorm:"size:128"`
	ProofURL         string
	ProofDescription string
	AdminNotes       string
	MutedIDs         string `gorm:"column:muted_ids"`
	InviteToken      string `gorm:"size:64"`
	Version          uint64 `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	PaidAt           *time.Time
	DeliveredAt      *time.Time
	ConfirmedAt      *time.Time
	ReleasedAt       *time.Time
}

func (Transaction) TableName() string {
	return "transaction"
}

// AmountDecimal parses the stored amount string
func (t *Transaction) AmountDecimal() (decimal.Decimal, error) {
	return decimal.NewFromString(t.Amount)
}

// MutedList decodes the muted user id set. An empty column decodes to nil
func (t *Transaction) MutedList() ([]string, error) {
	if t.MutedIDs == "" {
		return nil, nil
	}
	var ret []string
	if err := json.Unmarshal([]byte(t.MutedIDs), &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// SetMutedList encodes the muted user id set
func (t *Transaction) SetMutedList(ids []string) error {
	if len(ids) == 0 {
		t.MutedIDs = ""
		return nil
	}
	buf, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	t.MutedIDs = string(buf)
	return nil
}
