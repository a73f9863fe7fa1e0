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

// TransactionHistory is an append-only audit row. No store method updates
// or deletes rows of this table.
type TransactionHistory struct {
	ID            uint   `gorm:"primaryKey"`
	TransactionID string `gorm:"index;size:36;not null"`
	ActorID       string `gorm:"size:36"`
	ActionType    string `gorm:"size:32;not null"`
	Description   string
	CreatedAt     time.Time
}

func (TransactionHistory) TableName() string {
	return "transaction_history"
}
