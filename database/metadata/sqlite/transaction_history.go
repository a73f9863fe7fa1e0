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

package sqlite

import (
	"fmt"

	"github.com/trustline-labs/trustline/database/models"
	"gorm.io/gorm"
)

// AppendHistory appends an audit row. There is deliberately no update or
// delete counterpart for this table.
func (d *MetadataStoreSqlite) AppendHistory(
	entry *models.TransactionHistory,
	txn *gorm.DB,
) error {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	if result := db.Create(entry); result.Error != nil {
		return fmt.Errorf("failed to append history: %w", result.Error)
	}
	return nil
}

// ListHistory lists audit rows for a transaction, oldest first
func (d *MetadataStoreSqlite) ListHistory(
	transactionId string,
	txn *gorm.DB,
) ([]models.TransactionHistory, error) {
	var ret []models.TransactionHistory
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Where("transaction_id = ?", transactionId).
		Order("created_at ASC, id ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CountHistory returns the number of audit rows for a transaction
func (d *MetadataStoreSqlite) CountHistory(
	transactionId string,
	txn *gorm.DB,
) (int64, error) {
	var count int64
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Model(&models.TransactionHistory{}).
		Where("transaction_id = ?", transactionId).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}
