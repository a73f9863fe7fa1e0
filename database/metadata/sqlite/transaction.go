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
	"errors"
	"fmt"

	"github.com/trustline-labs/trustline/database/models"
	"gorm.io/gorm"
)

// CreateTransaction inserts a new transaction row
func (d *MetadataStoreSqlite) CreateTransaction(
	tx *models.Transaction,
	txn *gorm.DB,
) error {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	if result := db.Create(tx); result.Error != nil {
		return fmt.Errorf("failed to create transaction: %w", result.Error)
	}
	return nil
}

// GetTransaction gets a transaction by id. Returns nil when not found
func (d *MetadataStoreSqlite) GetTransaction(
	id string,
	txn *gorm.DB,
) (*models.Transaction, error) {
	ret := &models.Transaction{}
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Where("id = ?", id).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// ListTransactions lists all transactions, newest first
func (d *MetadataStoreSqlite) ListTransactions(
	txn *gorm.DB,
) ([]models.Transaction, error) {
	var ret []models.Transaction
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Order("created_at DESC").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// ListTransactionsForUser lists transactions where the user is buyer or seller
func (d *MetadataStoreSqlite) ListTransactionsForUser(
	userId string,
	txn *gorm.DB,
) ([]models.Transaction, error) {
	var ret []models.Transaction
	if txn == nil {
		txn = d.DB()
	}
	result := txn.
		Where("buyer_id = ? OR seller_id = ?", userId, userId).
		Order("created_at DESC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// UpdateTransaction applies updates to a transaction row using an
// optimistic version check-and-set. The update only lands if the stored
// version still matches expectedVersion; the version is bumped in the
// same statement. Returns false when another writer won the race.
func (d *MetadataStoreSqlite) UpdateTransaction(
	id string,
	expectedVersion uint64,
	updates map[string]any,
	txn *gorm.DB,
) (bool, error) {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	updates["version"] = gorm.Expr("version + 1")
	result := db.Model(&models.Transaction{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf(
			"failed to update transaction: %w",
			result.Error,
		)
	}
	return result.RowsAffected > 0, nil
}

// DeleteTransaction removes a transaction row, conditional on its status
// still being one of allowedStatuses. Returns false when the status moved
// on before the delete landed.
func (d *MetadataStoreSqlite) DeleteTransaction(
	id string,
	allowedStatuses []string,
	txn *gorm.DB,
) (bool, error) {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	result := db.
		Where("id = ? AND status IN ?", id, allowedStatuses).
		Delete(&models.Transaction{})
	if result.Error != nil {
		return false, fmt.Errorf(
			"failed to delete transaction: %w",
			result.Error,
		)
	}
	return result.RowsAffected > 0, nil
}
