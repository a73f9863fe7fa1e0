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

// CreatePayoutAccount inserts a payout account row
func (d *MetadataStoreSqlite) CreatePayoutAccount(
	account *models.PayoutAccount,
	txn *gorm.DB,
) error {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	if result := db.Create(account); result.Error != nil {
		return fmt.Errorf("failed to create payout account: %w", result.Error)
	}
	return nil
}

// ListPayoutAccounts lists a user's payout accounts
func (d *MetadataStoreSqlite) ListPayoutAccounts(
	userId string,
	txn *gorm.DB,
) ([]models.PayoutAccount, error) {
	var ret []models.PayoutAccount
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Where("user_id = ?", userId).
		Order("created_at ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// DeletePayoutAccount removes a payout account owned by the user
func (d *MetadataStoreSqlite) DeletePayoutAccount(
	id uint,
	userId string,
	txn *gorm.DB,
) (bool, error) {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	result := db.Where("id = ? AND user_id = ?", id, userId).
		Delete(&models.PayoutAccount{})
	if result.Error != nil {
		return false, fmt.Errorf(
			"failed to delete payout account: %w",
			result.Error,
		)
	}
	return result.RowsAffected > 0, nil
}

// SetDefaultPayoutAccount clears the user's existing default and sets the
// target account as default inside a single database transaction, so a
// crash cannot leave the user with zero or two defaults.
func (d *MetadataStoreSqlite) SetDefaultPayoutAccount(
	id uint,
	userId string,
) error {
	return d.db.Transaction(func(txn *gorm.DB) error {
		result := txn.Model(&models.PayoutAccount{}).
			Where("user_id = ? AND is_default = ?", userId, true).
			Update("is_default", false)
		if result.Error != nil {
			return fmt.Errorf(
				"failed to clear default payout account: %w",
				result.Error,
			)
		}
		result = txn.Model(&models.PayoutAccount{}).
			Where("id = ? AND user_id = ?", id, userId).
			Update("is_default", true)
		if result.Error != nil {
			return fmt.Errorf(
				"failed to set default payout account: %w",
				result.Error,
			)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
