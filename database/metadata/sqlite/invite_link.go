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
	"time"

	"github.com/trustline-labs/trustline/database/models"
	"gorm.io/gorm"
)

// CreateInviteLink inserts a new invite link row
func (d *MetadataStoreSqlite) CreateInviteLink(
	link *models.InviteLink,
	txn *gorm.DB,
) error {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	if result := db.Create(link); result.Error != nil {
		return fmt.Errorf("failed to create invite link: %w", result.Error)
	}
	return nil
}

// GetInviteLink gets an invite link by token. Returns nil when not found
func (d *MetadataStoreSqlite) GetInviteLink(
	token string,
	txn *gorm.DB,
) (*models.InviteLink, error) {
	ret := &models.InviteLink{}
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Where("token = ?", token).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return ret, nil
}

// ConsumeInviteLink marks an invite link used by a redeemer. The update is
// conditional on the link being unused and active, so exactly one of any
// number of concurrent redeemers wins. Returns false for the losers.
func (d *MetadataStoreSqlite) ConsumeInviteLink(
	token string,
	userId string,
	usedAt time.Time,
	txn *gorm.DB,
) (bool, error) {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	result := db.Model(&models.InviteLink{}).
		Where("token = ? AND used_by = ? AND is_active = ?", token, "", true).
		Updates(map[string]any{
			"used_by":   userId,
			"used_at":   usedAt,
			"is_active": false,
		})
	if result.Error != nil {
		return false, fmt.Errorf(
			"failed to consume invite link: %w",
			result.Error,
		)
	}
	return result.RowsAffected > 0, nil
}

// DeactivateInviteLinks deactivates all links for a transaction. Used when
// a fresh link is issued so older tokens go dead.
func (d *MetadataStoreSqlite) DeactivateInviteLinks(
	transactionId string,
	txn *gorm.DB,
) error {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	result := db.Model(&models.InviteLink{}).
		Where("transaction_id = ? AND used_by = ?", transactionId, "").
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf(
			"failed to deactivate invite links: %w",
			result.Error,
		)
	}
	return nil
}
