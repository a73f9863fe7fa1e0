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

// CreateNotification inserts a notification row
func (d *MetadataStoreSqlite) CreateNotification(
	notification *models.Notification,
	txn *gorm.DB,
) error {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	if result := db.Create(notification); result.Error != nil {
		return fmt.Errorf("failed to create notification: %w", result.Error)
	}
	return nil
}

// ListNotifications lists notifications for a user, newest first
func (d *MetadataStoreSqlite) ListNotifications(
	userId string,
	unreadOnly bool,
	txn *gorm.DB,
) ([]models.Notification, error) {
	var ret []models.Notification
	if txn == nil {
		txn = d.DB()
	}
	query := txn.Where("user_id = ?", userId)
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	result := query.Order("created_at DESC").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// MarkNotificationRead marks a single notification read. The user id is
// part of the predicate so a user cannot touch another user's rows.
func (d *MetadataStoreSqlite) MarkNotificationRead(
	id uint,
	userId string,
	txn *gorm.DB,
) (bool, error) {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	result := db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userId).
		Update("read", true)
	if result.Error != nil {
		return false, fmt.Errorf(
			"failed to mark notification read: %w",
			result.Error,
		)
	}
	return result.RowsAffected > 0, nil
}

// MarkAllNotificationsRead marks all of a user's notifications read
func (d *MetadataStoreSqlite) MarkAllNotificationsRead(
	userId string,
	txn *gorm.DB,
) error {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	result := db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userId, false).
		Update("read", true)
	if result.Error != nil {
		return fmt.Errorf(
			"failed to mark notifications read: %w",
			result.Error,
		)
	}
	return nil
}

// DeleteNotifications bulk-clears a user's notifications
func (d *MetadataStoreSqlite) DeleteNotifications(
	userId string,
	txn *gorm.DB,
) error {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	result := db.Where("user_id = ?", userId).
		Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf(
			"failed to delete notifications: %w",
			result.Error,
		)
	}
	return nil
}
