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

// CreateComplaint inserts a complaint row
func (d *MetadataStoreSqlite) CreateComplaint(
	complaint *models.Complaint,
	txn *gorm.DB,
) error {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	if result := db.Create(complaint); result.Error != nil {
		return fmt.Errorf("failed to create complaint: %w", result.Error)
	}
	return nil
}

// GetComplaint gets a complaint by id. Returns nil when not found
func (d *MetadataStoreSqlite) GetComplaint(
	id uint,
	txn *gorm.DB,
) (*models.Complaint, error) {
	ret := &models.Complaint{}
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

// ListComplaints lists complaints, newest first
func (d *MetadataStoreSqlite) ListComplaints(
	unresolvedOnly bool,
	txn *gorm.DB,
) ([]models.Complaint, error) {
	var ret []models.Complaint
	if txn == nil {
		txn = d.DB()
	}
	query := txn.Order("created_at DESC")
	if unresolvedOnly {
		query = query.Where("resolved = ?", false)
	}
	result := query.Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// ResolveComplaint resolves a complaint exactly once. The predicate on
// resolved = false makes further admin edits no-ops.
func (d *MetadataStoreSqlite) ResolveComplaint(
	id uint,
	adminResponse string,
	txn *gorm.DB,
) (bool, error) {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	result := db.Model(&models.Complaint{}).
		Where("id = ? AND resolved = ?", id, false).
		Updates(map[string]any{
			"resolved":       true,
			"admin_response": adminResponse,
		})
	if result.Error != nil {
		return false, fmt.Errorf(
			"failed to resolve complaint: %w",
			result.Error,
		)
	}
	return result.RowsAffected > 0, nil
}
