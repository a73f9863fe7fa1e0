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
	"gorm.io/gorm/clause"
)

// GetSetting returns the value for a settings key, or empty string when
// the key is not present
func (d *MetadataStoreSqlite) GetSetting(
	key string,
	txn *gorm.DB,
) (string, error) {
	ret := &models.Setting{}
	if txn == nil {
		txn = d.DB()
	}
	result := txn.Where("key = ?", key).First(ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}
	return ret.Value, nil
}

// SetSetting upserts a settings key
func (d *MetadataStoreSqlite) SetSetting(
	key, value string,
	txn *gorm.DB,
) error {
	db := d.DB()
	if txn != nil {
		db = txn
	}
	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{Key: key, Value: value})
	if result.Error != nil {
		return fmt.Errorf("failed to set setting: %w", result.Error)
	}
	return nil
}
