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

// Notification is a fire-and-forget message to a single user. Only the
// owning user may mark it read or clear it.
type Notification struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"index;size:36;not null"`
	Title     string `gorm:"size:255"`
	Message   string
	Type      string `gorm:"size:16"`
	Link      string
	Read      bool `gorm:"not null;default:false"`
	CreatedAt time.Time
}

func (Notification) TableName() string {
	return "notification"
}
