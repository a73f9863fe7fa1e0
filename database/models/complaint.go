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

// Complaint is a dispute or refund ticket raised by a buyer or seller and
// resolved exactly once by an admin.
type Complaint struct {
	ID            uint   `gorm:"primaryKey"`
	TransactionID string `gorm:"index;size:36;not null"`
	UserID        string `gorm:"size:36;not null"`
	UserEmail     string `gorm:"size:255"`
	Role          string `gorm:"size:16;not null"`
	Message       string
	Resolved      bool `gorm:"not null;default:false"`
	AdminResponse string
	CreatedAt     time.Time
}

func (Complaint) TableName() string {
	return "complaint"
}
