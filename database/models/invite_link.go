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

// InviteLink is a single-use capability token binding a transaction to a
// prospective seller. Expiry is computed from ExpiresAt at read time;
// IsActive alone is not authoritative for staleness.
type InviteLink struct {
	Token         string `gorm:"primaryKey;size:64"`
	TransactionID string `gorm:"index;size:36;not null"`
	CreatedBy     string `gorm:"size:36;not null"`
	UsedBy        string `gorm:"size:36"`
	IsActive      bool   `gorm:"not null;default:true"`
	CreatedAt     time.Time
	ExpiresAt     time.Time `gorm:"not null"`
	UsedAt        *time.Time
}

func (InviteLink) TableName() string {
	return "invite_link"
}

// Expired reports whether the link is past its expiry at the given instant
func (l *InviteLink) Expired(now time.Time) bool {
	return l.ExpiresAt.Before(now)
}
