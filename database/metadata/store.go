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

package metadata

import (
	"log/slog"
	"time"

	"github.com/trustline-labs/trustline/database/metadata/sqlite"
	"github.com/trustline-labs/trustline/database/models"
	"gorm.io/gorm"
)

type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	Transaction() *gorm.DB

	// Transactions
	CreateTransaction(*models.Transaction, *gorm.DB) error
	GetTransaction(string, *gorm.DB) (*models.Transaction, error)
	ListTransactions(*gorm.DB) ([]models.Transaction, error)
	ListTransactionsForUser(string, *gorm.DB) ([]models.Transaction, error)
	UpdateTransaction(
		string, // id
		uint64, // expected version
		map[string]any,
		*gorm.DB,
	) (bool, error)
	DeleteTransaction(
		string, // id
		[]string, // allowed predecessor statuses
		*gorm.DB,
	) (bool, error)

	// Invite links
	CreateInviteLink(*models.InviteLink, *gorm.DB) error
	GetInviteLink(string, *gorm.DB) (*models.InviteLink, error)
	ConsumeInviteLink(
		string, // token
		string, // redeemer user id
		time.Time,
		*gorm.DB,
	) (bool, error)
	DeactivateInviteLinks(string, *gorm.DB) error

	// Notifications
	CreateNotification(*models.Notification, *gorm.DB) error
	ListNotifications(
		string, // user id
		bool, // unread only
		*gorm.DB,
	) ([]models.Notification, error)
	MarkNotificationRead(uint, string, *gorm.DB) (bool, error)
	MarkAllNotificationsRead(string, *gorm.DB) error
	DeleteNotifications(string, *gorm.DB) error

	// Transaction history (append-only)
	AppendHistory(*models.TransactionHistory, *gorm.DB) error
	ListHistory(string, *gorm.DB) ([]models.TransactionHistory, error)
	CountHistory(string, *gorm.DB) (int64, error)

	// Complaints
	CreateComplaint(*models.Complaint, *gorm.DB) error
	GetComplaint(uint, *gorm.DB) (*models.Complaint, error)
	ListComplaints(bool, *gorm.DB) ([]models.Complaint, error)
	ResolveComplaint(uint, string, *gorm.DB) (bool, error)

	// Payout accounts
	CreatePayoutAccount(*models.PayoutAccount, *gorm.DB) error
	ListPayoutAccounts(string, *gorm.DB) ([]models.PayoutAccount, error)
	DeletePayoutAccount(uint, string, *gorm.DB) (bool, error)
	SetDefaultPayoutAccount(uint, string) error

	// Settings
	GetSetting(string, *gorm.DB) (string, error)
	SetSetting(string, string, *gorm.DB) error
}

// For now, this always returns a sqlite store
func New(
	storeName, dataDir string,
	logger *slog.Logger,
) (MetadataStore, error) {
	return sqlite.New(dataDir, logger)
}
