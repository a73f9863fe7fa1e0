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

package escrow_test

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustline-labs/trustline/database"
	"github.com/trustline-labs/trustline/escrow"
	"github.com/trustline-labs/trustline/event"
)

// recordingMailer captures sent messages for assertions
type recordingMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *recordingMailer) Send(to, subject, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.sent...)
}

func newTestNotifier(
	t *testing.T,
	adminIds []string,
) (*escrow.Ledger, *recordingMailer) {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	eventBus := event.NewEventBus(nil, nil)
	t.Cleanup(eventBus.Stop)
	mailSender := &recordingMailer{}
	notifier := escrow.NewNotifier(escrow.NotifierConfig{
		Database: db,
		EventBus: eventBus,
		Mailer:   mailSender,
		AdminIDs: adminIds,
	})
	notifier.Start()
	t.Cleanup(notifier.Stop)
	ledger := escrow.NewLedger(escrow.LedgerConfig{
		Database: db,
		EventBus: eventBus,
		AdminIDs: adminIds,
	})
	return ledger, mailSender
}

func waitForNotifications(
	t *testing.T,
	l *escrow.Ledger,
	ident escrow.Identity,
	count int,
) []string {
	t.Helper()
	var titles []string
	require.Eventually(t, func() bool {
		rows, err := l.Notifications(ident, false)
		if err != nil || len(rows) < count {
			return false
		}
		titles = nil
		for _, row := range rows {
			titles = append(titles, row.Title)
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
	return titles
}

func TestNotifierFanOut(t *testing.T) {
	admin := newAdmin()
	l, mailSender := newTestNotifier(t, []string{admin.UserID})
	buyer := newBuyer()
	seller := newSeller()

	tx := createTransaction(t, l, buyer)
	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)
	_, err = l.RedeemInvite(seller, link.Token)
	require.NoError(t, err)

	// Seller joining notifies the buyer and the admin, never the actor
	buyerTitles := waitForNotifications(t, l, buyer, 1)
	assert.Contains(t, buyerTitles, "Seller joined")
	waitForNotifications(t, l, admin, 1)
	sellerRows, err := l.Notifications(seller, false)
	require.NoError(t, err)
	assert.Empty(t, sellerRows)

	// Payment notifies the seller
	_, err = l.SubmitPayment(buyer, tx.ID, "ref-1", nil)
	require.NoError(t, err)
	sellerTitles := waitForNotifications(t, l, seller, 1)
	assert.Contains(t, sellerTitles, "Payment received")

	// Email went to addresses recorded on the transaction
	require.Eventually(t, func() bool {
		return len(mailSender.recipients()) >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNotifierAdminActionNotifiesBothParties(t *testing.T) {
	admin := newAdmin()
	l, _ := newTestNotifier(t, []string{admin.UserID})
	buyer := newBuyer()
	seller := newSeller()

	tx := createHeldTransaction(t, l, buyer, seller)
	_, err := l.Override(
		admin,
		tx.ID,
		escrow.StatusCancelled,
		"cancelled by support",
	)
	require.NoError(t, err)

	// Both parties already hold one notification from the held pipeline,
	// the override adds a second
	buyerTitles := waitForNotifications(t, l, buyer, 2)
	assert.Contains(t, buyerTitles, "Status updated")
	sellerTitles := waitForNotifications(t, l, seller, 2)
	assert.Contains(t, sellerTitles, "Status updated")
}

func TestNotifierDeepLinksPerRole(t *testing.T) {
	admin := newAdmin()
	l, _ := newTestNotifier(t, []string{admin.UserID})
	buyer := newBuyer()
	seller := newSeller()

	tx := createHeldTransaction(t, l, buyer, seller)
	waitForNotifications(t, l, buyer, 1)
	waitForNotifications(t, l, seller, 1)
	waitForNotifications(t, l, admin, 2)

	// Each recipient's link targets their own dashboard view of the
	// same transaction
	linkFor := func(ident escrow.Identity) string {
		rows, err := l.Notifications(ident, false)
		require.NoError(t, err)
		require.NotEmpty(t, rows)
		return rows[0].Link
	}
	assert.Equal(t, "/transactions/"+tx.ID, linkFor(buyer))
	assert.Equal(t, "/seller/transactions/"+tx.ID, linkFor(seller))
	assert.Equal(t, "/admin/transactions/"+tx.ID, linkFor(admin))
}

func TestNotificationReadAndClear(t *testing.T) {
	admin := newAdmin()
	l, _ := newTestNotifier(t, []string{admin.UserID})
	buyer := newBuyer()
	seller := newSeller()

	tx := createTransaction(t, l, buyer)
	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)
	_, err = l.RedeemInvite(seller, link.Token)
	require.NoError(t, err)
	waitForNotifications(t, l, buyer, 1)

	rows, err := l.Notifications(buyer, true)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	notificationId := rows[0].ID

	// Another user cannot mark someone else's notification
	err = l.MarkNotificationRead(seller, notificationId)
	assert.ErrorIs(t, err, escrow.ErrNotFound)

	require.NoError(t, l.MarkNotificationRead(buyer, notificationId))
	unread, err := l.Notifications(buyer, true)
	require.NoError(t, err)
	for _, row := range unread {
		assert.NotEqual(t, notificationId, row.ID)
	}

	require.NoError(t, l.MarkAllNotificationsRead(buyer))
	unread, err = l.Notifications(buyer, true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	require.NoError(t, l.ClearNotifications(buyer))
	rows, err = l.Notifications(buyer, false)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestNotifierQuoteUnaffected(t *testing.T) {
	// Notification fan-out must not interfere with synchronous reads
	admin := newAdmin()
	l, _ := newTestNotifier(t, []string{admin.UserID})
	buyer := newBuyer()
	seller := newSeller()

	tx := createHeldTransaction(t, l, buyer, seller)
	quote, err := l.QuoteTransaction(buyer, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "5000", quote.Base.String())
	assert.True(t, quote.Fee.Equal(
		quote.Base.Mul(decimal.NewFromInt(quote.Rate)).
			Round(0).
			Div(decimal.NewFromInt(100)),
	))
}
