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
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustline-labs/trustline/database"
	"github.com/trustline-labs/trustline/database/models"
	"github.com/trustline-labs/trustline/escrow"
	"github.com/trustline-labs/trustline/event"
)

func newTestLedger(
	t *testing.T,
	opts ...func(*escrow.LedgerConfig),
) *escrow.Ledger {
	t.Helper()
	db, err := database.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	eventBus := event.NewEventBus(nil, nil)
	t.Cleanup(eventBus.Stop)
	cfg := escrow.LedgerConfig{
		Database: db,
		EventBus: eventBus,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return escrow.NewLedger(cfg)
}

func newBuyer() escrow.Identity {
	return escrow.Identity{
		UserID: uuid.NewString(),
		Email:  "buyer@example.com",
	}
}

func newSeller() escrow.Identity {
	return escrow.Identity{
		UserID: uuid.NewString(),
		Email:  "seller@example.com",
	}
}

func newAdmin() escrow.Identity {
	return escrow.Identity{
		UserID: uuid.NewString(),
		Email:  "admin@example.com",
		Roles:  []escrow.Role{escrow.RoleAdmin},
	}
}

func createTransaction(
	t *testing.T,
	l *escrow.Ledger,
	buyer escrow.Identity,
) *models.Transaction {
	t.Helper()
	tx, err := l.Create(buyer, escrow.CreateParams{
		SellerEmail: "seller@example.com",
		Amount:      decimal.NewFromInt(5000),
		ProductType: escrow.ProductPhysical,
	})
	require.NoError(t, err)
	return tx
}

// createHeldTransaction walks a fresh transaction through invite
// redemption and payment
func createHeldTransaction(
	t *testing.T,
	l *escrow.Ledger,
	buyer, seller escrow.Identity,
) *models.Transaction {
	t.Helper()
	tx := createTransaction(t, l, buyer)
	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)
	_, err = l.RedeemInvite(seller, link.Token)
	require.NoError(t, err)
	tx, err = l.SubmitPayment(buyer, tx.ID, "ref-12345", nil)
	require.NoError(t, err)
	return tx
}

func TestLedgerHappyPath(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	seller := newSeller()
	admin := newAdmin()

	tx := createTransaction(t, l, buyer)
	assert.Equal(t, string(escrow.StatusPendingPayment), tx.Status)
	assert.Equal(t, buyer.UserID, tx.BuyerID)
	assert.Equal(t, "5000", tx.Amount)

	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)
	require.NotEmpty(t, link.Token)

	joined, err := l.RedeemInvite(seller, link.Token)
	require.NoError(t, err)
	assert.Equal(t, string(escrow.StatusSellerJoined), joined.Status)
	assert.Equal(t, seller.UserID, joined.SellerID)

	held, err := l.SubmitPayment(buyer, tx.ID, "ref-12345", nil)
	require.NoError(t, err)
	assert.Equal(t, string(escrow.StatusHeld), held.Status)
	assert.Equal(t, "ref-12345", held.PaymentReference)
	require.NotNil(t, held.PaidAt)

	delivered, err := l.MarkDelivered(seller, tx.ID, nil)
	require.NoError(t, err)
	assert.Equal(
		t,
		string(escrow.StatusPendingConfirmation),
		delivered.Status,
	)
	require.NotNil(t, delivered.DeliveredAt)

	confirmed, err := l.ConfirmReceipt(buyer, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, string(escrow.StatusPendingRelease), confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)

	released, err := l.ReleaseFunds(admin, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, string(escrow.StatusReleased), released.Status)
	require.NotNil(t, released.ReleasedAt)

	// Every step left an audit row
	history, err := l.History(buyer, tx.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(history), 7)
}

func TestHistoryActionTypes(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	seller := newSeller()

	tx := createTransaction(t, l, buyer)
	_, err := l.EditAmount(buyer, tx.ID, decimal.NewFromInt(6000))
	require.NoError(t, err)
	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)
	_, err = l.RedeemInvite(seller, link.Token)
	require.NoError(t, err)
	_, err = l.SubmitPayment(buyer, tx.ID, "ref-77", nil)
	require.NoError(t, err)
	_, err = l.AttachProof(buyer, tx.ID, &escrow.ProofUpload{
		Data:        []byte("receipt"),
		ContentType: "image/png",
	})
	require.NoError(t, err)

	// Each operation records its own action type
	history, err := l.History(buyer, tx.ID)
	require.NoError(t, err)
	var actions []string
	for _, row := range history {
		actions = append(actions, row.ActionType)
	}
	assert.Contains(t, actions, "transaction_created")
	assert.Contains(t, actions, "amount_edited")
	assert.Contains(t, actions, "invite_issued")
	assert.Contains(t, actions, "seller_joined")
	assert.Contains(t, actions, "payment")
	assert.Contains(t, actions, "proof_uploaded")
}

func TestLedgerCreateValidation(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()

	_, err := l.Create(buyer, escrow.CreateParams{
		Amount:      decimal.NewFromInt(-5),
		ProductType: escrow.ProductPhysical,
	})
	assert.ErrorIs(t, err, escrow.ErrValidation)

	_, err = l.Create(buyer, escrow.CreateParams{
		Amount:      decimal.NewFromInt(100),
		ProductType: escrow.ProductType("bogus"),
	})
	assert.ErrorIs(t, err, escrow.ErrValidation)

	_, err = l.Create(escrow.Identity{}, escrow.CreateParams{
		Amount:      decimal.NewFromInt(100),
		ProductType: escrow.ProductService,
	})
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)
}

func TestLedgerVisibility(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	stranger := newSeller()
	admin := newAdmin()

	tx := createTransaction(t, l, buyer)

	_, err := l.Get(stranger, tx.ID)
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)

	got, err := l.Get(admin, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)

	_, err = l.Get(buyer, uuid.NewString())
	assert.ErrorIs(t, err, escrow.ErrNotFound)
}

func TestLedgerEditAmount(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	seller := newSeller()

	tx := createTransaction(t, l, buyer)

	updated, err := l.EditAmount(buyer, tx.ID, decimal.NewFromInt(7500))
	require.NoError(t, err)
	assert.Equal(t, "7500", updated.Amount)
	assert.Greater(t, updated.Version, tx.Version)

	// Only the buyer may edit
	_, err = l.EditAmount(seller, tx.ID, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)

	// Editing is locked once the seller joins
	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)
	_, err = l.RedeemInvite(seller, link.Token)
	require.NoError(t, err)
	_, err = l.EditAmount(buyer, tx.ID, decimal.NewFromInt(100))
	var invalidTransition escrow.InvalidTransitionError
	assert.True(t, errors.As(err, &invalidTransition))
}

func TestLedgerDelete(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	seller := newSeller()

	tx := createTransaction(t, l, buyer)
	require.NoError(t, l.Delete(buyer, tx.ID))
	_, err := l.Get(buyer, tx.ID)
	assert.ErrorIs(t, err, escrow.ErrNotFound)

	// Deletion is blocked once funds are held
	held := createHeldTransaction(t, l, buyer, seller)
	err = l.Delete(buyer, held.ID)
	var invalidTransition escrow.InvalidTransitionError
	assert.True(t, errors.As(err, &invalidTransition))

	// Only the buyer may delete
	tx2 := createTransaction(t, l, buyer)
	err = l.Delete(seller, tx2.ID)
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)
}

func TestLedgerRefundFlow(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	seller := newSeller()
	admin := newAdmin()

	tx := createHeldTransaction(t, l, buyer, seller)

	// Reason is required
	_, err := l.RequestRefund(buyer, tx.ID, "  ")
	assert.ErrorIs(t, err, escrow.ErrValidation)

	requested, err := l.RequestRefund(buyer, tx.ID, "never delivered")
	require.NoError(t, err)
	assert.Equal(
		t,
		string(escrow.StatusRefundRequested),
		requested.Status,
	)

	// The refund request filed a complaint ticket
	complaints, err := l.Complaints(admin, true)
	require.NoError(t, err)
	var found bool
	for _, complaint := range complaints {
		if complaint.TransactionID == tx.ID {
			found = true
			assert.Equal(t, string(escrow.RoleBuyer), complaint.Role)
			assert.Equal(t, "never delivered", complaint.Message)
		}
	}
	assert.True(t, found)

	// Denial returns the transaction to held
	denied, err := l.DenyRefund(admin, tx.ID, "seller has shipped")
	require.NoError(t, err)
	assert.Equal(t, string(escrow.StatusHeld), denied.Status)
	assert.Contains(t, denied.AdminNotes, "seller has shipped")

	// Approval cancels the transaction
	_, err = l.RequestRefund(buyer, tx.ID, "still nothing")
	require.NoError(t, err)
	cancelled, err := l.ApproveRefund(admin, tx.ID, "refund confirmed")
	require.NoError(t, err)
	assert.Equal(t, string(escrow.StatusCancelled), cancelled.Status)

	// Terminal status rejects further transitions
	_, err = l.SubmitPayment(buyer, tx.ID, "ref-2", nil)
	var invalidTransition escrow.InvalidTransitionError
	assert.True(t, errors.As(err, &invalidTransition))
}

func TestLedgerDispute(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	seller := newSeller()
	admin := newAdmin()

	tx := createHeldTransaction(t, l, buyer, seller)

	disputed, err := l.FileDispute(seller, tx.ID, "buyer is unresponsive")
	require.NoError(t, err)
	assert.Equal(t, string(escrow.StatusDisputed), disputed.Status)

	complaints, err := l.Complaints(admin, true)
	require.NoError(t, err)
	var complaintId uint
	for _, complaint := range complaints {
		if complaint.TransactionID == tx.ID {
			complaintId = complaint.ID
			assert.Equal(t, string(escrow.RoleSeller), complaint.Role)
		}
	}
	require.NotZero(t, complaintId)

	// Non-admins cannot see or resolve complaints
	_, err = l.Complaints(buyer, false)
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)
	_, err = l.ResolveComplaint(buyer, complaintId, "done")
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)

	resolved, err := l.ResolveComplaint(
		admin,
		complaintId,
		"mediated by support",
	)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.Equal(t, "mediated by support", resolved.AdminResponse)

	// Resolving again is a no-op, not an error
	again, err := l.ResolveComplaint(admin, complaintId, "second response")
	require.NoError(t, err)
	assert.Equal(t, "mediated by support", again.AdminResponse)
}

func TestLedgerOverride(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	seller := newSeller()
	admin := newAdmin()

	tx := createHeldTransaction(t, l, buyer, seller)

	// Admin only
	_, err := l.Override(
		buyer,
		tx.ID,
		escrow.StatusReleased,
		"trust me",
	)
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)

	// Justification note is required
	_, err = l.Override(admin, tx.ID, escrow.StatusReleased, "")
	assert.ErrorIs(t, err, escrow.ErrValidation)

	// Target must be a known status
	_, err = l.Override(admin, tx.ID, escrow.Status("bogus"), "note")
	assert.ErrorIs(t, err, escrow.ErrValidation)

	// Override bypasses the transition table entirely
	overridden, err := l.Override(
		admin,
		tx.ID,
		escrow.StatusExpired,
		"stale transaction cleanup",
	)
	require.NoError(t, err)
	assert.Equal(t, string(escrow.StatusExpired), overridden.Status)
	assert.Contains(t, overridden.AdminNotes, "stale transaction cleanup")
}

func TestLedgerMute(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	seller := newSeller()
	admin := newAdmin()

	tx := createHeldTransaction(t, l, buyer, seller)

	_, err := l.MuteUser(buyer, tx.ID, seller.UserID)
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)

	muted, err := l.MuteUser(admin, tx.ID, seller.UserID)
	require.NoError(t, err)
	ids, err := muted.MutedList()
	require.NoError(t, err)
	assert.Contains(t, ids, seller.UserID)

	// Muting twice does not duplicate the entry
	muted, err = l.MuteUser(admin, tx.ID, seller.UserID)
	require.NoError(t, err)
	ids, err = muted.MutedList()
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	unmuted, err := l.UnmuteUser(admin, tx.ID, seller.UserID)
	require.NoError(t, err)
	ids, err = unmuted.MutedList()
	require.NoError(t, err)
	assert.NotContains(t, ids, seller.UserID)
}

func TestLedgerRoleChecks(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	seller := newSeller()

	tx := createHeldTransaction(t, l, buyer, seller)

	// Seller cannot submit payment, buyer cannot mark delivered
	_, err := l.SubmitPayment(seller, tx.ID, "ref", nil)
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)
	_, err = l.MarkDelivered(buyer, tx.ID, nil)
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)

	// Buyer cannot release funds
	_, err = l.MarkDelivered(seller, tx.ID, nil)
	require.NoError(t, err)
	_, err = l.ConfirmReceipt(buyer, tx.ID)
	require.NoError(t, err)
	_, err = l.ReleaseFunds(buyer, tx.ID)
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)
}

func TestLedgerFeeSettings(t *testing.T) {
	l := newTestLedger(t)
	admin := newAdmin()
	buyer := newBuyer()

	_, err := l.Quote(decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, escrow.ErrValidation)

	err = l.UpdateFeeSettings(buyer, escrow.FeeConfig{
		Threshold:     decimal.NewFromInt(5000),
		BelowRate:     10,
		AtOrAboveRate: 3,
	})
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)

	err = l.UpdateFeeSettings(admin, escrow.FeeConfig{
		Threshold:     decimal.NewFromInt(5000),
		BelowRate:     10,
		AtOrAboveRate: 3,
	})
	require.NoError(t, err)

	// Updated rates apply immediately to new quotes
	quote, err := l.Quote(decimal.NewFromInt(4000))
	require.NoError(t, err)
	assert.Equal(t, int64(10), quote.Rate)
	assert.Equal(t, "400", quote.Fee.String())

	quote, err = l.Quote(decimal.NewFromInt(5000))
	require.NoError(t, err)
	assert.Equal(t, int64(3), quote.Rate)
	assert.Equal(t, "150", quote.Fee.String())

	cfg, err := l.FeeSettings()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Threshold.String())
	assert.Equal(t, int64(10), cfg.BelowRate)
	assert.Equal(t, int64(3), cfg.AtOrAboveRate)
}

func TestLedgerProof(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	seller := newSeller()
	stranger := newSeller()

	tx := createTransaction(t, l, buyer)
	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)
	_, err = l.RedeemInvite(seller, link.Token)
	require.NoError(t, err)

	proof := &escrow.ProofUpload{
		Data:        []byte("bank transfer receipt"),
		ContentType: "image/png",
		Description: "transfer screenshot",
	}
	paid, err := l.SubmitPayment(buyer, tx.ID, "ref-999", proof)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/proofs/"+tx.ID, paid.ProofURL)
	assert.Equal(t, "transfer screenshot", paid.ProofDescription)

	data, contentType, err := l.Proof(buyer, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("bank transfer receipt"), data)
	assert.Equal(t, "image/png", contentType)

	_, _, err = l.Proof(stranger, tx.ID)
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)
}

func TestLedgerProofSizeCap(t *testing.T) {
	l := newTestLedger(t, func(cfg *escrow.LedgerConfig) {
		cfg.MaxProofBytes = 16
	})
	buyer := newBuyer()
	seller := newSeller()

	tx := createTransaction(t, l, buyer)
	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)
	_, err = l.RedeemInvite(seller, link.Token)
	require.NoError(t, err)

	proof := &escrow.ProofUpload{
		Data:        []byte("this is far too large for the cap"),
		ContentType: "text/plain",
	}
	_, err = l.SubmitPayment(buyer, tx.ID, "ref", proof)
	assert.ErrorIs(t, err, escrow.ErrValidation)
}
