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

package escrow

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/trustline-labs/trustline/database/models"
)

// Invite resolution states returned to anonymous link previews
const (
	InviteStateValid       = "valid"
	InviteStateInvalid     = "invalid"
	InviteStateExpired     = "expired"
	InviteStateAlreadyUsed = "already_used"
	InviteStateOwnLink     = "own_link"
)

// InviteResolution classifies an invite token for preview. Link and
// Transaction are populated only when the token resolves to a live link.
type InviteResolution struct {
	State       string
	Link        *models.InviteLink
	Transaction *models.Transaction
}

func newInviteToken() string {
	buf := make([]byte, 24)
	// rand.Read never returns an error on supported platforms
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// IssueInvite creates a fresh single-use invite link for a transaction
// still awaiting a seller. Re-issuing deactivates any earlier links for
// the same transaction.
func (l *Ledger) IssueInvite(
	ident Identity,
	transactionId string,
) (*models.InviteLink, error) {
	tx, err := l.loadTransaction(transactionId)
	if err != nil {
		return nil, err
	}
	if _, err := l.actorRole(tx, ident, []Role{RoleBuyer}); err != nil {
		return nil, err
	}
	if Status(tx.Status) != StatusPendingPayment {
		return nil, InvalidTransitionError{
			From:   Status(tx.Status),
			Action: "issue_invite",
		}
	}
	link := &models.InviteLink{
		Token:         newInviteToken(),
		TransactionID: tx.ID,
		CreatedBy:     ident.UserID,
		IsActive:      true,
		ExpiresAt:     time.Now().Add(l.config.InviteTTL),
	}
	if err := l.store().DeactivateInviteLinks(tx.ID, nil); err != nil {
		return nil, err
	}
	if err := l.store().CreateInviteLink(link, nil); err != nil {
		return nil, err
	}
	ok, err := l.store().UpdateTransaction(
		tx.ID,
		tx.Version,
		map[string]any{"invite_token": link.Token},
		nil,
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStaleState
	}
	l.appendHistory(tx.ID, ident.UserID, "invite_issued", "invite link issued")
	l.publish(InviteIssuedEventType, InviteEvent{
		Link:        *link,
		Transaction: *tx,
		ActorID:     ident.UserID,
	})
	return link, nil
}

// ResolveInvite classifies an invite token without consuming it. Safe to
// call repeatedly; used for the pre-join preview shown to a prospective
// seller.
func (l *Ledger) ResolveInvite(
	ident Identity,
	token string,
) (*InviteResolution, error) {
	link, err := l.store().GetInviteLink(token, nil)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return &InviteResolution{State: InviteStateInvalid}, nil
	}
	if link.UsedBy != "" {
		return &InviteResolution{State: InviteStateAlreadyUsed, Link: link}, nil
	}
	// A link superseded by a newer one is dead the same way a past-expiry
	// link is
	if !link.IsActive || link.Expired(time.Now()) {
		return &InviteResolution{State: InviteStateExpired, Link: link}, nil
	}
	if ident.UserID != "" && ident.UserID == link.CreatedBy {
		return &InviteResolution{State: InviteStateOwnLink, Link: link}, nil
	}
	tx, err := l.loadTransaction(link.TransactionID)
	if err != nil {
		return nil, err
	}
	if Status(tx.Status) != StatusPendingPayment {
		return &InviteResolution{State: InviteStateInvalid, Link: link}, nil
	}
	return &InviteResolution{
		State:       InviteStateValid,
		Link:        link,
		Transaction: tx,
	}, nil
}

// RedeemInvite consumes an invite link and binds the caller as seller.
// The link consume and the transaction update land in one store
// transaction, so exactly one concurrent redeemer can win.
func (l *Ledger) RedeemInvite(
	ident Identity,
	token string,
) (*models.Transaction, error) {
	if ident.UserID == "" {
		return nil, ErrUnauthorized
	}
	res, err := l.ResolveInvite(ident, token)
	if err != nil {
		return nil, err
	}
	switch res.State {
	case InviteStateValid:
	case InviteStateInvalid:
		return nil, ErrNotFound
	case InviteStateExpired:
		return nil, validationErrorf("invite link has expired")
	case InviteStateAlreadyUsed:
		return nil, validationErrorf("invite link was already used")
	case InviteStateOwnLink:
		return nil, validationErrorf("cannot join your own transaction")
	default:
		return nil, ErrNotFound
	}
	tx := res.Transaction
	to, err := Transition(Status(tx.Status), ActionRedeemInvite, RoleSeller)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{
		"status":    string(to),
		"seller_id": ident.UserID,
	}
	if tx.SellerEmail == "" {
		updates["seller_email"] = ident.Email
	}
	now := time.Now()
	txn := l.store().Transaction()
	if txn.Error != nil {
		return nil, txn.Error
	}
	ok, err := l.store().ConsumeInviteLink(token, ident.UserID, now, txn)
	if err != nil {
		txn.Rollback()
		return nil, err
	}
	if !ok {
		txn.Rollback()
		// Lost a concurrent redemption; retrying cannot succeed, so
		// report the terminal outcome rather than a stale-state hint
		refreshed, rerr := l.store().GetInviteLink(token, nil)
		if rerr == nil && refreshed != nil && refreshed.UsedBy != "" {
			return nil, validationErrorf("invite link was already used")
		}
		return nil, ErrStaleState
	}
	ok, err = l.store().UpdateTransaction(tx.ID, tx.Version, updates, txn)
	if err != nil {
		txn.Rollback()
		return nil, err
	}
	if !ok {
		txn.Rollback()
		return nil, ErrStaleState
	}
	if err := txn.Commit().Error; err != nil {
		return nil, err
	}
	l.appendHistory(
		tx.ID,
		ident.UserID,
		historyActionType(ActionRedeemInvite),
		"seller joined via invite link",
	)
	updated, err := l.loadTransaction(tx.ID)
	if err != nil {
		return nil, err
	}
	l.publish(InviteRedeemedEventType, InviteEvent{
		Link:        *res.Link,
		Transaction: *updated,
		ActorID:     ident.UserID,
	})
	l.publish(StatusChangedEventType, TransactionEvent{
		Transaction: *updated,
		ActorID:     ident.UserID,
		ActorRole:   RoleSeller,
		Action:      ActionRedeemInvite,
		From:        Status(tx.Status),
		To:          to,
	})
	return updated, nil
}
