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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trustline-labs/trustline/database"
	"github.com/trustline-labs/trustline/escrow"
	"github.com/trustline-labs/trustline/event"
)

func TestInviteIssueRules(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	seller := newSeller()

	tx := createTransaction(t, l, buyer)

	// Only the buyer may issue
	_, err := l.IssueInvite(seller, tx.ID)
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)

	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, link.TransactionID)
	assert.True(t, link.IsActive)
	assert.True(t, link.ExpiresAt.After(time.Now()))

	// No new invites once a seller has joined
	_, err = l.RedeemInvite(seller, link.Token)
	require.NoError(t, err)
	_, err = l.IssueInvite(buyer, tx.ID)
	assert.Error(t, err)
}

func TestInviteResolveClassification(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	seller := newSeller()

	tx := createTransaction(t, l, buyer)
	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)

	// Unknown token
	res, err := l.ResolveInvite(seller, "no-such-token")
	require.NoError(t, err)
	assert.Equal(t, escrow.InviteStateInvalid, res.State)

	// Issuer previewing their own link
	res, err = l.ResolveInvite(buyer, link.Token)
	require.NoError(t, err)
	assert.Equal(t, escrow.InviteStateOwnLink, res.State)

	// Valid for anyone else, with a transaction preview attached
	res, err = l.ResolveInvite(seller, link.Token)
	require.NoError(t, err)
	assert.Equal(t, escrow.InviteStateValid, res.State)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, tx.ID, res.Transaction.ID)

	// Used links resolve as already_used
	_, err = l.RedeemInvite(seller, link.Token)
	require.NoError(t, err)
	res, err = l.ResolveInvite(newSeller(), link.Token)
	require.NoError(t, err)
	assert.Equal(t, escrow.InviteStateAlreadyUsed, res.State)
}

func TestInviteExpiry(t *testing.T) {
	// Negative TTL makes every link already expired
	l := newTestLedger(t, func(cfg *escrow.LedgerConfig) {
		cfg.InviteTTL = -time.Hour
	})
	buyer := newBuyer()
	seller := newSeller()

	tx := createTransaction(t, l, buyer)
	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)

	res, err := l.ResolveInvite(seller, link.Token)
	require.NoError(t, err)
	assert.Equal(t, escrow.InviteStateExpired, res.State)

	_, err = l.RedeemInvite(seller, link.Token)
	assert.ErrorIs(t, err, escrow.ErrValidation)

	// A past-expiry link stays expired even once a re-issue deactivates it
	replacement, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)
	require.NotEqual(t, link.Token, replacement.Token)
	res, err = l.ResolveInvite(seller, link.Token)
	require.NoError(t, err)
	assert.Equal(t, escrow.InviteStateExpired, res.State)
}

func TestInviteSingleUse(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	firstSeller := newSeller()
	secondSeller := newSeller()

	tx := createTransaction(t, l, buyer)
	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)

	joined, err := l.RedeemInvite(firstSeller, link.Token)
	require.NoError(t, err)
	assert.Equal(t, firstSeller.UserID, joined.SellerID)

	// The second redeemer loses
	_, err = l.RedeemInvite(secondSeller, link.Token)
	assert.ErrorIs(t, err, escrow.ErrValidation)

	// The winner remains bound
	got, err := l.Get(buyer, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, firstSeller.UserID, got.SellerID)
}

func TestInviteReissueDeactivatesOldLinks(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()
	seller := newSeller()

	tx := createTransaction(t, l, buyer)
	oldLink, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)
	newLink, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)
	require.NotEqual(t, oldLink.Token, newLink.Token)

	// Superseded token goes dead and classifies as expired
	res, err := l.ResolveInvite(seller, oldLink.Token)
	require.NoError(t, err)
	assert.Equal(t, escrow.InviteStateExpired, res.State)
	_, err = l.RedeemInvite(seller, oldLink.Token)
	assert.ErrorIs(t, err, escrow.ErrValidation)

	// The fresh token still works
	_, err = l.RedeemInvite(seller, newLink.Token)
	require.NoError(t, err)
}

func TestInviteRedeemConcurrentLosers(t *testing.T) {
	// File-backed store so WAL mode and the busy timeout cover the
	// concurrent writers
	db, err := database.New(&database.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	eventBus := event.NewEventBus(nil, nil)
	t.Cleanup(eventBus.Stop)
	l := escrow.NewLedger(escrow.LedgerConfig{
		Database: db,
		EventBus: eventBus,
	})

	buyer := newBuyer()
	tx := createTransaction(t, l, buyer)
	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)

	const redeemers = 4
	var wg sync.WaitGroup
	var winners atomic.Int64
	redeemErrs := make(chan error, redeemers)
	for range redeemers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.RedeemInvite(newSeller(), link.Token); err != nil {
				redeemErrs <- err
				return
			}
			winners.Add(1)
		}()
	}
	wg.Wait()
	close(redeemErrs)

	// Exactly one redeemer wins; the rest learn the link was already
	// used rather than being told to retry
	assert.Equal(t, int64(1), winners.Load())
	for err := range redeemErrs {
		assert.ErrorIs(t, err, escrow.ErrValidation)
		assert.NotErrorIs(t, err, escrow.ErrStaleState)
	}
}

func TestInviteRedeemOwnLink(t *testing.T) {
	l := newTestLedger(t)
	buyer := newBuyer()

	tx := createTransaction(t, l, buyer)
	link, err := l.IssueInvite(buyer, tx.ID)
	require.NoError(t, err)

	// The buyer cannot join their own transaction as seller
	_, err = l.RedeemInvite(buyer, link.Token)
	assert.ErrorIs(t, err, escrow.ErrValidation)

	// Anonymous callers cannot redeem
	_, err = l.RedeemInvite(escrow.Identity{}, link.Token)
	assert.ErrorIs(t, err, escrow.ErrUnauthorized)
}
