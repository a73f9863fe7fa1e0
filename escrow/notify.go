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
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/trustline-labs/trustline/database"
	"github.com/trustline-labs/trustline/database/models"
	"github.com/trustline-labs/trustline/event"
)

// Mailer sends transactional email. Implementations must not block the
// caller on delivery.
type Mailer interface {
	Send(to, subject, body string)
}

// NotifierConfig holds notifier configuration
type NotifierConfig struct {
	Logger   *slog.Logger
	Database *database.Database
	EventBus *event.EventBus
	Mailer   Mailer
	// AdminIDs receive copies of party-authored notifications
	AdminIDs []string
}

// Notifier consumes domain events from the bus and fans each one out to
// the affected users as notification rows, realtime events, and
// best-effort email. It is the only writer of the notification table
// besides the user-facing read/clear operations.
type Notifier struct {
	config NotifierConfig
	logger *slog.Logger
	db     *database.Database
	subIds map[event.EventType]event.EventSubscriberId
}

// NewNotifier creates a notifier from the provided config
func NewNotifier(cfg NotifierConfig) *Notifier {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Notifier{
		config: cfg,
		logger: cfg.Logger.With("component", "notifier"),
		db:     cfg.Database,
		subIds: make(map[event.EventType]event.EventSubscriberId),
	}
}

// Start subscribes the notifier to the domain event types it fans out
func (n *Notifier) Start() {
	bus := n.config.EventBus
	n.subIds[StatusChangedEventType] = bus.SubscribeFunc(
		StatusChangedEventType,
		n.handleStatusChanged,
	)
	n.subIds[InviteRedeemedEventType] = bus.SubscribeFunc(
		InviteRedeemedEventType,
		n.handleInviteRedeemed,
	)
	n.subIds[ComplaintCreatedEventType] = bus.SubscribeFunc(
		ComplaintCreatedEventType,
		n.handleComplaintCreated,
	)
	n.subIds[ComplaintResolvedEventType] = bus.SubscribeFunc(
		ComplaintResolvedEventType,
		n.handleComplaintResolved,
	)
}

// Stop unsubscribes the notifier from the event bus
func (n *Notifier) Stop() {
	for eventType, subId := range n.subIds {
		n.config.EventBus.Unsubscribe(eventType, subId)
	}
	n.subIds = make(map[event.EventType]event.EventSubscriberId)
}

// recipients computes the notification audience for an action authored
// by actorRole: the counterparty plus admins for party-authored actions,
// both parties for admin-authored actions. The actor never receives a
// notification about their own action, and the list is deduplicated.
func (n *Notifier) recipients(
	tx *models.Transaction,
	actorId string,
	actorRole Role,
) []string {
	var candidates []string
	switch actorRole {
	case RoleBuyer:
		candidates = append(candidates, tx.SellerID)
		candidates = append(candidates, n.config.AdminIDs...)
	case RoleSeller:
		candidates = append(candidates, tx.BuyerID)
		candidates = append(candidates, n.config.AdminIDs...)
	case RoleAdmin:
		candidates = append(candidates, tx.BuyerID, tx.SellerID)
	}
	var ret []string
	for _, id := range candidates {
		if id == "" || id == actorId {
			continue
		}
		if !slices.Contains(ret, id) {
			ret = append(ret, id)
		}
	}
	return ret
}

// deepLink returns the UI path for the recipient's view of a
// transaction. Each role lands on its own dashboard.
func (n *Notifier) deepLink(tx *models.Transaction, userId string) string {
	switch userId {
	case tx.BuyerID:
		return "/transactions/" + tx.ID
	case tx.SellerID:
		return "/seller/transactions/" + tx.ID
	}
	return "/admin/transactions/" + tx.ID
}

// emailFor returns the known email for a transaction party, or empty for
// users whose address is not recorded on the transaction
func emailFor(tx *models.Transaction, userId string) string {
	switch userId {
	case tx.BuyerID:
		return tx.BuyerEmail
	case tx.SellerID:
		return tx.SellerEmail
	}
	return ""
}

// notify writes one notification row, announces it on the bus for the
// realtime stream, and sends email when the recipient's address is
// known. Each step is best-effort.
func (n *Notifier) notify(
	tx *models.Transaction,
	userId, title, message, notifType string,
) {
	notification := &models.Notification{
		UserID:  userId,
		Title:   title,
		Message: message,
		Type:    notifType,
		Link:    n.deepLink(tx, userId),
	}
	err := n.db.Metadata().CreateNotification(notification, nil)
	if err != nil {
		n.logger.Error(
			"failed to create notification",
			"user_id", userId,
			"transaction_id", tx.ID,
			"error", err,
		)
		return
	}
	n.config.EventBus.Publish(
		NotificationCreatedEventType,
		event.NewEvent(
			NotificationCreatedEventType,
			NotificationEvent{Notification: *notification},
		),
	)
	if n.config.Mailer != nil {
		if email := emailFor(tx, userId); email != "" {
			n.config.Mailer.Send(email, title, message)
		}
	}
}

func (n *Notifier) fanOut(
	tx *models.Transaction,
	actorId string,
	actorRole Role,
	title, message, notifType string,
) {
	for _, userId := range n.recipients(tx, actorId, actorRole) {
		n.notify(tx, userId, title, message, notifType)
	}
}

func statusChangeMessage(evt TransactionEvent) (string, string) {
	switch evt.Action {
	case ActionSubmitPayment:
		return "Payment received",
			fmt.Sprintf(
				"Payment of %s %s is now held in escrow.",
				evt.Transaction.Currency,
				evt.Transaction.Amount,
			)
	case ActionMarkDelivered:
		return "Order delivered",
			"The seller marked the order as delivered. Please confirm receipt."
	case ActionConfirmReceipt:
		return "Receipt confirmed",
			"The buyer confirmed receipt. Funds are queued for release."
	case ActionReleaseFunds:
		return "Funds released",
			fmt.Sprintf(
				"%s %s has been released to the seller.",
				evt.Transaction.Currency,
				evt.Transaction.Amount,
			)
	case ActionRequestRefund:
		return "Refund requested", "The buyer requested a refund."
	case ActionApproveRefund:
		return "Refund approved",
			"The refund was approved and the transaction cancelled."
	case ActionDenyRefund:
		return "Refund denied",
			"The refund request was denied. Funds remain in escrow."
	case ActionFileDispute, ActionMarkDisputed:
		return "Transaction disputed",
			"The transaction has been marked as disputed."
	case ActionMoveToDelivery:
		return "Awaiting delivery",
			"The transaction is now awaiting delivery."
	case ActionOverride:
		return "Status updated",
			fmt.Sprintf(
				"An administrator moved the transaction to %s.",
				evt.To,
			)
	default:
		return "Transaction updated",
			fmt.Sprintf("Transaction status changed to %s.", evt.To)
	}
}

func (n *Notifier) handleStatusChanged(e event.Event) {
	evt, ok := e.Data.(TransactionEvent)
	if !ok {
		return
	}
	// Invite redemptions are announced via the invite event
	if evt.Action == ActionRedeemInvite {
		return
	}
	title, message := statusChangeMessage(evt)
	notifType := "info"
	switch evt.Action {
	case ActionFileDispute, ActionMarkDisputed, ActionRequestRefund:
		notifType = "warning"
	case ActionReleaseFunds, ActionConfirmReceipt:
		notifType = "success"
	}
	n.fanOut(
		&evt.Transaction,
		evt.ActorID,
		evt.ActorRole,
		title,
		message,
		notifType,
	)
}

func (n *Notifier) handleInviteRedeemed(e event.Event) {
	evt, ok := e.Data.(InviteEvent)
	if !ok {
		return
	}
	n.fanOut(
		&evt.Transaction,
		evt.ActorID,
		RoleSeller,
		"Seller joined",
		"The seller joined your transaction. You can now submit payment.",
		"info",
	)
}

func (n *Notifier) handleComplaintCreated(e event.Event) {
	evt, ok := e.Data.(ComplaintEvent)
	if !ok {
		return
	}
	n.fanOut(
		&evt.Transaction,
		evt.ActorID,
		evt.ActorRole,
		"Complaint filed",
		evt.Complaint.Message,
		"warning",
	)
}

func (n *Notifier) handleComplaintResolved(e event.Event) {
	evt, ok := e.Data.(ComplaintEvent)
	if !ok {
		return
	}
	n.fanOut(
		&evt.Transaction,
		evt.ActorID,
		RoleAdmin,
		"Complaint resolved",
		evt.Complaint.AdminResponse,
		"info",
	)
}

// Notifications lists the caller's notifications
func (l *Ledger) Notifications(
	ident Identity,
	unreadOnly bool,
) ([]models.Notification, error) {
	if ident.UserID == "" {
		return nil, ErrUnauthorized
	}
	return l.store().ListNotifications(ident.UserID, unreadOnly, nil)
}

// MarkNotificationRead marks one of the caller's notifications read
func (l *Ledger) MarkNotificationRead(ident Identity, id uint) error {
	if ident.UserID == "" {
		return ErrUnauthorized
	}
	ok, err := l.store().MarkNotificationRead(id, ident.UserID, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead marks all of the caller's notifications read
func (l *Ledger) MarkAllNotificationsRead(ident Identity) error {
	if ident.UserID == "" {
		return ErrUnauthorized
	}
	return l.store().MarkAllNotificationsRead(ident.UserID, nil)
}

// ClearNotifications deletes all of the caller's notifications
func (l *Ledger) ClearNotifications(ident Identity) error {
	if ident.UserID == "" {
		return ErrUnauthorized
	}
	return l.store().DeleteNotifications(ident.UserID, nil)
}
