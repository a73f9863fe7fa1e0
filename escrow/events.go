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
	"github.com/trustline-labs/trustline/database/models"
	"github.com/trustline-labs/trustline/event"
)

const (
	TransactionCreatedEventType  event.EventType = "escrow.transaction.created"
	StatusChangedEventType       event.EventType = "escrow.transaction.status"
	TransactionDeletedEventType  event.EventType = "escrow.transaction.deleted"
	InviteIssuedEventType        event.EventType = "escrow.invite.issued"
	InviteRedeemedEventType      event.EventType = "escrow.invite.redeemed"
	ComplaintCreatedEventType    event.EventType = "escrow.complaint.created"
	ComplaintResolvedEventType   event.EventType = "escrow.complaint.resolved"
	NotificationCreatedEventType event.EventType = "escrow.notification.created"
)

// TransactionEvent is the payload for transaction lifecycle events
type TransactionEvent struct {
	Transaction models.Transaction
	ActorID     string
	ActorRole   Role
	Action      Action
	From        Status
	To          Status
	Note        string
}

// InviteEvent is the payload for invite issue/redeem events
type InviteEvent struct {
	Link        models.InviteLink
	Transaction models.Transaction
	ActorID     string
}

// ComplaintEvent is the payload for complaint lifecycle events
type ComplaintEvent struct {
	Complaint   models.Complaint
	Transaction models.Transaction
	ActorID     string
	ActorRole   Role
}

// NotificationEvent is the payload for notification fan-out events,
// consumed by the per-user realtime stream
type NotificationEvent struct {
	Notification models.Notification
}
