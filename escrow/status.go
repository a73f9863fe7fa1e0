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

import "slices"

// Status is the lifecycle state of an escrow transaction
type Status string

const (
	StatusPendingPayment      Status = "pending_payment"
	StatusSellerJoined        Status = "seller_joined"
	StatusHeld                Status = "held"
	StatusPendingDelivery     Status = "pending_delivery"
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusPendingRelease      Status = "pending_release"
	StatusReleased            Status = "released"
	StatusRefundRequested     Status = "refund_requested"
	StatusDisputed            Status = "disputed"
	StatusCancelled           Status = "cancelled"
	StatusExpired             Status = "expired"
)

// Valid returns true if the Status is a known status value
func (s Status) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusSellerJoined, StatusHeld,
		StatusPendingDelivery, StatusPendingConfirmation,
		StatusPendingRelease, StatusReleased, StatusRefundRequested,
		StatusDisputed, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transitions may leave this status
// (other than via admin override)
func (s Status) Terminal() bool {
	switch s {
	case StatusReleased, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// Action is a trigger that can move a transaction between statuses
type Action string

const (
	ActionCreate         Action = "create"
	ActionRedeemInvite   Action = "redeem_invite"
	ActionSubmitPayment  Action = "submit_payment"
	ActionMarkDelivered  Action = "mark_delivered"
	ActionConfirmReceipt Action = "confirm_receipt"
	ActionReleaseFunds   Action = "release_funds"
	ActionRequestRefund  Action = "request_refund"
	ActionApproveRefund  Action = "approve_refund"
	ActionDenyRefund     Action = "deny_refund"
	ActionFileDispute    Action = "file_dispute"
	ActionMarkDisputed   Action = "mark_disputed"
	ActionMoveToDelivery Action = "move_to_delivery"
	ActionDelete         Action = "delete"
	ActionOverride       Action = "override"
)

// transitionRule describes one row of the transition table: which roles
// may trigger the action, which statuses are legal predecessors (nil
// means any non-terminal status), and the resulting status.
type transitionRule struct {
	roles []Role
	from  []Status
	to    Status
}

// transitionTable is the single authority on status transitions. Both
// held and pending_delivery are accepted wherever funds are waiting on
// the seller; the two statuses behave identically for those actions.
var transitionTable = map[Action]transitionRule{
	ActionRedeemInvite: {
		roles: []Role{RoleSeller},
		from:  []Status{StatusPendingPayment},
		to:    StatusSellerJoined,
	},
	ActionSubmitPayment: {
		roles: []Role{RoleBuyer},
		from:  []Status{StatusSellerJoined},
		to:    StatusHeld,
	},
	ActionMarkDelivered: {
		roles: []Role{RoleSeller},
		from:  []Status{StatusHeld, StatusPendingDelivery},
		to:    StatusPendingConfirmation,
	},
	ActionConfirmReceipt: {
		roles: []Role{RoleBuyer},
		from:  []Status{StatusPendingConfirmation},
		to:    StatusPendingRelease,
	},
	ActionReleaseFunds: {
		roles: []Role{RoleAdmin},
		from:  []Status{StatusPendingRelease},
		to:    StatusReleased,
	},
	ActionRequestRefund: {
		roles: []Role{RoleBuyer},
		from: []Status{
			StatusHeld,
			StatusPendingDelivery,
			StatusPendingConfirmation,
		},
		to: StatusRefundRequested,
	},
	ActionApproveRefund: {
		roles: []Role{RoleAdmin},
		from:  []Status{StatusRefundRequested},
		to:    StatusCancelled,
	},
	ActionDenyRefund: {
		roles: []Role{RoleAdmin},
		from:  []Status{StatusRefundRequested},
		to:    StatusHeld,
	},
	ActionFileDispute: {
		roles: []Role{RoleBuyer, RoleSeller},
		to:    StatusDisputed,
	},
	ActionMarkDisputed: {
		roles: []Role{RoleAdmin},
		to:    StatusDisputed,
	},
	ActionMoveToDelivery: {
		roles: []Role{RoleAdmin},
		from:  []Status{StatusHeld},
		to:    StatusPendingDelivery,
	},
}

// deletableStatuses are the only statuses from which a buyer may delete
// a transaction (pre-payment only)
var deletableStatuses = []Status{
	StatusPendingPayment,
	StatusSellerJoined,
}

// Transition validates an attempted status change and returns the
// resulting status. It is consulted uniformly by every entry point, so
// illegal transitions are rejected centrally rather than hidden behind
// UI affordances. Admin manual override does not pass through here.
func Transition(current Status, action Action, role Role) (Status, error) {
	rule, ok := transitionTable[action]
	if !ok {
		return "", InvalidTransitionError{From: current, Action: action}
	}
	if !slices.Contains(rule.roles, role) {
		return "", ErrUnauthorized
	}
	if rule.from == nil {
		if current.Terminal() {
			return "", InvalidTransitionError{From: current, Action: action}
		}
	} else if !slices.Contains(rule.from, current) {
		return "", InvalidTransitionError{From: current, Action: action}
	}
	return rule.to, nil
}

// actionRoles returns the roles permitted to trigger an action
func actionRoles(action Action) []Role {
	return transitionTable[action].roles
}

// Deletable reports whether a transaction in the given status may be
// deleted by its buyer
func Deletable(current Status) bool {
	return slices.Contains(deletableStatuses, current)
}

// DeletableStatusStrings returns deletable statuses as plain strings for
// use in storage predicates
func DeletableStatusStrings() []string {
	ret := make([]string, 0, len(deletableStatuses))
	for _, s := range deletableStatuses {
		ret = append(ret, string(s))
	}
	return ret
}

// ProductType is the kind of goods or service under escrow
type ProductType string

const (
	ProductPhysical ProductType = "physical_product"
	ProductDigital  ProductType = "digital_product"
	ProductService  ProductType = "service"
)

// Valid returns true if the ProductType is a known value
func (p ProductType) Valid() bool {
	switch p {
	case ProductPhysical, ProductDigital, ProductService:
		return true
	default:
		return false
	}
}
