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
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/trustline-labs/trustline/database"
	"github.com/trustline-labs/trustline/database/metadata"
	"github.com/trustline-labs/trustline/database/models"
	"github.com/trustline-labs/trustline/event"
)

const (
	DefaultInviteTTL     = 72 * time.Hour
	DefaultMaxProofBytes = 5 << 20
	DefaultCurrency      = "NGN"
)

// LedgerConfig holds escrow ledger configuration
type LedgerConfig struct {
	Logger        *slog.Logger
	Database      *database.Database
	EventBus      *event.EventBus
	InviteTTL     time.Duration
	MaxProofBytes int64
	DefaultFees   FeeConfig
	// AdminIDs are the user ids that receive admin-directed
	// notifications
	AdminIDs []string
}

// Ledger owns every state-changing operation on escrow transactions.
// Each operation takes the caller's Identity explicitly and consults the
// central transition table before writing anything.
type Ledger struct {
	config   LedgerConfig
	logger   *slog.Logger
	db       *database.Database
	eventBus *event.EventBus
}

// NewLedger creates an escrow ledger from the provided config
func NewLedger(cfg LedgerConfig) *Ledger {
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.InviteTTL == 0 {
		cfg.InviteTTL = DefaultInviteTTL
	}
	if cfg.MaxProofBytes == 0 {
		cfg.MaxProofBytes = DefaultMaxProofBytes
	}
	if cfg.DefaultFees.Threshold.IsZero() {
		cfg.DefaultFees = FeeConfig{
			Threshold:     decimal.NewFromInt(10000),
			BelowRate:     5,
			AtOrAboveRate: 2,
		}
	}
	return &Ledger{
		config:   cfg,
		logger:   cfg.Logger.With("component", "ledger"),
		db:       cfg.Database,
		eventBus: cfg.EventBus,
	}
}

func (l *Ledger) store() metadata.MetadataStore {
	return l.db.Metadata()
}

// loadTransaction fetches a transaction or returns ErrNotFound
func (l *Ledger) loadTransaction(id string) (*models.Transaction, error) {
	tx, err := l.store().GetTransaction(id, nil)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrNotFound
	}
	return tx, nil
}

// actorRole resolves the capacity in which the identity may perform an
// action on the transaction, restricted to the allowed roles
func (l *Ledger) actorRole(
	tx *models.Transaction,
	ident Identity,
	allowed []Role,
) (Role, error) {
	for _, role := range allowed {
		switch role {
		case RoleAdmin:
			if ident.IsAdmin() {
				return RoleAdmin, nil
			}
		case RoleBuyer:
			if ident.UserID != "" && ident.UserID == tx.BuyerID {
				return RoleBuyer, nil
			}
		case RoleSeller:
			if ident.UserID != "" && ident.UserID == tx.SellerID {
				return RoleSeller, nil
			}
		}
	}
	return "", ErrUnauthorized
}

// isParty reports whether the identity is the transaction's buyer,
// seller, or an admin
func isParty(tx *models.Transaction, ident Identity) bool {
	if ident.IsAdmin() {
		return true
	}
	if ident.UserID == "" {
		return false
	}
	return ident.UserID == tx.BuyerID || ident.UserID == tx.SellerID
}

// historyActionType maps an action to its audit log action type
func historyActionType(action Action) string {
	switch action {
	case ActionCreate:
		return "transaction_created"
	case ActionRedeemInvite:
		return "seller_joined"
	case ActionSubmitPayment:
		return "payment"
	case ActionFileDispute, ActionMarkDisputed:
		return "dispute"
	case ActionRequestRefund, ActionApproveRefund, ActionDenyRefund:
		return "refund"
	default:
		return "status_change"
	}
}

// appendHistory appends an audit row. Best-effort: failures are logged
// and never abort the primary write.
func (l *Ledger) appendHistory(
	transactionId, actorId, actionType, description string,
) {
	err := l.store().AppendHistory(
		&models.TransactionHistory{
			TransactionID: transactionId,
			ActorID:       actorId,
			ActionType:    actionType,
			Description:   description,
		},
		nil,
	)
	if err != nil {
		l.logger.Error(
			"failed to append transaction history",
			"transaction_id", transactionId,
			"action_type", actionType,
			"error", err,
		)
	}
}

// publish sends a domain event on the bus, if one is configured
func (l *Ledger) publish(eventType event.EventType, data any) {
	if l.eventBus == nil {
		return
	}
	l.eventBus.Publish(eventType, event.NewEvent(eventType, data))
}

// applyTransition runs the shared pipeline for a status change: resolve
// the actor's role, validate the transition, perform one conditional
// (version check-and-set) update, then append audit history and publish
// the change event. History and event fan-out are best-effort and never
// roll back the status change.
func (l *Ledger) applyTransition(
	ident Identity,
	id string,
	action Action,
	updates map[string]any,
	description string,
) (*models.Transaction, error) {
	tx, err := l.loadTransaction(id)
	if err != nil {
		return nil, err
	}
	role, err := l.actorRole(tx, ident, actionRoles(action))
	if err != nil {
		return nil, err
	}
	from := Status(tx.Status)
	to, err := Transition(from, action, role)
	if err != nil {
		return nil, err
	}
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = string(to)
	ok, err := l.store().UpdateTransaction(tx.ID, tx.Version, updates, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStaleState
	}
	l.appendHistory(tx.ID, ident.UserID, historyActionType(action), description)
	updated, err := l.loadTransaction(id)
	if err != nil {
		// The primary write landed; return what we know
		l.logger.Error(
			"failed to reload transaction after transition",
			"transaction_id", id,
			"error", err,
		)
		updated = tx
		updated.Status = string(to)
	}
	l.publish(StatusChangedEventType, TransactionEvent{
		Transaction: *updated,
		ActorID:     ident.UserID,
		ActorRole:   role,
		Action:      action,
		From:        from,
		To:          to,
	})
	return updated, nil
}

// CreateParams are the buyer-supplied terms for a new transaction
type CreateParams struct {
	SellerEmail string
	SellerPhone string
	Amount      decimal.Decimal
	Currency    string
	ProductType ProductType
}

// Create opens a new escrow transaction in pending_payment with the
// caller as buyer
func (l *Ledger) Create(
	ident Identity,
	params CreateParams,
) (*models.Transaction, error) {
	if ident.UserID == "" {
		return nil, ErrUnauthorized
	}
	if !params.Amount.IsPositive() {
		return nil, validationErrorf("amount must be positive")
	}
	if !params.ProductType.Valid() {
		return nil, validationErrorf(
			"unknown product type %q",
			params.ProductType,
		)
	}
	currency := params.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	tx := &models.Transaction{
		ID:          uuid.NewString(),
		BuyerID:     ident.UserID,
		BuyerEmail:  ident.Email,
		SellerEmail: params.SellerEmail,
		SellerPhone: params.SellerPhone,
		Amount:      params.Amount.String(),
		Currency:    currency,
		ProductType: string(params.ProductType),
		Status:      string(StatusPendingPayment),
	}
	if err := l.store().CreateTransaction(tx, nil); err != nil {
		return nil, err
	}
	l.appendHistory(
		tx.ID,
		ident.UserID,
		historyActionType(ActionCreate),
		fmt.Sprintf(
			"transaction created for %s %s",
			tx.Currency,
			tx.Amount,
		),
	)
	l.publish(TransactionCreatedEventType, TransactionEvent{
		Transaction: *tx,
		ActorID:     ident.UserID,
		ActorRole:   RoleBuyer,
		Action:      ActionCreate,
		To:          StatusPendingPayment,
	})
	return tx, nil
}

// Get returns a transaction visible to the caller
func (l *Ledger) Get(
	ident Identity,
	id string,
) (*models.Transaction, error) {
	tx, err := l.loadTransaction(id)
	if err != nil {
		return nil, err
	}
	if !isParty(tx, ident) {
		return nil, ErrUnauthorized
	}
	return tx, nil
}

// ListForUser lists transactions where the caller is buyer or seller
func (l *Ledger) ListForUser(
	ident Identity,
) ([]models.Transaction, error) {
	if ident.UserID == "" {
		return nil, ErrUnauthorized
	}
	return l.store().ListTransactionsForUser(ident.UserID, nil)
}

// ListAll lists every transaction. Admin only.
func (l *Ledger) ListAll(ident Identity) ([]models.Transaction, error) {
	if !ident.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return l.store().ListTransactions(nil)
}

// EditAmount changes the base amount. Buyer only, and only while the
// transaction is still awaiting payment.
func (l *Ledger) EditAmount(
	ident Identity,
	id string,
	amount decimal.Decimal,
) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, validationErrorf("amount must be positive")
	}
	tx, err := l.loadTransaction(id)
	if err != nil {
		return nil, err
	}
	if _, err := l.actorRole(tx, ident, []Role{RoleBuyer}); err != nil {
		return nil, err
	}
	if Status(tx.Status) != StatusPendingPayment {
		return nil, InvalidTransitionError{
			From:   Status(tx.Status),
			Action: "edit_amount",
		}
	}
	ok, err := l.store().UpdateTransaction(
		tx.ID,
		tx.Version,
		map[string]any{"amount": amount.String()},
		nil,
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStaleState
	}
	l.appendHistory(
		tx.ID,
		ident.UserID,
		"amount_edited",
		fmt.Sprintf("amount changed from %s to %s", tx.Amount, amount),
	)
	return l.loadTransaction(id)
}

// Delete removes a transaction. Buyer only, pre-payment only. Audit
// history rows for the transaction are retained.
func (l *Ledger) Delete(ident Identity, id string) error {
	tx, err := l.loadTransaction(id)
	if err != nil {
		return err
	}
	if _, err := l.actorRole(tx, ident, []Role{RoleBuyer}); err != nil {
		return err
	}
	if !Deletable(Status(tx.Status)) {
		return InvalidTransitionError{
			From:   Status(tx.Status),
			Action: ActionDelete,
		}
	}
	ok, err := l.store().DeleteTransaction(
		tx.ID,
		DeletableStatusStrings(),
		nil,
	)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStaleState
	}
	l.appendHistory(
		tx.ID,
		ident.UserID,
		"transaction_deleted",
		"transaction deleted",
	)
	l.publish(TransactionDeletedEventType, TransactionEvent{
		Transaction: *tx,
		ActorID:     ident.UserID,
		ActorRole:   RoleBuyer,
		Action:      ActionDelete,
		From:        Status(tx.Status),
	})
	return nil
}

// ProofUpload is evidence attached to a payment or delivery
type ProofUpload struct {
	Data        []byte
	ContentType string
	Description string
}

// storeProof validates and persists an uploaded proof, returning the
// extra column updates to fold into the supporting transition
func (l *Ledger) storeProof(
	transactionId string,
	proof *ProofUpload,
) (map[string]any, error) {
	if int64(len(proof.Data)) > l.config.MaxProofBytes {
		return nil, validationErrorf(
			"proof exceeds maximum size of %d bytes",
			l.config.MaxProofBytes,
		)
	}
	if len(proof.Data) == 0 {
		return nil, validationErrorf("proof file is empty")
	}
	err := l.db.StoreProof(transactionId, proof.ContentType, proof.Data, nil)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"proof_url":         fmt.Sprintf("/api/v1/proofs/%s", transactionId),
		"proof_description": proof.Description,
	}, nil
}

// SubmitPayment records the buyer's payment and moves the transaction to
// held. Proof, when provided, is stored in the same logical operation.
func (l *Ledger) SubmitPayment(
	ident Identity,
	id string,
	paymentReference string,
	proof *ProofUpload,
) (*models.Transaction, error) {
	updates := map[string]any{
		"paid_at":           time.Now(),
		"payment_reference": paymentReference,
	}
	if proof != nil {
		proofUpdates, err := l.storeProof(id, proof)
		if err != nil {
			return nil, err
		}
		for k, v := range proofUpdates {
			updates[k] = v
		}
	}
	return l.applyTransition(
		ident,
		id,
		ActionSubmitPayment,
		updates,
		fmt.Sprintf("payment submitted (ref %s)", paymentReference),
	)
}

// MarkDelivered records delivery by the seller, with optional proof
func (l *Ledger) MarkDelivered(
	ident Identity,
	id string,
	proof *ProofUpload,
) (*models.Transaction, error) {
	updates := map[string]any{
		"delivered_at": time.Now(),
	}
	if proof != nil {
		proofUpdates, err := l.storeProof(id, proof)
		if err != nil {
			return nil, err
		}
		for k, v := range proofUpdates {
			updates[k] = v
		}
	}
	return l.applyTransition(
		ident,
		id,
		ActionMarkDelivered,
		updates,
		"seller marked the order as delivered",
	)
}

// ConfirmReceipt records the buyer's confirmation of delivery
func (l *Ledger) ConfirmReceipt(
	ident Identity,
	id string,
) (*models.Transaction, error) {
	return l.applyTransition(
		ident,
		id,
		ActionConfirmReceipt,
		map[string]any{"confirmed_at": time.Now()},
		"buyer confirmed receipt",
	)
}

// ReleaseFunds releases held funds to the seller. Admin only.
func (l *Ledger) ReleaseFunds(
	ident Identity,
	id string,
) (*models.Transaction, error) {
	return l.applyTransition(
		ident,
		id,
		ActionReleaseFunds,
		map[string]any{"released_at": time.Now()},
		"funds released to seller",
	)
}

// RequestRefund opens a refund request from the buyer and files the
// matching complaint ticket
func (l *Ledger) RequestRefund(
	ident Identity,
	id string,
	reason string,
) (*models.Transaction, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, validationErrorf("refund reason is required")
	}
	tx, err := l.applyTransition(
		ident,
		id,
		ActionRequestRefund,
		nil,
		"buyer requested a refund: "+reason,
	)
	if err != nil {
		return nil, err
	}
	l.fileComplaint(tx, ident, RoleBuyer, reason)
	return tx, nil
}

// ApproveRefund cancels the transaction in the buyer's favor. Admin only.
func (l *Ledger) ApproveRefund(
	ident Identity,
	id string,
	note string,
) (*models.Transaction, error) {
	updates, err := l.adminNoteUpdates(id, note)
	if err != nil {
		return nil, err
	}
	return l.applyTransition(
		ident,
		id,
		ActionApproveRefund,
		updates,
		"refund approved",
	)
}

// DenyRefund returns the transaction to held. Admin only.
func (l *Ledger) DenyRefund(
	ident Identity,
	id string,
	note string,
) (*models.Transaction, error) {
	updates, err := l.adminNoteUpdates(id, note)
	if err != nil {
		return nil, err
	}
	return l.applyTransition(
		ident,
		id,
		ActionDenyRefund,
		updates,
		"refund denied",
	)
}

// FileDispute marks the transaction disputed and opens a complaint.
// Available to either party from any non-terminal status.
func (l *Ledger) FileDispute(
	ident Identity,
	id string,
	message string,
) (*models.Transaction, error) {
	if strings.TrimSpace(message) == "" {
		return nil, validationErrorf("dispute message is required")
	}
	// Resolve the actor's role up front so the complaint records it
	tx, err := l.loadTransaction(id)
	if err != nil {
		return nil, err
	}
	role, err := l.actorRole(tx, ident, []Role{RoleBuyer, RoleSeller})
	if err != nil {
		return nil, err
	}
	updated, err := l.applyTransition(
		ident,
		id,
		ActionFileDispute,
		nil,
		"dispute filed: "+message,
	)
	if err != nil {
		return nil, err
	}
	l.fileComplaint(updated, ident, role, message)
	return updated, nil
}

// AdminMarkDisputed force-marks a transaction disputed. Admin only.
func (l *Ledger) AdminMarkDisputed(
	ident Identity,
	id string,
	note string,
) (*models.Transaction, error) {
	updates, err := l.adminNoteUpdates(id, note)
	if err != nil {
		return nil, err
	}
	return l.applyTransition(
		ident,
		id,
		ActionMarkDisputed,
		updates,
		"marked disputed by admin",
	)
}

// MoveToDelivery nudges a held transaction into pending_delivery. Admin
// only; sets no timestamp.
func (l *Ledger) MoveToDelivery(
	ident Identity,
	id string,
) (*models.Transaction, error) {
	return l.applyTransition(
		ident,
		id,
		ActionMoveToDelivery,
		nil,
		"moved to delivery",
	)
}

// Override is the admin escape hatch: it moves a transaction to any
// status, bypassing the transition table, and requires a justification
// note
func (l *Ledger) Override(
	ident Identity,
	id string,
	target Status,
	note string,
) (*models.Transaction, error) {
	if !ident.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(note) == "" {
		return nil, validationErrorf("override note is required")
	}
	if !target.Valid() {
		return nil, validationErrorf("unknown status %q", target)
	}
	tx, err := l.loadTransaction(id)
	if err != nil {
		return nil, err
	}
	from := Status(tx.Status)
	updates := map[string]any{
		"status":      string(target),
		"admin_notes": appendNote(tx.AdminNotes, note),
	}
	ok, err := l.store().UpdateTransaction(tx.ID, tx.Version, updates, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStaleState
	}
	l.appendHistory(
		tx.ID,
		ident.UserID,
		"status_change",
		fmt.Sprintf(
			"manual override from %s to %s: %s",
			from,
			target,
			note,
		),
	)
	updated, err := l.loadTransaction(id)
	if err != nil {
		return nil, err
	}
	l.publish(StatusChangedEventType, TransactionEvent{
		Transaction: *updated,
		ActorID:     ident.UserID,
		ActorRole:   RoleAdmin,
		Action:      ActionOverride,
		From:        from,
		To:          target,
		Note:        note,
	})
	return updated, nil
}

// MuteUser bars a user from messaging within a transaction. Admin only.
func (l *Ledger) MuteUser(
	ident Identity,
	id string,
	userId string,
) (*models.Transaction, error) {
	return l.setMuted(ident, id, userId, true)
}

// UnmuteUser lifts a messaging bar. Admin only.
func (l *Ledger) UnmuteUser(
	ident Identity,
	id string,
	userId string,
) (*models.Transaction, error) {
	return l.setMuted(ident, id, userId, false)
}

func (l *Ledger) setMuted(
	ident Identity,
	id string,
	userId string,
	muted bool,
) (*models.Transaction, error) {
	if !ident.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if userId == "" {
		return nil, validationErrorf("user id is required")
	}
	tx, err := l.loadTransaction(id)
	if err != nil {
		return nil, err
	}
	ids, err := tx.MutedList()
	if err != nil {
		return nil, err
	}
	var newIds []string
	if muted {
		newIds = ids
		found := false
		for _, existing := range ids {
			if existing == userId {
				found = true
				break
			}
		}
		if !found {
			newIds = append(newIds, userId)
		}
	} else {
		for _, existing := range ids {
			if existing != userId {
				newIds = append(newIds, existing)
			}
		}
	}
	tmpTx := &models.Transaction{}
	if err := tmpTx.SetMutedList(newIds); err != nil {
		return nil, err
	}
	ok, err := l.store().UpdateTransaction(
		tx.ID,
		tx.Version,
		map[string]any{"muted_ids": tmpTx.MutedIDs},
		nil,
	)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStaleState
	}
	return l.loadTransaction(id)
}

// History lists the audit trail for a transaction visible to the caller
func (l *Ledger) History(
	ident Identity,
	id string,
) ([]models.TransactionHistory, error) {
	tx, err := l.loadTransaction(id)
	if err != nil {
		return nil, err
	}
	if !isParty(tx, ident) {
		return nil, ErrUnauthorized
	}
	return l.store().ListHistory(id, nil)
}

// MaxProofBytes returns the configured proof size cap
func (l *Ledger) MaxProofBytes() int64 {
	return l.config.MaxProofBytes
}

// AttachProof stores or replaces the proof on a transaction without
// changing its status. Either party may attach proof while the
// transaction is live.
func (l *Ledger) AttachProof(
	ident Identity,
	id string,
	proof *ProofUpload,
) (*models.Transaction, error) {
	tx, err := l.loadTransaction(id)
	if err != nil {
		return nil, err
	}
	if _, err := l.actorRole(
		tx,
		ident,
		[]Role{RoleBuyer, RoleSeller},
	); err != nil {
		return nil, err
	}
	if Status(tx.Status).Terminal() {
		return nil, InvalidTransitionError{
			From:   Status(tx.Status),
			Action: "attach_proof",
		}
	}
	updates, err := l.storeProof(tx.ID, proof)
	if err != nil {
		return nil, err
	}
	ok, err := l.store().UpdateTransaction(tx.ID, tx.Version, updates, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStaleState
	}
	l.appendHistory(tx.ID, ident.UserID, "proof_uploaded", "proof uploaded")
	return l.loadTransaction(id)
}

// Proof returns the stored proof blob for a transaction visible to the
// caller
func (l *Ledger) Proof(
	ident Identity,
	id string,
) ([]byte, string, error) {
	tx, err := l.loadTransaction(id)
	if err != nil {
		return nil, "", err
	}
	if !isParty(tx, ident) {
		return nil, "", ErrUnauthorized
	}
	return l.db.GetProof(id, nil)
}

// adminNoteUpdates builds the column updates for appending an admin note
func (l *Ledger) adminNoteUpdates(
	id string,
	note string,
) (map[string]any, error) {
	if strings.TrimSpace(note) == "" {
		return nil, validationErrorf("admin note is required")
	}
	tx, err := l.loadTransaction(id)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"admin_notes": appendNote(tx.AdminNotes, note),
	}, nil
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}

// FeeSettings returns the current fee configuration, falling back to the
// configured defaults for any missing settings row. The configuration is
// read fresh before every quote; rate changes apply immediately, even to
// transactions already awaiting payment.
func (l *Ledger) FeeSettings() (FeeConfig, error) {
	cfg := l.config.DefaultFees
	if raw, err := l.store().GetSetting(SettingFeeThreshold, nil); err != nil {
		return cfg, err
	} else if raw != "" {
		threshold, err := decimal.NewFromString(raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid fee threshold setting: %w", err)
		}
		cfg.Threshold = threshold
	}
	if raw, err := l.store().GetSetting(SettingFeeRateBelow, nil); err != nil {
		return cfg, err
	} else if raw != "" {
		rate, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid below-rate setting: %w", err)
		}
		cfg.BelowRate = rate
	}
	raw, err := l.store().GetSetting(SettingFeeRateAtOrAbove, nil)
	if err != nil {
		return cfg, err
	}
	if raw != "" {
		rate, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid at-or-above-rate setting: %w", err)
		}
		cfg.AtOrAboveRate = rate
	}
	return cfg, nil
}

// UpdateFeeSettings replaces the runtime fee configuration. Admin only.
func (l *Ledger) UpdateFeeSettings(
	ident Identity,
	cfg FeeConfig,
) error {
	if !ident.IsAdmin() {
		return ErrUnauthorized
	}
	if !cfg.Threshold.IsPositive() {
		return validationErrorf("fee threshold must be positive")
	}
	if cfg.BelowRate < 0 || cfg.AtOrAboveRate < 0 {
		return validationErrorf("fee rates must not be negative")
	}
	store := l.store()
	if err := store.SetSetting(
		SettingFeeThreshold,
		cfg.Threshold.String(),
		nil,
	); err != nil {
		return err
	}
	if err := store.SetSetting(
		SettingFeeRateBelow,
		strconv.FormatInt(cfg.BelowRate, 10),
		nil,
	); err != nil {
		return err
	}
	return store.SetSetting(
		SettingFeeRateAtOrAbove,
		strconv.FormatInt(cfg.AtOrAboveRate, 10),
		nil,
	)
}

// Quote computes the buyer-facing fee breakdown for a base amount using
// the current fee configuration
func (l *Ledger) Quote(base decimal.Decimal) (FeeQuote, error) {
	if base.IsNegative() {
		return FeeQuote{}, validationErrorf("amount must not be negative")
	}
	cfg, err := l.FeeSettings()
	if err != nil {
		return FeeQuote{}, err
	}
	return QuoteFee(base, cfg), nil
}

// QuoteTransaction computes the fee breakdown for a transaction's amount
func (l *Ledger) QuoteTransaction(
	ident Identity,
	id string,
) (FeeQuote, error) {
	tx, err := l.Get(ident, id)
	if err != nil {
		return FeeQuote{}, err
	}
	amount, err := tx.AmountDecimal()
	if err != nil {
		return FeeQuote{}, err
	}
	return l.Quote(amount)
}

// fileComplaint records a complaint ticket for a transaction.
// Best-effort: the triggering transition has already landed.
func (l *Ledger) fileComplaint(
	tx *models.Transaction,
	ident Identity,
	role Role,
	message string,
) {
	complaint := &models.Complaint{
		TransactionID: tx.ID,
		UserID:        ident.UserID,
		UserEmail:     ident.Email,
		Role:          string(role),
		Message:       message,
	}
	if err := l.store().CreateComplaint(complaint, nil); err != nil {
		l.logger.Error(
			"failed to create complaint",
			"transaction_id", tx.ID,
			"error", err,
		)
		return
	}
	l.publish(ComplaintCreatedEventType, ComplaintEvent{
		Complaint:   *complaint,
		Transaction: *tx,
		ActorID:     ident.UserID,
		ActorRole:   role,
	})
}

// Complaints lists complaint tickets. Admin only.
func (l *Ledger) Complaints(
	ident Identity,
	unresolvedOnly bool,
) ([]models.Complaint, error) {
	if !ident.IsAdmin() {
		return nil, ErrUnauthorized
	}
	return l.store().ListComplaints(unresolvedOnly, nil)
}

// ResolveComplaint records the admin's response on a complaint. The
// resolution lands at most once; resolving an already-resolved complaint
// is a no-op.
func (l *Ledger) ResolveComplaint(
	ident Identity,
	id uint,
	response string,
) (*models.Complaint, error) {
	if !ident.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(response) == "" {
		return nil, validationErrorf("admin response is required")
	}
	complaint, err := l.store().GetComplaint(id, nil)
	if err != nil {
		return nil, err
	}
	if complaint == nil {
		return nil, ErrNotFound
	}
	resolved, err := l.store().ResolveComplaint(id, response, nil)
	if err != nil {
		return nil, err
	}
	complaint, err = l.store().GetComplaint(id, nil)
	if err != nil {
		return nil, err
	}
	if resolved {
		tx, err := l.loadTransaction(complaint.TransactionID)
		if err == nil {
			l.publish(ComplaintResolvedEventType, ComplaintEvent{
				Complaint:   *complaint,
				Transaction: *tx,
				ActorID:     ident.UserID,
				ActorRole:   RoleAdmin,
			})
		}
	}
	return complaint, nil
}
