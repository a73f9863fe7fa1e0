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

package api

import (
	"time"

	"github.com/trustline-labs/trustline/database/models"
	"github.com/trustline-labs/trustline/escrow"
)

// transactionView is the wire shape of a transaction
type transactionView struct {
	Id               string     `json:"id"`
	BuyerId          string     `json:"buyer_id"`
	SellerId         string     `json:"seller_id,omitempty"`
	SellerEmail      string     `json:"seller_email,omitempty"`
	Amount           string     `json:"amount"`
	Currency         string     `json:"currency"`
	ProductType      string     `json:"product_type"`
	Status           string     `json:"status"`
	PaymentReference string     `json:"payment_reference,omitempty"`
	ProofUrl         string     `json:"proof_url,omitempty"`
	ProofDescription string     `json:"proof_description,omitempty"`
	AdminNotes       string     `json:"admin_notes,omitempty"`
	MutedIds         []string   `json:"muted_ids,omitempty"`
	Version          uint64     `json:"version"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	ConfirmedAt      *time.Time `json:"confirmed_at,omitempty"`
	ReleasedAt       *time.Time `json:"released_at,omitempty"`
}

func newTransactionView(tx *models.Transaction) transactionView {
	muted, _ := tx.MutedList()
	return transactionView{
		Id:               tx.ID,
		BuyerId:          tx.BuyerID,
		SellerId:         tx.SellerID,
		SellerEmail:      tx.SellerEmail,
		Amount:           tx.Amount,
		Currency:         tx.Currency,
		ProductType:      tx.ProductType,
		Status:           tx.Status,
		PaymentReference: tx.PaymentReference,
		ProofUrl:         tx.ProofURL,
		ProofDescription: tx.ProofDescription,
		AdminNotes:       tx.AdminNotes,
		MutedIds:         muted,
		Version:          tx.Version,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
		PaidAt:           tx.PaidAt,
		DeliveredAt:      tx.DeliveredAt,
		ConfirmedAt:      tx.ConfirmedAt,
		ReleasedAt:       tx.ReleasedAt,
	}
}

func newTransactionViews(txs []models.Transaction) []transactionView {
	ret := make([]transactionView, 0, len(txs))
	for i := range txs {
		ret = append(ret, newTransactionView(&txs[i]))
	}
	return ret
}

type quoteView struct {
	Base       string `json:"base"`
	Rate       int64  `json:"rate"`
	Fee        string `json:"fee"`
	BuyerTotal string `json:"buyer_total"`
}

func newQuoteView(q escrow.FeeQuote) quoteView {
	return quoteView{
		Base:       q.Base.String(),
		Rate:       q.Rate,
		Fee:        q.Fee.String(),
		BuyerTotal: q.BuyerTotal.String(),
	}
}

type historyView struct {
	Id          uint      `json:"id"`
	ActorId     string    `json:"actor_id,omitempty"`
	ActionType  string    `json:"action_type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func newHistoryViews(rows []models.TransactionHistory) []historyView {
	ret := make([]historyView, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, historyView{
			Id:          row.ID,
			ActorId:     row.ActorID,
			ActionType:  row.ActionType,
			Description: row.Description,
			CreatedAt:   row.CreatedAt,
		})
	}
	return ret
}

type inviteView struct {
	Token         string    `json:"token"`
	TransactionId string    `json:"transaction_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type notificationView struct {
	Id        uint      `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Link      string    `json:"link"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

func newNotificationView(n *models.Notification) notificationView {
	return notificationView{
		Id:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		Link:      n.Link,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func newNotificationViews(rows []models.Notification) []notificationView {
	ret := make([]notificationView, 0, len(rows))
	for i := range rows {
		ret = append(ret, newNotificationView(&rows[i]))
	}
	return ret
}

type complaintView struct {
	Id            uint      `json:"id"`
	TransactionId string    `json:"transaction_id"`
	UserId        string    `json:"user_id"`
	UserEmail     string    `json:"user_email,omitempty"`
	Role          string    `json:"role"`
	Message       string    `json:"message"`
	Resolved      bool      `json:"resolved"`
	AdminResponse string    `json:"admin_response,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func newComplaintView(cp *models.Complaint) complaintView {
	return complaintView{
		Id:            cp.ID,
		TransactionId: cp.TransactionID,
		UserId:        cp.UserID,
		UserEmail:     cp.UserEmail,
		Role:          cp.Role,
		Message:       cp.Message,
		Resolved:      cp.Resolved,
		AdminResponse: cp.AdminResponse,
		CreatedAt:     cp.CreatedAt,
	}
}

func newComplaintViews(rows []models.Complaint) []complaintView {
	ret := make([]complaintView, 0, len(rows))
	for i := range rows {
		ret = append(ret, newComplaintView(&rows[i]))
	}
	return ret
}

type payoutAccountView struct {
	Id             uint      `json:"id"`
	PayoutType     string    `json:"payout_type"`
	BankName       string    `json:"bank_name,omitempty"`
	AccountNumber  string    `json:"account_number,omitempty"`
	AccountName    string    `json:"account_name,omitempty"`
	CryptoCurrency string    `json:"crypto_currency,omitempty"`
	WalletAddress  string    `json:"wallet_address,omitempty"`
	IsDefault      bool      `json:"is_default"`
	CreatedAt      time.Time `json:"created_at"`
}

func newPayoutAccountView(acct *models.PayoutAccount) payoutAccountView {
	return payoutAccountView{
		Id:             acct.ID,
		PayoutType:     acct.PayoutType,
		BankName:       acct.BankName,
		AccountNumber:  acct.AccountNumber,
		AccountName:    acct.AccountName,
		CryptoCurrency: acct.CryptoCurrency,
		WalletAddress:  acct.WalletAddress,
		IsDefault:      acct.IsDefault,
		CreatedAt:      acct.CreatedAt,
	}
}

func newPayoutAccountViews(
	rows []models.PayoutAccount,
) []payoutAccountView {
	ret := make([]payoutAccountView, 0, len(rows))
	for i := range rows {
		ret = append(ret, newPayoutAccountView(&rows[i]))
	}
	return ret
}
