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
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trustline-labs/trustline/escrow"
)

func (a *Api) handleListPayoutAccounts(c *gin.Context) {
	rows, err := a.ledger.ListPayoutAccounts(identity(c))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPayoutAccountViews(rows))
}

type createPayoutAccountRequest struct {
	PayoutType     string `json:"payout_type" binding:"required"`
	BankName       string `json:"bank_name"`
	AccountNumber  string `json:"account_number"`
	AccountName    string `json:"account_name"`
	CryptoCurrency string `json:"crypto_currency"`
	WalletAddress  string `json:"wallet_address"`
	IsDefault      bool   `json:"is_default"`
}

func (a *Api) handleCreatePayoutAccount(c *gin.Context) {
	var req createPayoutAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	account, err := a.ledger.CreatePayoutAccount(
		identity(c),
		escrow.PayoutAccountParams{
			PayoutType:     req.PayoutType,
			BankName:       req.BankName,
			AccountNumber:  req.AccountNumber,
			AccountName:    req.AccountName,
			CryptoCurrency: req.CryptoCurrency,
			WalletAddress:  req.WalletAddress,
			IsDefault:      req.IsDefault,
		},
	)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newPayoutAccountView(account))
}

func payoutAccountId(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid payout account id"},
		)
		return 0, false
	}
	return uint(id), true
}

func (a *Api) handleSetDefaultPayoutAccount(c *gin.Context) {
	id, ok := payoutAccountId(c)
	if !ok {
		return
	}
	err := a.ledger.SetDefaultPayoutAccount(identity(c), id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *Api) handleDeletePayoutAccount(c *gin.Context) {
	id, ok := payoutAccountId(c)
	if !ok {
		return
	}
	if err := a.ledger.DeletePayoutAccount(identity(c), id); err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
