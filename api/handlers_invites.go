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

	"github.com/gin-gonic/gin"
	"github.com/trustline-labs/trustline/escrow"
)

func (a *Api) handleIssueInvite(c *gin.Context) {
	link, err := a.ledger.IssueInvite(identity(c), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, inviteView{
		Token:         link.Token,
		TransactionId: link.TransactionID,
		ExpiresAt:     link.ExpiresAt,
	})
}

// handleResolveInvite previews an invite token. Available to anonymous
// callers so a prospective seller can see the transaction before signing
// up.
func (a *Api) handleResolveInvite(c *gin.Context) {
	res, err := a.ledger.ResolveInvite(identity(c), c.Param("token"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	body := gin.H{"state": res.State}
	if res.State == escrow.InviteStateValid {
		body["transaction"] = gin.H{
			"id":           res.Transaction.ID,
			"amount":       res.Transaction.Amount,
			"currency":     res.Transaction.Currency,
			"product_type": res.Transaction.ProductType,
		}
		body["expires_at"] = res.Link.ExpiresAt
	}
	c.JSON(http.StatusOK, body)
}

func (a *Api) handleRedeemInvite(c *gin.Context) {
	tx, err := a.ledger.RedeemInvite(identity(c), c.Param("token"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}
