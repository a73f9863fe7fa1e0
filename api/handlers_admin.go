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
	"github.com/shopspring/decimal"
	"github.com/trustline-labs/trustline/escrow"
)

func (a *Api) handleAdminListTransactions(c *gin.Context) {
	txs, err := a.ledger.ListAll(identity(c))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionViews(txs))
}

type noteRequest struct {
	Note string `json:"note" binding:"required"`
}

func (a *Api) handleApproveRefund(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := a.ledger.ApproveRefund(identity(c), c.Param("id"), req.Note)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

func (a *Api) handleDenyRefund(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := a.ledger.DenyRefund(identity(c), c.Param("id"), req.Note)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

func (a *Api) handleAdminMarkDisputed(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := a.ledger.AdminMarkDisputed(
		identity(c),
		c.Param("id"),
		req.Note,
	)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

func (a *Api) handleMoveToDelivery(c *gin.Context) {
	tx, err := a.ledger.MoveToDelivery(identity(c), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

type overrideRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note" binding:"required"`
}

func (a *Api) handleOverride(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := a.ledger.Override(
		identity(c),
		c.Param("id"),
		escrow.Status(req.Status),
		req.Note,
	)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

type muteRequest struct {
	UserId string `json:"user_id" binding:"required"`
}

func (a *Api) handleMuteUser(c *gin.Context) {
	var req muteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := a.ledger.MuteUser(identity(c), c.Param("id"), req.UserId)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

func (a *Api) handleUnmuteUser(c *gin.Context) {
	var req muteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := a.ledger.UnmuteUser(identity(c), c.Param("id"), req.UserId)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

func (a *Api) handleListComplaints(c *gin.Context) {
	unresolvedOnly := c.Query("unresolved") == "true"
	rows, err := a.ledger.Complaints(identity(c), unresolvedOnly)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newComplaintViews(rows))
}

type resolveComplaintRequest struct {
	Response string `json:"response" binding:"required"`
}

func (a *Api) handleResolveComplaint(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid complaint id"},
		)
		return
	}
	var req resolveComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	complaint, err := a.ledger.ResolveComplaint(
		identity(c),
		uint(id),
		req.Response,
	)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newComplaintView(complaint))
}

type settingsView struct {
	FeeThreshold     string `json:"fee_threshold"`
	FeeRateBelow     int64  `json:"fee_rate_below"`
	FeeRateAtOrAbove int64  `json:"fee_rate_at_or_above"`
}

func (a *Api) handleGetSettings(c *gin.Context) {
	if !identity(c).IsAdmin() {
		a.respondError(c, escrow.ErrUnauthorized)
		return
	}
	cfg, err := a.ledger.FeeSettings()
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingsView{
		FeeThreshold:     cfg.Threshold.String(),
		FeeRateBelow:     cfg.BelowRate,
		FeeRateAtOrAbove: cfg.AtOrAboveRate,
	})
}

type updateSettingsRequest struct {
	FeeThreshold     string `json:"fee_threshold" binding:"required"`
	FeeRateBelow     int64  `json:"fee_rate_below"`
	FeeRateAtOrAbove int64  `json:"fee_rate_at_or_above"`
}

func (a *Api) handleUpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	threshold, err := decimal.NewFromString(req.FeeThreshold)
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid fee threshold"},
		)
		return
	}
	cfg := escrow.FeeConfig{
		Threshold:     threshold,
		BelowRate:     req.FeeRateBelow,
		AtOrAboveRate: req.FeeRateAtOrAbove,
	}
	if err := a.ledger.UpdateFeeSettings(identity(c), cfg); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settingsView{
		FeeThreshold:     cfg.Threshold.String(),
		FeeRateBelow:     cfg.BelowRate,
		FeeRateAtOrAbove: cfg.AtOrAboveRate,
	})
}
