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
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/trustline-labs/trustline/escrow"
)

type createTransactionRequest struct {
	SellerEmail string `json:"seller_email"`
	SellerPhone string `json:"seller_phone"`
	Amount      string `json:"amount" binding:"required"`
	Currency    string `json:"currency"`
	ProductType string `json:"product_type" binding:"required"`
}

func (a *Api) handleCreateTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid amount"},
		)
		return
	}
	tx, err := a.ledger.Create(identity(c), escrow.CreateParams{
		SellerEmail: req.SellerEmail,
		SellerPhone: req.SellerPhone,
		Amount:      amount,
		Currency:    req.Currency,
		ProductType: escrow.ProductType(req.ProductType),
	})
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newTransactionView(tx))
}

func (a *Api) handleListTransactions(c *gin.Context) {
	txs, err := a.ledger.ListForUser(identity(c))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionViews(txs))
}

func (a *Api) handleGetTransaction(c *gin.Context) {
	tx, err := a.ledger.Get(identity(c), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

type editAmountRequest struct {
	Amount string `json:"amount" binding:"required"`
}

func (a *Api) handleEditAmount(c *gin.Context) {
	var req editAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}
	tx, err := a.ledger.EditAmount(identity(c), c.Param("id"), amount)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

func (a *Api) handleDeleteTransaction(c *gin.Context) {
	if err := a.ledger.Delete(identity(c), c.Param("id")); err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// formProof reads an optional multipart proof upload from the request.
// Returns nil when no file was attached.
func (a *Api) formProof(c *gin.Context) (*escrow.ProofUpload, error) {
	header, err := c.FormFile("proof")
	if err != nil {
		// No file attached
		return nil, nil
	}
	return a.readProof(c, header)
}

func (a *Api) readProof(
	c *gin.Context,
	header *multipart.FileHeader,
) (*escrow.ProofUpload, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	// Read one byte past the cap so the ledger can reject oversize files
	data, err := io.ReadAll(
		io.LimitReader(file, a.ledger.MaxProofBytes()+1),
	)
	if err != nil {
		return nil, err
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &escrow.ProofUpload{
		Data:        data,
		ContentType: contentType,
		Description: c.PostForm("description"),
	}, nil
}

func (a *Api) handleSubmitPayment(c *gin.Context) {
	proof, err := a.formProof(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := a.ledger.SubmitPayment(
		identity(c),
		c.Param("id"),
		c.PostForm("payment_reference"),
		proof,
	)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

func (a *Api) handleMarkDelivered(c *gin.Context) {
	proof, err := a.formProof(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := a.ledger.MarkDelivered(identity(c), c.Param("id"), proof)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

func (a *Api) handleConfirmReceipt(c *gin.Context) {
	tx, err := a.ledger.ConfirmReceipt(identity(c), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

func (a *Api) handleReleaseFunds(c *gin.Context) {
	tx, err := a.ledger.ReleaseFunds(identity(c), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

type reasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (a *Api) handleRequestRefund(c *gin.Context) {
	var req reasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := a.ledger.RequestRefund(
		identity(c),
		c.Param("id"),
		req.Reason,
	)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

type messageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (a *Api) handleFileDispute(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := a.ledger.FileDispute(
		identity(c),
		c.Param("id"),
		req.Message,
	)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

func (a *Api) handleAttachProof(c *gin.Context) {
	header, err := c.FormFile("proof")
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "proof file is required"},
		)
		return
	}
	proof, err := a.readProof(c, header)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx, err := a.ledger.AttachProof(identity(c), c.Param("id"), proof)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionView(tx))
}

func (a *Api) handleGetProof(c *gin.Context) {
	data, contentType, err := a.ledger.Proof(identity(c), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

func (a *Api) handleQuote(c *gin.Context) {
	quote, err := a.ledger.QuoteTransaction(identity(c), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newQuoteView(quote))
}

func (a *Api) handleHistory(c *gin.Context) {
	rows, err := a.ledger.History(identity(c), c.Param("id"))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newHistoryViews(rows))
}
