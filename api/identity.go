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
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/trustline-labs/trustline/database"
	"github.com/trustline-labs/trustline/escrow"
)

const identityKey = "identity"

// Identity headers set by the upstream gateway
const (
	HeaderUserId    = "X-User-Id"
	HeaderUserEmail = "X-User-Email"
	HeaderUserRoles = "X-User-Roles"
)

// identityMiddleware extracts the caller's identity from the gateway
// headers. An absent user id yields an anonymous identity; route groups
// decide whether that is acceptable.
func identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := escrow.Identity{
			UserID: c.GetHeader(HeaderUserId),
			Email:  c.GetHeader(HeaderUserEmail),
		}
		if raw := c.GetHeader(HeaderUserRoles); raw != "" {
			for _, role := range strings.Split(raw, ",") {
				role = strings.TrimSpace(role)
				if role != "" {
					ident.Roles = append(
						ident.Roles,
						escrow.Role(role),
					)
				}
			}
		}
		c.Set(identityKey, ident)
		c.Next()
	}
}

// requireUser rejects anonymous requests
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity(c).UserID == "" {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				gin.H{"error": "authentication required"},
			)
			return
		}
		c.Next()
	}
}

// identity returns the caller's identity from the request context
func identity(c *gin.Context) escrow.Identity {
	if v, ok := c.Get(identityKey); ok {
		if ident, ok := v.(escrow.Identity); ok {
			return ident
		}
	}
	return escrow.Identity{}
}

// respondError maps a ledger error onto the HTTP status taxonomy
func (a *Api) respondError(c *gin.Context, err error) {
	var invalidTransition escrow.InvalidTransitionError
	switch {
	case errors.Is(err, escrow.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, escrow.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
	case errors.Is(err, escrow.ErrNotFound),
		errors.Is(err, database.ErrProofNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, escrow.ErrStaleState):
		c.JSON(
			http.StatusConflict,
			gin.H{"error": "transaction was modified, please retry"},
		)
	case errors.As(err, &invalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		a.logger.Error(
			"internal error",
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "internal error"},
		)
	}
}
