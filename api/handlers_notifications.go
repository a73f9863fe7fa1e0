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
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/trustline-labs/trustline/escrow"
)

func (a *Api) handleListNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	rows, err := a.ledger.Notifications(identity(c), unreadOnly)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newNotificationViews(rows))
}

func (a *Api) handleMarkNotificationRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(
			http.StatusBadRequest,
			gin.H{"error": "invalid notification id"},
		)
		return
	}
	err = a.ledger.MarkNotificationRead(identity(c), uint(id))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *Api) handleMarkAllNotificationsRead(c *gin.Context) {
	if err := a.ledger.MarkAllNotificationsRead(identity(c)); err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *Api) handleClearNotifications(c *gin.Context) {
	if err := a.ledger.ClearNotifications(identity(c)); err != nil {
		a.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleNotificationStream pushes the caller's notifications over
// server-sent events as they are created. The subscription lasts until
// the client disconnects.
func (a *Api) handleNotificationStream(c *gin.Context) {
	ident := identity(c)
	subId, evtCh := a.eventBus.Subscribe(
		escrow.NotificationCreatedEventType,
	)
	defer a.eventBus.Unsubscribe(
		escrow.NotificationCreatedEventType,
		subId,
	)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case evt, ok := <-evtCh:
			if !ok {
				return false
			}
			payload, ok := evt.Data.(escrow.NotificationEvent)
			if !ok {
				return true
			}
			if payload.Notification.UserID != ident.UserID {
				// Not for this subscriber
				return true
			}
			c.SSEvent(
				"notification",
				newNotificationView(&payload.Notification),
			)
			return true
		}
	})
}
