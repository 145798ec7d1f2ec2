package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ripple-social/ripple/middleware"
	"github.com/ripple-social/ripple/services"
	"github.com/ripple-social/ripple/utils"
)

// NotificationController exposes a user's notification inbox.
type NotificationController struct {
	notifications *services.NotificationService
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{notifications: services.NewNotificationService(db)}
}

func (n *NotificationController) List(ctx *gin.Context) {
	list, err := n.notifications.List(middleware.CurrentUserID(ctx), services.ListNotificationsOptions{
		UnreadOnly: boolQuery(ctx, "unread_only"),
		MarkAsRead: boolQuery(ctx, "mark_as_read"),
		Limit:      intQuery(ctx, "limit", 20),
		Offset:     intQuery(ctx, "offset", 0),
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, list)
}

func (n *NotificationController) MarkRead(ctx *gin.Context) {
	notifID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid notification id")
		return
	}
	if err := n.notifications.MarkRead(notifID, middleware.CurrentUserID(ctx)); err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"read": true})
}

func (n *NotificationController) MarkAllRead(ctx *gin.Context) {
	count, err := n.notifications.MarkAllRead(middleware.CurrentUserID(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"marked": count})
}

func (n *NotificationController) Delete(ctx *gin.Context) {
	notifID, ok := uintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid notification id")
		return
	}
	if err := n.notifications.Delete(notifID, middleware.CurrentUserID(ctx)); err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": true})
}

func (n *NotificationController) ClearAll(ctx *gin.Context) {
	count, err := n.notifications.ClearAll(middleware.CurrentUserID(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"deleted": count})
}

func (n *NotificationController) Stats(ctx *gin.Context) {
	stats, err := n.notifications.Stats(middleware.CurrentUserID(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	utils.Success(ctx, stats)
}
