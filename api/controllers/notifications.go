package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/feastlyapp/feastly-backend/api/responses"
	"github.com/feastlyapp/feastly-backend/api/validators"
	"github.com/feastlyapp/feastly-backend/internal/notifications"
	"github.com/feastlyapp/feastly-backend/pkg/db/models"
	"github.com/feastlyapp/feastly-backend/pkg/enums"
	"github.com/feastlyapp/feastly-backend/pkg/logger"
)

type notificationView struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationKind `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body,omitempty"`
	OrderID   *uuid.UUID             `json:"order_id,omitempty"`
	Read      bool                   `json:"read"`
	CreatedAt time.Time              `json:"created_at"`
}

type notificationListResponse struct {
	Notifications []notificationView `json:"notifications"`
	Unread        int64              `json:"unread"`
	Cursor        string             `json:"cursor"`
}

func newNotificationViews(rows []models.Notification) []notificationView {
	views := make([]notificationView, 0, len(rows))
	for _, row := range rows {
		views = append(views, notificationView{
			ID:        row.ID,
			Type:      row.Type,
			Title:     row.Title,
			Body:      row.Body,
			OrderID:   row.OrderID,
			Read:      row.Read,
			CreatedAt: row.CreatedAt,
		})
	}
	return views
}

// ListNotifications returns the caller's feed, newest first.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unreadOnly, err := validators.ParseQueryBool(r, "unread")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), notifications.ListParams{
			UserID:     userID,
			Limit:      limit,
			Cursor:     validators.QueryString(r, "cursor", 512),
			UnreadOnly: unreadOnly,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, notificationListResponse{
			Notifications: newNotificationViews(result.Items),
			Unread:        result.Unread,
			Cursor:        result.Cursor,
		})
	}
}

// MarkNotificationRead flags one feed entry as read.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		notificationID, err := pathUUID(r, "notificationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkRead(r.Context(), userID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

// MarkAllNotificationsRead flags the caller's whole feed as read.
func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.MarkAllRead(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"updated": updated})
	}
}
