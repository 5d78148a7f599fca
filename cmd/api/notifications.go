package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"barterly/internal/domain/notifications"
	"barterly/internal/domain/users"
	"barterly/internal/push"
)

func (app *application) listNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Notifications.ListForUser(r.Context(), getUserFromContext(r).ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "notifications fetched", list); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) markNotificationReadHandler(w http.ResponseWriter, r *http.Request) {
	notificationID, err := paramInt64(r, "notificationID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// MarkRead is keyed by user id too, so a user can never flip another
	// user's notification.
	err = app.store.Notifications.MarkRead(r.Context(), notificationID, getUserFromContext(r).ID)
	if err != nil {
		switch {
		case errors.Is(err, notifications.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "notification marked as read", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}

type SendNotificationPayload struct {
	UserID int64  `json:"user_id" validate:"required,min=1"`
	Title  string `json:"title" validate:"required,max=120"`
	Body   string `json:"body" validate:"required,max=500"`
}

// sendNotificationHandler lets privileged roles push an announcement to a
// single user.
func (app *application) sendNotificationHandler(w http.ResponseWriter, r *http.Request) {
	var payload SendNotificationPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	if _, err := app.store.Users.GetByID(r.Context(), payload.UserID); err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	n := &notifications.Notification{
		UserID: payload.UserID,
		Title:  payload.Title,
		Body:   payload.Body,
	}
	if err := app.store.Notifications.Create(r.Context(), n); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := push.SendCustomNotification(ctx, app.push, app.store, payload.UserID, payload.Title, payload.Body); err != nil {
			app.logger.Warnw("push delivery failed", "user_id", payload.UserID, "error", err)
		}
	}()

	if err := app.jsonResponse(w, http.StatusCreated, "notification sent", n); err != nil {
		app.internalServerError(w, r, err)
	}
}
