package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"barterly/internal/domain/conversations"
	"barterly/internal/domain/notifications"
	"barterly/internal/push"
)

type SendMessagePayload struct {
	ConversationID int64  `json:"conversation_id" validate:"required,min=1"`
	Content        string `json:"content" validate:"required,max=2000"`
}

func (app *application) sendMessageHandler(w http.ResponseWriter, r *http.Request) {
	var payload SendMessagePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	conversation, err := app.store.Conversations.GetByID(r.Context(), payload.ConversationID)
	if err != nil {
		switch {
		case errors.Is(err, conversations.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	user, err := app.loadUser(r)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if !conversation.Participant(user.ID) {
		app.forbiddenResponse(w, r, fmt.Errorf("conversation belongs to other users"))
		return
	}

	message := &conversations.Message{
		ConversationID: payload.ConversationID,
		SenderID:       user.ID,
		Content:        payload.Content,
	}

	if err := app.store.Conversations.CreateMessage(r.Context(), message); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.notifyMessage(conversation.Other(user.ID), conversation.ID, user.Username)

	if err := app.jsonResponse(w, http.StatusCreated, "message sent", message); err != nil {
		app.internalServerError(w, r, err)
	}
}

// markMessageReadHandler lets the recipient mark a message as read; the
// sender cannot mark their own messages.
func (app *application) markMessageReadHandler(w http.ResponseWriter, r *http.Request) {
	messageID, err := paramInt64(r, "messageID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	message, err := app.store.Conversations.GetMessage(r.Context(), messageID)
	if err != nil {
		switch {
		case errors.Is(err, conversations.ErrMessageNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	conversation, err := app.store.Conversations.GetByID(r.Context(), message.ConversationID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	userID := getUserFromContext(r).ID
	if !conversation.Participant(userID) || message.SenderID == userID {
		app.forbiddenResponse(w, r, fmt.Errorf("only the recipient can mark a message as read"))
		return
	}

	if err := app.store.Conversations.MarkMessageRead(r.Context(), messageID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "message marked as read", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) notifyMessage(userID, conversationID int64, fromUsername string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		n := &notifications.Notification{
			UserID: userID,
			Title:  "New Message",
			Body:   fmt.Sprintf("%s sent you a message", fromUsername),
		}
		if err := app.store.Notifications.Create(ctx, n); err != nil {
			app.logger.Errorw("failed to store notification", "user_id", userID, "error", err)
		}

		if err := push.SendMessageNotification(ctx, app.push, app.store, userID, conversationID, fromUsername); err != nil {
			app.logger.Warnw("push delivery failed", "user_id", userID, "conversation_id", conversationID, "error", err)
		}
	}()
}
