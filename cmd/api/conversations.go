package main

import (
	"errors"
	"fmt"
	"net/http"

	"barterly/internal/domain/conversations"
	"barterly/internal/domain/users"
)

type CreateConversationPayload struct {
	UserID int64 `json:"user_id" validate:"required,min=1"`
}

func (app *application) createConversationHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateConversationPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	userID := getUserFromContext(r).ID
	if payload.UserID == userID {
		app.badRequestResponse(w, r, fmt.Errorf("cannot start a conversation with yourself"))
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

	conversation := &conversations.Conversation{
		UserOneID: userID,
		UserTwoID: payload.UserID,
	}

	if err := app.store.Conversations.Create(r.Context(), conversation); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, "conversation created", conversation); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listConversationsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Conversations.ListForUser(r.Context(), getUserFromContext(r).ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "conversations fetched", list); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getConversationHandler returns the conversation together with its
// messages, participant-only.
func (app *application) getConversationHandler(w http.ResponseWriter, r *http.Request) {
	conversationID, err := paramInt64(r, "conversationID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	conversation, err := app.store.Conversations.GetByID(r.Context(), conversationID)
	if err != nil {
		switch {
		case errors.Is(err, conversations.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if !conversation.Participant(getUserFromContext(r).ID) {
		app.forbiddenResponse(w, r, fmt.Errorf("conversation belongs to other users"))
		return
	}

	messages, err := app.store.Conversations.ListMessages(r.Context(), conversationID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	data := map[string]any{
		"conversation": conversation,
		"messages":     messages,
	}
	if err := app.jsonResponse(w, http.StatusOK, "conversation fetched", data); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	conversationID, err := paramInt64(r, "conversationID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	conversation, err := app.store.Conversations.GetByID(r.Context(), conversationID)
	if err != nil {
		switch {
		case errors.Is(err, conversations.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if !conversation.Participant(getUserFromContext(r).ID) {
		app.forbiddenResponse(w, r, fmt.Errorf("conversation belongs to other users"))
		return
	}

	if err := app.store.Conversations.Delete(r.Context(), conversationID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "conversation deleted", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}
