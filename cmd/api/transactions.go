package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"barterly/internal/domain/notifications"
	"barterly/internal/domain/transactions"
	"barterly/internal/push"
	"barterly/internal/roles"
)

type CreateTransactionPayload struct {
	OfferID     int64 `json:"offer_id" validate:"required,min=1"`
	InitiatorID int64 `json:"initiator_id" validate:"required,min=1"`
	RecipientID int64 `json:"recipient_id" validate:"required,min=1"`
}

// createTransactionHandler records a transaction against an accepted offer.
// The {initiator, recipient} pair must equal the offer's two parties as a
// set; which of the two sits in which column does not matter.
func (app *application) createTransactionHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateTransactionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	offeredBy, itemOwner, err := app.store.Transactions.OfferParties(r.Context(), payload.OfferID)
	if err != nil {
		switch {
		case errors.Is(err, transactions.ErrOfferNotFound):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if !transactions.SameParties(payload.InitiatorID, payload.RecipientID, offeredBy, itemOwner) {
		app.badRequestResponse(w, r, transactions.ErrNotOfferParty)
		return
	}

	userID := getUserFromContext(r).ID
	if userID != payload.InitiatorID && userID != payload.RecipientID {
		app.forbiddenResponse(w, r, fmt.Errorf("you are not a party of this offer"))
		return
	}

	reference, err := app.references.Generate(payload.OfferID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	transaction := &transactions.Transaction{
		Reference:   reference,
		OfferID:     payload.OfferID,
		InitiatorID: payload.InitiatorID,
		RecipientID: payload.RecipientID,
		Status:      transactions.StatusPending,
	}

	if err := app.store.Transactions.Create(r.Context(), transaction); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.notifyTransaction(transaction.Counterparty(userID), transaction.Reference, string(transaction.Status))

	if err := app.jsonResponse(w, http.StatusCreated, "transaction created", transaction); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	list, err := app.store.Transactions.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if !user.Role.Can(roles.ViewAllOffers) {
		mine := list[:0]
		for _, t := range list {
			if t.Counterparty(user.ID) != 0 {
				mine = append(mine, t)
			}
		}
		list = mine
	}

	if err := app.jsonResponse(w, http.StatusOK, "transactions fetched", list); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getTransactionHandler(w http.ResponseWriter, r *http.Request) {
	transactionID, err := paramInt64(r, "transactionID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	transaction, err := app.store.Transactions.GetByID(r.Context(), transactionID)
	if err != nil {
		switch {
		case errors.Is(err, transactions.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	user := getUserFromContext(r)
	if !user.Role.Can(roles.ViewAllOffers) && transaction.Counterparty(user.ID) == 0 {
		app.forbiddenResponse(w, r, fmt.Errorf("transaction belongs to other users"))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "transaction fetched", transaction); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateTransactionStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

// updateTransactionStatusHandler moves a transaction to a new status. The
// terminal timestamp for the status kind is stamped exactly once; setting
// the same status again leaves the original stamp untouched.
func (app *application) updateTransactionStatusHandler(w http.ResponseWriter, r *http.Request) {
	transactionID, err := paramInt64(r, "transactionID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateTransactionStatusPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	status := transactions.Status(payload.Status)
	if !status.Valid() {
		app.badRequestResponse(w, r, transactions.ErrInvalidStatus)
		return
	}

	transaction, err := app.store.Transactions.GetByID(r.Context(), transactionID)
	if err != nil {
		switch {
		case errors.Is(err, transactions.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	userID := getUserFromContext(r).ID
	if transaction.Counterparty(userID) == 0 {
		app.forbiddenResponse(w, r, fmt.Errorf("only a participant can update the transaction"))
		return
	}

	if !transactions.CanTransition(transaction.Status, status) {
		app.badRequestResponse(w, r, transactions.ErrBadTransition)
		return
	}

	transactions.ApplyStatus(transaction, status, time.Now())

	if err := app.store.Transactions.UpdateStatus(r.Context(), transaction); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.notifyTransaction(transaction.Counterparty(userID), transaction.Reference, string(status))

	if err := app.jsonResponse(w, http.StatusOK, "transaction updated", transaction); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteTransactionHandler(w http.ResponseWriter, r *http.Request) {
	transactionID, err := paramInt64(r, "transactionID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	transaction, err := app.store.Transactions.GetByID(r.Context(), transactionID)
	if err != nil {
		switch {
		case errors.Is(err, transactions.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if transaction.Counterparty(getUserFromContext(r).ID) == 0 {
		app.forbiddenResponse(w, r, fmt.Errorf("only a participant can delete the transaction"))
		return
	}

	if err := app.store.Transactions.Delete(r.Context(), transactionID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "transaction deleted", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) notifyTransaction(userID int64, reference, status string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		n := &notifications.Notification{
			UserID: userID,
			Title:  "Transaction Update",
			Body:   fmt.Sprintf("Transaction %s is now %s", reference, status),
		}
		if err := app.store.Notifications.Create(ctx, n); err != nil {
			app.logger.Errorw("failed to store notification", "user_id", userID, "error", err)
		}

		if err := push.SendTransactionNotification(ctx, app.push, app.store, userID, reference, status); err != nil {
			app.logger.Warnw("push delivery failed", "user_id", userID, "reference", reference, "error", err)
		}
	}()
}
