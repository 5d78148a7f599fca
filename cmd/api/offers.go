package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"barterly/internal/domain/notifications"
	"barterly/internal/domain/offers"
	"barterly/internal/push"
	"barterly/internal/roles"
)

type CreateOfferPayload struct {
	ItemID          int64   `json:"item_id" validate:"required,min=1"`
	BarteredItemIDs []int64 `json:"bartered_item_ids" validate:"required,min=1"`
	MessageText     *string `json:"message_text" validate:"omitempty,max=1000"`
}

// createOfferHandler creates an offer and attaches the bartered set inside
// one database transaction, so a half-written offer never becomes visible.
func (app *application) createOfferHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateOfferPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	if err := offers.ValidateBarterSet(payload.ItemID, payload.BarteredItemIDs); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	requesterID := getUserFromContext(r).ID

	offer := &offers.Offer{
		ItemID:      payload.ItemID,
		OfferedBy:   requesterID,
		MessageText: payload.MessageText,
		Status:      offers.StatusPending,
	}

	err := app.store.WithOfferTx(r.Context(), func(o offers.Store) error {
		allIDs := append([]int64{payload.ItemID}, payload.BarteredItemIDs...)
		owners, err := o.ItemOwners(r.Context(), allIDs)
		if err != nil {
			return err
		}
		if err := offers.CheckOwnership(owners, payload.ItemID, payload.BarteredItemIDs, requesterID); err != nil {
			return err
		}
		if err := o.Create(r.Context(), offer); err != nil {
			return err
		}
		return o.AttachItems(r.Context(), offer.ID, payload.BarteredItemIDs)
	})
	if err != nil {
		switch {
		case errors.Is(err, offers.ErrItemNotFound):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, offers.ErrOwnTargetItem), errors.Is(err, offers.ErrNotItemOwner):
			app.forbiddenResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	created, err := app.store.Offers.GetByID(r.Context(), offer.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.notifyOffer(created.Item.OwnerID, push.OfferReceived, created.ID,
		"New Offer", "You received a new offer on "+created.Item.Title)

	if err := app.jsonResponse(w, http.StatusCreated, "offer created", created); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listOffersHandler returns every offer for privileged roles, otherwise the
// caller's own view (offers they sent plus offers against their items).
func (app *application) listOffersHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var (
		list []offers.Offer
		err  error
	)
	if user.Role.Can(roles.ViewAllOffers) {
		list, err = app.store.Offers.List(r.Context())
	} else {
		list, err = app.store.Offers.ListForUser(r.Context(), user.ID)
	}
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "offers fetched", list); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getOfferHandler(w http.ResponseWriter, r *http.Request) {
	offerID, err := paramInt64(r, "offerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	offer, err := app.store.Offers.GetByID(r.Context(), offerID)
	if err != nil {
		switch {
		case errors.Is(err, offers.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	user := getUserFromContext(r)
	if !user.Role.Can(roles.ViewAllOffers) &&
		offer.OfferedBy != user.ID && offer.Item.OwnerID != user.ID {
		app.forbiddenResponse(w, r, fmt.Errorf("offer belongs to other users"))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "offer fetched", offer); err != nil {
		app.internalServerError(w, r, err)
	}
}

type RespondOfferPayload struct {
	Status string `json:"status" validate:"required,oneof=accepted declined"`
}

// respondToOfferHandler lets the target item's owner accept or decline.
// Responding to an already-answered offer overwrites the previous answer.
func (app *application) respondToOfferHandler(w http.ResponseWriter, r *http.Request) {
	offerID, err := paramInt64(r, "offerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload RespondOfferPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	status := offers.Status(payload.Status)
	if !status.Decision() {
		app.badRequestResponse(w, r, fmt.Errorf("status must be accepted or declined"))
		return
	}

	offer, err := app.store.Offers.GetByID(r.Context(), offerID)
	if err != nil {
		switch {
		case errors.Is(err, offers.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if offer.Item.OwnerID != getUserFromContext(r).ID {
		app.forbiddenResponse(w, r, fmt.Errorf("only the item owner can respond to an offer"))
		return
	}

	if err := app.store.Offers.UpdateStatus(r.Context(), offerID, status); err != nil {
		app.internalServerError(w, r, err)
		return
	}
	offer.Status = status

	event := push.OfferAccepted
	if status == offers.StatusDeclined {
		event = push.OfferDeclined
	}
	app.notifyOffer(offer.OfferedBy, event, offer.ID,
		"Offer "+payload.Status, fmt.Sprintf("Your offer on %s was %s", offer.Item.Title, status))

	if err := app.jsonResponse(w, http.StatusOK, "offer "+payload.Status, offer); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteOfferHandler removes an offer; the bartered-set join rows go with
// it in the same transaction.
func (app *application) deleteOfferHandler(w http.ResponseWriter, r *http.Request) {
	offerID, err := paramInt64(r, "offerID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	offer, err := app.store.Offers.GetByID(r.Context(), offerID)
	if err != nil {
		switch {
		case errors.Is(err, offers.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if offer.OfferedBy != getUserFromContext(r).ID {
		app.forbiddenResponse(w, r, fmt.Errorf("only the sender can withdraw an offer"))
		return
	}

	err = app.store.WithOfferTx(r.Context(), func(o offers.Store) error {
		if err := o.DetachItems(r.Context(), offerID); err != nil {
			return err
		}
		return o.SoftDelete(r.Context(), offerID)
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "offer withdrawn", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}

// notifyOffer stores an in-app notification and fires a best-effort push.
func (app *application) notifyOffer(userID int64, event push.Event, offerID int64, title, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		n := &notifications.Notification{
			UserID: userID,
			Title:  title,
			Body:   body,
		}
		if err := app.store.Notifications.Create(ctx, n); err != nil {
			app.logger.Errorw("failed to store notification", "user_id", userID, "error", err)
		}

		if err := push.SendOfferNotification(ctx, app.push, app.store, userID, event, offerID); err != nil {
			app.logger.Warnw("push delivery failed", "user_id", userID, "event", event, "error", err)
		}
	}()
}
