package main

import (
	"errors"
	"fmt"
	"net/http"

	"barterly/internal/domain/reviews"
	"barterly/internal/domain/transactions"
)

type CreateReviewPayload struct {
	TransactionID int64   `json:"transaction_id" validate:"required,min=1"`
	Rating        int     `json:"rating" validate:"required,min=1,max=5"`
	Comment       *string `json:"comment" validate:"omitempty,max=1000"`
}

// createReviewHandler submits one review per reviewer per transaction. The
// reviewee is always the other participant; the duplicate check and insert
// share a transaction, and the unique index makes concurrent duplicates
// lose with a conflict rather than a second row.
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	transaction, err := app.store.Transactions.GetByID(r.Context(), payload.TransactionID)
	if err != nil {
		switch {
		case errors.Is(err, transactions.ErrNotFound):
			// A bad transaction reference in the payload is a validation
			// problem, same as an unresolvable item on an offer.
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	reviewerID := getUserFromContext(r).ID
	revieweeID, err := reviews.InferReviewee(transaction.InitiatorID, transaction.RecipientID, reviewerID)
	if err != nil {
		app.forbiddenResponse(w, r, err)
		return
	}

	review := &reviews.Review{
		TransactionID: payload.TransactionID,
		ReviewerID:    reviewerID,
		RevieweeID:    revieweeID,
		Rating:        payload.Rating,
		Comment:       payload.Comment,
	}

	err = app.store.WithReviewTx(r.Context(), func(rs reviews.Store) error {
		exists, err := rs.HasReview(r.Context(), payload.TransactionID, reviewerID)
		if err != nil {
			return err
		}
		if exists {
			return reviews.ErrAlreadyReviewed
		}
		return rs.Create(r.Context(), review)
	})
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrAlreadyReviewed):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, "review submitted", review); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listMyReviewsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Reviews.ListForUser(r.Context(), getUserFromContext(r).ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "reviews fetched", list); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := paramInt64(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	userID := getUserFromContext(r).ID
	if review.ReviewerID != userID && review.RevieweeID != userID {
		app.forbiddenResponse(w, r, fmt.Errorf("review belongs to other users"))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "review fetched", review); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewID, err := paramInt64(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review, err := app.store.Reviews.GetByID(r.Context(), reviewID)
	if err != nil {
		switch {
		case errors.Is(err, reviews.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if review.ReviewerID != getUserFromContext(r).ID {
		app.forbiddenResponse(w, r, fmt.Errorf("only the author can delete a review"))
		return
	}

	if err := app.store.Reviews.Delete(r.Context(), reviewID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "review deleted", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}
