package main

import (
	"errors"
	"fmt"
	"net/http"

	"barterly/internal/domain/verifications"
	"barterly/internal/mailer"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// submitVerificationHandler takes an identity document upload and opens a
// pending verification request. Only one pending request per user.
func (app *application) submitVerificationHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("could not parse form: %w", err))
		return
	}

	file, _, err := r.FormFile("document")
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("document file is required"))
		return
	}
	defer file.Close()

	userID := getUserFromContext(r).ID

	resp, err := app.cld.Upload.Upload(r.Context(), file, uploader.UploadParams{
		PublicID: fmt.Sprintf("verification_%d_%s", userID, uuid.NewString()),
		Folder:   "barterly/verifications",
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	verification := &verifications.Verification{
		UserID:      userID,
		DocumentURL: resp.SecureURL,
	}

	if err := app.store.Verifications.Create(r.Context(), verification); err != nil {
		switch {
		case errors.Is(err, verifications.ErrAlreadyPending):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, "verification submitted", verification); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listPendingVerificationsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Verifications.ListPending(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "pending verifications fetched", list); err != nil {
		app.internalServerError(w, r, err)
	}
}

type HandleVerificationPayload struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

// handleVerificationHandler decides a pending request. Approval flips the
// user's verified badge; either way the user gets an email.
func (app *application) handleVerificationHandler(w http.ResponseWriter, r *http.Request) {
	verificationID, err := paramInt64(r, "verificationID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload HandleVerificationPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	status := verifications.Status(payload.Status)
	reviewerID := getUserFromContext(r).ID

	verification, err := app.store.Verifications.SetDecision(r.Context(), verificationID, status, reviewerID)
	if err != nil {
		switch {
		case errors.Is(err, verifications.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if status == verifications.StatusApproved {
		if err := app.store.Users.SetVerified(r.Context(), verification.UserID, true); err != nil {
			app.internalServerError(w, r, err)
			return
		}
	}

	user, err := app.store.Users.GetByID(r.Context(), verification.UserID)
	if err == nil {
		go func(username, email string) {
			data := map[string]string{
				"Username": username,
				"Decision": payload.Status,
			}
			if _, err := app.mailer.Send(mailer.VerificationDecisionTemplate, username, email, data); err != nil {
				app.logger.Errorw("failed to send verification email", "email", email, "error", err)
			}
		}(user.Username, user.Email)
	}

	if err := app.jsonResponse(w, http.StatusOK, "verification "+payload.Status, verification); err != nil {
		app.internalServerError(w, r, err)
	}
}
