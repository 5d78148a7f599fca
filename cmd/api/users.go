package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"barterly/internal/domain/users"
	"barterly/internal/roles"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (app *application) getMyProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, err := app.loadUser(r)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "profile fetched", user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateUserPayload struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=72"`
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
}

func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdateUserPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	updates := map[string]interface{}{}
	if payload.Username != nil {
		updates["username"] = *payload.Username
	}
	if payload.Email != nil {
		updates["email"] = *payload.Email
	}
	if payload.FirstName != nil {
		updates["first_name"] = *payload.FirstName
	}
	if payload.LastName != nil {
		updates["last_name"] = *payload.LastName
	}
	if len(updates) == 0 {
		app.badRequestResponse(w, r, fmt.Errorf("no fields to update"))
		return
	}

	userID := getUserFromContext(r).ID
	if err := app.store.Users.Update(r.Context(), userID, updates); err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, users.ErrDuplicateEmail), errors.Is(err, users.ErrDuplicateUsername):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	user, err := app.store.Users.GetByID(r.Context(), userID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "profile updated", user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdatePasswordPayload struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

func (app *application) updatePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdatePasswordPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	user, err := app.loadUser(r)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if !user.Password.Matches(payload.CurrentPassword) {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("current password is incorrect"))
		return
	}

	if err := user.Password.Set(payload.NewPassword); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.UpdatePassword(r.Context(), user.ID, user.Password.Hash()); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "password updated", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) uploadProfilePictureHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("could not parse form: %w", err))
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("image file is required"))
		return
	}
	defer file.Close()

	userID := getUserFromContext(r).ID

	resp, err := app.cld.Upload.Upload(r.Context(), file, uploader.UploadParams{
		PublicID: fmt.Sprintf("profile_%d_%s", userID, uuid.NewString()),
		Folder:   "barterly/profiles",
	})
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.SetProfilePicture(r.Context(), userID, resp.SecureURL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	data := map[string]string{"profile_picture_url": resp.SecureURL}
	if err := app.jsonResponse(w, http.StatusOK, "profile picture uploaded", data); err != nil {
		app.internalServerError(w, r, err)
	}
}

type LogoutPayload struct {
	ExpoPushToken string `json:"expo_push_token"`
}

// logoutHandler drops the device push token so a signed-out device stops
// receiving notifications. Access tokens simply expire.
func (app *application) logoutHandler(w http.ResponseWriter, r *http.Request) {
	var payload LogoutPayload
	if err := readJSON(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		app.badRequestResponse(w, r, err)
		return
	}

	userID := getUserFromContext(r).ID
	if payload.ExpoPushToken != "" {
		if err := app.store.PushTokens.Remove(r.Context(), userID, payload.ExpoPushToken); err != nil {
			app.internalServerError(w, r, err)
			return
		}
	}

	if err := app.jsonResponse(w, http.StatusOK, "logged out", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listUsersHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Users.List(r.Context(), string(roles.User))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "users fetched", list); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listInactiveUsersHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Users.ListInactive(r.Context(), string(roles.User))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "inactive users fetched", list); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := paramInt64(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Users.SoftDelete(r.Context(), userID); err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "user deactivated", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) restoreUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := paramInt64(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Users.Restore(r.Context(), userID); err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "user restored", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) permanentDeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := paramInt64(r, "userID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Users.HardDelete(r.Context(), userID); err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "user permanently deleted", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateSubAdminPayload struct {
	Username  string `json:"username" validate:"required,min=3,max=72"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

func (app *application) createSubAdminHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateSubAdminPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	user := &users.User{
		Username:  payload.Username,
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Role:      string(roles.SubAdmin),
	}
	if err := user.Password.Set(payload.Password); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Users.Create(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, users.ErrDuplicateEmail), errors.Is(err, users.ErrDuplicateUsername):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, "sub-admin created", user); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listSubAdminsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Users.List(r.Context(), string(roles.SubAdmin))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "sub-admins fetched", list); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listInactiveSubAdminsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Users.ListInactive(r.Context(), string(roles.SubAdmin))
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "inactive sub-admins fetched", list); err != nil {
		app.internalServerError(w, r, err)
	}
}

func paramInt64(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return id, nil
}
