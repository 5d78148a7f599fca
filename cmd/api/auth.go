package main

import (
	"errors"
	"fmt"
	"net/http"

	"barterly/internal/domain/users"
	"barterly/internal/mailer"
	"barterly/internal/roles"

	"github.com/golang-jwt/jwt/v5"
)

type RegisterUserPayload struct {
	Username  string `json:"username" validate:"required,min=3,max=72"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

func (app *application) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterUserPayload
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
		Role:      string(roles.User),
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

	go func() {
		data := map[string]string{"Username": user.Username}
		if _, err := app.mailer.Send(mailer.UserWelcomeTemplate, user.Username, user.Email, data); err != nil {
			app.logger.Errorw("failed to send welcome email", "email", user.Email, "error", err)
		}
	}()

	if err := app.jsonResponse(w, http.StatusCreated, "user registered", user); err != nil {
		app.internalServerError(w, r, err)
	}
}

type CreateTokenPayload struct {
	Login    string `json:"login" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (app *application) createTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	user, err := app.store.Users.GetByLogin(r.Context(), payload.Login)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid credentials"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if !user.Password.Matches(payload.Password) {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid credentials"))
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID, user.Role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	data := map[string]any{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user":          user,
	}
	if err := app.jsonResponse(w, http.StatusOK, "login successful", data); err != nil {
		app.internalServerError(w, r, err)
	}
}

type RefreshTokenPayload struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (app *application) refreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RefreshTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	token, err := app.authenticator.ValidateRefreshToken(payload.RefreshToken)
	if err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid token claims"))
		return
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		app.unauthorizedErrorResponse(w, r, fmt.Errorf("invalid subject claim"))
		return
	}

	// Re-read the user so a role change or deletion invalidates old refresh
	// tokens at the next rotation.
	user, err := app.store.Users.GetByID(r.Context(), int64(sub))
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			app.unauthorizedErrorResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	accessToken, refreshToken, err := app.authenticator.GenerateTokens(user.ID, user.Role)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	data := map[string]any{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	}
	if err := app.jsonResponse(w, http.StatusOK, "token refreshed", data); err != nil {
		app.internalServerError(w, r, err)
	}
}
