package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

type RegisterPushTokenPayload struct {
	ExpoPushToken string          `json:"expo_push_token" validate:"required"`
	DeviceInfo    json.RawMessage `json:"device_info"`
}

func (app *application) registerPushTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPushTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	if !strings.HasPrefix(payload.ExpoPushToken, "ExponentPushToken[") {
		app.badRequestResponse(w, r, fmt.Errorf("not a valid Expo push token"))
		return
	}

	userID := getUserFromContext(r).ID
	if err := app.store.PushTokens.AddOrUpdate(r.Context(), userID, payload.ExpoPushToken, payload.DeviceInfo); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "push token registered", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}

type RemovePushTokenPayload struct {
	ExpoPushToken string `json:"expo_push_token" validate:"required"`
}

func (app *application) removePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	var payload RemovePushTokenPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	userID := getUserFromContext(r).ID
	if err := app.store.PushTokens.Remove(r.Context(), userID, payload.ExpoPushToken); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "push token removed", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}
