package main

import (
	"errors"
	"net/http"

	"barterly/internal/domain/categories"
)

type CategoryPayload struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload CategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	category := &categories.Category{
		Name:        payload.Name,
		Description: payload.Description,
	}

	if err := app.store.Categories.Create(r.Context(), category); err != nil {
		switch {
		case errors.Is(err, categories.ErrDuplicateName):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, "category created", category); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Categories.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "categories fetched", list); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getCategoryHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := paramInt64(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	category, err := app.store.Categories.GetByID(r.Context(), categoryID)
	if err != nil {
		switch {
		case errors.Is(err, categories.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "category fetched", category); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := paramInt64(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	category := &categories.Category{
		ID:          categoryID,
		Name:        payload.Name,
		Description: payload.Description,
	}

	if err := app.store.Categories.Update(r.Context(), category); err != nil {
		switch {
		case errors.Is(err, categories.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, categories.ErrDuplicateName):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "category updated", category); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	categoryID, err := paramInt64(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Categories.Delete(r.Context(), categoryID); err != nil {
		switch {
		case errors.Is(err, categories.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "category deleted", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}
