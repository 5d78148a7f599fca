package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"barterly/internal/domain/items"
	"barterly/internal/params"
	"barterly/internal/roles"

	"github.com/shopspring/decimal"
)

type CreateItemPayload struct {
	CategoryID    int64   `json:"category_id" validate:"required,min=1"`
	Title         string  `json:"title" validate:"required,max=255"`
	Description   *string `json:"description" validate:"omitempty,max=2000"`
	Location      string  `json:"location" validate:"required,max=255"`
	PriceEstimate string  `json:"price_estimate" validate:"required"`
}

func (app *application) createItemHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateItemPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	price, err := decimal.NewFromString(payload.PriceEstimate)
	if err != nil || price.IsNegative() {
		app.badRequestResponse(w, r, fmt.Errorf("price_estimate must be a non-negative decimal"))
		return
	}

	item := &items.Item{
		OwnerID:       getUserFromContext(r).ID,
		CategoryID:    payload.CategoryID,
		Title:         payload.Title,
		Description:   payload.Description,
		Location:      payload.Location,
		PriceEstimate: price,
		Images:        []string{},
		Status:        items.StatusInStock,
		Approval:      items.ApprovalPending,
	}

	if err := app.store.Items.Create(r.Context(), item); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, "item created", item); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listItemsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := items.Filter{Pagination: params.ParsePagination(q)}

	if v := q.Get("category_id"); v != "" {
		id, err := parseQueryInt64(v)
		if err != nil {
			app.badRequestResponse(w, r, fmt.Errorf("invalid category_id"))
			return
		}
		filter.CategoryID = &id
	}
	if v := q.Get("status"); v != "" {
		status := items.Status(v)
		if !status.Valid() {
			app.badRequestResponse(w, r, fmt.Errorf("invalid status %q", v))
			return
		}
		filter.Status = &status
	}
	if v := q.Get("approval"); v != "" {
		approval := items.Approval(v)
		if !approval.Valid() {
			app.badRequestResponse(w, r, fmt.Errorf("invalid approval %q", v))
			return
		}
		filter.Approval = &approval
	}

	list, total, err := app.store.Items.List(r.Context(), filter)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	filter.Pagination.ComputeMeta(total)
	data := map[string]any{
		"items":      list,
		"pagination": filter.Pagination,
	}
	if err := app.jsonResponse(w, http.StatusOK, "items fetched", data); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listMyItemsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Items.ListByOwner(r.Context(), getUserFromContext(r).ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "items fetched", list); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listItemsWithOffersHandler(w http.ResponseWriter, r *http.Request) {
	list, err := app.store.Items.ListWithPendingOffers(r.Context(), getUserFromContext(r).ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "items with pending offers fetched", list); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := paramInt64(r, "itemID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	item, err := app.store.Items.GetByID(r.Context(), itemID)
	if err != nil {
		switch {
		case errors.Is(err, items.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "item fetched", item); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateItemPayload struct {
	CategoryID    *int64  `json:"category_id" validate:"omitempty,min=1"`
	Title         *string `json:"title" validate:"omitempty,max=255"`
	Description   *string `json:"description" validate:"omitempty,max=2000"`
	Location      *string `json:"location" validate:"omitempty,max=255"`
	PriceEstimate *string `json:"price_estimate"`
	Status        *string `json:"status"`
}

func (app *application) updateItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := paramInt64(r, "itemID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateItemPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	item, err := app.store.Items.GetByID(r.Context(), itemID)
	if err != nil {
		switch {
		case errors.Is(err, items.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if item.OwnerID != getUserFromContext(r).ID {
		app.forbiddenResponse(w, r, fmt.Errorf("only the owner can update an item"))
		return
	}

	updates := map[string]interface{}{}
	if payload.CategoryID != nil {
		updates["category_id"] = *payload.CategoryID
	}
	if payload.Title != nil {
		updates["title"] = *payload.Title
	}
	if payload.Description != nil {
		updates["description"] = *payload.Description
	}
	if payload.Location != nil {
		updates["location"] = *payload.Location
	}
	if payload.PriceEstimate != nil {
		price, err := decimal.NewFromString(*payload.PriceEstimate)
		if err != nil || price.IsNegative() {
			app.badRequestResponse(w, r, fmt.Errorf("price_estimate must be a non-negative decimal"))
			return
		}
		updates["price_estimate"] = price
	}
	if payload.Status != nil {
		status := items.Status(*payload.Status)
		if !status.Valid() {
			app.badRequestResponse(w, r, fmt.Errorf("invalid status %q", *payload.Status))
			return
		}
		updates["status"] = status
	}
	if len(updates) == 0 {
		app.badRequestResponse(w, r, fmt.Errorf("no fields to update"))
		return
	}

	if err := app.store.Items.Update(r.Context(), itemID, updates); err != nil {
		switch {
		case errors.Is(err, items.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	item, err = app.store.Items.GetByID(r.Context(), itemID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "item updated", item); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteItemHandler soft-deletes; items referenced by live offers stay
// attached to those offers until the offers themselves are removed.
func (app *application) deleteItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := paramInt64(r, "itemID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	item, err := app.store.Items.GetByID(r.Context(), itemID)
	if err != nil {
		switch {
		case errors.Is(err, items.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	user := getUserFromContext(r)
	if item.OwnerID != user.ID && !user.Role.Can(roles.ModerateItems) {
		app.forbiddenResponse(w, r, fmt.Errorf("only the owner or a moderator can delete an item"))
		return
	}

	count, err := app.store.Offers.CountAssociations(r.Context(), itemID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if count > 0 {
		app.conflictResponse(w, r, fmt.Errorf("item is referenced by %d active offer(s)", count))
		return
	}

	if err := app.store.Items.SoftDelete(r.Context(), itemID); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "item deleted", nil); err != nil {
		app.internalServerError(w, r, err)
	}
}

type ApproveItemPayload struct {
	Approval string `json:"approval" validate:"required,oneof=approved rejected"`
}

func (app *application) approveItemHandler(w http.ResponseWriter, r *http.Request) {
	itemID, err := paramInt64(r, "itemID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload ApproveItemPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	if err := app.store.Items.SetApproval(r.Context(), itemID, items.Approval(payload.Approval)); err != nil {
		switch {
		case errors.Is(err, items.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, "item "+payload.Approval, nil); err != nil {
		app.internalServerError(w, r, err)
	}
}

func parseQueryInt64(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
