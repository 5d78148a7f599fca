package main

import (
	"errors"
	"fmt"
	"net/http"

	"barterly/internal/domain/items"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

const maxItemImages = 5

// uploadItemImagesHandler accepts a multipart form with up to five files
// under the "images" key and appends the uploaded URLs to the item.
func (app *application) uploadItemImagesHandler(w http.ResponseWriter, r *http.Request) {
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

	if item.OwnerID != getUserFromContext(r).ID {
		app.forbiddenResponse(w, r, fmt.Errorf("only the owner can upload item images"))
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("could not parse form: %w", err))
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		app.badRequestResponse(w, r, fmt.Errorf("at least one image is required"))
		return
	}
	if len(item.Images)+len(files) > maxItemImages {
		app.badRequestResponse(w, r, fmt.Errorf("an item can have at most %d images", maxItemImages))
		return
	}

	urls := make([]string, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}

		resp, err := app.cld.Upload.Upload(r.Context(), file, uploader.UploadParams{
			PublicID: fmt.Sprintf("item_%d_%s", itemID, uuid.NewString()),
			Folder:   "barterly/items",
		})
		file.Close()
		if err != nil {
			app.internalServerError(w, r, err)
			return
		}
		urls = append(urls, resp.SecureURL)
	}

	if err := app.store.Items.AppendImages(r.Context(), itemID, urls); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	data := map[string]any{"images": urls}
	if err := app.jsonResponse(w, http.StatusOK, "images uploaded", data); err != nil {
		app.internalServerError(w, r, err)
	}
}
