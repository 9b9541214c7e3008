package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"git.sr.ht/~jakintosh/gallery/internal/service"
	"github.com/gorilla/mux"
)

// multipart overhead allowed on top of the image itself
const uploadSlack = 1 << 20

const duplicateMessage = "Upload failed. Duplicate image detected"

func (a *API) AddImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.authenticate(w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, service.MaxImageSize+uploadSlack)
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, r, service.ErrImageTooLarge)
				return
			}
			logApiErr(r, fmt.Sprintf("bad multipart form: %v", err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		galleryID, err := strconv.ParseInt(r.FormValue("gallery_id"), 10, 64)
		if err != nil {
			logApiErr(r, "missing or malformed 'gallery_id'")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file_name")
		if err != nil {
			flashRedirect(w, r, galleryPath(galleryID), "Upload failed. No file selected")
			return
		}
		defer file.Close()

		_, err = a.service.AddImage(claims.UserID, galleryID, header.Filename, file)
		switch {
		case err == nil:
			http.Redirect(w, r, galleryPath(galleryID), http.StatusSeeOther)
		case errors.Is(err, service.ErrDuplicateImage):
			flashRedirect(w, r, galleryPath(galleryID), duplicateMessage)
		case errors.Is(err, service.ErrFileType),
			errors.Is(err, service.ErrImageTooLarge):
			flashRedirect(w, r, galleryPath(galleryID), "Upload failed. "+err.Error())
		default:
			writeError(w, r, err)
		}
	}
}

func (a *API) DeleteImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.authenticate(w, r)
		if !ok {
			return
		}

		galleryID, ok := pathID(r, "id")
		if !ok {
			writeError(w, r, service.ErrGalleryNotFound)
			return
		}
		imageID, ok := pathID(r, "image")
		if !ok {
			writeError(w, r, service.ErrImageNotFound)
			return
		}

		if err := a.service.DeleteImage(claims.UserID, galleryID, imageID); err != nil {
			writeError(w, r, err)
			return
		}

		http.Redirect(w, r, galleryPath(galleryID), http.StatusSeeOther)
	}
}

func (a *API) Duplicates() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.authenticate(w, r)
		if !ok {
			return
		}

		groups, err := a.service.Duplicates(claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		a.render(w, r, "image-duplicates", pageData{
			User:       claims,
			Flashes:    takeFlashes(w, r),
			Duplicates: groups,
		})
	}
}

// Blob serves uploaded image bytes. Blobs are public, like the image URLs
// they back.
func (a *API) Blob() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["name"]
		blob, err := a.service.OpenBlob(name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		defer blob.Close()

		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		http.ServeContent(w, r, name, time.Time{}, blob)
	}
}
