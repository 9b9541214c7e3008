package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"git.sr.ht/~jakintosh/gallery/internal/service"
	"github.com/gorilla/mux"
)

func galleryPath(id int64) string {
	return fmt.Sprintf("/gallery/%d/detail/", id)
}

// pathID parses the numeric route variable key.
func pathID(
	r *http.Request,
	key string,
) (
	int64,
	bool,
) {
	id, err := strconv.ParseInt(mux.Vars(r)[key], 10, 64)
	return id, err == nil
}

func (a *API) Index() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.authenticate(w, r)
		if !ok {
			return
		}

		galleries, err := a.service.ListGalleries(claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		a.render(w, r, "index", pageData{
			User:      claims,
			Flashes:   takeFlashes(w, r),
			Galleries: galleries,
		})
	}
}

func (a *API) AddGallery() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.authenticate(w, r)
		if !ok {
			return
		}

		_, err := a.service.CreateGallery(
			claims.UserID,
			r.PostFormValue("title"),
			r.PostFormValue("description"),
		)
		if errors.Is(err, service.ErrInvalidGallery) {
			flashRedirect(w, r, "/", err.Error())
			return
		} else if err != nil {
			writeError(w, r, err)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (a *API) GalleryDetail() http.HandlerFunc {
	return a.galleryPage("gallery-detail")
}

func (a *API) EditGallery() http.HandlerFunc {
	return a.galleryPage("gallery-edit")
}

func (a *API) galleryPage(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.authenticate(w, r)
		if !ok {
			return
		}

		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, r, service.ErrGalleryNotFound)
			return
		}

		gallery, err := a.service.GetGallery(claims.UserID, id)
		if err != nil {
			writeError(w, r, err)
			return
		}

		a.render(w, r, page, pageData{
			User:    claims,
			Flashes: takeFlashes(w, r),
			Gallery: gallery,
		})
	}
}

func (a *API) UpdateGallery() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.authenticate(w, r)
		if !ok {
			return
		}

		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, r, service.ErrGalleryNotFound)
			return
		}

		err := a.service.UpdateGallery(
			claims.UserID,
			id,
			r.PostFormValue("title"),
			r.PostFormValue("description"),
		)
		if errors.Is(err, service.ErrInvalidGallery) {
			flashRedirect(w, r, fmt.Sprintf("/gallery/%d/edit/", id), err.Error())
			return
		} else if err != nil {
			writeError(w, r, err)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

func (a *API) DeleteGallery() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := a.authenticate(w, r)
		if !ok {
			return
		}

		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, r, service.ErrGalleryNotFound)
			return
		}

		if err := a.service.DeleteGallery(claims.UserID, id); err != nil {
			writeError(w, r, err)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
