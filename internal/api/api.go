// Package api serves the gallery's HTML pages, its uploaded blobs and a
// small JSON surface for headless clients. Callers are identified by the
// token cookie the page bridge maintains.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"

	"git.sr.ht/~jakintosh/gallery/internal/service"
	"git.sr.ht/~jakintosh/gallery/pkg/identity"
)

const flashCookie = "flash"

// Renderer executes a named page template.
type Renderer interface {
	Render(w io.Writer, page string, data any) error
}

type API struct {
	service   *service.Service
	templates Renderer
	verifier  identity.Verifier
}

func New(
	svc *service.Service,
	templates Renderer,
	verifier identity.Verifier,
) *API {
	return &API{
		service:   svc,
		templates: templates,
		verifier:  verifier,
	}
}

// pageData is the model every page template receives.
type pageData struct {
	User       *identity.Claims
	Flashes    []string
	Galleries  []service.GallerySummary
	Gallery    *service.GalleryDetail
	Duplicates []service.DuplicateGroup
}

// authenticate returns the verified caller, recording them on first sight.
// Without a usable token it answers with the signed-out index and returns
// false; a rejected token is flashed on that page.
func (a *API) authenticate(
	w http.ResponseWriter,
	r *http.Request,
) (
	*identity.Claims,
	bool,
) {
	claims, err := identity.FromRequest(r, a.verifier)
	if err != nil {
		data := pageData{Flashes: takeFlashes(w, r)}
		if !errors.Is(err, identity.ErrTokenAbsent) {
			logApiErr(r, err.Error())
			data.Flashes = append(data.Flashes, err.Error())
		}
		a.render(w, r, "index", data)
		return nil, false
	}

	if err := a.service.EnsureUser(claims); err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return claims, true
}

func (a *API) render(
	w http.ResponseWriter,
	r *http.Request,
	page string,
	data pageData,
) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.templates.Render(w, page, data); err != nil {
		logApiErr(r, fmt.Sprintf("couldn't render '%s': %v", page, err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// flashRedirect carries message to the page at location.
func flashRedirect(
	w http.ResponseWriter,
	r *http.Request,
	location string,
	message string,
) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// takeFlashes reads and clears the pending flash message.
func takeFlashes(
	w http.ResponseWriter,
	r *http.Request,
) []string {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})

	message, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	return []string{message}
}

func writeError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrGalleryNotFound),
		errors.Is(err, service.ErrImageNotFound),
		errors.Is(err, service.ErrBlobNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateImage):
		status = http.StatusConflict
	case errors.Is(err, service.ErrFileType),
		errors.Is(err, service.ErrInvalidGallery):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrImageTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, identity.ErrTokenAbsent),
		errors.Is(err, identity.ErrTokenInvalid):
		status = http.StatusUnauthorized
	}

	logApiErr(r, err.Error())
	http.Error(w, http.StatusText(status), status)
}

func returnJson(data any, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
}

func logApiErr(r *http.Request, msg string) {
	log.Printf("%s %s: %s\n", r.Method, r.RequestURI, msg)
}
