package api

import (
	"fmt"
	"net/http"
	"time"

	"git.sr.ht/~jakintosh/gallery/internal/service"
	"git.sr.ht/~jakintosh/gallery/pkg/identity"
)

type GalleryResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CoverURL    string    `json:"coverUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type GalleriesResponse struct {
	User        string            `json:"user"`
	Email       string            `json:"email"`
	MemberSince time.Time         `json:"memberSince"`
	Galleries   []GalleryResponse `json:"galleries"`
}

// ListGalleries is the JSON form of the index, headed by the caller's
// account record. Unlike the pages, a missing or rejected token is a 401.
func (a *API) ListGalleries() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := identity.FromRequest(r, a.verifier)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := a.service.EnsureUser(claims); err != nil {
			writeError(w, r, err)
			return
		}

		// the stored account, not the token, is the record of who this is
		user, err := a.service.GetUser(claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if user == nil {
			writeError(w, r, fmt.Errorf("%w: account %s missing", service.ErrInternal, claims.UserID))
			return
		}

		galleries, err := a.service.ListGalleries(claims.UserID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		response := GalleriesResponse{
			User:        user.ID,
			Email:       user.Email,
			MemberSince: user.CreatedAt,
			Galleries:   make([]GalleryResponse, 0, len(galleries)),
		}
		for _, g := range galleries {
			response.Galleries = append(response.Galleries, GalleryResponse{
				ID:          g.ID,
				Title:       g.Title,
				Description: g.Description,
				CoverURL:    g.CoverURL(),
				CreatedAt:   g.CreatedAt,
				UpdatedAt:   g.UpdatedAt,
			})
		}
		returnJson(response, w)
	}
}
