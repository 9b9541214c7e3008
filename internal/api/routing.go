package api

import (
	"net/http"

	"git.sr.ht/~jakintosh/gallery/internal/service"
	"github.com/gorilla/mux"
)

func (a *API) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", a.Index()).Methods("GET")
	r.HandleFunc("/image/duplicates/", a.Duplicates()).Methods("GET")
	r.HandleFunc(service.BlobPath+"{name}", a.Blob()).Methods("GET", "HEAD")

	// galleries
	r.HandleFunc("/gallery/add/", a.AddGallery()).Methods("POST")
	g := r.PathPrefix("/gallery/{id:[0-9]+}").Subrouter()
	g.HandleFunc("/detail/", a.GalleryDetail()).Methods("GET")
	g.HandleFunc("/edit/", a.EditGallery()).Methods("GET")
	g.HandleFunc("/update/", a.UpdateGallery()).Methods("POST")
	g.HandleFunc("/delete/", a.DeleteGallery()).Methods("GET", "POST")

	// images
	r.HandleFunc("/image/add/", a.AddImage()).Methods("POST")
	g.HandleFunc("/image/{image:[0-9]+}/delete/", a.DeleteImage()).Methods("GET", "POST")

	// json for headless clients
	s := r.PathPrefix("/api").Subrouter()
	s.HandleFunc("/galleries", a.ListGalleries()).Methods("GET")

	return r
}
