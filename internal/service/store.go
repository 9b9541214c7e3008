package service

import (
	"io"
	"time"
)

// UserStore handles persistence of users
type UserStore interface {
	InsertUserIfAbsent(id string, email string, at time.Time) (created bool, err error)
	GetUser(id string) (*User, error)
}

// GalleryStore handles persistence of galleries. Lookups for galleries that
// don't exist or belong to someone else return ErrGalleryNotFound.
type GalleryStore interface {
	InsertGallery(owner string, title string, description string, at time.Time) (int64, error)
	GetGallery(owner string, id int64) (*Gallery, error)
	ListGalleries(owner string) ([]GallerySummary, error)
	UpdateGallery(owner string, id int64, title string, description string, at time.Time) error
	DeleteGallery(owner string, id int64) (blobs []string, err error)
}

// ImageStore handles persistence of image records. Inserting a hash already
// present in the gallery returns ErrDuplicateImage.
type ImageStore interface {
	InsertImage(galleryID int64, blob string, hash string, at time.Time) (int64, error)
	HasImageHash(galleryID int64, hash string) (bool, error)
	ListImages(galleryID int64) ([]Image, error)
	ListUserImages(owner string) ([]Image, error)
	DeleteImage(owner string, galleryID int64, imageID int64) (blob string, err error)
}

// BlobStore holds uploaded image bytes under generated names.
type BlobStore interface {
	Put(r io.Reader, ext string) (name string, err error)
	Open(name string) (io.ReadSeekCloser, error)
	Delete(name string) error
}
