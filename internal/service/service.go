// Package service implements the gallery's business logic: users, galleries,
// image uploads with duplicate detection, and the duplicates view. Every
// operation is scoped to the owning user.
package service

import (
	"errors"
	"time"
)

var (
	ErrGalleryNotFound = errors.New("gallery not found")
	ErrImageNotFound   = errors.New("image not found")
	ErrBlobNotFound    = errors.New("blob not found")
	ErrDuplicateImage  = errors.New("duplicate image")
	ErrFileType        = errors.New("file type not allowed")
	ErrImageTooLarge   = errors.New("image too large")
	ErrInvalidGallery  = errors.New("invalid gallery")
	ErrInternal        = errors.New("internal error")
)

// Service coordinates the stores. It depends on storage interfaces and
// delegates to them for persistence.
type Service struct {
	users     UserStore
	galleries GalleryStore
	images    ImageStore
	blobs     BlobStore
	now       func() time.Time
}

type Option func(*Service)

// WithClock replaces the clock used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(
	users UserStore,
	galleries GalleryStore,
	images ImageStore,
	blobs BlobStore,
	opts ...Option,
) *Service {
	s := &Service{
		users:     users,
		galleries: galleries,
		images:    images,
		blobs:     blobs,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
