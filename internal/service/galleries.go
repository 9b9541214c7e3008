package service

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

func (s *Service) CreateGallery(
	owner string,
	title string,
	description string,
) (
	*Gallery,
	error,
) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title required", ErrInvalidGallery)
	}

	now := s.now()
	id, err := s.galleries.InsertGallery(owner, title, description, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	return &Gallery{
		ID:          id,
		Owner:       owner,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ListGalleries returns the owner's galleries, newest first.
func (s *Service) ListGalleries(owner string) ([]GallerySummary, error) {
	galleries, err := s.galleries.ListGalleries(owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return galleries, nil
}

func (s *Service) GetGallery(
	owner string,
	id int64,
) (
	*GalleryDetail,
	error,
) {
	gallery, err := s.getGallery(owner, id)
	if err != nil {
		return nil, err
	}

	images, err := s.images.ListImages(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	return &GalleryDetail{Gallery: *gallery, Images: images}, nil
}

func (s *Service) UpdateGallery(
	owner string,
	id int64,
	title string,
	description string,
) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title required", ErrInvalidGallery)
	}

	err := s.galleries.UpdateGallery(owner, id, title, description, s.now())
	return storeError(err)
}

// DeleteGallery removes the gallery, its images and their blobs.
func (s *Service) DeleteGallery(
	owner string,
	id int64,
) error {
	blobs, err := s.galleries.DeleteGallery(owner, id)
	if err != nil {
		return storeError(err)
	}

	for _, blob := range blobs {
		s.deleteBlob(blob)
	}
	return nil
}

func (s *Service) getGallery(
	owner string,
	id int64,
) (
	*Gallery,
	error,
) {
	gallery, err := s.galleries.GetGallery(owner, id)
	if err != nil {
		return nil, storeError(err)
	}
	return gallery, nil
}

func (s *Service) deleteBlob(name string) {
	if err := s.blobs.Delete(name); err != nil {
		log.Printf("couldn't delete blob '%s': %v\n", name, err)
	}
}

// storeError passes domain sentinels through and wraps anything else as
// ErrInternal.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrGalleryNotFound),
		errors.Is(err, ErrImageNotFound),
		errors.Is(err, ErrDuplicateImage):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}
