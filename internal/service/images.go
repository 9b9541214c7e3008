package service

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// AllowedExtensions are the image file extensions accepted for upload.
var AllowedExtensions = []string{"jpg", "jpeg", "png"}

// MaxImageSize bounds a single upload.
const MaxImageSize = 32 << 20

// AllowedFile reports whether filename has an accepted extension, ignoring
// case, and returns the normalized extension.
func AllowedFile(filename string) (string, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || !slices.Contains(AllowedExtensions, ext) {
		return "", false
	}
	return ext, true
}

// HashImage returns the hex BLAKE2b-256 digest of data.
func HashImage(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// AddImage stores an uploaded image in one of the owner's galleries. An
// image whose content already exists in that gallery is rejected with
// ErrDuplicateImage.
func (s *Service) AddImage(
	owner string,
	galleryID int64,
	filename string,
	r io.Reader,
) (
	*Image,
	error,
) {
	ext, ok := AllowedFile(filename)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileType, filename)
	}
	if _, err := s.getGallery(owner, galleryID); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't read upload: %v", ErrInternal, err)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrImageTooLarge, MaxImageSize)
	}

	hash := HashImage(data)
	exists, err := s.images.HasImageHash(galleryID, hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if exists {
		return nil, ErrDuplicateImage
	}

	blob, err := s.blobs.Put(bytes.NewReader(data), ext)
	if err != nil {
		return nil, fmt.Errorf("%w: couldn't store blob: %v", ErrInternal, err)
	}

	now := s.now()
	id, err := s.images.InsertImage(galleryID, blob, hash, now)
	if err != nil {
		s.deleteBlob(blob)
		return nil, storeError(err)
	}

	return &Image{
		ID:        id,
		GalleryID: galleryID,
		Blob:      blob,
		Hash:      hash,
		CreatedAt: now,
	}, nil
}

func (s *Service) DeleteImage(
	owner string,
	galleryID int64,
	imageID int64,
) error {
	blob, err := s.images.DeleteImage(owner, galleryID, imageID)
	if err != nil {
		return storeError(err)
	}
	s.deleteBlob(blob)
	return nil
}

// Duplicates groups the owner's images across all galleries by content hash.
// Only hashes shared by more than one image are returned, ordered by hash;
// images within a group are oldest first.
func (s *Service) Duplicates(owner string) ([]DuplicateGroup, error) {
	images, err := s.images.ListUserImages(owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	var groups []DuplicateGroup
	for i := 0; i < len(images); {
		j := i + 1
		for j < len(images) && images[j].Hash == images[i].Hash {
			j++
		}
		if j-i > 1 {
			groups = append(groups, DuplicateGroup{
				Hash:   images[i].Hash,
				Images: images[i:j:j],
			})
		}
		i = j
	}
	return groups, nil
}

// OpenBlob opens a stored blob for serving.
func (s *Service) OpenBlob(name string) (io.ReadSeekCloser, error) {
	rsc, err := s.blobs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, name)
	}
	return rsc, nil
}
