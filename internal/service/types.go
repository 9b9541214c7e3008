package service

import "time"

// BlobPath is the URL prefix blobs are served under.
const BlobPath = "/blobs/"

// BlobURL returns the public URL for a stored blob.
func BlobURL(name string) string {
	return BlobPath + name
}

type User struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

type Gallery struct {
	ID          int64
	Owner       string
	Title       string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GallerySummary is a gallery with the blob of its first (oldest) image, if
// any.
type GallerySummary struct {
	Gallery
	Cover string
}

func (g GallerySummary) CoverURL() string {
	if g.Cover == "" {
		return ""
	}
	return BlobURL(g.Cover)
}

// GalleryDetail is a gallery with all of its images, oldest first.
type GalleryDetail struct {
	Gallery
	Images []Image
}

type Image struct {
	ID        int64
	GalleryID int64
	Blob      string
	Hash      string
	CreatedAt time.Time
}

func (i Image) URL() string {
	return BlobURL(i.Blob)
}

// DuplicateGroup is a set of a user's images sharing one content hash.
type DuplicateGroup struct {
	Hash   string
	Images []Image
}
