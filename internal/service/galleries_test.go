package service_test

import (
	"errors"
	"testing"

	"git.sr.ht/~jakintosh/gallery/internal/service"
	"git.sr.ht/~jakintosh/gallery/internal/testutil"
	"github.com/go-test/deep"
)

func TestCreateGallery_Success(t *testing.T) {
	t.Parallel()
	env := testutil.SetupTestEnv(t)
	env.CreateUser(t, "ann")

	gallery, err := env.Service.CreateGallery("ann", "  Holiday  ", "beach pics")
	if err != nil {
		t.Fatalf("CreateGallery failed: %v", err)
	}

	// title is trimmed, both timestamps match
	if gallery.Title != "Holiday" {
		t.Errorf("expected trimmed title, got %q", gallery.Title)
	}
	if !gallery.CreatedAt.Equal(gallery.UpdatedAt) {
		t.Errorf("expected equal timestamps, got %v and %v", gallery.CreatedAt, gallery.UpdatedAt)
	}

	detail, err := env.Service.GetGallery("ann", gallery.ID)
	if err != nil {
		t.Fatalf("GetGallery failed: %v", err)
	}
	if diff := deep.Equal(detail.Gallery, *gallery); diff != nil {
		t.Error(diff)
	}
	if len(detail.Images) != 0 {
		t.Errorf("expected no images, got %d", len(detail.Images))
	}
}

func TestCreateGallery_TitleRequired(t *testing.T) {
	t.Parallel()
	env := testutil.SetupTestEnv(t)
	env.CreateUser(t, "ann")

	_, err := env.Service.CreateGallery("ann", "   ", "no title")
	if !errors.Is(err, service.ErrInvalidGallery) {
		t.Errorf("expected ErrInvalidGallery, got %v", err)
	}
}

func TestListGalleries_NewestFirstWithCover(t *testing.T) {
	t.Parallel()
	env := testutil.SetupTestEnv(t)

	first := env.CreateGallery(t, "ann", "First")
	second := env.CreateGallery(t, "ann", "Second")
	cover := env.AddImage(t, "ann", first.ID, "a.png", []byte("image a"))
	env.AddImage(t, "ann", first.ID, "b.png", []byte("image b"))

	galleries, err := env.Service.ListGalleries("ann")
	if err != nil {
		t.Fatalf("ListGalleries failed: %v", err)
	}

	var titles, covers []string
	for _, g := range galleries {
		titles = append(titles, g.Title)
		covers = append(covers, g.CoverURL())
	}
	if diff := deep.Equal(titles, []string{second.Title, first.Title}); diff != nil {
		t.Errorf("unexpected order: %v", diff)
	}

	// the oldest image is the cover, an empty gallery has none
	if diff := deep.Equal(covers, []string{"", cover.URL()}); diff != nil {
		t.Errorf("unexpected covers: %v", diff)
	}
}

func TestGetGallery_OtherOwner(t *testing.T) {
	t.Parallel()
	env := testutil.SetupTestEnv(t)

	gallery := env.CreateGallery(t, "ann", "Private")
	env.CreateUser(t, "bob")

	_, err := env.Service.GetGallery("bob", gallery.ID)
	if !errors.Is(err, service.ErrGalleryNotFound) {
		t.Errorf("expected ErrGalleryNotFound, got %v", err)
	}
}

func TestUpdateGallery(t *testing.T) {
	t.Parallel()
	env := testutil.SetupTestEnv(t)
	gallery := env.CreateGallery(t, "ann", "Holiday")

	if err := env.Service.UpdateGallery("ann", gallery.ID, "Trip", "mountains"); err != nil {
		t.Fatalf("UpdateGallery failed: %v", err)
	}

	detail, _ := env.Service.GetGallery("ann", gallery.ID)
	if detail.Title != "Trip" || detail.Description != "mountains" {
		t.Errorf("gallery not updated: %+v", detail.Gallery)
	}
	if !detail.UpdatedAt.After(detail.CreatedAt) {
		t.Errorf("expected updated_at to advance, got %v", detail.UpdatedAt)
	}
}

func TestUpdateGallery_Errors(t *testing.T) {
	t.Parallel()
	env := testutil.SetupTestEnv(t)
	gallery := env.CreateGallery(t, "ann", "Holiday")
	env.CreateUser(t, "bob")

	cases := []struct {
		name  string
		owner string
		id    int64
		title string
		want  error
	}{
		{"blank title", "ann", gallery.ID, "", service.ErrInvalidGallery},
		{"other owner", "bob", gallery.ID, "Mine now", service.ErrGalleryNotFound},
		{"unknown gallery", "ann", gallery.ID + 100, "Nope", service.ErrGalleryNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := env.Service.UpdateGallery(tc.owner, tc.id, tc.title, "")
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestDeleteGallery_RemovesImagesAndBlobs(t *testing.T) {
	t.Parallel()
	env := testutil.SetupTestEnv(t)
	gallery := env.CreateGallery(t, "ann", "Holiday")
	image := env.AddImage(t, "ann", gallery.ID, "a.jpg", []byte("image a"))

	if err := env.Service.DeleteGallery("ann", gallery.ID); err != nil {
		t.Fatalf("DeleteGallery failed: %v", err)
	}

	if _, err := env.Service.GetGallery("ann", gallery.ID); !errors.Is(err, service.ErrGalleryNotFound) {
		t.Errorf("expected ErrGalleryNotFound, got %v", err)
	}
	if _, err := env.Service.OpenBlob(image.Blob); !errors.Is(err, service.ErrBlobNotFound) {
		t.Errorf("expected blob to be deleted, got %v", err)
	}
}

func TestDeleteGallery_OtherOwner(t *testing.T) {
	t.Parallel()
	env := testutil.SetupTestEnv(t)
	gallery := env.CreateGallery(t, "ann", "Holiday")
	env.CreateUser(t, "bob")

	err := env.Service.DeleteGallery("bob", gallery.ID)
	if !errors.Is(err, service.ErrGalleryNotFound) {
		t.Errorf("expected ErrGalleryNotFound, got %v", err)
	}
	if _, err := env.Service.GetGallery("ann", gallery.ID); err != nil {
		t.Errorf("gallery should survive: %v", err)
	}
}
