// Package testutil provides test environment setup and utilities for internal package tests.
package testutil

import (
	"bytes"
	"net/http"
	"sync"
	"testing"
	"time"

	"git.sr.ht/~jakintosh/gallery/internal/api"
	"git.sr.ht/~jakintosh/gallery/internal/blobs"
	"git.sr.ht/~jakintosh/gallery/internal/database"
	"git.sr.ht/~jakintosh/gallery/internal/resources"
	"git.sr.ht/~jakintosh/gallery/internal/service"
	"git.sr.ht/~jakintosh/gallery/pkg/identity"
	"git.sr.ht/~jakintosh/gallery/pkg/identity/identitytest"
)

const (
	TestIssuer   = "https://issuer.gallery.test"
	TestAudience = "gallery"
)

// Epoch is the fixed time the test service clock reports.
var Epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// TestEnv provides all dependencies needed for testing
type TestEnv struct {
	DB      *database.SQLiteStore
	Blobs   *blobs.Store
	Service *service.Service
	Issuer  *identitytest.Issuer
	Router  http.Handler
}

// SetupTestEnv creates an isolated test environment with in-memory SQLite
// and a temporary blob directory
func SetupTestEnv(
	t *testing.T,
) *TestEnv {
	t.Helper()

	// create in-memory SQLite database
	db := database.NewSQLiteStore(":memory:")
	t.Cleanup(func() {
		_ = db.Close()
	})

	store, err := blobs.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}

	// create service with a clock that ticks forward on every read, so
	// ordering by creation time is deterministic
	svc := service.New(
		db.UserStore(),
		db.GalleryStore(),
		db.ImageStore(),
		store,
		service.WithClock(newTickingClock(Epoch)),
	)

	return &TestEnv{
		DB:      db,
		Blobs:   store,
		Service: svc,
		Issuer:  identitytest.NewIssuer(TestIssuer, TestAudience),
	}
}

// SetupTestEnvWithRouter creates TestEnv and configures the API router
func SetupTestEnvWithRouter(
	t *testing.T,
) *TestEnv {
	t.Helper()
	env := SetupTestEnv(t)

	templates, err := resources.NewEmbedded()
	if err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}

	a := api.New(env.Service, templates, env.Issuer.Verifier())
	env.Router = a.Router()
	return env
}

// TokenCookie returns a Cookie header carrying a valid token for uid, with
// email "<uid>@example.com".
func (env *TestEnv) TokenCookie(
	t *testing.T,
	uid string,
) Header {
	t.Helper()
	token, err := env.Issuer.IssueToken(uid, uid+"@example.com", uid, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue test token: %v", err)
	}
	return Cookie(identity.CookieName, token)
}

// CreateUser records uid as a known user.
func (env *TestEnv) CreateUser(
	t *testing.T,
	uid string,
) {
	t.Helper()
	claims := &identity.Claims{UserID: uid, Email: uid + "@example.com", Name: uid}
	if err := env.Service.EnsureUser(claims); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
}

// CreateGallery creates a gallery for owner, creating the owner if needed.
func (env *TestEnv) CreateGallery(
	t *testing.T,
	owner string,
	title string,
) *service.Gallery {
	t.Helper()
	env.CreateUser(t, owner)
	gallery, err := env.Service.CreateGallery(owner, title, title+" description")
	if err != nil {
		t.Fatalf("failed to create test gallery: %v", err)
	}
	return gallery
}

// AddImage uploads data to a gallery as filename.
func (env *TestEnv) AddImage(
	t *testing.T,
	owner string,
	galleryID int64,
	filename string,
	data []byte,
) *service.Image {
	t.Helper()
	image, err := env.Service.AddImage(owner, galleryID, filename, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to add test image: %v", err)
	}
	return image
}

func newTickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}
