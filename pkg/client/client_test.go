package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"git.sr.ht/~jakintosh/gallery/internal/testutil"
	"git.sr.ht/~jakintosh/gallery/pkg/client"
	"git.sr.ht/~jakintosh/gallery/pkg/identity"
	"git.sr.ht/~jakintosh/gallery/pkg/page"
)

func setupServer(t *testing.T) (*testutil.TestEnv, *httptest.Server) {
	t.Helper()
	env := testutil.SetupTestEnvWithRouter(t)
	srv := httptest.NewServer(env.Router)
	t.Cleanup(srv.Close)
	return env, srv
}

func TestListGalleries_WithPageCookie(t *testing.T) {
	t.Parallel()
	env, srv := setupServer(t)
	env.CreateGallery(t, "ann", "Holiday")

	// the bridge writes the token into the page, which is the client's jar
	token, err := env.Issuer.IssueToken("ann", "ann@example.com", "Ann", time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	doc := page.New()
	doc.SetCookie(identity.CookieName, token)

	c := client.New(srv.URL+"/", &http.Client{Jar: doc})
	response, err := c.ListGalleries(context.Background())
	if err != nil {
		t.Fatalf("ListGalleries failed: %v", err)
	}
	if response.User != "ann" || len(response.Galleries) != 1 || response.Galleries[0].Title != "Holiday" {
		t.Errorf("unexpected response %+v", response)
	}

	// a signed-out page sends a blank token
	doc.SetCookie(identity.CookieName, "")
	if _, err := c.ListGalleries(context.Background()); !errors.Is(err, client.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestListGalleries_NoJar(t *testing.T) {
	t.Parallel()
	_, srv := setupServer(t)

	_, err := client.New(srv.URL, nil).ListGalleries(context.Background())
	if !errors.Is(err, client.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestListGalleries_BadResponse(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/galleries" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := client.New(srv.URL, nil).ListGalleries(context.Background())
	if !errors.Is(err, client.ErrResponse) {
		t.Errorf("expected ErrResponse, got %v", err)
	}
}

func TestListGalleries_ServerDown(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.New(url, nil).ListGalleries(context.Background())
	if !errors.Is(err, client.ErrRequest) {
		t.Errorf("expected ErrRequest, got %v", err)
	}
}
