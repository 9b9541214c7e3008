// Command gallery-client signs in to the gallery the way the browser page
// does: the auth-state bridge runs over an in-memory page whose cookies back
// the HTTP client, and the galleries are listed once the token cookie is set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"git.sr.ht/~jakintosh/gallery/internal/config"
	"git.sr.ht/~jakintosh/gallery/pkg/bridge"
	"git.sr.ht/~jakintosh/gallery/pkg/client"
	"git.sr.ht/~jakintosh/gallery/pkg/oidcauth"
	"git.sr.ht/~jakintosh/gallery/pkg/page"
	"github.com/thejerf/suture/v4"
)

var (
	email    = flag.String("email", "", "account email (default $GALLERY_EMAIL)")
	password = flag.String("password", "", "account password (default $GALLERY_PASSWORD)")
	signOut  = flag.Bool("signout", false, "sign out after listing galleries")
	quiet    = flag.Bool("quiet", false, "silence logging")
	verbose  = flag.Bool("v", false, "debug logging")
)

func main() {
	flag.Parse()
	switch {
	case *quiet:
		log.SetOutput(io.Discard)
	case *verbose:
		bridge.SetLogLevel(bridge.LogLevelDebug)
		oidcauth.SetLogLevel(oidcauth.LogLevelDebug)
		client.SetLogLevel(client.LogLevelDebug)
	}

	cfg, err := config.LoadClient()
	if err != nil {
		config.Exitf("gallery-client: %v", err)
	}
	if *email != "" {
		cfg.Email = *email
	}
	if *password != "" {
		cfg.Password = *password
	}
	if cfg.Email == "" || cfg.Password == "" {
		config.Exitf("gallery-client: email and password are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		config.Exitf("gallery-client: %v", err)
	}
}

func run(ctx context.Context, cfg config.Client) error {
	provider, err := oidcauth.New(ctx, oidcauth.Config{
		IssuerURL:    cfg.IssuerURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Credentials:  once(cfg.Email, cfg.Password),
	})
	if err != nil {
		return err
	}

	layout := bridge.DefaultLayout()
	doc := page.New(layout.SignOutID, layout.ContentID, layout.WidgetContainerID)
	defer doc.Close()
	doc.OnNavigate(func(path string) { log.Printf("navigated to %s\n", path) })
	doc.OnAlert(func(message string) { fmt.Fprintln(os.Stderr, message) })

	b := bridge.New(provider, doc, bridge.WithSignOutTimeout(cfg.SignOutTimeout))

	ctx, cancel := context.WithCancel(ctx)
	supervisor := suture.NewSimple("gallery-client")
	supervisor.Add(b)
	done := supervisor.ServeBackground(ctx)
	defer func() {
		cancel()
		<-done
	}()

	signInCtx, cancelSignIn := context.WithTimeout(ctx, cfg.SignInTimeout)
	defer cancelSignIn()
	if _, err := b.Await(signInCtx, func(s bridge.State) bool { return s.Cookie != "" }); err != nil {
		return fmt.Errorf("never signed in: %w", err)
	}

	c := client.New(cfg.BaseURL, &http.Client{Jar: doc})
	response, err := c.ListGalleries(ctx)
	if err != nil {
		return err
	}
	printGalleries(os.Stdout, response.User, response.Galleries)

	if !*signOut {
		return nil
	}
	if err := doc.Click(layout.SignOutID); err != nil {
		return err
	}
	_, err = b.Await(ctx, func(s bridge.State) bool {
		return s.Status == bridge.StatusSignedOut && !s.SigningOut
	})
	if err != nil {
		return fmt.Errorf("never signed out: %w", err)
	}

	// the cleared cookie no longer authorizes
	if _, err := c.ListGalleries(ctx); !errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("still authorized after sign-out: %v", err)
	}
	fmt.Println("signed out")
	return nil
}

// once hands out the credentials to the first sign-in widget only. Widgets
// mounted after a sign-out wait like an untouched form.
func once(email, password string) oidcauth.Credentials {
	var mu sync.Mutex
	used := false
	return func(ctx context.Context) (string, string, error) {
		mu.Lock()
		first := !used
		used = true
		mu.Unlock()

		if !first {
			<-ctx.Done()
			return "", "", ctx.Err()
		}
		return email, password, nil
	}
}
