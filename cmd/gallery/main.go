package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"git.sr.ht/~jakintosh/gallery/internal/api"
	"git.sr.ht/~jakintosh/gallery/internal/blobs"
	"git.sr.ht/~jakintosh/gallery/internal/config"
	"git.sr.ht/~jakintosh/gallery/internal/database"
	"git.sr.ht/~jakintosh/gallery/internal/resources"
	"git.sr.ht/~jakintosh/gallery/internal/server"
	"git.sr.ht/~jakintosh/gallery/internal/service"
	"git.sr.ht/~jakintosh/gallery/pkg/identity"
	"github.com/thejerf/suture/v4"
)

var quiet = flag.Bool("quiet", false, "silence logging")

func main() {
	flag.Parse()
	if *quiet {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.LoadServer()
	if err != nil {
		config.Exitf("gallery: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := database.NewSQLiteStore(cfg.DBPath)
	defer db.Close()

	store, err := blobs.New(cfg.BlobDir)
	if err != nil {
		config.Exitf("gallery: %v", err)
	}

	templates, err := loadTemplates(cfg.TemplateDir)
	if err != nil {
		config.Exitf("gallery: failed to load templates: %v", err)
	}
	defer templates.Close()

	verifier, err := identity.NewOIDCVerifier(ctx, cfg.IssuerURL, cfg.ClientID)
	if err != nil {
		config.Exitf("gallery: %v", err)
	}

	svc := service.New(
		db.UserStore(),
		db.GalleryStore(),
		db.ImageStore(),
		store,
	)
	a := api.New(svc, templates, verifier)

	supervisor := suture.NewSimple("gallery")
	supervisor.Add(server.New(
		cfg.Addr,
		a.Router(),
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
	))

	err = supervisor.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		config.Exitf("gallery: %v", err)
	}
}

func loadTemplates(dir string) (*resources.Templates, error) {
	if dir == "" {
		return resources.NewEmbedded()
	}
	return resources.NewFromDir(dir)
}
