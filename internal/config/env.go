// Package config loads command configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server configures cmd/gallery. An empty TemplateDir serves the embedded
// templates.
type Server struct {
	Addr            string        `env:"GALLERY_ADDR"             envDefault:":8080"`
	DBPath          string        `env:"GALLERY_DB_PATH"          envDefault:"gallery.db"`
	BlobDir         string        `env:"GALLERY_BLOB_DIR"         envDefault:"blobs"`
	TemplateDir     string        `env:"GALLERY_TEMPLATE_DIR"`
	IssuerURL       string        `env:"GALLERY_OIDC_ISSUER,required,notEmpty"`
	ClientID        string        `env:"GALLERY_OIDC_CLIENT_ID,required,notEmpty"`
	ShutdownTimeout time.Duration `env:"GALLERY_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Client configures cmd/gallery-client. Credentials may also come from
// flags.
type Client struct {
	BaseURL        string        `env:"GALLERY_URL"                envDefault:"http://localhost:8080"`
	IssuerURL      string        `env:"GALLERY_OIDC_ISSUER,required,notEmpty"`
	ClientID       string        `env:"GALLERY_OIDC_CLIENT_ID,required,notEmpty"`
	ClientSecret   string        `env:"GALLERY_OIDC_CLIENT_SECRET"`
	Email          string        `env:"GALLERY_EMAIL"`
	Password       string        `env:"GALLERY_PASSWORD"`
	SignInTimeout  time.Duration `env:"GALLERY_SIGNIN_TIMEOUT"     envDefault:"30s"`
	SignOutTimeout time.Duration `env:"GALLERY_SIGNOUT_TIMEOUT"    envDefault:"5s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func LoadServer() (Server, error) {
	var cfg Server
	err := ParseEnv(&cfg)
	return cfg, err
}

func LoadClient() (Client, error) {
	var cfg Client
	err := ParseEnv(&cfg)
	return cfg, err
}
