package identitytest

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Account is a user known to the test provider.
type Account struct {
	UID      string
	Email    string
	Name     string
	Password string
}

// Server is an in-process OpenID provider with discovery, a JWKS endpoint,
// a token endpoint supporting the password and refresh_token grants, and an
// RFC 7009 revocation endpoint.
type Server struct {
	*Issuer

	srv *httptest.Server

	mu       sync.Mutex
	lifetime time.Duration
	delay    time.Duration
	accounts map[string]Account
	refresh  map[string]string
	revoked  []string
	grants   map[string]int
}

// NewServer starts a provider issuing ID tokens for audience. Call Close
// when done.
func NewServer(audience string) *Server {
	s := &Server{
		lifetime: time.Hour,
		accounts: make(map[string]Account),
		refresh:  make(map[string]string),
		grants:   make(map[string]int),
	}

	r := mux.NewRouter()
	r.HandleFunc("/.well-known/openid-configuration", s.handleDiscovery).Methods("GET")
	r.HandleFunc("/keys", s.handleKeys).Methods("GET")
	r.HandleFunc("/token", s.handleToken).Methods("POST")
	r.HandleFunc("/revoke", s.handleRevoke).Methods("POST")

	s.srv = httptest.NewServer(r)
	s.Issuer = NewIssuer(s.srv.URL, audience)
	return s
}

func (s *Server) Close() {
	s.srv.Close()
}

// AddAccount registers an account that can sign in with the password grant.
func (s *Server) AddAccount(account Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account.Email] = account
}

// SetTokenLifetime changes how long issued tokens are valid. The default is
// one hour.
func (s *Server) SetTokenLifetime(lifetime time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lifetime = lifetime
}

// SetTokenDelay makes the token endpoint wait before answering, or until the
// client gives up.
func (s *Server) SetTokenDelay(delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = delay
}

// Revoked returns every token passed to the revocation endpoint.
func (s *Server) Revoked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.revoked...)
}

// Grants returns how many tokens were issued for grantType.
func (s *Server) Grants(grantType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grants[grantType]
}

type discoveryResponse struct {
	Issuer            string   `json:"issuer"`
	AuthURL           string   `json:"authorization_endpoint"`
	TokenURL          string   `json:"token_endpoint"`
	JWKSURL           string   `json:"jwks_uri"`
	RevocationURL     string   `json:"revocation_endpoint"`
	GrantTypes        []string `json:"grant_types_supported"`
	SigningAlgorithms []string `json:"id_token_signing_alg_values_supported"`
	SubjectTypes      []string `json:"subject_types_supported"`
	ResponseTypes     []string `json:"response_types_supported"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, discoveryResponse{
		Issuer:            s.URL,
		AuthURL:           s.URL + "/authorize",
		TokenURL:          s.URL + "/token",
		JWKSURL:           s.URL + "/keys",
		RevocationURL:     s.URL + "/revoke",
		GrantTypes:        []string{"password", "refresh_token"},
		SigningAlgorithms: []string{"ES256"},
		SubjectTypes:      []string{"public"},
		ResponseTypes:     []string{"id_token"},
	})
}

type jwk struct {
	KeyType   string `json:"kty"`
	Curve     string `json:"crv"`
	X         string `json:"x"`
	Y         string `json:"y"`
	KeyID     string `json:"kid"`
	Algorithm string `json:"alg"`
	Use       string `json:"use"`
}

func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	pub := s.Key.PublicKey
	x := pub.X.FillBytes(make([]byte, 32))
	y := pub.Y.FillBytes(make([]byte, 32))

	writeJSON(w, http.StatusOK, map[string][]jwk{
		"keys": {{
			KeyType:   "EC",
			Curve:     "P-256",
			X:         base64.RawURLEncoding.EncodeToString(x),
			Y:         base64.RawURLEncoding.EncodeToString(y),
			KeyID:     KeyID,
			Algorithm: "ES256",
			Use:       "sig",
		}},
	})
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, "invalid_request")
		return
	}

	grantType := r.PostForm.Get("grant_type")
	var account Account
	var ok bool

	s.mu.Lock()
	switch grantType {
	case "password":
		account, ok = s.accounts[r.PostForm.Get("username")]
		ok = ok && account.Password == r.PostForm.Get("password")
	case "refresh_token":
		var email string
		email, ok = s.refresh[r.PostForm.Get("refresh_token")]
		account = s.accounts[email]
	default:
		s.mu.Unlock()
		writeOAuthError(w, "unsupported_grant_type")
		return
	}
	lifetime, delay := s.lifetime, s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if !ok {
		writeOAuthError(w, "invalid_grant")
		return
	}

	idToken, err := s.IssueToken(account.UID, account.Email, account.Name, lifetime)
	if err != nil {
		writeOAuthError(w, "server_error")
		return
	}

	refreshToken := uuid.NewString()
	s.mu.Lock()
	s.refresh[refreshToken] = account.Email
	s.grants[grantType]++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  uuid.NewString(),
		TokenType:    "Bearer",
		ExpiresIn:    int(lifetime.Seconds()),
		RefreshToken: refreshToken,
		IDToken:      idToken,
	})
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeOAuthError(w, "invalid_request")
		return
	}
	token := r.PostForm.Get("token")

	s.mu.Lock()
	s.revoked = append(s.revoked, token)
	delete(s.refresh, token)
	s.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func writeOAuthError(w http.ResponseWriter, code string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
