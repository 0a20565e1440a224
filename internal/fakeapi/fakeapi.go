// Package fakeapi is an in-process stand-in for the admin REST API used by tests.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorded is one request as the fake server saw it.
type Recorded struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	ContentType   string
	Body          []byte
}

type Profile struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
	Roles     []string `json:"roles,omitempty"`
	IsActive  bool     `json:"is_active"`
}

type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Price         float64  `json:"price"`
	Discount      float64  `json:"discount"`
	Quantity      int      `json:"quantity"`
	Sold          int      `json:"sold"`
	IsFeatured    bool     `json:"is_featured"`
	ImageURL      string   `json:"image_url,omitempty"`
	CategoryIDs   []string `json:"category_ids,omitempty"`
	CategoryNames []string `json:"category_names,omitempty"`
}

type Category struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	ParentID      *string    `json:"parent_id"`
	SubCategories []Category `json:"sub_categories,omitempty"`
}

type account struct {
	password string
	profile  Profile
}

// Server is a fake admin API mounted under /api.
type Server struct {
	*httptest.Server

	lock          sync.Mutex
	accounts      map[string]account
	access        map[string]string // access token -> email
	refresh       map[string]string // refresh token -> email
	products      []Product
	categories    []Category
	users         []Profile
	orders        []json.RawMessage
	uploads       map[string]string // product id -> file name
	requests      []Recorded
	refreshDelay  time.Duration
	refreshStatus int
}

func New() *Server {
	s := &Server{
		accounts: make(map[string]account),
		access:   make(map[string]string),
		refresh:  make(map[string]string),
		uploads:  make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/me", s.authed(s.me))
	mux.HandleFunc("POST /api/auth/refresh-token", s.refreshToken)

	mux.HandleFunc("GET /api/products", s.authed(s.listProducts))
	mux.HandleFunc("POST /api/products", s.authed(s.createProduct))
	mux.HandleFunc("POST /api/products/create-by-category-names", s.authed(s.createProduct))
	mux.HandleFunc("POST /api/products/upload-media", s.authed(s.uploadMedia))
	mux.HandleFunc("DELETE /api/products/delete-multiple", s.authed(s.deleteProducts))
	mux.HandleFunc("GET /api/products/category/{id}", s.authed(s.listProductsByCategory))
	mux.HandleFunc("GET /api/products/{id}", s.authed(s.getProduct))
	mux.HandleFunc("PUT /api/products/{id}", s.authed(s.updateProduct))
	mux.HandleFunc("DELETE /api/products/{id}", s.authed(s.deleteProduct))

	mux.HandleFunc("GET /api/category", s.authed(s.listCategories))
	mux.HandleFunc("POST /api/category", s.authed(s.createCategory))
	mux.HandleFunc("PUT /api/category/{id}", s.authed(s.updateCategory))
	mux.HandleFunc("DELETE /api/category/{id}", s.authed(s.deleteCategory))

	mux.HandleFunc("GET /api/user", s.authed(s.listUsers))
	mux.HandleFunc("GET /api/user/users", s.authed(s.listUsersWithRole))

	mux.HandleFunc("POST /api/orders", s.authed(s.createOrder))

	s.Server = httptest.NewServer(s.record(mux))
	return s
}

// BaseURL is the API root to hand to apiclient.New.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// AddAccount registers credentials accepted by /auth/login.
func (s *Server) AddAccount(email, password string, profile Profile) {
	s.lock.Lock()
	defer s.lock.Unlock()
	profile.Email = email
	s.accounts[email] = account{password: password, profile: profile}
}

// Issue creates a valid token pair for email without going through /auth/login.
func (s *Server) Issue(email string) (access, refresh string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.issue(email)
}

// ExpireAccess makes an access token fail with 401 from now on.
func (s *Server) ExpireAccess(access string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.access, access)
}

// RevokeRefresh makes a refresh token fail with 401 from now on.
func (s *Server) RevokeRefresh(refresh string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.refresh, refresh)
}

// SetRefreshDelay slows down /auth/refresh-token so concurrent callers overlap.
func (s *Server) SetRefreshDelay(d time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.refreshDelay = d
}

// SetRefreshStatus forces the status of a successful refresh (default 201).
func (s *Server) SetRefreshStatus(status int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.refreshStatus = status
}

func (s *Server) SetProducts(products []Product) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.products = append([]Product(nil), products...)
}

func (s *Server) Products() []Product {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Product(nil), s.products...)
}

func (s *Server) SetCategories(tree []Category) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.categories = tree
}

func (s *Server) SetUsers(users []Profile) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.users = users
}

// Orders returns the raw order bodies received.
func (s *Server) Orders() []json.RawMessage {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]json.RawMessage(nil), s.orders...)
}

// Upload returns the file name uploaded for productID.
func (s *Server) Upload(productID string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.uploads[productID]
}

// Requests returns every request received so far.
func (s *Server) Requests() []Recorded {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// Count returns how many requests hit method and path (path without /api prefix).
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == "/api"+path {
			n++
		}
	}
	return n
}

func (s *Server) issue(email string) (string, string) {
	access := "access-" + uuid.NewString()
	refresh := "refresh-" + uuid.NewString()
	s.access[access] = email
	s.refresh[refresh] = email
	return access, refresh
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.lock.Lock()
		s.requests = append(s.requests, Recorded{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body,
		})
		s.lock.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authed(next func(w http.ResponseWriter, r *http.Request, email string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.lock.Lock()
		email, valid := s.access[bearer]
		s.lock.Unlock()
		if !ok || !valid {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r, email)
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status_code": status,
		"message":     http.StatusText(status),
		"data":        data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status_code": status,
		"message":     message,
	})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}
