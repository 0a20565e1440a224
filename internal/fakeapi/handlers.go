package fakeapi

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.lock.Lock()
	acc, ok := s.accounts[creds.Email]
	if !ok || acc.password != creds.Password {
		s.lock.Unlock()
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	access, refresh := s.issue(creds.Email)
	s.lock.Unlock()

	writeData(w, http.StatusOK, map[string]string{"token": access, "refresh_token": refresh})
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, email string) {
	s.lock.Lock()
	acc, ok := s.accounts[email]
	s.lock.Unlock()
	if !ok {
		writeData(w, http.StatusOK, Profile{ID: email, Email: email})
		return
	}
	writeData(w, http.StatusOK, acc.profile)
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.lock.Lock()
	delay := s.refreshDelay
	s.lock.Unlock()
	time.Sleep(delay)

	s.lock.Lock()
	email, ok := s.refresh[body.Token]
	if !ok {
		s.lock.Unlock()
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(s.refresh, body.Token)
	access, refresh := s.issue(email)
	status := s.refreshStatus
	s.lock.Unlock()

	if status == 0 {
		status = http.StatusCreated
	}
	writeData(w, status, map[string]string{"token": access, "refresh_token": refresh})
}

func pageParams(r *http.Request) (limit, page int, search string) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("Limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	page, err = strconv.Atoi(q.Get("Page"))
	if err != nil || page < 0 {
		page = 0
	}
	return limit, page, q.Get("SearchText")
}

func paginate[T any](items []T, limit, page int) map[string]any {
	start := min(limit*page, len(items))
	end := min(start+limit, len(items))
	return map[string]any{
		"data": items[start:end],
		"meta": map[string]int{"total": len(items)},
	}
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request, _ string) {
	limit, page, search := pageParams(r)

	s.lock.Lock()
	matched := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			matched = append(matched, p)
		}
	}
	s.lock.Unlock()

	writeData(w, http.StatusOK, paginate(matched, limit, page))
}

func (s *Server) listProductsByCategory(w http.ResponseWriter, r *http.Request, _ string) {
	limit, page, _ := pageParams(r)
	categoryID := r.PathValue("id")

	s.lock.Lock()
	matched := make([]Product, 0)
	for _, p := range s.products {
		if slices.Contains(p.CategoryIDs, categoryID) {
			matched = append(matched, p)
		}
	}
	s.lock.Unlock()

	writeData(w, http.StatusOK, paginate(matched, limit, page))
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request, _ string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, p := range s.products {
		if p.ID == r.PathValue("id") {
			writeData(w, http.StatusOK, p)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Product not found")
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request, _ string) {
	var p Product
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	p.ID = uuid.NewString()

	s.lock.Lock()
	s.products = append(s.products, p)
	s.lock.Unlock()

	writeData(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request, _ string) {
	var p Product
	if err := decode(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	for i := range s.products {
		if s.products[i].ID == r.PathValue("id") {
			p.ID = s.products[i].ID
			s.products[i] = p
			writeData(w, http.StatusOK, p)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Product not found")
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request, _ string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	before := len(s.products)
	s.products = slices.DeleteFunc(s.products, func(p Product) bool { return p.ID == r.PathValue("id") })
	if len(s.products) == before {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeData(w, http.StatusOK, nil)
}

func (s *Server) deleteProducts(w http.ResponseWriter, r *http.Request, _ string) {
	var body struct {
		ProductIDs []string `json:"product_ids"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.products = slices.DeleteFunc(s.products, func(p Product) bool { return slices.Contains(body.ProductIDs, p.ID) })
	writeData(w, http.StatusOK, nil)
}

func (s *Server) uploadMedia(w http.ResponseWriter, r *http.Request, _ string) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Expected multipart form")
		return
	}
	productID := r.FormValue("ProductId")
	_, header, err := r.FormFile("File")
	if err != nil || productID == "" {
		writeError(w, http.StatusBadRequest, "File and ProductId are required")
		return
	}

	s.lock.Lock()
	s.uploads[productID] = header.Filename
	s.lock.Unlock()

	writeData(w, http.StatusOK, map[string]string{"image_url": productID + "/" + header.Filename})
}

func (s *Server) listCategories(w http.ResponseWriter, _ *http.Request, _ string) {
	s.lock.Lock()
	tree := s.categories
	s.lock.Unlock()
	if tree == nil {
		tree = []Category{}
	}
	writeData(w, http.StatusOK, tree)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request, _ string) {
	var c Category
	if err := decode(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c.ID = uuid.NewString()

	s.lock.Lock()
	s.categories = append(s.categories, c)
	s.lock.Unlock()

	writeData(w, http.StatusCreated, c)
}

func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request, _ string) {
	var c Category
	if err := decode(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == r.PathValue("id") {
			s.categories[i].Name = c.Name
			s.categories[i].ParentID = c.ParentID
			writeData(w, http.StatusOK, s.categories[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "Category not found")
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request, _ string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	before := len(s.categories)
	s.categories = slices.DeleteFunc(s.categories, func(c Category) bool { return c.ID == r.PathValue("id") })
	if len(s.categories) == before {
		writeError(w, http.StatusNotFound, "Category not found")
		return
	}
	writeData(w, http.StatusOK, nil)
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request, _ string) {
	limit, page, search := pageParams(r)

	s.lock.Lock()
	matched := make([]Profile, 0, len(s.users))
	for _, u := range s.users {
		if search == "" || strings.Contains(u.Email, search) || strings.Contains(u.FirstName, search) {
			matched = append(matched, u)
		}
	}
	s.lock.Unlock()

	writeData(w, http.StatusOK, paginate(matched, limit, page))
}

func (s *Server) listUsersWithRole(w http.ResponseWriter, _ *http.Request, _ string) {
	s.lock.Lock()
	matched := make([]Profile, 0, len(s.users))
	for _, u := range s.users {
		if slices.Contains(u.Roles, "user") {
			matched = append(matched, u)
		}
	}
	s.lock.Unlock()

	writeData(w, http.StatusOK, matched)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request, _ string) {
	var order json.RawMessage
	if err := decode(r, &order); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.lock.Lock()
	s.orders = append(s.orders, order)
	s.lock.Unlock()

	writeData(w, http.StatusCreated, map[string]string{"id": uuid.NewString()})
}
