package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/printloom/storefront-backend/internal/store"
)

type blogResponse struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBlogResponse(b store.Blog) blogResponse {
	return blogResponse{
		ID:        b.ID.String(),
		StoreID:   b.StoreID,
		Title:     b.Title,
		Slug:      b.Slug,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// ─── GET /api/stores/:storeID/blogs ──────────────────────────────────────────

func (s *Server) handleListBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := s.q.ListBlogs(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list blogs: %w", err))
		return
	}

	out := make([]blogResponse, 0, len(blogs))
	for _, b := range blogs {
		out = append(out, toBlogResponse(b))
	}
	respond(w, http.StatusOK, out)
}

// ─── GET /api/stores/:storeID/blogs/:blogID ──────────────────────────────────

func (s *Server) handleGetBlog(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "blogID"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	blog, err := s.q.GetBlog(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondErr(w, http.StatusNotFound, "blog not found")
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("get blog: %w", err))
		return
	}

	// A blog fetched through another store's URL is a 404, not a leak.
	if blog.StoreID != chi.URLParam(r, "storeID") {
		respondErr(w, http.StatusNotFound, "blog not found")
		return
	}

	respond(w, http.StatusOK, toBlogResponse(blog))
}

// ─── POST /api/stores/:storeID/blogs ─────────────────────────────────────────

type blogRequest struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

func (s *Server) handleCreateBlog(w http.ResponseWriter, r *http.Request) {
	var req blogRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Title == "" || req.Slug == "" {
		respondErr(w, http.StatusBadRequest, "title and slug are required")
		return
	}

	blog, err := s.q.CreateBlog(r.Context(), store.CreateBlogParams{
		StoreID: chi.URLParam(r, "storeID"),
		Title:   req.Title,
		Slug:    req.Slug,
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create blog: %w", err))
		return
	}

	respond(w, http.StatusCreated, toBlogResponse(blog))
}

// ─── PUT /api/stores/:storeID/blogs/:blogID ──────────────────────────────────

func (s *Server) handleUpdateBlog(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "blogID"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	var req blogRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Title == "" || req.Slug == "" {
		respondErr(w, http.StatusBadRequest, "title and slug are required")
		return
	}

	blog, err := s.q.UpdateBlog(r.Context(), store.UpdateBlogParams{
		ID:    id,
		Title: req.Title,
		Slug:  req.Slug,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondErr(w, http.StatusNotFound, "blog not found")
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("update blog: %w", err))
		return
	}

	respond(w, http.StatusOK, toBlogResponse(blog))
}

// ─── DELETE /api/stores/:storeID/blogs/:blogID ───────────────────────────────

func (s *Server) handleDeleteBlog(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "blogID"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	if err := s.q.DeleteBlog(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondErr(w, http.StatusNotFound, "blog not found")
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("delete blog: %w", err))
		return
	}

	respond(w, http.StatusNoContent, nil)
}
