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

type articleResponse struct {
	ID        string    `json:"id"`
	BlogID    string    `json:"blog_id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Body      string    `json:"body"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toArticleResponse(a store.Article) articleResponse {
	return articleResponse{
		ID:        a.ID.String(),
		BlogID:    a.BlogID.String(),
		Title:     a.Title,
		Slug:      a.Slug,
		Body:      a.Body,
		Published: a.Published,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type articleRequest struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

// ─── GET /api/stores/:storeID/blogs/:blogID/articles ─────────────────────────

func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	blogID, err := uuid.Parse(chi.URLParam(r, "blogID"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	articles, err := s.q.ListArticlesByBlog(r.Context(), blogID)
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("list articles: %w", err))
		return
	}

	out := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, toArticleResponse(a))
	}
	respond(w, http.StatusOK, out)
}

// ─── GET /api/stores/:storeID/articles/:articleID ────────────────────────────

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "articleID"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid article id")
		return
	}

	article, err := s.q.GetArticle(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondErr(w, http.StatusNotFound, "article not found")
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("get article: %w", err))
		return
	}

	respond(w, http.StatusOK, toArticleResponse(article))
}

// ─── POST /api/stores/:storeID/blogs/:blogID/articles ────────────────────────

func (s *Server) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	blogID, err := uuid.Parse(chi.URLParam(r, "blogID"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid blog id")
		return
	}

	// The blog must belong to the authenticated store.
	blog, err := s.q.GetBlog(r.Context(), blogID)
	if err != nil || blog.StoreID != chi.URLParam(r, "storeID") {
		respondErr(w, http.StatusNotFound, "blog not found")
		return
	}

	var req articleRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Title == "" || req.Slug == "" {
		respondErr(w, http.StatusBadRequest, "title and slug are required")
		return
	}

	article, err := s.q.CreateArticle(r.Context(), store.CreateArticleParams{
		BlogID:    blogID,
		Title:     req.Title,
		Slug:      req.Slug,
		Body:      req.Body,
		Published: req.Published,
	})
	if err != nil {
		s.respondInternalErr(w, r, fmt.Errorf("create article: %w", err))
		return
	}

	respond(w, http.StatusCreated, toArticleResponse(article))
}

// ─── PUT /api/stores/:storeID/articles/:articleID ────────────────────────────

func (s *Server) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "articleID"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid article id")
		return
	}

	var req articleRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Title == "" || req.Slug == "" {
		respondErr(w, http.StatusBadRequest, "title and slug are required")
		return
	}

	article, err := s.q.UpdateArticle(r.Context(), store.UpdateArticleParams{
		ID:        id,
		Title:     req.Title,
		Slug:      req.Slug,
		Body:      req.Body,
		Published: req.Published,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondErr(w, http.StatusNotFound, "article not found")
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("update article: %w", err))
		return
	}

	respond(w, http.StatusOK, toArticleResponse(article))
}

// ─── DELETE /api/stores/:storeID/articles/:articleID ─────────────────────────

func (s *Server) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "articleID"))
	if err != nil {
		respondErr(w, http.StatusBadRequest, "invalid article id")
		return
	}

	if err := s.q.DeleteArticle(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondErr(w, http.StatusNotFound, "article not found")
			return
		}
		s.respondInternalErr(w, r, fmt.Errorf("delete article: %w", err))
		return
	}

	respond(w, http.StatusNoContent, nil)
}
