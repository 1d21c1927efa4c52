package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ─── BLOGS ───────────────────────────────────────────────────────────────────

// Blog is a named article collection belonging to one store.
type Blog struct {
	ID        uuid.UUID
	StoreID   string
	Title     string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateBlogParams struct {
	StoreID string
	Title   string
	Slug    string
}

type UpdateBlogParams struct {
	ID    uuid.UUID
	Title string
	Slug  string
}

const blogColumns = "id, store_id, title, slug, created_at, updated_at"

func scanBlog(row interface{ Scan(...any) error }) (Blog, error) {
	var b Blog
	err := row.Scan(&b.ID, &b.StoreID, &b.Title, &b.Slug, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (s *Store) CreateBlog(ctx context.Context, p CreateBlogParams) (Blog, error) {
	b, err := scanBlog(s.pool.QueryRowContext(ctx, `
		INSERT INTO blogs (id, store_id, title, slug)
		VALUES ($1, $2, $3, $4)
		RETURNING `+blogColumns,
		uuid.New(), p.StoreID, p.Title, p.Slug))
	if err != nil {
		return Blog{}, fmt.Errorf("store: create blog: %w", err)
	}
	return b, nil
}

func (s *Store) GetBlog(ctx context.Context, id uuid.UUID) (Blog, error) {
	b, err := scanBlog(s.pool.QueryRowContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE id = $1`, id))
	if err != nil {
		return Blog{}, notFound(err)
	}
	return b, nil
}

func (s *Store) ListBlogs(ctx context.Context, storeID string) ([]Blog, error) {
	rows, err := s.pool.QueryContext(ctx,
		`SELECT `+blogColumns+` FROM blogs WHERE store_id = $1 ORDER BY created_at`, storeID)
	if err != nil {
		return nil, fmt.Errorf("store: list blogs: %w", err)
	}
	defer rows.Close()

	var blogs []Blog
	for rows.Next() {
		b, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan blog: %w", err)
		}
		blogs = append(blogs, b)
	}
	return blogs, rows.Err()
}

func (s *Store) UpdateBlog(ctx context.Context, p UpdateBlogParams) (Blog, error) {
	b, err := scanBlog(s.pool.QueryRowContext(ctx, `
		UPDATE blogs SET title = $2, slug = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+blogColumns,
		p.ID, p.Title, p.Slug))
	if err != nil {
		return Blog{}, notFound(err)
	}
	return b, nil
}

// DeleteBlog removes a blog; its articles go with it via ON DELETE CASCADE.
func (s *Store) DeleteBlog(ctx context.Context, id uuid.UUID) error {
	res, err := s.pool.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete blog: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── ARTICLES ────────────────────────────────────────────────────────────────

// Article is one post inside a blog.
type Article struct {
	ID        uuid.UUID
	BlogID    uuid.UUID
	Title     string
	Slug      string
	Body      string
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateArticleParams struct {
	BlogID    uuid.UUID
	Title     string
	Slug      string
	Body      string
	Published bool
}

type UpdateArticleParams struct {
	ID        uuid.UUID
	Title     string
	Slug      string
	Body      string
	Published bool
}

const articleColumns = "id, blog_id, title, slug, body, published, created_at, updated_at"

func scanArticle(row interface{ Scan(...any) error }) (Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.BlogID, &a.Title, &a.Slug, &a.Body, &a.Published, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (s *Store) CreateArticle(ctx context.Context, p CreateArticleParams) (Article, error) {
	a, err := scanArticle(s.pool.QueryRowContext(ctx, `
		INSERT INTO articles (id, blog_id, title, slug, body, published)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+articleColumns,
		uuid.New(), p.BlogID, p.Title, p.Slug, p.Body, p.Published))
	if err != nil {
		return Article{}, fmt.Errorf("store: create article: %w", err)
	}
	return a, nil
}

func (s *Store) GetArticle(ctx context.Context, id uuid.UUID) (Article, error) {
	a, err := scanArticle(s.pool.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id))
	if err != nil {
		return Article{}, notFound(err)
	}
	return a, nil
}

func (s *Store) ListArticlesByBlog(ctx context.Context, blogID uuid.UUID) ([]Article, error) {
	rows, err := s.pool.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE blog_id = $1 ORDER BY created_at DESC`, blogID)
	if err != nil {
		return nil, fmt.Errorf("store: list articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (s *Store) UpdateArticle(ctx context.Context, p UpdateArticleParams) (Article, error) {
	a, err := scanArticle(s.pool.QueryRowContext(ctx, `
		UPDATE articles SET title = $2, slug = $3, body = $4, published = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+articleColumns,
		p.ID, p.Title, p.Slug, p.Body, p.Published))
	if err != nil {
		return Article{}, notFound(err)
	}
	return a, nil
}

func (s *Store) DeleteArticle(ctx context.Context, id uuid.UUID) error {
	res, err := s.pool.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("store: delete article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
