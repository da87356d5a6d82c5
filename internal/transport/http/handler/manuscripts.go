package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/review-auth-api/internal/domain"
)

// ArticleGetter looks an article up by id.
type ArticleGetter interface {
	Get(ctx context.Context, articleID string) (*domain.Article, error)
}

// ObjectStore is the storage backend manuscripts are streamed from.
type ObjectStore interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// ManuscriptHandler streams stored manuscript PDFs.
type ManuscriptHandler struct {
	articles ArticleGetter
	objects  ObjectStore
}

func NewManuscriptHandler(articles ArticleGetter, objects ObjectStore) *ManuscriptHandler {
	return &ManuscriptHandler{articles: articles, objects: objects}
}

func (h *ManuscriptHandler) Download(w http.ResponseWriter, r *http.Request) {
	article, err := h.articles.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if article.ManuscriptKey == "" {
		writeError(w, http.StatusNotFound, "no manuscript uploaded")
		return
	}
	body, err := h.objects.Download(r.Context(), article.ManuscriptKey)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}
