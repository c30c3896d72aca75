package application

import (
	"context"
	"time"

	"github.com/davicafu/blogolab/internal/post/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostService define los casos de uso relacionados con Post. La captura y
// persistencia de eventos queda en el agregado y el repo: el servicio solo
// orquesta validar → cargar → mutar → persistir.
type PostService struct {
	repo  domain.PostRepository
	cache domain.PostCache
	log   *zap.Logger
}

// NewPostService constructor
func NewPostService(repo domain.PostRepository, cache domain.PostCache, log *zap.Logger) *PostService {
	return &PostService{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		select {
		case <-time.After(delay):
			// espera antes del siguiente intento
		case <-ctx.Done():
			return ctx.Err() // contexto cancelado
		}
	}
	return err
}

func (s *PostService) CreatePost(ctx context.Context, title, body string, authorID uuid.UUID) (*domain.Post, error) {
	post, err := domain.NewPost(title, body, authorID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	s.cacheSet(post)

	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, id uuid.UUID, title, body string) (*domain.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := post.UpdateContent(title, body); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.cacheSet(post)

	return post, nil
}

func (s *PostService) PublishPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := post.Publish(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.cacheSet(post)

	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, id uuid.UUID) error {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	post.MarkDeleted()

	if err := s.repo.DeleteByID(ctx, post); err != nil {
		return err
	}

	if s.cache != nil {
		go func(pid uuid.UUID) {
			ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = s.cache.Delete(ctxCache, domain.CacheKeyByID(pid))
		}(id)
	}

	return nil
}

// GetPost obtiene un post (primero intenta desde cache).
func (s *PostService) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	// 1. Intentar cache
	if s.cache != nil {
		var p domain.Post
		if ok, _ := s.cache.Get(ctx, domain.CacheKeyByID(id), &p); ok {
			return &p, nil
		}
	}

	// 2. Ir al repo con reintentos
	var post *domain.Post
	err := retry(ctx, 3, 100*time.Millisecond, func() error {
		var err error
		post, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	// 3. Actualizar cache en background sin bloquear la respuesta
	s.cacheSet(post)

	return post, nil
}

// ListPosts devuelve posts aplicando filtros.
func (s *PostService) ListPosts(ctx context.Context, f domain.PostFilter) ([]*domain.Post, error) {
	return s.repo.List(ctx, f)
}

func (s *PostService) SearchPostsByTitle(ctx context.Context, title string) ([]*domain.Post, error) {
	filter := domain.PostFilter{
		Title: &title,
		Pagination: domain.Pagination{
			Limit:  20,
			Offset: 0,
		},
		Sort: domain.Sort{
			Field: "created_at",
			Desc:  true,
		},
	}

	return s.repo.List(ctx, filter)
}

// cacheSet actualiza la cache en background sin bloquear la respuesta.
func (s *PostService) cacheSet(p *domain.Post) {
	if s.cache == nil {
		return
	}
	go func(post *domain.Post) {
		ctxCache, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		if err := s.cache.Set(ctxCache, domain.CacheKeyByID(post.ID), post, 60); err != nil {
			s.log.Warn("⚠️ Cache update failed", zap.String("post_id", post.ID.String()), zap.Error(err))
		}
	}(p)
}
