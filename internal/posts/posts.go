// Package posts implements the posts service. Single posts are served
// through an LRU cache in front of the store.
package posts

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"lrusvc/internal/metrics"
	"lrusvc/internal/server"
	"lrusvc/internal/store"
	"lrusvc/lru"
)

// maxFanout bounds concurrent calls to the comments service when listing.
const maxFanout = 8

// Store is the slow path for posts.
type Store interface {
	CreatePost(title, description string) (store.Post, error)
	Post(id string) (store.Post, error)
	Posts() ([]store.Post, error)
}

// CommentsClient fetches comments from the comments service.
type CommentsClient interface {
	Comments(ctx context.Context, postID string) ([]store.Comment, error)
}

type Service struct {
	store    Store
	comments CommentsClient
	cache    *lru.Locked[string, store.Post]
	log      *slog.Logger
}

// New creates the service with a cache of the given capacity.
func New(st Store, comments CommentsClient, capacity int, log *slog.Logger) (*Service, error) {
	cache, err := lru.NewLocked[string, store.Post](capacity)
	if err != nil {
		return nil, err
	}
	return &Service{store: st, comments: comments, cache: cache, log: log}, nil
}

// Register adds the service routes to mux.
func (s *Service) Register(mux *http.ServeMux, m *metrics.Metrics) {
	m.TrackCache(s.cache.Cap(), s.cache.Len)
	mux.Handle("GET /{$}", m.Instrument("list_posts", http.HandlerFunc(s.list)))
	mux.Handle("GET /{id}", m.Instrument("get_post", http.HandlerFunc(s.get)))
	mux.Handle("POST /{$}", m.Instrument("create_post", http.HandlerFunc(s.create)))
}

type postWithComments struct {
	store.Post
	Comments []store.Comment `json:"comments"`
}

func (s *Service) list(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.Posts()
	if err != nil {
		s.log.Error("Listing posts failed", "err", err)
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]postWithComments, len(posts))
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(maxFanout)
	for i, post := range posts {
		out[i].Post = post
		g.Go(func() error {
			comments, err := s.comments.Comments(ctx, post.ID)
			if err != nil {
				return err
			}
			out[i].Comments = comments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("Fetching comments failed", "err", err)
		server.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	server.WriteJSON(w, http.StatusOK, out)
}

func (s *Service) get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.log.Debug("Incoming request to find post", "id", id)

	if post, ok := s.cache.Get(id); ok {
		s.log.Debug("Returning post from cache", "id", id)
		server.WriteJSON(w, http.StatusOK, post)
		return
	}

	post, err := s.store.Post(id)
	if errors.Is(err, store.ErrNotFound) {
		server.WriteError(w, http.StatusNotFound, "post "+id+" not found")
		return
	}
	if err != nil {
		s.log.Error("Loading post failed", "id", id, "err", err)
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.cache.Put(post.ID, post)
	s.log.Info("Cache miss, inserted post", "id", post.ID, "remaining", s.cache.Remaining())
	server.WriteJSON(w, http.StatusOK, post)
}

type createRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (s *Service) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == nil || req.Description == nil {
		server.WriteError(w, http.StatusBadRequest, "Incorrect payload")
		return
	}

	s.log.Info("Writing post to database", "title", *req.Title)
	post, err := s.store.CreatePost(*req.Title, *req.Description)
	if err != nil {
		s.log.Error("Creating post failed", "err", err)
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.cache.Put(post.ID, post)
	s.log.Debug("Warmed cache with new post", "id", post.ID, "remaining", s.cache.Remaining())
	server.WriteJSON(w, http.StatusCreated, post)
}
