// Package comments implements the comments service. The comments of each
// post are cached as one collection keyed by post ID.
package comments

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lrusvc/internal/metrics"
	"lrusvc/internal/peer"
	"lrusvc/internal/server"
	"lrusvc/internal/store"
	"lrusvc/lru"
)

// Store is the slow path for comments.
type Store interface {
	CreateComment(postID, message string) (store.Comment, error)
	Comments(postID string) ([]store.Comment, error)
}

// PostsClient checks posts against the posts service.
type PostsClient interface {
	Post(ctx context.Context, id string) (store.Post, error)
}

type Service struct {
	store Store
	posts PostsClient
	cache *lru.Locked[string, []store.Comment]
	log   *slog.Logger
}

// New creates the service with a cache of the given capacity.
func New(st Store, posts PostsClient, capacity int, log *slog.Logger) (*Service, error) {
	cache, err := lru.NewLocked[string, []store.Comment](capacity)
	if err != nil {
		return nil, err
	}
	return &Service{store: st, posts: posts, cache: cache, log: log}, nil
}

// Register adds the service routes to mux.
func (s *Service) Register(mux *http.ServeMux, m *metrics.Metrics) {
	m.TrackCache(s.cache.Cap(), s.cache.Len)
	mux.Handle("GET /{postID}", m.Instrument("list_comments", http.HandlerFunc(s.list)))
	mux.Handle("POST /{$}", m.Instrument("create_comment", http.HandlerFunc(s.create)))
}

func (s *Service) list(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postID")
	s.log.Debug("Incoming request for comments", "post", postID)

	if comments, ok := s.cache.Get(postID); ok {
		server.WriteJSON(w, http.StatusOK, comments)
		return
	}

	comments, err := s.refresh(postID)
	if err != nil {
		s.log.Error("Loading comments failed", "post", postID, "err", err)
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.log.Info("Cache miss, inserted comments", "post", postID, "count", len(comments), "remaining", s.cache.Remaining())
	server.WriteJSON(w, http.StatusOK, comments)
}

type createRequest struct {
	PostID  *string `json:"postId"`
	Message *string `json:"message"`
}

func (s *Service) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PostID == nil || req.Message == nil {
		server.WriteError(w, http.StatusBadRequest, "Incorrect payload")
		return
	}
	postID := *req.PostID

	_, err := s.posts.Post(r.Context(), postID)
	switch {
	case errors.Is(err, peer.ErrNotFound):
		server.WriteError(w, http.StatusBadRequest, "post "+postID+" not found")
		return
	case err != nil:
		s.log.Error("Post lookup failed", "post", postID, "err", err)
		server.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.log.Info("Writing comment to database", "post", postID, "message", preview(*req.Message))
	comment, err := s.store.CreateComment(postID, *req.Message)
	if err != nil {
		s.log.Error("Creating comment failed", "post", postID, "err", err)
		server.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The comment is durable at this point. If the snapshot can't be read,
	// still add the comment to a cached collection so it doesn't go stale;
	// an absent one stays absent and the next read loads it.
	if comments, err := s.refresh(postID); err != nil {
		s.log.Warn("Cache refresh after write failed", "post", postID, "err", err)
		s.cache.Update(postID, func(old []store.Comment, ok bool) ([]store.Comment, bool) {
			return merge(old, []store.Comment{comment}), ok
		})
	} else {
		s.log.Debug("Cache updated", "post", postID, "count", len(comments), "remaining", s.cache.Remaining())
	}
	server.WriteJSON(w, http.StatusCreated, comment)
}

// refresh loads the comments of postID from the store and merges them into
// the cached collection. The cached collection only grows by union, so an
// older snapshot never hides a newer comment.
func (s *Service) refresh(postID string) ([]store.Comment, error) {
	loaded, err := s.store.Comments(postID)
	if err != nil {
		return nil, err
	}
	comments, _ := s.cache.Update(postID, func(old []store.Comment, ok bool) ([]store.Comment, bool) {
		if !ok {
			return loaded, true
		}
		return merge(old, loaded), true
	})
	return comments, nil
}

// merge returns the union of two comment lists sorted by ID. IDs are time
// ordered, so the result is in creation order. Neither input is modified.
func merge(a, b []store.Comment) []store.Comment {
	out := make([]store.Comment, 0, max(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch cmp.Compare(a[i].ID, b[j].ID) {
		case -1:
			out = append(out, a[i])
			i++
		case 1:
			out = append(out, b[j])
			j++
		default:
			out = append(out, b[j])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// preview shortens a message for logging.
func preview(msg string) string {
	const n = 10
	r := []rune(msg)
	if len(r) <= n {
		return msg
	}
	return string(r[:n]) + "..."
}
