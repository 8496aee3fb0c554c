// Package store persists posts and comments in LevelDB. It is the slow path
// the services fall back to on a cache miss.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/syndtr/goleveldb/leveldb"
	lvlerrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("store: not found")

const (
	postPrefix    = "p/" // p/<postID> -> Post
	commentPrefix = "c/" // c/<postID>/<commentID> -> Comment
)

type Post struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Comment struct {
	ID        string    `json:"_id"`
	PostID    string    `json:"postId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is safe for concurrent use.
type Store struct {
	db  *leveldb.DB
	now func() time.Time
}

// Open opens the database in dir. An empty dir gives an in-memory database
// that is lost on Close.
func Open(dir string) (*Store, error) {
	if dir == "" {
		db, err := leveldb.Open(storage.NewMemStorage(), nil)
		if err != nil {
			return nil, err
		}
		return &Store{db: db, now: time.Now}, nil
	}
	db, err := leveldb.OpenFile(dir, &opt.Options{OpenFilesCacheCapacity: 16})
	if _, corrupted := err.(*lvlerrors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(dir, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dir, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// newID returns a time ordered identifier so prefix scans yield records in
// insertion order.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// CreatePost stores a new post and returns it with its ID and timestamp set.
func (s *Store) CreatePost(title, description string) (Post, error) {
	id, err := newID()
	if err != nil {
		return Post{}, err
	}
	post := Post{ID: id, Title: title, Description: description, CreatedAt: s.now().UTC()}
	if err := s.put(postPrefix+id, post); err != nil {
		return Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// Post loads a single post.
func (s *Store) Post(id string) (Post, error) {
	var post Post
	if err := s.get(postPrefix+id, &post); err != nil {
		return Post{}, err
	}
	return post, nil
}

// Posts returns every post in creation order.
func (s *Store) Posts() ([]Post, error) {
	return scan[Post](s.db, postPrefix)
}

// CreateComment stores a comment for postID. The caller checks the post exists.
func (s *Store) CreateComment(postID, message string) (Comment, error) {
	id, err := newID()
	if err != nil {
		return Comment{}, err
	}
	comment := Comment{ID: id, PostID: postID, Message: message, CreatedAt: s.now().UTC()}
	if err := s.put(commentPrefix+postID+"/"+id, comment); err != nil {
		return Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// Comments returns the comments of postID in creation order. A post without
// comments yields an empty, non-nil slice.
func (s *Store) Comments(postID string) ([]Comment, error) {
	return scan[Comment](s.db, commentPrefix+postID+"/")
}

func (s *Store) put(key string, v any) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Put([]byte(key), blob, nil)
}

func (s *Store) get(key string, v any) error {
	blob, err := s.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return json.Unmarshal(blob, v)
}

func scan[T any](db *leveldb.DB, prefix string) ([]T, error) {
	it := db.NewIterator(util.BytesPrefix([]byte(prefix)), nil)
	defer it.Release()

	out := []T{}
	for it.Next() {
		var v T
		if err := json.Unmarshal(it.Value(), &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", it.Key(), err)
		}
		out = append(out, v)
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	return out, nil
}
