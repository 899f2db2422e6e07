package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"postboard/internal/post/model"
	"postboard/internal/post/query"
	"postboard/internal/post/repository"
	"postboard/internal/post/transfer"
	"postboard/pkg/logger"
)

// PostService owns the canonical post collection. Every mutation is written through
// to the repository before it returns; when the write fails the in-memory collection
// is rolled back and a *model.StorageError is returned.
type PostService struct {
	Repo       repository.PostRepository
	Categories []string

	mu       sync.Mutex
	posts    []model.Post
	lastID   int64
	now      func() time.Time
	onChange []func(model.ChangeEvent)
}

type Option func(*PostService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *PostService) { s.now = now }
}

func NewPostService(repo repository.PostRepository, categories []string, opts ...Option) *PostService {
	s := &PostService{
		Repo:       repo,
		Categories: append([]string(nil), categories...),
		posts:      []model.Post{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers a listener called after every committed mutation.
// Listeners run synchronously and must not call back into the service.
func (s *PostService) OnChange(fn func(model.ChangeEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Open replaces the in-memory collection with the stored one.
func (s *PostService) Open(ctx context.Context) error {
	posts, err := s.Repo.Load(ctx)
	if err != nil {
		return &model.StorageError{Op: "load", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = posts
	s.lastID = 0
	s.observeIDs(posts)
	logger.Sugar.Infof("Loaded %d posts", len(posts))
	return nil
}

func (s *PostService) Create(ctx context.Context, fields model.PostFields) (model.Post, error) {
	fields = fields.Normalize()
	if err := model.Validate(fields, s.Categories); err != nil {
		return model.Post{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC().Truncate(time.Millisecond)
	id, err := s.nextID(now)
	if err != nil {
		return model.Post{}, err
	}
	p := model.Post{ID: id, CreatedAt: now}
	p.Apply(fields)

	prevLastID := s.lastID
	s.lastID = p.ID
	next := append(model.Clone(s.posts), p)
	if err := s.commit(ctx, next); err != nil {
		s.lastID = prevLastID
		return model.Post{}, err
	}

	logger.Sugar.Infof("Created post %d (%s)", p.ID, p.Category)
	s.emit(model.ChangeEvent{Type: model.PostCreated, PostID: p.ID})
	return p, nil
}

// Update replaces the mutable fields of a post. ID and CreatedAt never change.
func (s *PostService) Update(ctx context.Context, id int64, fields model.PostFields) (model.Post, error) {
	fields = fields.Normalize()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return model.Post{}, model.NotFound(id)
	}
	if err := model.Validate(fields, s.Categories); err != nil {
		return model.Post{}, err
	}

	next := model.Clone(s.posts)
	next[idx].Apply(fields)
	if err := s.commit(ctx, next); err != nil {
		return model.Post{}, err
	}

	logger.Sugar.Infof("Updated post %d", id)
	s.emit(model.ChangeEvent{Type: model.PostUpdated, PostID: id})
	return next[idx], nil
}

func (s *PostService) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return model.NotFound(id)
	}

	next := make([]model.Post, 0, len(s.posts)-1)
	next = append(next, s.posts[:idx]...)
	next = append(next, s.posts[idx+1:]...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}

	logger.Sugar.Infof("Deleted post %d", id)
	s.emit(model.ChangeEvent{Type: model.PostDeleted, PostID: id})
	return nil
}

// ClearAll removes every post.
func (s *PostService) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := len(s.posts)
	if err := s.commit(ctx, []model.Post{}); err != nil {
		return err
	}

	logger.Sugar.Infof("Cleared %d posts", removed)
	s.emit(model.ChangeEvent{Type: model.PostsCleared, Count: removed})
	return nil
}

// GetAll returns a copy of the collection in insertion order.
func (s *PostService) GetAll() []model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.Clone(s.posts)
}

func (s *PostService) Get(id int64) (model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return model.Post{}, model.NotFound(id)
	}
	return s.posts[idx], nil
}

// Query returns the filtered, sorted projection of the current collection.
func (s *PostService) Query(params model.QueryParams) []model.Post {
	return query.Project(s.GetAll(), params)
}

func (s *PostService) Stats() model.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return query.ComputeStats(s.posts)
}

// Export serializes the whole collection. An empty collection is not exported.
func (s *PostService) Export() ([]byte, error) {
	posts := s.GetAll()
	if len(posts) == 0 {
		return nil, model.ErrNothingToExport
	}
	return transfer.Marshal(posts)
}

// Import merges a serialized collection into the store and persists the result.
func (s *PostService) Import(ctx context.Context, raw []byte) (*transfer.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := transfer.Reconcile(model.Clone(s.posts), raw)
	if err != nil {
		return nil, err
	}
	if res.DiscardedCount > 0 {
		logger.Sugar.Warnf("Import discarded %d structurally invalid records", res.DiscardedCount)
	}

	if res.AddedCount > 0 {
		prevLastID := s.lastID
		s.observeIDs(res.Added)
		if err := s.commit(ctx, res.Merged); err != nil {
			s.lastID = prevLastID
			return nil, err
		}
	}

	logger.Sugar.Infof("Imported %d new posts (%d duplicates skipped)", res.AddedCount, res.DuplicateCount)
	if res.AddedCount > 0 {
		s.emit(model.ChangeEvent{Type: model.PostsImported, Count: res.AddedCount})
	}
	return res, nil
}

// commit saves next and, only on success, makes it the current collection.
// Callers hold s.mu.
func (s *PostService) commit(ctx context.Context, next []model.Post) error {
	if err := s.Repo.Save(ctx, next); err != nil {
		return &model.StorageError{Op: "save", Err: err}
	}
	s.posts = next
	return nil
}

// emit notifies listeners. Callers hold s.mu.
func (s *PostService) emit(ev model.ChangeEvent) {
	ev.Stats = query.ComputeStats(s.posts)
	for _, fn := range s.onChange {
		fn(ev)
	}
}

func (s *PostService) indexOf(id int64) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// nextID keeps ids timestamp-like (Unix milliseconds) while guaranteeing they
// strictly increase, even for several creations within one millisecond. Once an
// imported or stored post holds math.MaxInt64 there is no larger id to hand out.
func (s *PostService) nextID(now time.Time) (int64, error) {
	id := now.UnixMilli()
	if id <= s.lastID {
		if s.lastID == math.MaxInt64 {
			return 0, model.ErrIDsExhausted
		}
		id = s.lastID + 1
	}
	return id, nil
}

func (s *PostService) observeIDs(posts []model.Post) {
	for _, p := range posts {
		if p.ID > s.lastID {
			s.lastID = p.ID
		}
	}
}

// IsStorageError reports whether err came from the persistence adapter.
func IsStorageError(err error) bool {
	var serr *model.StorageError
	return errors.As(err, &serr)
}
