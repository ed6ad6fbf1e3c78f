// Package memstore はリポジトリインターフェースのインメモリ実装を提供する。
// DATABASE_URL に memory:// を指定した一時的なサーバー起動と、結合テストで使用する。
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/diarybook/internal/model"
	"github.com/hitoshi/diarybook/internal/repository"
)

// Store は users, profiles, sessions, diaries の4テーブル相当を保持する。
// ユーザー削除時は関連行もまとめて削除し、外部キーのCASCADEと同じ振る舞いをする。
type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[string]*model.User
	profiles map[string]*model.Profile
	sessions map[string]*model.Session
	diaries  map[string]*model.Entry
}

// New は空のStoreを生成する。
func New() *Store {
	return &Store{
		now:      time.Now,
		users:    make(map[string]*model.User),
		profiles: make(map[string]*model.Profile),
		sessions: make(map[string]*model.Session),
		diaries:  make(map[string]*model.Entry),
	}
}

// Users はUserRepositoryとしてのビューを返す。
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Profiles はProfileRepositoryとしてのビューを返す。
func (s *Store) Profiles() repository.ProfileRepository { return profileRepo{s} }

// Sessions はSessionRepositoryとしてのビューを返す。
func (s *Store) Sessions() repository.SessionRepository { return sessionRepo{s} }

// Diaries はDiaryRepositoryとしてのビューを返す。
func (s *Store) Diaries() repository.DiaryRepository { return diaryRepo{s} }

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

func copyEntry(e *model.Entry) *model.Entry {
	c := *e
	return &c
}

// --- users ---

type userRepo struct{ s *Store }

func (r userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if u, ok := r.s.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (r userRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r userRepo) CreateWithProfile(ctx context.Context, user *model.User, profile *model.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicateEmail
		}
	}

	now := r.s.now()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = copyUser(user)

	profile.ID = user.ID
	p := *profile
	r.s.profiles[user.ID] = &p
	return nil
}

func (r userRepo) DeleteByID(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, id)
	delete(r.s.profiles, id)
	for sid, sess := range r.s.sessions {
		if sess.UserID == id {
			delete(r.s.sessions, sid)
		}
	}
	for did, e := range r.s.diaries {
		if e.OwnerID == id {
			delete(r.s.diaries, did)
		}
	}
	return nil
}

// --- profiles ---

type profileRepo struct{ s *Store }

func (r profileRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	profiles := make([]*model.Profile, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.profiles[id]; ok {
			c := *p
			profiles = append(profiles, &c)
		}
	}
	return profiles, nil
}

// --- sessions ---

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(ctx context.Context, session *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session.CreatedAt = r.s.now()
	c := *session
	r.s.sessions[session.ID] = &c
	return nil
}

func (r sessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sess, ok := r.s.sessions[id]
	if !ok || !sess.ExpiresAt.After(r.s.now()) {
		return nil, nil
	}
	c := *sess
	return &c, nil
}

func (r sessionRepo) DeleteByID(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, id)
	return nil
}

func (r sessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, sess := range r.s.sessions {
		if sess.UserID == userID {
			delete(r.s.sessions, id)
		}
	}
	return nil
}

func (r sessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, sess := range r.s.sessions {
		if !sess.ExpiresAt.After(before) {
			delete(r.s.sessions, id)
			n++
		}
	}
	return n, nil
}

// --- diaries ---

type diaryRepo struct{ s *Store }

func (r diaryRepo) List(ctx context.Context) ([]*model.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	entries := make([]*model.Entry, 0, len(r.s.diaries))
	for _, e := range r.s.diaries {
		entries = append(entries, copyEntry(e))
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}

func (r diaryRepo) FindByID(ctx context.Context, id string) (*model.Entry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if e, ok := r.s.diaries[id]; ok {
		return copyEntry(e), nil
	}
	return nil, nil
}

func (r diaryRepo) Create(ctx context.Context, entry *model.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.s.now()
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = entry.CreatedAt
	}
	r.s.diaries[entry.ID] = copyEntry(entry)
	return nil
}

func (r diaryRepo) UpdateByOwner(ctx context.Context, id, ownerID, title, content string, updatedAt time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.diaries[id]
	if !ok || e.OwnerID != ownerID {
		return 0, nil
	}
	e.Title = title
	e.Content = content
	e.UpdatedAt = updatedAt
	return 1, nil
}

func (r diaryRepo) DeleteByOwner(ctx context.Context, id, ownerID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.diaries[id]
	if !ok || e.OwnerID != ownerID {
		return 0, nil
	}
	delete(r.s.diaries, id)
	return 1, nil
}

func (r diaryRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.diaries[id]
	return ok, nil
}
