package repository

import (
	"context"
	"sync"

	"github.com/agenda-distribuida/scheduling-service/internal/models"
)

// MemoryStore keeps users and events in maps keyed by id. Every read returns
// a copy, so callers mutate their own entities and persist them with Save.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	users       map[int64]*models.User
	usernames   map[string]int64
	events      map[int64]*models.Event
	nextUserID  int64
	nextEventID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memState{
			users:       make(map[int64]*models.User),
			usernames:   make(map[string]int64),
			events:      make(map[int64]*models.Event),
			nextUserID:  1,
			nextEventID: 1,
		},
	}
}

func (s *memState) clone() *memState {
	c := &memState{
		users:       make(map[int64]*models.User, len(s.users)),
		usernames:   make(map[string]int64, len(s.usernames)),
		events:      make(map[int64]*models.Event, len(s.events)),
		nextUserID:  s.nextUserID,
		nextEventID: s.nextEventID,
	}
	for id, u := range s.users {
		c.users[id] = u.Clone()
	}
	for name, id := range s.usernames {
		c.usernames[name] = id
	}
	for id, e := range s.events {
		c.events[id] = e.Clone()
	}
	return c
}

func (s *MemoryStore) Users() UserRepository   { return memUsers{store: s} }
func (s *MemoryStore) Events() EventRepository { return memEvents{store: s} }

// InTx holds the store lock for the duration of fn and restores the previous
// state if fn fails.
func (s *MemoryStore) InTx(ctx context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(&memTx{store: s}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// with runs fn on the live state, taking the lock unless a transaction
// already holds it.
func (s *MemoryStore) with(locked bool, fn func(st *memState) error) error {
	if !locked {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.state)
}

// memTx is the view handed to InTx callbacks; the store lock is already held.
type memTx struct {
	store *MemoryStore
}

func (t *memTx) Users() UserRepository   { return memUsers{store: t.store, locked: true} }
func (t *memTx) Events() EventRepository { return memEvents{store: t.store, locked: true} }
func (t *memTx) Ping(ctx context.Context) error {
	return nil
}
func (t *memTx) InTx(ctx context.Context, fn func(Store) error) error {
	return fn(t)
}

type memUsers struct {
	store  *MemoryStore
	locked bool
}

func (r memUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var out *models.User
	err := r.store.with(r.locked, func(st *memState) error {
		id, ok := st.usernames[username]
		if !ok {
			return ErrUserNotFound
		}
		out = st.users[id].Clone()
		return nil
	})
	return out, err
}

func (r memUsers) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var out *models.User
	err := r.store.with(r.locked, func(st *memState) error {
		u, ok := st.users[id]
		if !ok {
			return ErrUserNotFound
		}
		out = u.Clone()
		return nil
	})
	return out, err
}

func (r memUsers) Create(ctx context.Context, user *models.User) error {
	return r.store.with(r.locked, func(st *memState) error {
		if _, taken := st.usernames[user.Username]; taken {
			return ErrUsernameTaken
		}
		user.ID = st.nextUserID
		st.nextUserID++
		st.users[user.ID] = user.Clone()
		st.usernames[user.Username] = user.ID
		return nil
	})
}

func (r memUsers) Save(ctx context.Context, user *models.User) error {
	return r.store.with(r.locked, func(st *memState) error {
		return st.saveUser(user)
	})
}

func (r memUsers) SaveAll(ctx context.Context, users []*models.User) error {
	return r.store.with(r.locked, func(st *memState) error {
		for _, u := range users {
			if err := st.saveUser(u); err != nil {
				return err
			}
		}
		return nil
	})
}

func (st *memState) saveUser(user *models.User) error {
	existing, ok := st.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	saved := user.Clone()
	// usernames are immutable
	saved.Username = existing.Username
	st.users[user.ID] = saved
	return nil
}

type memEvents struct {
	store  *MemoryStore
	locked bool
}

func (r memEvents) FindByID(ctx context.Context, id int64) (*models.Event, error) {
	var out *models.Event
	err := r.store.with(r.locked, func(st *memState) error {
		e, ok := st.events[id]
		if !ok {
			return ErrEventNotFound
		}
		out = e.Clone()
		return nil
	})
	return out, err
}

func (r memEvents) FindByIDs(ctx context.Context, ids []int64) ([]*models.Event, error) {
	var out []*models.Event
	err := r.store.with(r.locked, func(st *memState) error {
		out = make([]*models.Event, 0, len(ids))
		for _, id := range ids {
			e, ok := st.events[id]
			if !ok {
				return ErrEventNotFound
			}
			out = append(out, e.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r memEvents) Create(ctx context.Context, event *models.Event) error {
	return r.store.with(r.locked, func(st *memState) error {
		event.ID = st.nextEventID
		st.nextEventID++
		st.events[event.ID] = event.Clone()
		return nil
	})
}

func (r memEvents) Save(ctx context.Context, event *models.Event) error {
	return r.store.with(r.locked, func(st *memState) error {
		existing, ok := st.events[event.ID]
		if !ok {
			return ErrEventNotFound
		}
		saved := event.Clone()
		// the organiser never changes
		saved.OrganiserID = existing.OrganiserID
		st.events[event.ID] = saved
		return nil
	})
}
