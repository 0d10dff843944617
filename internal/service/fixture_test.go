package service

import (
	"context"
	"testing"

	"github.com/agenda-distribuida/scheduling-service/internal/models"
	"github.com/agenda-distribuida/scheduling-service/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	args := m.Called(ctx, eventType, payload)
	return args.Error(0)
}

type fixture struct {
	store    repository.Store
	pub      *mockPublisher
	users    *UserService
	contacts *ContactService
	events   *EventService
}

func newFixture(t *testing.T, usernames ...string) *fixture {
	t.Helper()
	return newFixtureOn(t, repository.NewMemoryStore(), usernames...)
}

func newFixtureOn(t *testing.T, store repository.Store, usernames ...string) *fixture {
	t.Helper()

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	log := zerolog.Nop()

	f := &fixture{
		store:    store,
		pub:      pub,
		users:    NewUserService(store, log).WithHashCost(bcrypt.MinCost),
		contacts: NewContactService(store, pub, log),
		events:   NewEventService(store, NewSuggester(672, log), pub, log),
	}
	for _, name := range usernames {
		_, err := f.users.CreateUser(context.Background(), name, "password-"+name)
		require.NoError(t, err)
	}
	return f
}

func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.store.Users().FindByUsername(context.Background(), username)
	require.NoError(t, err)
	return u
}

func (f *fixture) event(t *testing.T, id int64) *models.Event {
	t.Helper()
	e, err := f.store.Events().FindByID(context.Background(), id)
	require.NoError(t, err)
	return e
}

// makeContacts links every given user with every other one.
func (f *fixture) makeContacts(t *testing.T, usernames ...string) {
	t.Helper()
	ctx := context.Background()
	for i, a := range usernames {
		for _, b := range usernames[i+1:] {
			require.NoError(t, f.contacts.SendInvite(ctx, a, b))
			require.NoError(t, f.contacts.AcceptInvite(ctx, b, a))
		}
	}
}
