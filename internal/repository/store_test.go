package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agenda-distribuida/scheduling-service/internal/database"
	"github.com/agenda-distribuida/scheduling-service/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		db, err := database.New(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		fn(t, NewSQLStore(db.DB(), zerolog.Nop()))
	})
}

func createUser(t *testing.T, s Store, username string) *models.User {
	t.Helper()
	u := models.NewUser(username, "hash-"+username)
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestStore_UserRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		alice := createUser(t, s, "alice")
		bob := createUser(t, s, "bob")
		assert.NotEqual(t, alice.ID, bob.ID)

		alice.DisplayName = "Alice A."
		alice.Contacts.Add(bob.ID)
		alice.SentContactInvites.Add(bob.ID)
		alice.Calendar = models.IDSet{9, 3, 7}
		alice.CreatedEvents.Add(3)
		alice.EventInvites.Add(11)
		require.NoError(t, s.Users().Save(ctx, alice))

		got, err := s.Users().FindByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.Equal(t, "Alice A.", got.DisplayName)
		assert.Equal(t, "hash-alice", got.HashedPassword)
		assert.Equal(t, models.IDSet{bob.ID}, got.Contacts)
		assert.Equal(t, models.IDSet{bob.ID}, got.SentContactInvites)
		assert.Empty(t, got.ReceivedContactInvites)
		assert.Equal(t, models.IDSet{9, 3, 7}, got.Calendar, "insertion order is kept")
		assert.Equal(t, models.IDSet{3}, got.CreatedEvents)
		assert.Equal(t, models.IDSet{11}, got.EventInvites)

		byID, err := s.Users().FindByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob", byID.Username)
		assert.Equal(t, "bob", byID.DisplayName)
	})
}

func TestStore_UserErrors(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		createUser(t, s, "alice")

		err := s.Users().Create(ctx, models.NewUser("alice", "x"))
		assert.ErrorIs(t, err, ErrUsernameTaken)

		_, err = s.Users().FindByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = s.Users().FindByID(ctx, 999)
		assert.ErrorIs(t, err, ErrUserNotFound)

		err = s.Users().Save(ctx, &models.User{ID: 999, Username: "ghost"})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestStore_ReadsAreCopies(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		alice := createUser(t, s, "alice")

		got, err := s.Users().FindByID(ctx, alice.ID)
		require.NoError(t, err)
		got.Contacts.Add(42)

		again, err := s.Users().FindByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, again.Contacts)
	})
}

func TestStore_EventRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		org := createUser(t, s, "org")
		a := createUser(t, s, "a")
		b := createUser(t, s, "b")

		start := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
		ev := models.NewEvent("standup", "daily", "room 1", start, 45)
		ev.OrganiserID = org.ID
		ev.Invitees = models.IDSet{b.ID, a.ID}
		require.NoError(t, s.Events().Create(ctx, ev))

		got, err := s.Events().FindByID(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, "standup", got.Title)
		assert.Equal(t, "daily", got.Description)
		assert.Equal(t, "room 1", got.Location)
		assert.True(t, start.Equal(got.StartTime))
		assert.Equal(t, 45, got.DurationMinutes)
		assert.Equal(t, org.ID, got.OrganiserID)
		assert.Equal(t, models.IDSet{b.ID, a.ID}, got.Invitees)
		assert.Empty(t, got.Attendees)

		got.Invitees.Remove(a.ID)
		got.Attendees.Add(a.ID)
		require.NoError(t, s.Events().Save(ctx, got))

		again, err := s.Events().FindByID(ctx, ev.ID)
		require.NoError(t, err)
		assert.Equal(t, models.IDSet{b.ID}, again.Invitees)
		assert.Equal(t, models.IDSet{a.ID}, again.Attendees)
	})
}

func TestStore_FindEventsByIDs(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		org := createUser(t, s, "org")

		var ids []int64
		for i := 0; i < 3; i++ {
			ev := models.NewEvent("e", "", "", time.Date(2024, 1, 1, 9+i, 0, 0, 0, time.UTC), 30)
			ev.OrganiserID = org.ID
			require.NoError(t, s.Events().Create(ctx, ev))
			ids = append(ids, ev.ID)
		}

		got, err := s.Events().FindByIDs(ctx, []int64{ids[2], ids[0]})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, ids[2], got[0].ID)
		assert.Equal(t, ids[0], got[1].ID)

		none, err := s.Events().FindByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, none)

		_, err = s.Events().FindByIDs(ctx, []int64{ids[0], 12345})
		assert.ErrorIs(t, err, ErrEventNotFound)

		_, err = s.Events().FindByID(ctx, 12345)
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestStore_InTxRollsBack(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		alice := createUser(t, s, "alice")
		bob := createUser(t, s, "bob")
		boom := errors.New("boom")

		err := s.InTx(ctx, func(tx Store) error {
			a, err := tx.Users().FindByID(ctx, alice.ID)
			require.NoError(t, err)
			b, err := tx.Users().FindByID(ctx, bob.ID)
			require.NoError(t, err)
			a.Contacts.Add(b.ID)
			b.Contacts.Add(a.ID)
			require.NoError(t, tx.Users().SaveAll(ctx, []*models.User{a, b}))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		a, err := s.Users().FindByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, a.Contacts)
	})
}

func TestStore_InTxCommits(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		alice := createUser(t, s, "alice")

		err := s.InTx(ctx, func(tx Store) error {
			a, err := tx.Users().FindByID(ctx, alice.ID)
			if err != nil {
				return err
			}
			a.DisplayName = "renamed"
			// nested calls join the outer transaction
			return tx.InTx(ctx, func(inner Store) error {
				return inner.Users().Save(ctx, a)
			})
		})
		require.NoError(t, err)

		a, err := s.Users().FindByID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", a.DisplayName)
		assert.NoError(t, s.Ping(ctx))
	})
}
