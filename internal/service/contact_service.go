package service

import (
	"context"

	"github.com/agenda-distribuida/scheduling-service/internal/models"
	"github.com/agenda-distribuida/scheduling-service/internal/repository"
	"github.com/rs/zerolog"
)

// ContactService runs the contact request state machine. Every mutation keeps
// both users' views of the relation in step.
type ContactService struct {
	store repository.Store
	pub   Publisher
	log   zerolog.Logger
}

func NewContactService(store repository.Store, pub Publisher, log zerolog.Logger) *ContactService {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &ContactService{
		store: store,
		pub:   pub,
		log:   log.With().Str("component", "contact_service").Logger(),
	}
}

// loadPair resolves both users inside tx.
func loadPair(ctx context.Context, tx repository.Store, a, b string) (*models.User, *models.User, error) {
	first, err := findUser(ctx, tx, a)
	if err != nil {
		return nil, nil, err
	}
	second, err := findUser(ctx, tx, b)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}

// SendInvite asks receiver to become a contact of sender. If receiver has
// already invited sender, the two become contacts straight away.
func (s *ContactService) SendInvite(ctx context.Context, sender, receiver string) error {
	if sender == receiver {
		return ErrCannotActOnSelf
	}

	merged := false
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		from, to, err := loadPair(ctx, tx, sender, receiver)
		if err != nil {
			return err
		}
		if from.Contacts.Contains(to.ID) || to.Contacts.Contains(from.ID) {
			return ErrAlreadyInContacts
		}
		if from.SentContactInvites.Contains(to.ID) {
			return ErrAlreadyInvited
		}

		if to.SentContactInvites.Contains(from.ID) {
			to.SentContactInvites.Remove(from.ID)
			from.ReceivedContactInvites.Remove(to.ID)
			from.Contacts.Add(to.ID)
			to.Contacts.Add(from.ID)
			merged = true
		} else {
			if from.ReceivedContactInvites.Remove(to.ID) {
				s.log.Warn().
					Str("sender", sender).
					Str("receiver", receiver).
					Msg("Clearing received invite with no matching sent invite")
			}
			from.SentContactInvites.Add(to.ID)
			to.ReceivedContactInvites.Add(from.ID)
		}
		return tx.Users().SaveAll(ctx, []*models.User{from, to})
	})
	if err != nil {
		return err
	}

	if merged {
		s.log.Info().Str("username", sender).Str("contact", receiver).Msg("Crossed invites merged into contacts")
		notify(ctx, s.pub, s.log, NotifyContactAdded, map[string]interface{}{
			"username": sender,
			"contact":  receiver,
		})
		return nil
	}
	s.log.Info().Str("sender", sender).Str("receiver", receiver).Msg("Contact invite sent")
	notify(ctx, s.pub, s.log, NotifyContactInviteSent, map[string]interface{}{
		"sender":   sender,
		"receiver": receiver,
	})
	return nil
}

// AcceptInvite accepts the pending invite inviter sent to accepter.
// A half-present invite is cleared and reported as ErrNotInvited.
func (s *ContactService) AcceptInvite(ctx context.Context, accepter, inviter string) error {
	if accepter == inviter {
		return ErrCannotActOnSelf
	}

	var opErr error
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		me, them, err := loadPair(ctx, tx, accepter, inviter)
		if err != nil {
			return err
		}

		received := me.ReceivedContactInvites.Contains(them.ID)
		sent := them.SentContactInvites.Contains(me.ID)
		if !received || !sent {
			if !received && !sent {
				return ErrNotInvited
			}
			s.log.Warn().
				Str("accepter", accepter).
				Str("inviter", inviter).
				Bool("received", received).
				Bool("sent", sent).
				Msg("Repairing asymmetric contact invite")
			me.ReceivedContactInvites.Remove(them.ID)
			them.SentContactInvites.Remove(me.ID)
			// commit the repair, then report
			opErr = ErrNotInvited
			return tx.Users().SaveAll(ctx, []*models.User{me, them})
		}

		me.ReceivedContactInvites.Remove(them.ID)
		them.SentContactInvites.Remove(me.ID)
		me.Contacts.Add(them.ID)
		them.Contacts.Add(me.ID)
		return tx.Users().SaveAll(ctx, []*models.User{me, them})
	})
	if err != nil {
		return err
	}
	if opErr != nil {
		return opErr
	}

	s.log.Info().Str("username", accepter).Str("contact", inviter).Msg("Contact invite accepted")
	notify(ctx, s.pub, s.log, NotifyContactAdded, map[string]interface{}{
		"username": accepter,
		"contact":  inviter,
	})
	return nil
}

// CancelInvite withdraws an invite canceller sent to invitee.
func (s *ContactService) CancelInvite(ctx context.Context, canceller, invitee string) error {
	if canceller == invitee {
		return ErrCannotActOnSelf
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		me, them, err := loadPair(ctx, tx, canceller, invitee)
		if err != nil {
			return err
		}
		if !me.SentContactInvites.Contains(them.ID) || !them.ReceivedContactInvites.Contains(me.ID) {
			return ErrNotInvited
		}
		me.SentContactInvites.Remove(them.ID)
		them.ReceivedContactInvites.Remove(me.ID)
		return tx.Users().SaveAll(ctx, []*models.User{me, them})
	})
	if err != nil {
		return err
	}

	notify(ctx, s.pub, s.log, NotifyContactInviteCancelled, map[string]interface{}{
		"sender":   canceller,
		"receiver": invitee,
	})
	return nil
}

// RemoveContact drops the contact relation on both sides. Removing someone
// who is not a contact is not an error.
func (s *ContactService) RemoveContact(ctx context.Context, username, contact string) error {
	if username == contact {
		return ErrCannotActOnSelf
	}

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		me, them, err := loadPair(ctx, tx, username, contact)
		if err != nil {
			return err
		}
		me.Contacts.Remove(them.ID)
		them.Contacts.Remove(me.ID)
		return tx.Users().SaveAll(ctx, []*models.User{me, them})
	})
	if err != nil {
		return err
	}

	notify(ctx, s.pub, s.log, NotifyContactRemoved, map[string]interface{}{
		"username": username,
		"contact":  contact,
	})
	return nil
}

// GetContacts lists the user's contacts in the order they were added.
func (s *ContactService) GetContacts(ctx context.Context, username string) ([]models.UserSummary, error) {
	user, err := findUser(ctx, s.store, username)
	if err != nil {
		return nil, err
	}
	return resolveSummaries(ctx, s.store, user.Contacts)
}

// PendingInvites holds the contact invites waiting on either side.
type PendingInvites struct {
	Received []models.UserSummary `json:"received"`
	Sent     []models.UserSummary `json:"sent"`
}

func (s *ContactService) ListInvites(ctx context.Context, username string) (PendingInvites, error) {
	user, err := findUser(ctx, s.store, username)
	if err != nil {
		return PendingInvites{}, err
	}
	received, err := resolveSummaries(ctx, s.store, user.ReceivedContactInvites)
	if err != nil {
		return PendingInvites{}, err
	}
	sent, err := resolveSummaries(ctx, s.store, user.SentContactInvites)
	if err != nil {
		return PendingInvites{}, err
	}
	return PendingInvites{Received: received, Sent: sent}, nil
}

// AreContacts reports whether b is in a's contact list.
func (s *ContactService) AreContacts(ctx context.Context, a, b string) (bool, error) {
	first, second, err := loadPair(ctx, s.store, a, b)
	if err != nil {
		return false, err
	}
	return first.Contacts.Contains(second.ID), nil
}

func resolveSummaries(ctx context.Context, store repository.Store, ids models.IDSet) ([]models.UserSummary, error) {
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		u, err := store.Users().FindByID(ctx, id)
		if err != nil {
			return nil, mapStoreErr(err)
		}
		out = append(out, models.SummaryOf(u))
	}
	return out, nil
}
