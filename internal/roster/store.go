// Package roster holds the in-memory contact and group lists.
package roster

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/c-pro/geche"
	"go.uber.org/zap"

	"github.com/matheus3301/chatterm/internal/bus"
	"github.com/matheus3301/chatterm/internal/domain"
)

// GroupInfoTTL is how long fetched group details are reused.
const GroupInfoTTL = 30 * time.Second

// Fetcher is the subset of the HTTP API the roster loads from.
type Fetcher interface {
	ListContacts(ctx context.Context) ([]domain.Contact, error)
	ListGroups(ctx context.Context) ([]domain.Group, error)
	GroupDetails(ctx context.Context, groupID int64) (*domain.GroupDetails, error)
}

// Store owns the contact and group lists. Loads replace a list wholesale;
// presence and unread updates mutate it in place.
type Store struct {
	api    Fetcher
	bus    *bus.Bus
	logger *zap.Logger

	mu          sync.RWMutex
	contacts    []domain.Contact
	groups      []domain.Group
	contactsErr error
	groupsErr   error
	contactsGen uint64
	groupsGen   uint64

	details geche.Geche[int64, *domain.GroupDetails]
}

// New creates an empty store. ctx bounds the group details cache janitor.
func New(ctx context.Context, api Fetcher, b *bus.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		api:     api,
		bus:     b,
		logger:  logger,
		details: geche.NewMapTTLCache[int64, *domain.GroupDetails](ctx, GroupInfoTTL, time.Minute),
	}
}

func (s *Store) publish(kind string) {
	if s.bus != nil {
		s.bus.Emit(kind, nil)
	}
}

// LoadContacts fetches the contact list once. On success the list is
// replaced; on failure the previous list is kept and the error recorded. A
// response overtaken by a newer load is discarded.
func (s *Store) LoadContacts(ctx context.Context) error {
	s.mu.Lock()
	s.contactsGen++
	gen := s.contactsGen
	s.mu.Unlock()

	list, err := s.api.ListContacts(ctx)

	s.mu.Lock()
	if gen != s.contactsGen {
		s.mu.Unlock()
		s.logger.Debug("discarding stale contacts load", zap.Uint64("gen", gen))
		return nil
	}
	if err != nil {
		s.contactsErr = err
	} else {
		s.contacts = nonNil(list)
		s.contactsErr = nil
	}
	s.mu.Unlock()

	s.publish(bus.KindContactsChanged)
	if err != nil {
		return fmt.Errorf("load contacts: %w", err)
	}
	return nil
}

// LoadGroups is LoadContacts for the group list.
func (s *Store) LoadGroups(ctx context.Context) error {
	s.mu.Lock()
	s.groupsGen++
	gen := s.groupsGen
	s.mu.Unlock()

	list, err := s.api.ListGroups(ctx)

	s.mu.Lock()
	if gen != s.groupsGen {
		s.mu.Unlock()
		s.logger.Debug("discarding stale groups load", zap.Uint64("gen", gen))
		return nil
	}
	if err != nil {
		s.groupsErr = err
	} else {
		s.groups = nonNil(list)
		s.groupsErr = nil
	}
	s.mu.Unlock()

	s.publish(bus.KindGroupsChanged)
	if err != nil {
		return fmt.Errorf("load groups: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Contacts returns a copy of the contact list.
func (s *Store) Contacts() []domain.Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.contacts)
}

// ContactsErr returns the error of the last contacts load, if it failed.
func (s *Store) ContactsErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contactsErr
}

// Contact looks a contact up by user id.
func (s *Store) Contact(userID int64) (domain.Contact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.contacts {
		if c.UserID == userID {
			return c, true
		}
	}
	return domain.Contact{}, false
}

// Groups returns a copy of the group list.
func (s *Store) Groups() []domain.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.groups)
}

// GroupsErr returns the error of the last groups load, if it failed.
func (s *Store) GroupsErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groupsErr
}

// Group looks a group up by id.
func (s *Store) Group(groupID int64) (domain.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.groups {
		if g.GroupID == groupID {
			return g, true
		}
	}
	return domain.Group{}, false
}

// SetPresence updates one contact's status. Unknown users are ignored.
func (s *Store) SetPresence(userID int64, p domain.Presence) bool {
	s.mu.Lock()
	changed := false
	for i := range s.contacts {
		if s.contacts[i].UserID == userID && s.contacts[i].Status != p {
			s.contacts[i].Status = p
			changed = true
		}
	}
	s.mu.Unlock()
	if changed {
		s.publish(bus.KindContactsChanged)
	}
	return changed
}

// ApplyOnlineUsers marks every listed user online and leaves the others as they are.
func (s *Store) ApplyOnlineUsers(userIDs []int64) {
	s.mu.Lock()
	changed := false
	for i := range s.contacts {
		if s.contacts[i].Status != domain.Online && slices.Contains(userIDs, s.contacts[i].UserID) {
			s.contacts[i].Status = domain.Online
			changed = true
		}
	}
	s.mu.Unlock()
	if changed {
		s.publish(bus.KindContactsChanged)
	}
}

// FilterContacts returns contacts whose username or email contains q,
// ignoring case. An empty query returns every contact.
func (s *Store) FilterContacts(q string) []domain.Contact {
	q = strings.ToLower(q)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		if q == "" ||
			strings.Contains(strings.ToLower(c.Username), q) ||
			strings.Contains(strings.ToLower(c.Email), q) {
			out = append(out, c)
		}
	}
	return out
}

// FilterGroups returns groups whose name contains q, ignoring case.
func (s *Store) FilterGroups(q string) []domain.Group {
	q = strings.ToLower(q)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Group, 0, len(s.groups))
	for _, g := range s.groups {
		if q == "" || strings.Contains(strings.ToLower(g.Name), q) {
			out = append(out, g)
		}
	}
	return out
}

// IncrementUnread bumps a group's unread counter.
func (s *Store) IncrementUnread(groupID int64) {
	s.updateGroup(groupID, func(g *domain.Group) bool {
		g.UnreadCount++
		return true
	})
}

// ClearUnread resets a group's unread counter.
func (s *Store) ClearUnread(groupID int64) {
	s.updateGroup(groupID, func(g *domain.Group) bool {
		if g.UnreadCount == 0 {
			return false
		}
		g.UnreadCount = 0
		return true
	})
}

func (s *Store) updateGroup(groupID int64, fn func(*domain.Group) bool) {
	s.mu.Lock()
	changed := false
	for i := range s.groups {
		if s.groups[i].GroupID == groupID {
			changed = fn(&s.groups[i])
			break
		}
	}
	s.mu.Unlock()
	if changed {
		s.publish(bus.KindGroupsChanged)
	}
}

// GroupInfo returns the group's details, from cache when fresh.
func (s *Store) GroupInfo(ctx context.Context, groupID int64) (*domain.GroupDetails, error) {
	d, err := s.details.Get(groupID)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, geche.ErrNotFound) {
		return nil, err
	}
	d, err = s.api.GroupDetails(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("group %d details: %w", groupID, err)
	}
	s.details.Set(groupID, d)
	return d, nil
}

// InvalidateGroup drops cached details after a membership change.
func (s *Store) InvalidateGroup(groupID int64) {
	_ = s.details.Del(groupID)
}
