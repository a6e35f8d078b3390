// Package state implements the client-side state store for one server: the
// server record, the category/channel tree, the member roster, roles, and
// per-channel message lists. The store is an explicit, injectable container
// rather than ambient context, so tests can construct isolated instances.
//
// Consistency model: each slice is replaced wholesale by its own refresh, a
// cheap-but-coarse scheme with no partial merge and no diffing. Cross-slice
// consistency (e.g. the channel tree vs. a locally patched slow mode value)
// is the caller's responsibility.
package state

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/parlorchat/parlor-go/instrumentation"
	"github.com/parlorchat/parlor-go/models"
)

// Sentinel errors for store lookups.
var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrMessageNotFound = errors.New("message not found")
)

// Store holds all server-scoped client state. It is safe for concurrent use.
// Each state slice has a single writer path; reads return deep copies so
// callers can never mutate store internals through a snapshot.
type Store struct {
	mu sync.RWMutex

	server      *models.Server
	categories  []models.Category
	members     []models.Member
	roles       []models.Role
	currentUser *models.Member

	// messages holds the loaded history per channel. Only channels the
	// caller has opened occupy memory here.
	messages map[string][]models.Message

	// Atomic counters for metrics (lock-free access during metric collection)
	membersCountAtomic  atomic.Int64
	channelsCountAtomic atomic.Int64
	messagesCountAtomic atomic.Int64
	rolesCountAtomic    atomic.Int64

	inst   *instrumentation.Instrumentation
	tracer trace.Tracer
	logger *slog.Logger
}

// New creates an empty store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		messages: make(map[string][]models.Message),
		logger:   logger,
	}
}

// SetInstrumentation wires metrics and tracing into the store and registers
// the state size gauges.
func (s *Store) SetInstrumentation(inst *instrumentation.Instrumentation) error {
	s.inst = inst
	s.tracer = inst.Tracer("state")
	return inst.RegisterStateSizeCallbacks(
		s.membersCountAtomic.Load,
		s.channelsCountAtomic.Load,
		s.messagesCountAtomic.Load,
		s.rolesCountAtomic.Load,
	)
}

// record emits an operation metric; no-op without instrumentation.
func (s *Store) record(ctx context.Context, op string, start time.Time) {
	if s.inst == nil {
		return
	}
	s.inst.Metrics().RecordStateOperation(ctx, op, float64(time.Since(start).Milliseconds()))
}

// ==================== Server ====================

// SetServer replaces the server record wholesale.
func (s *Store) SetServer(ctx context.Context, server *models.Server) {
	defer s.record(ctx, "set_server", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	if server == nil {
		s.server = nil
		return
	}
	cp := *server
	s.server = &cp
}

// Server returns a copy of the server record, or nil if not loaded.
func (s *Store) Server() *models.Server {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.server == nil {
		return nil
	}
	cp := *s.server
	return &cp
}

// ==================== Categories and channels ====================

// SetCategories replaces the category/channel tree wholesale.
func (s *Store) SetCategories(ctx context.Context, categories []models.Category) {
	defer s.record(ctx, "set_categories", time.Now())

	tree := copyCategories(categories)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = tree
	s.channelsCountAtomic.Store(countChannels(tree))
}

// Categories returns a deep copy of the category/channel tree.
func (s *Store) Categories() []models.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCategories(s.categories)
}

// Channel returns a copy of one channel by id.
func (s *Store) Channel(channelID string) (*models.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.categories {
		for j := range s.categories[i].Channels {
			if s.categories[i].Channels[j].ID == channelID {
				cp := s.categories[i].Channels[j]
				return &cp, nil
			}
		}
	}
	return nil, ErrChannelNotFound
}

// PatchChannel merges an authoritative channel copy into the tree by id.
// The tree is rebuilt with the channel replaced in place: every other
// channel is untouched, and the channel's category membership is preserved
// even when the patch omits CategoryID. A patch carrying a different
// CategoryID updates the field but does not move the channel between
// categories; only a full tree refresh does that.
func (s *Store) PatchChannel(ctx context.Context, ch models.Channel) error {
	defer s.record(ctx, "patch_channel", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		for j := range s.categories[i].Channels {
			if s.categories[i].Channels[j].ID != ch.ID {
				continue
			}
			if ch.CategoryID == "" {
				ch.CategoryID = s.categories[i].Channels[j].CategoryID
			}
			s.categories[i].Channels[j] = ch
			return nil
		}
	}
	return ErrChannelNotFound
}

// SetChannelSlowMode mutates a channel's slow mode locally, ahead of (or
// without) the authoritative refetch. Until RefreshChannel lands, the store
// and the backend intentionally disagree; the trade is staleness risk for
// perceived responsiveness.
func (s *Store) SetChannelSlowMode(ctx context.Context, channelID string, seconds int) error {
	defer s.record(ctx, "set_channel_slow_mode", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		for j := range s.categories[i].Channels {
			if s.categories[i].Channels[j].ID == channelID {
				s.categories[i].Channels[j].SlowMode = seconds
				return nil
			}
		}
	}
	return ErrChannelNotFound
}

// ==================== Members ====================

// SetMembers replaces the member roster wholesale. If a current user was
// resolved, it is re-resolved against the new roster and cleared when the
// id is no longer present.
func (s *Store) SetMembers(ctx context.Context, members []models.Member) {
	defer s.record(ctx, "set_members", time.Now())

	roster := make([]models.Member, len(members))
	copy(roster, members)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = roster
	s.membersCountAtomic.Store(int64(len(roster)))
	if s.currentUser != nil {
		s.currentUser = findMember(roster, s.currentUser.ID)
	}
}

// Members returns a copy of the member roster.
func (s *Store) Members() []models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Member, len(s.members))
	copy(out, s.members)
	return out
}

// ResolveCurrentUser matches the session's user id against the loaded
// roster. A miss (e.g. membership fetch lag) leaves the current user nil,
// which downstream permission checks treat as unprivileged.
func (s *Store) ResolveCurrentUser(userID string) *models.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentUser = findMember(s.members, userID)
	if s.currentUser == nil {
		return nil
	}
	cp := *s.currentUser
	return &cp
}

// CurrentUser returns a copy of the resolved current user, or nil.
func (s *Store) CurrentUser() *models.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.currentUser == nil {
		return nil
	}
	cp := *s.currentUser
	return &cp
}

// Member returns a copy of one roster member by id.
func (s *Store) Member(memberID string) (*models.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := findMember(s.members, memberID)
	if m == nil {
		return nil, false
	}
	return m, true
}

func findMember(members []models.Member, id string) *models.Member {
	for i := range members {
		if members[i].ID == id {
			cp := members[i]
			return &cp
		}
	}
	return nil
}

// ==================== Roles ====================

// SetRoles replaces the role list wholesale.
func (s *Store) SetRoles(ctx context.Context, roles []models.Role) {
	defer s.record(ctx, "set_roles", time.Now())

	list := make([]models.Role, len(roles))
	copy(list, roles)
	for i := range list {
		list[i].Permissions = copyPermissions(list[i].Permissions)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles = list
	s.rolesCountAtomic.Store(int64(len(list)))
}

// Roles returns a copy of the role list.
func (s *Store) Roles() []models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Role, len(s.roles))
	copy(out, s.roles)
	for i := range out {
		out[i].Permissions = copyPermissions(out[i].Permissions)
	}
	return out
}

// Role returns a copy of one role by id.
func (s *Store) Role(roleID string) (*models.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.roles {
		if s.roles[i].ID == roleID {
			cp := s.roles[i]
			cp.Permissions = copyPermissions(cp.Permissions)
			return &cp, true
		}
	}
	return nil, false
}

// ==================== copy helpers ====================

func copyCategories(categories []models.Category) []models.Category {
	out := make([]models.Category, len(categories))
	copy(out, categories)
	for i := range out {
		channels := make([]models.Channel, len(out[i].Channels))
		copy(channels, out[i].Channels)
		out[i].Channels = channels
	}
	return out
}

func copyPermissions(perms map[string]*bool) map[string]*bool {
	if perms == nil {
		return nil
	}
	out := make(map[string]*bool, len(perms))
	for k, v := range perms {
		if v == nil {
			out[k] = nil
			continue
		}
		b := *v
		out[k] = &b
	}
	return out
}

func countChannels(categories []models.Category) int64 {
	var n int64
	for i := range categories {
		n += int64(len(categories[i].Channels))
	}
	return n
}
