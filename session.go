package parlor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/parlorchat/parlor-go/ai"
	"github.com/parlorchat/parlor-go/command"
	"github.com/parlorchat/parlor-go/models"
	"github.com/parlorchat/parlor-go/nicknames"
	"github.com/parlorchat/parlor-go/rest"
	"github.com/parlorchat/parlor-go/slowmode"
	"github.com/parlorchat/parlor-go/state"
)

// Permission names consulted by the session's permission helpers.
const (
	PermManageChannels = "manage_channels"
	PermManageMembers  = "manage_members"
)

// Session binds the REST client, the state store, the nickname cache, the
// slow mode limiter, and the moderation dispatcher for one server. It is
// safe for concurrent use.
type Session struct {
	cfg    *Config
	api    *rest.Client
	store  *state.Store
	nicks  *nicknames.Cache
	disp   *command.Dispatcher
	slow   *slowmode.Limiter
	gen    *ai.Generator
	logger *slog.Logger

	closeOnce sync.Once
}

// NewSession creates a session from the given configuration. No network
// traffic happens until Open.
func NewSession(cfg *Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api, err := rest.NewClient(&rest.Config{
		BaseURL:         cfg.BaseURL,
		TokenSource:     cfg.TokenSource,
		HTTPClient:      cfg.HTTPClient,
		RequestTimeout:  cfg.RequestTimeout,
		Logger:          logger,
		Instrumentation: cfg.Instrumentation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	store := state.New(logger)
	if cfg.Instrumentation != nil {
		if err := store.SetInstrumentation(cfg.Instrumentation); err != nil {
			return nil, fmt.Errorf("failed to instrument state store: %w", err)
		}
	}

	var local nicknames.LocalStore
	if cfg.Nicknames.SQLitePath != "" {
		local, err = nicknames.NewSQLiteStore(cfg.Nicknames.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open nickname store: %w", err)
		}
	} else {
		local = nicknames.NewMemoryStore()
	}

	var remote nicknames.RemoteStore
	if !cfg.Nicknames.DisableRemoteSync {
		remote = api
	}
	nicks, err := nicknames.NewCache(cfg.ServerID, local, remote, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create nickname cache: %w", err)
	}
	if cfg.Instrumentation != nil {
		nicks.SetInstrumentation(cfg.Instrumentation)
	}

	disp, err := command.NewDispatcher(cfg.ServerID, api, nicks, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	slow := slowmode.NewLimiterWithConfig(cfg.SlowMode.MaxTrackedChannels, logger)

	var gen *ai.Generator
	if cfg.AI != nil {
		gen, err = ai.NewGenerator(cfg.AI, logger)
		if err != nil {
			slow.Stop()
			return nil, fmt.Errorf("failed to create AI generator: %w", err)
		}
	}

	return &Session{
		cfg:    cfg,
		api:    api,
		store:  store,
		nicks:  nicks,
		disp:   disp,
		slow:   slow,
		gen:    gen,
		logger: logger,
	}, nil
}

// Open performs the initial load: an unconditional idempotent join (the
// backend treats re-joining as a membership no-op), then the server record,
// channel tree, roster, roles, and nickname overrides in parallel. The
// slices are independent; a failure in one does not roll back the others,
// and all failures are joined into the returned error. The current user is
// resolved from whatever roster loaded; a miss leaves it nil and every
// permission check on the unprivileged path.
func (s *Session) Open(ctx context.Context) error {
	if err := s.api.JoinServer(ctx, s.cfg.ServerID); err != nil {
		s.logger.Warn("join on open failed", "server_id", s.cfg.ServerID, "error", err)
	}

	loaders := []func(context.Context) error{
		s.RefreshServer,
		s.RefreshCategories,
		s.RefreshMembers,
		s.RefreshRoles,
		s.nicks.Load,
	}

	errs := make([]error, len(loaders))
	var wg sync.WaitGroup
	for i, load := range loaders {
		wg.Add(1)
		go func(i int, load func(context.Context) error) {
			defer wg.Done()
			errs[i] = load(ctx)
		}(i, load)
	}
	wg.Wait()

	s.store.ResolveCurrentUser(s.cfg.UserID)

	return errors.Join(errs...)
}

// Close releases the session's background resources.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.slow.Stop()
		err = s.nicks.Close()
	})
	return err
}

// Store exposes the state store for reads and grouping.
func (s *Session) Store() *state.Store { return s.store }

// REST exposes the underlying API client for the CRUD surfaces (blog,
// store, admin settings) that don't flow through server-scoped state.
func (s *Session) REST() *rest.Client { return s.api }

// Nicknames exposes the nickname override cache.
func (s *Session) Nicknames() *nicknames.Cache { return s.nicks }

// AI returns the profile section generator, nil when not configured.
func (s *Session) AI() *ai.Generator { return s.gen }

// ==================== Refresh operations ====================

// RefreshServer refetches the server record and replaces it wholesale.
func (s *Session) RefreshServer(ctx context.Context) error {
	server, err := s.api.GetServer(ctx, s.cfg.ServerID)
	if err != nil {
		return err
	}
	s.store.SetServer(ctx, server)
	return nil
}

// RefreshCategories refetches the channel tree, replaces it wholesale, and
// reseeds the slow mode limiter from the authoritative intervals.
func (s *Session) RefreshCategories(ctx context.Context) error {
	categories, err := s.api.GetCategories(ctx, s.cfg.ServerID)
	if err != nil {
		return err
	}
	s.store.SetCategories(ctx, categories)
	for _, cat := range categories {
		for _, ch := range cat.Channels {
			s.slow.SetInterval(ch.ID, ch.SlowMode)
		}
	}
	return nil
}

// RefreshMembers refetches the roster, replaces it wholesale, and
// re-resolves the current user against it.
func (s *Session) RefreshMembers(ctx context.Context) error {
	members, err := s.api.GetMembers(ctx, s.cfg.ServerID)
	if err != nil {
		return err
	}
	s.store.SetMembers(ctx, members)
	s.store.ResolveCurrentUser(s.cfg.UserID)
	return nil
}

// RefreshRoles refetches the role list and replaces it wholesale.
func (s *Session) RefreshRoles(ctx context.Context) error {
	roles, err := s.api.GetRoles(ctx, s.cfg.ServerID)
	if err != nil {
		return err
	}
	s.store.SetRoles(ctx, roles)
	return nil
}

// RefreshChannel refetches a single channel and merges the authoritative
// copy into the tree, leaving every other channel untouched.
func (s *Session) RefreshChannel(ctx context.Context, channelID string) error {
	ch, err := s.api.GetChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if err := s.store.PatchChannel(ctx, *ch); err != nil {
		return err
	}
	s.slow.SetInterval(ch.ID, ch.SlowMode)
	return nil
}

// SetChannelSlowMode applies a slow mode value locally, ahead of (or
// without) a server round-trip. Callers saving the value pair this with
// UpdateChannel or RefreshChannel for the authoritative copy.
func (s *Session) SetChannelSlowMode(ctx context.Context, channelID string, seconds int) error {
	if err := s.store.SetChannelSlowMode(ctx, channelID, seconds); err != nil {
		return err
	}
	s.slow.SetInterval(channelID, seconds)
	return nil
}

// CreateChannel creates a channel and merges it into the tree via a full
// tree refresh, since the new channel changes category contents.
func (s *Session) CreateChannel(ctx context.Context, req *rest.CreateChannelRequest) (*models.Channel, error) {
	ch, err := s.api.CreateChannel(ctx, s.cfg.ServerID, req)
	if err != nil {
		return nil, err
	}
	if err := s.RefreshCategories(ctx); err != nil {
		s.logger.Warn("channel created but tree refresh failed", "channel_id", ch.ID, "error", err)
	}
	return ch, nil
}

// UpdateChannel patches a channel on the server and merges the returned
// authoritative copy into local state.
func (s *Session) UpdateChannel(ctx context.Context, channelID string, req *rest.UpdateChannelRequest) (*models.Channel, error) {
	ch, err := s.api.UpdateChannel(ctx, channelID, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.PatchChannel(ctx, *ch); err != nil {
		return nil, err
	}
	s.slow.SetInterval(ch.ID, ch.SlowMode)
	return ch, nil
}

// ==================== Membership ====================

// JoinServer joins the current user to the server and best-effort refetches
// the server record and roster; refetch failures are logged, not returned.
func (s *Session) JoinServer(ctx context.Context) error {
	if err := s.api.JoinServer(ctx, s.cfg.ServerID); err != nil {
		return err
	}
	if err := s.RefreshServer(ctx); err != nil {
		s.logger.Warn("post-join server refresh failed", "error", err)
	}
	if err := s.RefreshMembers(ctx); err != nil {
		s.logger.Warn("post-join member refresh failed", "error", err)
	}
	return nil
}

// LeaveServer removes the current user from the server.
func (s *Session) LeaveServer(ctx context.Context) error {
	return s.api.LeaveServer(ctx, s.cfg.ServerID)
}

// ==================== Messages ====================

// OpenChannel loads a channel's full history into the store, replacing any
// previously loaded list, and returns a copy. The backend paginates nothing
// here; every open refetches the entire history.
func (s *Session) OpenChannel(ctx context.Context, channelID string) ([]models.Message, error) {
	messages, err := s.api.GetMessages(ctx, channelID)
	if err != nil {
		return nil, err
	}
	s.store.ReplaceMessages(ctx, channelID, messages)
	return s.store.Messages(channelID), nil
}

// File is one attachment to upload alongside a message.
type File struct {
	Name   string
	Reader io.Reader
}

// SendOptions carries the optional parts of a send.
type SendOptions struct {
	// ReplyToID references the message being replied to, if any.
	ReplyToID string

	// Files are uploaded before the message is posted; their stored
	// references ride along as attachments.
	Files []File
}

// SendMessage sends a message: slow mode check, attachment uploads, then
// the message post. The server-assigned message is appended to local state
// on success; nothing is appended optimistically, so a failed send leaves
// no phantom row.
func (s *Session) SendMessage(ctx context.Context, channelID, content string, opts *SendOptions) (*models.Message, error) {
	if err := s.slow.Allow(channelID); err != nil {
		if s.cfg.Instrumentation != nil {
			s.cfg.Instrumentation.Metrics().SlowModeThrottled.Add(ctx, 1)
		}
		return nil, err
	}
	if opts == nil {
		opts = &SendOptions{}
	}

	var attachments []models.Attachment
	for _, f := range opts.Files {
		att, err := s.api.Upload(ctx, f.Name, f.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to upload attachment: %w", err)
		}
		attachments = append(attachments, *att)
	}

	msg, err := s.api.SendMessage(ctx, channelID, &rest.SendMessageRequest{
		Content:     content,
		ReplyToID:   opts.ReplyToID,
		Attachments: attachments,
	})
	if err != nil {
		return nil, err
	}
	s.store.AppendMessage(ctx, channelID, *msg)
	return msg, nil
}

// EditMessage edits a message on the server and mirrors the new content
// and edited timestamp into local state. No edit history is kept.
func (s *Session) EditMessage(ctx context.Context, channelID, messageID, content string) error {
	msg, err := s.api.EditMessage(ctx, messageID, content)
	if err != nil {
		return err
	}
	editedAt := time.Now()
	if msg.Edited != nil {
		editedAt = *msg.Edited
	}
	return s.store.EditMessage(ctx, channelID, messageID, msg.Content, editedAt)
}

// DeleteMessage soft-deletes a message on the server, then marks the local
// row deleted in place: position, id, and timestamp survive, content
// becomes the placeholder.
func (s *Session) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	if err := s.api.DeleteMessage(ctx, messageID); err != nil {
		return err
	}
	return s.store.SoftDeleteMessage(ctx, channelID, messageID)
}

// React toggles the current user's reaction optimistically, then confirms
// with the server and reconciles local state against the server's resulting
// reaction list. On request failure the optimistic toggle is left standing
// and the error returned; the next history load squares any drift.
func (s *Session) React(ctx context.Context, channelID, messageID, emoji string) error {
	user := s.store.CurrentUser()
	if user == nil {
		return fmt.Errorf("no current user resolved")
	}

	if _, err := s.store.ToggleReaction(ctx, channelID, messageID, user.ID, emoji); err != nil {
		return err
	}

	reactions, err := s.api.ToggleReaction(ctx, messageID, emoji)
	if err != nil {
		return err
	}
	if reactions != nil {
		return s.store.SetReactions(ctx, channelID, messageID, reactions)
	}
	return nil
}

// ==================== Members and moderation ====================

// Dispatch executes a member context-menu command.
func (s *Session) Dispatch(ctx context.Context, cmd command.Command) (*command.Result, error) {
	return s.disp.Dispatch(ctx, cmd)
}

// DisplayName resolves a member's effective display name: the nickname
// override when one exists, the roster name otherwise.
func (s *Session) DisplayName(memberID string) string {
	if name, ok := s.nicks.Resolve(memberID); ok && name != "" {
		return name
	}
	if m, ok := s.store.Member(memberID); ok {
		return m.Name
	}
	return ""
}

// CanManageChannels reports whether the current user may create, edit, or
// delete channels. A nil current user is unprivileged.
func (s *Session) CanManageChannels() bool {
	return s.store.HasPermission(s.store.CurrentUser(), PermManageChannels)
}

// CanManageMembers reports whether the current user may moderate members.
// Moderators pass by tier even without a custom role grant.
func (s *Session) CanManageMembers() bool {
	user := s.store.CurrentUser()
	if user != nil && user.Role == models.TierModerator {
		return true
	}
	return s.store.HasPermission(user, PermManageMembers)
}
