package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/parlorchat/parlor-go/models"
)

// ModerationAPI is the slice of the REST client the dispatcher needs.
// *rest.Client satisfies it.
type ModerationAPI interface {
	AddMemberRole(ctx context.Context, serverID, memberID, roleID string) error
	RemoveMemberRole(ctx context.Context, serverID, memberID, roleID string) error
	TimeoutMember(ctx context.Context, serverID, memberID string, d time.Duration) error
	BanMember(ctx context.Context, serverID, memberID, reason string) error
	KickMember(ctx context.Context, serverID, memberID string) error
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

// NicknameStore is the slice of the nickname cache the dispatcher needs.
// *nicknames.Cache satisfies it.
type NicknameStore interface {
	Set(ctx context.Context, memberID, name string) error
	Remove(ctx context.Context, memberID string) error
}

// Roster resolves members from loaded state. *state.Store satisfies it.
type Roster interface {
	Member(memberID string) (*models.Member, bool)
}

// Result carries a command's output back to the host.
type Result struct {
	// Text is set by Mention (composer insertion text) and the copy
	// commands (the value to place on the host's clipboard).
	Text string

	// Profile is set by ViewProfile.
	Profile *models.Profile

	// Member is set by EditRoles and MemberSettings so the host can open
	// the matching surface without another roster lookup.
	Member *models.Member
}

// Dispatcher executes commands against one server.
type Dispatcher struct {
	serverID  string
	api       ModerationAPI
	nicknames NicknameStore
	roster    Roster
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher for a server.
func NewDispatcher(serverID string, api ModerationAPI, nicknames NicknameStore, roster Roster, logger *slog.Logger) (*Dispatcher, error) {
	if serverID == "" {
		return nil, fmt.Errorf("server ID is required")
	}
	if api == nil {
		return nil, fmt.Errorf("moderation API is required")
	}
	if roster == nil {
		return nil, fmt.Errorf("roster is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		serverID:  serverID,
		api:       api,
		nicknames: nicknames,
		roster:    roster,
		logger:    logger,
	}, nil
}

// Dispatch executes one command. The type switch is exhaustive over the
// closed variant set; deferred actions return ErrNotImplemented.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (*Result, error) {
	switch c := cmd.(type) {
	case Mention:
		m, ok := d.roster.Member(c.MemberID)
		if !ok {
			return nil, ErrUnknownMember
		}
		return &Result{Text: "@" + m.Username + " "}, nil

	case CopyUserID:
		m, ok := d.roster.Member(c.MemberID)
		if !ok {
			return nil, ErrUnknownMember
		}
		return &Result{Text: m.ID}, nil

	case CopyUsername:
		m, ok := d.roster.Member(c.MemberID)
		if !ok {
			return nil, ErrUnknownMember
		}
		return &Result{Text: m.Username}, nil

	case ViewProfile:
		profile, err := d.api.GetProfile(ctx, c.MemberID)
		if err != nil {
			return nil, err
		}
		return &Result{Profile: profile}, nil

	case EditNickname:
		if d.nicknames == nil {
			return nil, fmt.Errorf("nickname store not configured")
		}
		if c.Nickname == "" {
			return &Result{}, d.nicknames.Remove(ctx, c.MemberID)
		}
		return &Result{}, d.nicknames.Set(ctx, c.MemberID, c.Nickname)

	case AddRole:
		return &Result{}, d.api.AddMemberRole(ctx, d.serverID, c.MemberID, c.RoleID)

	case RemoveRole:
		return &Result{}, d.api.RemoveMemberRole(ctx, d.serverID, c.MemberID, c.RoleID)

	case EditRoles:
		m, ok := d.roster.Member(c.MemberID)
		if !ok {
			return nil, ErrUnknownMember
		}
		return &Result{Member: m}, nil

	case MemberSettings:
		m, ok := d.roster.Member(c.MemberID)
		if !ok {
			return nil, ErrUnknownMember
		}
		return &Result{Member: m}, nil

	case Timeout:
		return &Result{}, d.api.TimeoutMember(ctx, d.serverID, c.MemberID, c.Duration)

	case Kick:
		return &Result{}, d.api.KickMember(ctx, d.serverID, c.MemberID)

	case Ban:
		return &Result{}, d.api.BanMember(ctx, d.serverID, c.MemberID, c.Reason)

	case DirectMessage, Call, VideoCall, VoiceMute, VoiceDeafen, MoveVoice:
		d.logger.Debug("dispatched deferred command", "command", fmt.Sprintf("%T", cmd))
		return nil, ErrNotImplemented

	default:
		return nil, fmt.Errorf("unknown command type %T", cmd)
	}
}
