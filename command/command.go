// Package command models the member context-menu actions as a closed set of
// typed variants with one dispatcher, replacing a string-keyed handler map.
// Actions the platform has not wired up yet are real variants whose dispatch
// returns ErrNotImplemented, so an unfinished action is a visible outcome
// rather than a silent log line.
package command

import (
	"errors"
	"time"
)

// ErrNotImplemented is returned when dispatching a command the platform has
// deliberately deferred (voice controls, calls, direct messages).
var ErrNotImplemented = errors.New("command not implemented")

// ErrUnknownMember is returned when a command targets a member id that is
// not in the loaded roster.
var ErrUnknownMember = errors.New("member not in roster")

// Command is a member-targeted action. The set of implementations is closed;
// the unexported marker method keeps external packages from adding variants
// the dispatcher's type switch would miss.
type Command interface {
	isCommand()
}

// Mention produces the composer insertion text for a member.
type Mention struct{ MemberID string }

// DirectMessage opens a DM with a member. Deferred.
type DirectMessage struct{ MemberID string }

// Call starts a voice call with a member. Deferred.
type Call struct{ MemberID string }

// VideoCall starts a video call with a member. Deferred.
type VideoCall struct{ MemberID string }

// ViewProfile fetches a member's public profile.
type ViewProfile struct{ MemberID string }

// CopyUserID yields the member's id for the host's clipboard.
type CopyUserID struct{ MemberID string }

// CopyUsername yields the member's username for the host's clipboard.
type CopyUsername struct{ MemberID string }

// EditNickname sets or clears (empty Nickname) the local+server nickname
// override for a member.
type EditNickname struct {
	MemberID string
	Nickname string
}

// AddRole assigns a custom role to a member.
type AddRole struct {
	MemberID string
	RoleID   string
}

// RemoveRole removes a custom role from a member.
type RemoveRole struct {
	MemberID string
	RoleID   string
}

// EditRoles asks the host to open its role editor for a member; dispatch
// resolves and returns the member.
type EditRoles struct{ MemberID string }

// MemberSettings asks the host to open its member settings surface;
// dispatch resolves and returns the member.
type MemberSettings struct{ MemberID string }

// VoiceMute server-mutes a member in voice. Deferred.
type VoiceMute struct{ MemberID string }

// VoiceDeafen server-deafens a member in voice. Deferred.
type VoiceDeafen struct{ MemberID string }

// MoveVoice moves a member to another voice channel. Deferred.
type MoveVoice struct {
	MemberID  string
	ChannelID string
}

// Timeout times a member out for the given duration.
type Timeout struct {
	MemberID string
	Duration time.Duration
}

// Kick removes a member from the server.
type Kick struct{ MemberID string }

// Ban bans a member from the server.
type Ban struct {
	MemberID string
	Reason   string
}

func (Mention) isCommand()        {}
func (DirectMessage) isCommand()  {}
func (Call) isCommand()           {}
func (VideoCall) isCommand()      {}
func (ViewProfile) isCommand()    {}
func (CopyUserID) isCommand()     {}
func (CopyUsername) isCommand()   {}
func (EditNickname) isCommand()   {}
func (AddRole) isCommand()        {}
func (RemoveRole) isCommand()     {}
func (EditRoles) isCommand()      {}
func (MemberSettings) isCommand() {}
func (VoiceMute) isCommand()      {}
func (VoiceDeafen) isCommand()    {}
func (MoveVoice) isCommand()      {}
func (Timeout) isCommand()        {}
func (Kick) isCommand()           {}
func (Ban) isCommand()            {}
