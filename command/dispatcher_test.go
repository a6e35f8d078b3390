package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/parlorchat/parlor-go/models"
)

type fakeAPI struct {
	calls   []string
	profile *models.Profile
	err     error
}

func (f *fakeAPI) record(call string) error {
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeAPI) AddMemberRole(_ context.Context, serverID, memberID, roleID string) error {
	return f.record("add_role " + serverID + " " + memberID + " " + roleID)
}

func (f *fakeAPI) RemoveMemberRole(_ context.Context, serverID, memberID, roleID string) error {
	return f.record("remove_role " + serverID + " " + memberID + " " + roleID)
}

func (f *fakeAPI) TimeoutMember(_ context.Context, serverID, memberID string, d time.Duration) error {
	return f.record("timeout " + serverID + " " + memberID + " " + d.String())
}

func (f *fakeAPI) BanMember(_ context.Context, serverID, memberID, reason string) error {
	return f.record("ban " + serverID + " " + memberID + " " + reason)
}

func (f *fakeAPI) KickMember(_ context.Context, serverID, memberID string) error {
	return f.record("kick " + serverID + " " + memberID)
}

func (f *fakeAPI) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	f.calls = append(f.calls, "get_profile "+userID)
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type fakeNicknames struct {
	set     map[string]string
	removed []string
}

func (f *fakeNicknames) Set(_ context.Context, memberID, name string) error {
	if f.set == nil {
		f.set = make(map[string]string)
	}
	f.set[memberID] = name
	return nil
}

func (f *fakeNicknames) Remove(_ context.Context, memberID string) error {
	f.removed = append(f.removed, memberID)
	return nil
}

type fakeRoster map[string]models.Member

func (f fakeRoster) Member(memberID string) (*models.Member, bool) {
	m, ok := f[memberID]
	if !ok {
		return nil, false
	}
	return &m, true
}

func newTestDispatcher(t *testing.T, api *fakeAPI, nicks *fakeNicknames) *Dispatcher {
	t.Helper()
	roster := fakeRoster{
		"u1": {ID: "u1", Name: "Ada", Username: "ada"},
	}
	var store NicknameStore
	if nicks != nil {
		store = nicks
	}
	d, err := NewDispatcher("srv1", api, store, roster, nil)
	if err != nil {
		t.Fatalf("NewDispatcher() error = %v", err)
	}
	return d
}

func TestNewDispatcher_Validation(t *testing.T) {
	if _, err := NewDispatcher("", &fakeAPI{}, nil, fakeRoster{}, nil); err == nil {
		t.Error("empty server ID accepted")
	}
	if _, err := NewDispatcher("srv1", nil, nil, fakeRoster{}, nil); err == nil {
		t.Error("nil API accepted")
	}
	if _, err := NewDispatcher("srv1", &fakeAPI{}, nil, nil, nil); err == nil {
		t.Error("nil roster accepted")
	}
}

func TestDispatch_Mention(t *testing.T) {
	d := newTestDispatcher(t, &fakeAPI{}, nil)

	res, err := d.Dispatch(context.Background(), Mention{MemberID: "u1"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if res.Text != "@ada " {
		t.Errorf("Text = %q, want %q", res.Text, "@ada ")
	}
}

func TestDispatch_CopyCommands(t *testing.T) {
	d := newTestDispatcher(t, &fakeAPI{}, nil)
	ctx := context.Background()

	res, err := d.Dispatch(ctx, CopyUserID{MemberID: "u1"})
	if err != nil || res.Text != "u1" {
		t.Errorf("CopyUserID = (%+v, %v), want Text u1", res, err)
	}

	res, err = d.Dispatch(ctx, CopyUsername{MemberID: "u1"})
	if err != nil || res.Text != "ada" {
		t.Errorf("CopyUsername = (%+v, %v), want Text ada", res, err)
	}
}

func TestDispatch_UnknownMember(t *testing.T) {
	d := newTestDispatcher(t, &fakeAPI{}, nil)
	ctx := context.Background()

	for _, cmd := range []Command{
		Mention{MemberID: "ghost"},
		CopyUserID{MemberID: "ghost"},
		CopyUsername{MemberID: "ghost"},
		EditRoles{MemberID: "ghost"},
		MemberSettings{MemberID: "ghost"},
	} {
		if _, err := d.Dispatch(ctx, cmd); !errors.Is(err, ErrUnknownMember) {
			t.Errorf("Dispatch(%T) error = %v, want ErrUnknownMember", cmd, err)
		}
	}
}

func TestDispatch_ViewProfile(t *testing.T) {
	api := &fakeAPI{profile: &models.Profile{UserID: "u1", Username: "ada"}}
	d := newTestDispatcher(t, api, nil)

	res, err := d.Dispatch(context.Background(), ViewProfile{MemberID: "u1"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if res.Profile == nil || res.Profile.Username != "ada" {
		t.Errorf("Profile = %+v", res.Profile)
	}
}

func TestDispatch_EditNickname(t *testing.T) {
	nicks := &fakeNicknames{}
	d := newTestDispatcher(t, &fakeAPI{}, nicks)
	ctx := context.Background()

	if _, err := d.Dispatch(ctx, EditNickname{MemberID: "u1", Nickname: "The Countess"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if nicks.set["u1"] != "The Countess" {
		t.Errorf("set = %v", nicks.set)
	}

	// An empty nickname clears the override.
	if _, err := d.Dispatch(ctx, EditNickname{MemberID: "u1"}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(nicks.removed) != 1 || nicks.removed[0] != "u1" {
		t.Errorf("removed = %v", nicks.removed)
	}
}

func TestDispatch_EditNickname_NoStore(t *testing.T) {
	d := newTestDispatcher(t, &fakeAPI{}, nil)
	if _, err := d.Dispatch(context.Background(), EditNickname{MemberID: "u1", Nickname: "x"}); err == nil {
		t.Error("expected error without a nickname store")
	}
}

func TestDispatch_ModerationCommands(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"add role", AddRole{MemberID: "u1", RoleID: "r1"}, "add_role srv1 u1 r1"},
		{"remove role", RemoveRole{MemberID: "u1", RoleID: "r1"}, "remove_role srv1 u1 r1"},
		{"timeout", Timeout{MemberID: "u1", Duration: 10 * time.Minute}, "timeout srv1 u1 10m0s"},
		{"kick", Kick{MemberID: "u1"}, "kick srv1 u1"},
		{"ban", Ban{MemberID: "u1", Reason: "spam"}, "ban srv1 u1 spam"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{}
			d := newTestDispatcher(t, api, nil)
			if _, err := d.Dispatch(context.Background(), tt.cmd); err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}
			if len(api.calls) != 1 || api.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", api.calls, tt.want)
			}
		})
	}
}

func TestDispatch_ModerationError(t *testing.T) {
	api := &fakeAPI{err: errors.New("forbidden")}
	d := newTestDispatcher(t, api, nil)
	if _, err := d.Dispatch(context.Background(), Kick{MemberID: "u1"}); err == nil {
		t.Error("API error not propagated")
	}
}

func TestDispatch_MemberSurfaces(t *testing.T) {
	d := newTestDispatcher(t, &fakeAPI{}, nil)
	ctx := context.Background()

	for _, cmd := range []Command{EditRoles{MemberID: "u1"}, MemberSettings{MemberID: "u1"}} {
		res, err := d.Dispatch(ctx, cmd)
		if err != nil {
			t.Fatalf("Dispatch(%T) error = %v", cmd, err)
		}
		if res.Member == nil || res.Member.ID != "u1" {
			t.Errorf("Dispatch(%T).Member = %+v", cmd, res.Member)
		}
	}
}

func TestDispatch_DeferredCommands(t *testing.T) {
	d := newTestDispatcher(t, &fakeAPI{}, nil)
	ctx := context.Background()

	for _, cmd := range []Command{
		DirectMessage{MemberID: "u1"},
		Call{MemberID: "u1"},
		VideoCall{MemberID: "u1"},
		VoiceMute{MemberID: "u1"},
		VoiceDeafen{MemberID: "u1"},
		MoveVoice{MemberID: "u1", ChannelID: "ch1"},
	} {
		if _, err := d.Dispatch(ctx, cmd); !errors.Is(err, ErrNotImplemented) {
			t.Errorf("Dispatch(%T) error = %v, want ErrNotImplemented", cmd, err)
		}
	}
}
