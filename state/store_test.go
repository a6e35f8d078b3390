package state

import (
	"context"
	"reflect"
	"testing"

	"github.com/parlorchat/parlor-go/models"
)

func testTree() []models.Category {
	return []models.Category{
		{
			ID: "cat1", Name: "General", Position: 0,
			Channels: []models.Channel{
				{ID: "ch1", Name: "general", Type: models.ChannelTypeText, CategoryID: "cat1"},
				{ID: "ch2", Name: "random", Type: models.ChannelTypeText, CategoryID: "cat1", SlowMode: 5},
			},
		},
		{
			ID: "cat2", Name: "Voice", Position: 1,
			Channels: []models.Channel{
				{ID: "ch3", Name: "lounge", Type: models.ChannelTypeVoice, CategoryID: "cat2"},
			},
		},
	}
}

func TestStore_SetServer(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	s.SetServer(ctx, &models.Server{ID: "s1", Name: "Parlor", MemberCount: 10})

	got := s.Server()
	if got == nil || got.Name != "Parlor" {
		t.Fatalf("Server() = %+v, want name Parlor", got)
	}

	// Mutating the snapshot must not leak back into the store.
	got.Name = "changed"
	if s.Server().Name != "Parlor" {
		t.Error("Server() snapshot mutation leaked into store")
	}
}

func TestStore_SetCategories_ReplacesWholesale(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	s.SetCategories(ctx, testTree())
	s.SetCategories(ctx, []models.Category{{ID: "cat9", Name: "Only"}})

	got := s.Categories()
	if len(got) != 1 || got[0].ID != "cat9" {
		t.Fatalf("Categories() = %+v, want single cat9", got)
	}
}

func TestStore_Categories_DeepCopy(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	s.SetCategories(ctx, testTree())

	snap := s.Categories()
	snap[0].Channels[0].Name = "mutated"

	if ch, _ := s.Channel("ch1"); ch.Name != "general" {
		t.Error("Categories() snapshot mutation leaked into store")
	}
}

func TestStore_PatchChannel(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	s.SetCategories(ctx, testTree())

	before := s.Categories()

	patch := models.Channel{ID: "ch2", Name: "random-renamed", Type: models.ChannelTypeText, CategoryID: "cat1", SlowMode: 10}
	if err := s.PatchChannel(ctx, patch); err != nil {
		t.Fatalf("PatchChannel() error = %v", err)
	}

	after := s.Categories()

	// The patched channel carries the new values.
	ch, err := s.Channel("ch2")
	if err != nil {
		t.Fatalf("Channel(ch2) error = %v", err)
	}
	if ch.Name != "random-renamed" || ch.SlowMode != 10 {
		t.Errorf("patched channel = %+v", ch)
	}

	// Every other channel in every category is unchanged.
	for i := range before {
		for j := range before[i].Channels {
			if before[i].Channels[j].ID == "ch2" {
				continue
			}
			if !reflect.DeepEqual(before[i].Channels[j], after[i].Channels[j]) {
				t.Errorf("channel %s changed by unrelated patch: before=%+v after=%+v",
					before[i].Channels[j].ID, before[i].Channels[j], after[i].Channels[j])
			}
		}
	}
}

func TestStore_PatchChannel_PreservesCategoryWhenOmitted(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	s.SetCategories(ctx, testTree())

	// Patch omits CategoryID entirely.
	if err := s.PatchChannel(ctx, models.Channel{ID: "ch3", Name: "lounge-2", Type: models.ChannelTypeVoice}); err != nil {
		t.Fatalf("PatchChannel() error = %v", err)
	}

	got := s.Categories()
	if len(got[1].Channels) != 1 || got[1].Channels[0].ID != "ch3" {
		t.Fatalf("ch3 left its category: %+v", got)
	}
	if got[1].Channels[0].CategoryID != "cat2" {
		t.Errorf("CategoryID = %q, want cat2", got[1].Channels[0].CategoryID)
	}
}

func TestStore_PatchChannel_NotFound(t *testing.T) {
	s := New(nil)
	s.SetCategories(context.Background(), testTree())

	err := s.PatchChannel(context.Background(), models.Channel{ID: "nope"})
	if err != ErrChannelNotFound {
		t.Errorf("PatchChannel() error = %v, want ErrChannelNotFound", err)
	}
}

func TestStore_SetChannelSlowMode(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	s.SetCategories(ctx, testTree())

	if err := s.SetChannelSlowMode(ctx, "ch1", 30); err != nil {
		t.Fatalf("SetChannelSlowMode() error = %v", err)
	}
	ch, _ := s.Channel("ch1")
	if ch.SlowMode != 30 {
		t.Errorf("SlowMode = %d, want 30", ch.SlowMode)
	}

	if err := s.SetChannelSlowMode(ctx, "missing", 30); err != ErrChannelNotFound {
		t.Errorf("SetChannelSlowMode(missing) error = %v, want ErrChannelNotFound", err)
	}
}

func TestStore_ResolveCurrentUser(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	s.SetMembers(ctx, []models.Member{
		{ID: "u1", Name: "Ada", Role: models.TierOwner},
		{ID: "u2", Name: "Ben", Role: models.TierMember},
	})

	if got := s.ResolveCurrentUser("u2"); got == nil || got.Name != "Ben" {
		t.Fatalf("ResolveCurrentUser(u2) = %+v", got)
	}

	// Unknown ids resolve to nil: the unprivileged path.
	if got := s.ResolveCurrentUser("ghost"); got != nil {
		t.Errorf("ResolveCurrentUser(ghost) = %+v, want nil", got)
	}
	if s.CurrentUser() != nil {
		t.Error("CurrentUser() should be nil after failed resolution")
	}
}

func TestStore_SetMembers_ReresolvesCurrentUser(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	s.SetMembers(ctx, []models.Member{{ID: "u1", Name: "Ada"}})
	s.ResolveCurrentUser("u1")

	// New roster still contains u1 with a new name.
	s.SetMembers(ctx, []models.Member{{ID: "u1", Name: "Ada L."}})
	if got := s.CurrentUser(); got == nil || got.Name != "Ada L." {
		t.Fatalf("CurrentUser() = %+v, want updated Ada L.", got)
	}

	// Roster without u1 clears the current user.
	s.SetMembers(ctx, []models.Member{{ID: "u9", Name: "Zed"}})
	if s.CurrentUser() != nil {
		t.Error("CurrentUser() should be nil after dropping from roster")
	}
}

func TestStore_Roles_PermissionCopyIsolation(t *testing.T) {
	s := New(nil)
	yes := true
	s.SetRoles(context.Background(), []models.Role{
		{ID: "r1", Name: "Mods", Permissions: map[string]*bool{"manage_members": &yes, "manage_channels": nil}},
	})

	role, ok := s.Role("r1")
	if !ok {
		t.Fatal("Role(r1) not found")
	}
	no := false
	role.Permissions["manage_members"] = &no

	again, _ := s.Role("r1")
	if v := again.Permissions["manage_members"]; v == nil || !*v {
		t.Error("Role() snapshot mutation leaked into store")
	}
}
