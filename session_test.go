package parlor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/parlorchat/parlor-go/command"
	"github.com/parlorchat/parlor-go/models"
	"github.com/parlorchat/parlor-go/rest"
)

// fakeBackend serves the slice of the platform API the session touches.
type fakeBackend struct {
	mu        sync.Mutex
	joins     int
	nicknames map[string]string
	messages  map[string][]models.Message
	reactErr  int // HTTP status to fail reaction toggles with, 0 for success
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nicknames: map[string]string{},
		messages: map[string][]models.Message{
			"ch1": {
				{ID: "m1", ChannelID: "ch1", UserID: "u2", Content: "welcome"},
			},
		},
	}
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/servers/s1/join", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.joins++
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/servers/s1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(models.Server{ID: "s1", Name: "Test Server", MemberCount: 3})
	})
	mux.HandleFunc("GET /api/servers/s1/categories", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.Category{
			{ID: "cat1", Name: "General", Channels: []models.Channel{
				{ID: "ch1", Name: "general", Type: models.ChannelTypeText, CategoryID: "cat1", SlowMode: 60},
			}},
		})
	})
	mux.HandleFunc("GET /api/servers/s1/members", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.Member{
			{ID: "u1", Name: "Ada", Username: "ada", Role: models.TierMember, RoleID: "r1"},
			{ID: "u2", Name: "Ben", Username: "ben", Role: models.TierOwner},
		})
	})
	mux.HandleFunc("GET /api/servers/s1/roles", func(w http.ResponseWriter, r *http.Request) {
		yes := true
		_ = json.NewEncoder(w).Encode([]models.Role{
			{ID: "r1", Name: "Regulars", Permissions: map[string]*bool{"manage_channels": &yes}},
		})
	})
	mux.HandleFunc("GET /api/servers/s1/nicknames", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(b.nicknames)
	})
	mux.HandleFunc("PUT /api/servers/s1/nicknames", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		if body["nickname"] == "" {
			delete(b.nicknames, body["memberId"])
		} else {
			b.nicknames[body["memberId"]] = body["nickname"]
		}
		b.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/channels/ch1/messages", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(b.messages["ch1"])
	})
	mux.HandleFunc("POST /api/channels/ch1/messages", func(w http.ResponseWriter, r *http.Request) {
		var req rest.SendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		msg := models.Message{
			ID: "m-new", ChannelID: "ch1", UserID: "u1", Content: req.Content,
			Attachments: req.Attachments, Timestamp: time.Now(),
		}
		b.mu.Lock()
		b.messages["ch1"] = append(b.messages["ch1"], msg)
		b.mu.Unlock()
		_ = json.NewEncoder(w).Encode(msg)
	})
	mux.HandleFunc("PATCH /api/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		edited := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
		_ = json.NewEncoder(w).Encode(models.Message{
			ID: "m1", ChannelID: "ch1", Content: body["content"], Edited: &edited,
		})
	})
	mux.HandleFunc("DELETE /api/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/messages/m1/reactions", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		status := b.reactErr
		b.mu.Unlock()
		if status != 0 {
			http.Error(w, "nope", status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"reactions": []models.Reaction{{Emoji: "🎉", Users: []string{"u1", "u9"}, Count: 2}},
		})
	})

	return mux
}

func newTestSession(t *testing.T, b *fakeBackend) *Session {
	t.Helper()
	server := httptest.NewServer(b.handler())
	t.Cleanup(server.Close)

	session, err := NewSession(&Config{
		BaseURL:  server.URL,
		ServerID: "s1",
		UserID:   "u1",
	})
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{"nil", nil, true},
		{"missing base URL", &Config{ServerID: "s1", UserID: "u1"}, true},
		{"missing server ID", &Config{BaseURL: "https://x", UserID: "u1"}, true},
		{"missing user ID", &Config{BaseURL: "https://x", ServerID: "s1"}, true},
		{"complete", &Config{BaseURL: "https://x", ServerID: "s1", UserID: "u1"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSession_Open(t *testing.T) {
	b := newFakeBackend()
	s := newTestSession(t, b)

	if err := s.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	b.mu.Lock()
	joins := b.joins
	b.mu.Unlock()
	if joins != 1 {
		t.Errorf("joins = %d, want 1", joins)
	}
	if srv := s.Store().Server(); srv == nil || srv.Name != "Test Server" {
		t.Errorf("server = %+v", srv)
	}
	if ch, err := s.Store().Channel("ch1"); err != nil || ch.SlowMode != 60 {
		t.Errorf("channel = %+v, err = %v", ch, err)
	}
	if user := s.Store().CurrentUser(); user == nil || user.ID != "u1" {
		t.Errorf("current user = %+v", user)
	}
}

func TestSession_OpenChannel(t *testing.T) {
	b := newFakeBackend()
	s := newTestSession(t, b)

	messages, err := s.OpenChannel(context.Background(), "ch1")
	if err != nil {
		t.Fatalf("OpenChannel() error = %v", err)
	}
	if len(messages) != 1 || messages[0].ID != "m1" {
		t.Errorf("messages = %+v", messages)
	}
}

func TestSession_SendMessage(t *testing.T) {
	b := newFakeBackend()
	s := newTestSession(t, b)
	ctx := context.Background()

	if _, err := s.OpenChannel(ctx, "ch1"); err != nil {
		t.Fatal(err)
	}

	msg, err := s.SendMessage(ctx, "ch1", "hello all", nil)
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msg.ID != "m-new" {
		t.Errorf("message = %+v", msg)
	}

	// The server-assigned row landed in local state.
	local := s.Store().Messages("ch1")
	if len(local) != 2 || local[1].ID != "m-new" || local[1].Content != "hello all" {
		t.Errorf("local messages = %+v", local)
	}
}

func TestSession_SendMessage_SlowModeThrottles(t *testing.T) {
	b := newFakeBackend()
	s := newTestSession(t, b)
	ctx := context.Background()

	// Open seeds the limiter with ch1's 60s interval.
	if err := s.Open(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SendMessage(ctx, "ch1", "first", nil); err != nil {
		t.Fatalf("first send error = %v", err)
	}
	if _, err := s.SendMessage(ctx, "ch1", "second", nil); err == nil {
		t.Error("second send inside the interval should be throttled")
	}

	// The throttled send never reached the store.
	local := s.Store().Messages("ch1")
	for _, m := range local {
		if m.Content == "second" {
			t.Error("throttled message appended locally")
		}
	}
}

func TestSession_EditMessage(t *testing.T) {
	b := newFakeBackend()
	s := newTestSession(t, b)
	ctx := context.Background()

	if _, err := s.OpenChannel(ctx, "ch1"); err != nil {
		t.Fatal(err)
	}
	if err := s.EditMessage(ctx, "ch1", "m1", "welcome, edited"); err != nil {
		t.Fatalf("EditMessage() error = %v", err)
	}

	got := s.Store().Messages("ch1")[0]
	if got.Content != "welcome, edited" || got.Edited == nil {
		t.Errorf("message = %+v", got)
	}
	// The server's edited timestamp is the one mirrored locally.
	if !got.Edited.Equal(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("Edited = %v", got.Edited)
	}
}

func TestSession_DeleteMessage(t *testing.T) {
	b := newFakeBackend()
	s := newTestSession(t, b)
	ctx := context.Background()

	if _, err := s.OpenChannel(ctx, "ch1"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteMessage(ctx, "ch1", "m1"); err != nil {
		t.Fatalf("DeleteMessage() error = %v", err)
	}

	got := s.Store().Messages("ch1")[0]
	if !got.Deleted || got.Content != models.DeletedPlaceholder || got.ID != "m1" {
		t.Errorf("message = %+v", got)
	}
}

func TestSession_React(t *testing.T) {
	b := newFakeBackend()
	s := newTestSession(t, b)
	ctx := context.Background()

	if err := s.Open(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.OpenChannel(ctx, "ch1"); err != nil {
		t.Fatal(err)
	}

	if err := s.React(ctx, "ch1", "m1", "🎉"); err != nil {
		t.Fatalf("React() error = %v", err)
	}

	// The server's list (which includes u9's concurrent reaction) wins over
	// the optimistic single-user toggle.
	got := s.Store().Messages("ch1")[0].Reactions
	if len(got) != 1 || got[0].Count != 2 || len(got[0].Users) != 2 {
		t.Errorf("reactions = %+v", got)
	}
}

func TestSession_React_FailureKeepsOptimisticToggle(t *testing.T) {
	b := newFakeBackend()
	s := newTestSession(t, b)
	ctx := context.Background()

	if err := s.Open(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := s.OpenChannel(ctx, "ch1"); err != nil {
		t.Fatal(err)
	}

	b.mu.Lock()
	b.reactErr = http.StatusInternalServerError
	b.mu.Unlock()

	if err := s.React(ctx, "ch1", "m1", "🎉"); err == nil {
		t.Fatal("expected error")
	}

	// The optimistic toggle stands until the next history load.
	got := s.Store().Messages("ch1")[0].Reactions
	if len(got) != 1 || got[0].Count != 1 || got[0].Users[0] != "u1" {
		t.Errorf("reactions = %+v", got)
	}
}

func TestSession_React_RequiresCurrentUser(t *testing.T) {
	b := newFakeBackend()
	s := newTestSession(t, b)

	// No Open, so no current user resolved.
	if err := s.React(context.Background(), "ch1", "m1", "🎉"); err == nil {
		t.Error("React() without a current user should fail")
	}
}

func TestSession_DisplayName(t *testing.T) {
	b := newFakeBackend()
	s := newTestSession(t, b)
	ctx := context.Background()

	if err := s.Open(ctx); err != nil {
		t.Fatal(err)
	}

	// Roster name by default.
	if got := s.DisplayName("u2"); got != "Ben" {
		t.Errorf("DisplayName(u2) = %q, want Ben", got)
	}

	// The nickname override wins once set.
	if _, err := s.Dispatch(ctx, command.EditNickname{MemberID: "u2", Nickname: "Benji"}); err != nil {
		t.Fatal(err)
	}
	if got := s.DisplayName("u2"); got != "Benji" {
		t.Errorf("DisplayName(u2) = %q, want Benji", got)
	}
	// The override also landed server-side.
	b.mu.Lock()
	remote := b.nicknames["u2"]
	b.mu.Unlock()
	if remote != "Benji" {
		t.Errorf("remote nickname = %q", remote)
	}

	if got := s.DisplayName("ghost"); got != "" {
		t.Errorf("DisplayName(ghost) = %q, want empty", got)
	}
}

func TestSession_Permissions(t *testing.T) {
	b := newFakeBackend()
	s := newTestSession(t, b)

	// Before Open nothing is resolved, so both checks deny.
	if s.CanManageChannels() || s.CanManageMembers() {
		t.Error("permissions granted without a current user")
	}

	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}

	// u1 holds the Regulars role, which grants manage_channels only.
	if !s.CanManageChannels() {
		t.Error("CanManageChannels() = false, want true")
	}
	if s.CanManageMembers() {
		t.Error("CanManageMembers() = true, want false")
	}
}
