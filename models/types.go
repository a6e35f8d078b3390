// Package models defines the wire and domain types for the Parlor platform
// API, along with the shared normalization boundary that reconciles backend
// field shapes into the forms the client state layer depends on.
package models

import "time"

// ==================== Server ====================

// Server represents a community server as held by the client.
//
// MemberCount and OnlineCount are derived display fields: the backend sends
// them under different names ("members" and "onlineMembers"), and the client
// is responsible for the reconciliation at decode time. See UnmarshalJSON in
// normalize.go.
type Server struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Banner      string `json:"banner,omitempty"`
	Tag         string `json:"tag,omitempty"`
	BoostLevel  int    `json:"boostLevel"`
	Boosts      int    `json:"boosts"`

	// Derived at decode time from the backend's "members"/"onlineMembers".
	MemberCount int `json:"memberCount"`
	OnlineCount int `json:"onlineCount"`
}

// ==================== Channels ====================

// ChannelType identifies the kind of channel.
type ChannelType string

// Supported channel types.
const (
	ChannelTypeText         ChannelType = "text"
	ChannelTypeVoice        ChannelType = "voice"
	ChannelTypeAnnouncement ChannelType = "announcement"
	ChannelTypeForum        ChannelType = "forum"
)

// Category groups an ordered list of channels. A channel belongs to exactly
// one category; ordering is by Position, ties unspecified.
type Category struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Emoji    string    `json:"emoji,omitempty"`
	Position int       `json:"position"`
	Channels []Channel `json:"channels"`
}

// ChannelAppearance carries the cosmetic customization fields a channel may
// have. All fields are optional and purely presentational.
type ChannelAppearance struct {
	BackgroundColor    string `json:"backgroundColor,omitempty"`
	BackgroundGradient string `json:"backgroundGradient,omitempty"`
	BackgroundImage    string `json:"backgroundImage,omitempty"`
	TextColor          string `json:"textColor,omitempty"`
	AccentColor        string `json:"accentColor,omitempty"`
	Font               string `json:"font,omitempty"`
	NameAnimation      string `json:"nameAnimation,omitempty"`
}

// Channel is a single text/voice/announcement/forum channel.
type Channel struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Type       ChannelType `json:"type"`
	CategoryID string      `json:"categoryId,omitempty"`
	IsPrivate  bool        `json:"isPrivate"`

	// SlowMode is the per-user send interval in seconds. Zero disables.
	SlowMode int `json:"slowMode,omitempty"`

	Appearance ChannelAppearance `json:"appearance,omitempty"`
}

// ==================== Members and roles ====================

// MemberStatus is a member's presence state.
type MemberStatus string

// Presence states.
const (
	StatusOnline  MemberStatus = "online"
	StatusIdle    MemberStatus = "idle"
	StatusDND     MemberStatus = "dnd"
	StatusOffline MemberStatus = "offline"
)

// RoleTier is the coarse hierarchy tag carried on every member. It is
// distinct from the fine-grained Role entity used for custom server roles:
// a member at TierMember may additionally reference a custom Role via RoleID
// for display color and name.
type RoleTier string

// Coarse hierarchy tiers.
const (
	TierOwner     RoleTier = "owner"
	TierAdmin     RoleTier = "admin"
	TierModerator RoleTier = "moderator"
	TierMember    RoleTier = "member"
)

// Member is a user's membership in a server.
type Member struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Username string       `json:"username"`
	Avatar   string       `json:"avatar,omitempty"`
	Status   MemberStatus `json:"status"`
	Role     RoleTier     `json:"role"`
	RoleID   string       `json:"roleId,omitempty"`
	JoinedAt time.Time    `json:"joinedAt"`
	IsAdmin  bool         `json:"isAdmin"`
}

// Role is a fine-grained custom server role.
//
// Permissions values are tri-state: true grants, false denies, nil means
// inherit/unset. The map keys are permission names as the backend defines
// them (e.g. "manage_channels").
type Role struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Color       string           `json:"color,omitempty"`
	Position    int              `json:"position"`
	Permissions map[string]*bool `json:"permissions,omitempty"`
	MemberCount int              `json:"memberCount"`
}

// ==================== Messages ====================

// DeletedPlaceholder is the literal content a soft-deleted message carries.
const DeletedPlaceholder = "[Message deleted]"

// Reaction is a grouped emoji reaction on a message. Count is maintained in
// lockstep with len(Users) by the client's toggle rule.
type Reaction struct {
	Emoji string   `json:"emoji"`
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// Attachment is an uploaded file referenced by a message.
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// ReplyRef is a denormalized snapshot of the replied-to message, not a live
// reference: later edits or deletion of the original do not update it.
type ReplyRef struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
	Username  string `json:"username"`
}

// Message is a single channel message.
//
// Deleted messages keep their row: Deleted is set, Content is replaced with
// DeletedPlaceholder, and ID/Timestamp are unchanged so list position and
// ordering are preserved.
type Message struct {
	ID          string       `json:"id"`
	ChannelID   string       `json:"channelId"`
	Content     string       `json:"content"`
	UserID      string       `json:"userId"`
	Username    string       `json:"username"`
	Avatar      string       `json:"avatar,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
	Edited      *time.Time   `json:"edited,omitempty"`
	Deleted     bool         `json:"deleted,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Reactions   []Reaction   `json:"reactions,omitempty"`
	ReplyTo     *ReplyRef    `json:"replyTo,omitempty"`
}

// ==================== Blog ====================

// PostStatus is a blog post's publication state.
type PostStatus string

// Publication states.
const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
)

// BlogPost is a CMS article. Category and Tags are normalized at decode
// time: the backend may return either a bare string or a {"name": ...}
// object for each (see normalize.go).
type BlogPost struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug,omitempty"`
	Content   string     `json:"content"`
	Excerpt   string     `json:"excerpt,omitempty"`
	Cover     string     `json:"cover,omitempty"`
	Category  string     `json:"category,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	Status    PostStatus `json:"status"`
	AuthorID  string     `json:"authorId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt,omitempty"`
}

// ==================== Store ====================

// StoreTier is a purchasable membership tier.
type StoreTier struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	PriceCents  int      `json:"priceCents"`
	Currency    string   `json:"currency,omitempty"`
	Perks       []string `json:"perks,omitempty"`
}

// Membership is the calling user's current paid membership, if any.
type Membership struct {
	TierID    string    `json:"tierId"`
	TierName  string    `json:"tierName,omitempty"`
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// ==================== Admin ====================

// AdminSettings is a named settings section with free-form values. Sections
// are fetched and saved independently by name.
type AdminSettings struct {
	Section string         `json:"section"`
	Values  map[string]any `json:"values"`
}

// ==================== Profiles ====================

// ProfileSectionKind identifies the shape of a generated profile section.
type ProfileSectionKind string

// Known section kinds. KindText is also the fallback when a generated
// section cannot be parsed as structured JSON.
const (
	KindText    ProfileSectionKind = "text"
	KindList    ProfileSectionKind = "list"
	KindGallery ProfileSectionKind = "gallery"
)

// ProfileSection is one block of a user profile page, possibly produced by
// the AI section generator.
type ProfileSection struct {
	Kind  ProfileSectionKind `json:"kind"`
	Title string             `json:"title,omitempty"`
	Body  string             `json:"body,omitempty"`
	Items []string           `json:"items,omitempty"`
}

// Profile is a user's public profile.
type Profile struct {
	UserID   string           `json:"userId"`
	Username string           `json:"username"`
	Avatar   string           `json:"avatar,omitempty"`
	Banner   string           `json:"banner,omitempty"`
	AboutMe  string           `json:"aboutMe,omitempty"`
	Sections []ProfileSection `json:"sections,omitempty"`
}

// ==================== Moderation ====================

// Ban is a server ban entry.
type Ban struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	BannedAt time.Time `json:"bannedAt,omitempty"`
}

// Invite is a server invite link.
type Invite struct {
	Code      string    `json:"code"`
	CreatedBy string    `json:"createdBy,omitempty"`
	Uses      int       `json:"uses"`
	MaxUses   int       `json:"maxUses,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// ServerStats is the aggregate stats payload for a server.
type ServerStats struct {
	Members       int `json:"members"`
	OnlineMembers int `json:"onlineMembers"`
	Messages      int `json:"messages"`
	Channels      int `json:"channels"`
}
