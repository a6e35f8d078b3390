package state

import (
	"context"
	"time"

	"github.com/parlorchat/parlor-go/models"
)

// Message list operations. The list for a channel is replaced wholesale on
// load and mutated in place by the optimistic send/edit/delete/react paths.

// ReplaceMessages replaces the loaded history for a channel.
func (s *Store) ReplaceMessages(ctx context.Context, channelID string, messages []models.Message) {
	defer s.record(ctx, "replace_messages", time.Now())

	list := copyMessages(messages)

	s.mu.Lock()
	defer s.mu.Unlock()
	old := len(s.messages[channelID])
	s.messages[channelID] = list
	s.messagesCountAtomic.Add(int64(len(list) - old))
}

// DropMessages releases the loaded history for a channel (e.g. when the
// caller navigates away and wants the memory back).
func (s *Store) DropMessages(ctx context.Context, channelID string) {
	defer s.record(ctx, "drop_messages", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messagesCountAtomic.Add(-int64(len(s.messages[channelID])))
	delete(s.messages, channelID)
}

// Messages returns a deep copy of the loaded history for a channel.
func (s *Store) Messages(channelID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyMessages(s.messages[channelID])
}

// AppendMessage appends a message to a channel's list.
func (s *Store) AppendMessage(ctx context.Context, channelID string, msg models.Message) {
	defer s.record(ctx, "append_message", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[channelID] = append(s.messages[channelID], msg)
	s.messagesCountAtomic.Add(1)
	if s.inst != nil {
		s.inst.Metrics().MessagesSent.Add(ctx, 1)
	}
}

// EditMessage updates a message's content and edited timestamp in place.
// No edit history is retained beyond the current content.
func (s *Store) EditMessage(ctx context.Context, channelID, messageID, content string, editedAt time.Time) error {
	defer s.record(ctx, "edit_message", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.findMessage(channelID, messageID)
	if msg == nil {
		return ErrMessageNotFound
	}
	msg.Content = content
	msg.Edited = &editedAt
	if s.inst != nil {
		s.inst.Metrics().MessagesEdited.Add(ctx, 1)
	}
	return nil
}

// SoftDeleteMessage marks a message deleted in place. The row keeps its
// position, id, and timestamp; only the content is replaced with the
// placeholder literal.
func (s *Store) SoftDeleteMessage(ctx context.Context, channelID, messageID string) error {
	defer s.record(ctx, "soft_delete_message", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.findMessage(channelID, messageID)
	if msg == nil {
		return ErrMessageNotFound
	}
	msg.Deleted = true
	msg.Content = models.DeletedPlaceholder
	if s.inst != nil {
		s.inst.Metrics().MessagesDeleted.Add(ctx, 1)
	}
	return nil
}

// ToggleReaction applies the optimistic reaction toggle rule for one user
// and emoji: if the user already reacted, the user is removed and the count
// decremented, dropping the reaction entirely at zero; otherwise the user
// is added and the count incremented. Count stays equal to len(Users), and
// toggling twice restores the original reaction list.
//
// Returns the resulting reaction list for the message.
func (s *Store) ToggleReaction(ctx context.Context, channelID, messageID, userID, emoji string) ([]models.Reaction, error) {
	defer s.record(ctx, "toggle_reaction", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.findMessage(channelID, messageID)
	if msg == nil {
		return nil, ErrMessageNotFound
	}

	msg.Reactions = toggleReaction(msg.Reactions, userID, emoji)
	if s.inst != nil {
		s.inst.Metrics().ReactionsToggled.Add(ctx, 1)
	}
	return copyReactions(msg.Reactions), nil
}

// SetReactions replaces a message's reaction list with an authoritative
// server copy, reconciling any drift the optimistic toggle introduced.
func (s *Store) SetReactions(ctx context.Context, channelID, messageID string, reactions []models.Reaction) error {
	defer s.record(ctx, "set_reactions", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.findMessage(channelID, messageID)
	if msg == nil {
		return ErrMessageNotFound
	}
	msg.Reactions = copyReactions(reactions)
	return nil
}

// findMessage returns a pointer into the stored list. Callers must hold the
// write lock.
func (s *Store) findMessage(channelID, messageID string) *models.Message {
	list := s.messages[channelID]
	for i := range list {
		if list[i].ID == messageID {
			return &list[i]
		}
	}
	return nil
}

func toggleReaction(reactions []models.Reaction, userID, emoji string) []models.Reaction {
	for i := range reactions {
		if reactions[i].Emoji != emoji {
			continue
		}
		for j, u := range reactions[i].Users {
			if u != userID {
				continue
			}
			users := append(append([]string{}, reactions[i].Users[:j]...), reactions[i].Users[j+1:]...)
			if len(users) == 0 {
				return append(append([]models.Reaction{}, reactions[:i]...), reactions[i+1:]...)
			}
			reactions[i].Users = users
			reactions[i].Count = len(users)
			return reactions
		}
		reactions[i].Users = append(reactions[i].Users, userID)
		reactions[i].Count = len(reactions[i].Users)
		return reactions
	}
	return append(reactions, models.Reaction{Emoji: emoji, Users: []string{userID}, Count: 1})
}

func copyMessages(messages []models.Message) []models.Message {
	if messages == nil {
		return nil
	}
	out := make([]models.Message, len(messages))
	copy(out, messages)
	for i := range out {
		out[i].Reactions = copyReactions(out[i].Reactions)
		if out[i].Attachments != nil {
			atts := make([]models.Attachment, len(out[i].Attachments))
			copy(atts, out[i].Attachments)
			out[i].Attachments = atts
		}
		if out[i].ReplyTo != nil {
			ref := *out[i].ReplyTo
			out[i].ReplyTo = &ref
		}
		if out[i].Edited != nil {
			ts := *out[i].Edited
			out[i].Edited = &ts
		}
	}
	return out
}

func copyReactions(reactions []models.Reaction) []models.Reaction {
	if reactions == nil {
		return nil
	}
	out := make([]models.Reaction, len(reactions))
	copy(out, reactions)
	for i := range out {
		users := make([]string, len(out[i].Users))
		copy(users, out[i].Users)
		out[i].Users = users
	}
	return out
}
