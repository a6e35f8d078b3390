package models

import (
	"encoding/json"
	"strings"
)

// This file is the single normalization boundary for backend shape drift.
// The API returns some fields under different names than the client uses,
// and some union fields as either a bare string or a {"name": ...} object.
// All of that is reconciled here, at decode time, so no consumer has to
// carry its own defensive copy of these rules.

// nameUnion decodes a value that may arrive as "general" or {"name":"general"}.
type nameUnion string

func (n *nameUnion) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = nameUnion(s)
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*n = nameUnion(obj.Name)
	return nil
}

// NormalizeName collapses a string-or-object union value that has already
// been decoded into an any. It accepts string, map with a "name" key, or nil.
func NormalizeName(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		if name, ok := t["name"].(string); ok {
			return name
		}
	}
	return ""
}

// UnmarshalJSON reconciles the backend's "members"/"onlineMembers" counters
// into the client's MemberCount/OnlineCount display fields. The client-side
// names also round-trip, so re-decoding a client-encoded Server is stable.
func (s *Server) UnmarshalJSON(data []byte) error {
	type alias Server
	aux := struct {
		*alias
		Members       *int `json:"members"`
		OnlineMembers *int `json:"onlineMembers"`
	}{alias: (*alias)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Members != nil {
		s.MemberCount = *aux.Members
	}
	if aux.OnlineMembers != nil {
		s.OnlineCount = *aux.OnlineMembers
	}
	return nil
}

// UnmarshalJSON normalizes the category and tags unions on a blog post.
// Tags may arrive as an array of strings, an array of {"name"} objects, or
// a single comma-separated string.
func (p *BlogPost) UnmarshalJSON(data []byte) error {
	type alias BlogPost
	aux := struct {
		*alias
		Category json.RawMessage `json:"category"`
		Tags     json.RawMessage `json:"tags"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.Category) > 0 && string(aux.Category) != "null" {
		var c nameUnion
		if err := json.Unmarshal(aux.Category, &c); err != nil {
			return err
		}
		p.Category = string(c)
	}

	if len(aux.Tags) > 0 && string(aux.Tags) != "null" {
		tags, err := normalizeTags(aux.Tags)
		if err != nil {
			return err
		}
		p.Tags = tags
	}
	return nil
}

func normalizeTags(raw json.RawMessage) ([]string, error) {
	var list []nameUnion
	if err := json.Unmarshal(raw, &list); err == nil {
		tags := make([]string, 0, len(list))
		for _, t := range list {
			if t != "" {
				tags = append(tags, string(t))
			}
		}
		return tags, nil
	}

	// Legacy shape: one comma-separated string.
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	var tags []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags, nil
}
