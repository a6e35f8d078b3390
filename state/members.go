package state

import (
	"sort"

	"github.com/parlorchat/parlor-go/models"
)

// Pinned group names. Any other group is named after a resolved custom role,
// or falls back to the everyone group.
const (
	GroupOwner    = "Owner"
	GroupAdmin    = "Admin"
	GroupEveryone = "@everyone"
)

// MemberGroup is one rendered roster bucket.
type MemberGroup struct {
	Name    string
	Members []models.Member
}

// statusRank orders presence states for display inside a group.
var statusRank = map[models.MemberStatus]int{
	models.StatusOnline:  0,
	models.StatusIdle:    1,
	models.StatusDND:     2,
	models.StatusOffline: 3,
}

// GroupMembers buckets the roster for display. Every member lands in exactly
// one group: Owner and Admin by coarse tier, everyone else under their
// resolved custom role name, or the everyone group when no role resolves.
// Group order is Owner, then Admin (each only if non-empty), then all
// remaining groups ascending lexicographically by name. Within a group,
// members order by status (online, idle, dnd, offline) and then by name.
func (s *Store) GroupMembers() []MemberGroup {
	s.mu.RLock()
	members := make([]models.Member, len(s.members))
	copy(members, s.members)
	roleNames := make(map[string]string, len(s.roles))
	for i := range s.roles {
		roleNames[s.roles[i].ID] = s.roles[i].Name
	}
	s.mu.RUnlock()

	buckets := make(map[string][]models.Member)
	for _, m := range members {
		key := groupKey(m, roleNames)
		buckets[key] = append(buckets[key], m)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		if name != GroupOwner && name != GroupAdmin {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	ordered := make([]string, 0, len(buckets))
	if _, ok := buckets[GroupOwner]; ok {
		ordered = append(ordered, GroupOwner)
	}
	if _, ok := buckets[GroupAdmin]; ok {
		ordered = append(ordered, GroupAdmin)
	}
	ordered = append(ordered, names...)

	groups := make([]MemberGroup, 0, len(ordered))
	for _, name := range ordered {
		list := buckets[name]
		sort.SliceStable(list, func(i, j int) bool {
			if statusRank[list[i].Status] != statusRank[list[j].Status] {
				return statusRank[list[i].Status] < statusRank[list[j].Status]
			}
			return list[i].Name < list[j].Name
		})
		groups = append(groups, MemberGroup{Name: name, Members: list})
	}
	return groups
}

func groupKey(m models.Member, roleNames map[string]string) string {
	switch m.Role {
	case models.TierOwner:
		return GroupOwner
	case models.TierAdmin:
		return GroupAdmin
	}
	if m.RoleID != "" {
		if name, ok := roleNames[m.RoleID]; ok && name != "" {
			return name
		}
	}
	return GroupEveryone
}

// HasPermission resolves a named permission for a member: owners and admins
// always pass, then the member's custom role is consulted. A nil (unset)
// permission value and a missing role both deny.
func (s *Store) HasPermission(m *models.Member, permission string) bool {
	if m == nil {
		return false
	}
	if m.Role == models.TierOwner || m.Role == models.TierAdmin || m.IsAdmin {
		return true
	}
	if m.RoleID == "" {
		return false
	}
	role, ok := s.Role(m.RoleID)
	if !ok {
		return false
	}
	v, ok := role.Permissions[permission]
	return ok && v != nil && *v
}
