package admin

import "sort"

// AllowList is the static set of operators loaded from configuration.
// An empty list grants admin access to nobody.
type AllowList struct {
	ids map[int64]struct{}
}

// NewAllowList builds an allow-list from ids, ignoring zero values.
func NewAllowList(ids ...int64) AllowList {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		set[id] = struct{}{}
	}
	return AllowList{ids: set}
}

// Allows reports whether userID may run admin commands.
func (a AllowList) Allows(userID int64) bool {
	_, ok := a.ids[userID]
	return ok
}

// IDs returns the members in ascending order.
func (a AllowList) IDs() []int64 {
	out := make([]int64, 0, len(a.ids))
	for id := range a.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Empty reports whether admin commands are disabled.
func (a AllowList) Empty() bool {
	return len(a.ids) == 0
}
