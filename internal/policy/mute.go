package policy

import (
	"sort"
	"strings"
	"sync"
)

// MuteSnapshot is a point-in-time copy of the mute flags.
type MuteSnapshot struct {
	GlobalMuted bool     `json:"globalMuted"`
	MutedGroups []string `json:"mutedGroups"`
}

// Muted reports whether a notification in group is muted under this snapshot.
func (s MuteSnapshot) Muted(group string) bool {
	if s.GlobalMuted {
		return true
	}
	if group == "" {
		return false
	}
	i := sort.SearchStrings(s.MutedGroups, group)
	return i < len(s.MutedGroups) && s.MutedGroups[i] == group
}

// MuteState holds the in-memory mute flags. Not persisted across restarts.
type MuteState struct {
	mu     sync.Mutex
	global bool
	groups map[string]struct{}
}

func NewMuteState(global bool, groups ...string) *MuteState {
	m := &MuteState{global: global, groups: map[string]struct{}{}}
	for _, g := range groups {
		if g = strings.TrimSpace(g); g != "" {
			m.groups[g] = struct{}{}
		}
	}
	return m
}

func (m *MuteState) Snapshot() MuteSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *MuteState) snapshotLocked() MuteSnapshot {
	gs := make([]string, 0, len(m.groups))
	for g := range m.groups {
		gs = append(gs, g)
	}
	sort.Strings(gs)
	return MuteSnapshot{GlobalMuted: m.global, MutedGroups: gs}
}

func (m *MuteState) ToggleGlobal() MuteSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.global = !m.global
	return m.snapshotLocked()
}

// ToggleGroup flips the mute flag for group. An empty group is ignored.
func (m *MuteState) ToggleGroup(group string) MuteSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if group = strings.TrimSpace(group); group != "" {
		if _, ok := m.groups[group]; ok {
			delete(m.groups, group)
		} else {
			m.groups[group] = struct{}{}
		}
	}
	return m.snapshotLocked()
}

// SetGlobal sets the global flag and reports whether it changed.
func (m *MuteState) SetGlobal(muted bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := m.global != muted
	m.global = muted
	return changed
}
