package notify

import (
	"strings"

	"codeberg.org/mutker/kitchenctl/internal/errors"
)

// Settings gate external delivery. The log itself is never gated.
type Settings struct {
	Push         bool `json:"push"`
	Sound        bool `json:"sound"`
	Vibration    bool `json:"vibration"`
	CriticalOnly bool `json:"critical_only"`
}

// DefaultSettings enables every channel for every kind.
func DefaultSettings() Settings {
	return Settings{Push: true, Sound: true, Vibration: true}
}

// SettingsPatch is a partial update; nil fields are left unchanged.
type SettingsPatch struct {
	Push         *bool `json:"push,omitempty"`
	Sound        *bool `json:"sound,omitempty"`
	Vibration    *bool `json:"vibration,omitempty"`
	CriticalOnly *bool `json:"critical_only,omitempty"`
}

// Apply returns s with the patch applied.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.Push != nil {
		s.Push = *p.Push
	}
	if p.Sound != nil {
		s.Sound = *p.Sound
	}
	if p.Vibration != nil {
		s.Vibration = *p.Vibration
	}
	if p.CriticalOnly != nil {
		s.CriticalOnly = *p.CriticalOnly
	}

	return s
}

// Toggle flips the named setting.
func (s Settings) Toggle(name string) (Settings, error) {
	switch strings.ToLower(name) {
	case "push":
		s.Push = !s.Push
	case "sound":
		s.Sound = !s.Sound
	case "vibration":
		s.Vibration = !s.Vibration
	case "critical_only", "criticalonly":
		s.CriticalOnly = !s.CriticalOnly
	default:
		return s, errors.New().WithData(errors.ErrInvalidInput, "unknown setting: "+name)
	}

	return s, nil
}

// Permission is the platform's answer to "may we push?". The collaborator
// owns any prompt flow; the core only skips push when it is Denied.
type Permission int

const (
	PermissionUnknown Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "unknown"
	}
}

func (p Permission) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ParsePermission parses "unknown", "granted" or "denied".
func ParsePermission(s string) (Permission, error) {
	switch strings.ToLower(s) {
	case "unknown", "":
		return PermissionUnknown, nil
	case "granted":
		return PermissionGranted, nil
	case "denied":
		return PermissionDenied, nil
	default:
		return PermissionUnknown, errors.New().WithData(errors.ErrInvalidInput, "unknown permission: "+s)
	}
}

// plan decides which effects a notification of kind k may trigger.
// ok is false when nothing should be dispatched.
func plan(s Settings, p Permission, k Kind) (push, sound, vibration, ok bool) {
	if s.CriticalOnly && k != KindDanger {
		return false, false, false, false
	}

	push = s.Push && p != PermissionDenied
	sound = s.Sound
	vibration = s.Vibration

	return push, sound, vibration, push || sound || vibration
}
