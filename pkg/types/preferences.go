package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"

	DefaultLanguage = "ar"
)

// Preferences mirrors the users.preferences jsonb column.
type Preferences struct {
	Theme                string `json:"theme"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	Language             string `json:"language"`
	Timezone             string `json:"timezone,omitempty"`
	DateFormat           string `json:"dateFormat,omitempty"`
}

// DefaultPreferences returns the settings new accounts start with.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:                ThemeLight,
		NotificationsEnabled: true,
		Language:             DefaultLanguage,
	}
}

// PreferencesPatch carries optional preference updates.
type PreferencesPatch struct {
	Theme                *string `json:"theme" validate:"omitempty,oneof=light dark"`
	NotificationsEnabled *bool   `json:"notificationsEnabled"`
	Language             *string `json:"language" validate:"omitempty,min=2,max=8"`
	Timezone             *string `json:"timezone" validate:"omitempty,max=64"`
	DateFormat           *string `json:"dateFormat" validate:"omitempty,max=32"`
}

// Apply returns a copy of p with the patch applied.
func (patch PreferencesPatch) Apply(p Preferences) Preferences {
	if patch.Theme != nil {
		p.Theme = *patch.Theme
	}
	if patch.NotificationsEnabled != nil {
		p.NotificationsEnabled = *patch.NotificationsEnabled
	}
	if patch.Language != nil {
		p.Language = *patch.Language
	}
	if patch.Timezone != nil {
		p.Timezone = *patch.Timezone
	}
	if patch.DateFormat != nil {
		p.DateFormat = *patch.DateFormat
	}
	return p
}

func (p Preferences) Value() (driver.Value, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (p *Preferences) Scan(value interface{}) error {
	if value == nil {
		*p = DefaultPreferences()
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("preferences: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*p = DefaultPreferences()
		return nil
	}
	out := DefaultPreferences()
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("preferences: %w", err)
	}
	*p = out
	return nil
}
