package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode is the driving mode chosen by the decision controller.
type Mode int

const (
	ModeCruising Mode = iota
	ModeSlowingDown
	ModeAvoiding
)

func (m Mode) String() string {
	switch m {
	case ModeCruising:
		return "CRUISING"
	case ModeSlowingDown:
		return "SLOWING_DOWN"
	case ModeAvoiding:
		return "AVOIDING"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name into a Mode.
func ParseMode(value string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "CRUISING":
		return ModeCruising, nil
	case "SLOWING_DOWN":
		return ModeSlowingDown, nil
	case "AVOIDING":
		return ModeAvoiding, nil
	default:
		return ModeCruising, fmt.Errorf("unknown mode %q", value)
	}
}

// MarshalJSON encodes the mode by name.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a mode name.
func (m *Mode) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseMode(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
