package model

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects the statistical regime readings are drawn from.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeAlert  Mode = "alert"
	ModeMixed  Mode = "mixed"
)

var ErrInvalidMode = errors.New("invalid simulation mode")

// ParseMode accepts "normal", "alert" or "mixed" in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeNormal, ModeAlert, ModeMixed:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

func (m Mode) String() string { return string(m) }
