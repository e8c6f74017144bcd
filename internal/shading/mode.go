package shading

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned by ParseMode for names it does not recognise.
var ErrUnknownMode = errors.New("unknown shading mode")

// Mode selects which fragment shader a model is drawn with.
type Mode int

const (
	ModeLit Mode = iota
	ModeUnlit
)

func (m Mode) String() string {
	switch m {
	case ModeLit:
		return "lit"
	case ModeUnlit:
		return "unlit"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Shader returns the fragment shader for the mode. Unknown modes fall back
// to Lit.
func (m Mode) Shader() FragmentShader {
	if m == ModeUnlit {
		return Unlit
	}
	return Lit
}

// ParseMode accepts "lit", "unlit" and the empty string (lit).
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lit", "phong":
		return ModeLit, nil
	case "unlit", "texture":
		return ModeUnlit, nil
	default:
		return ModeLit, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// UnmarshalText lets a Mode be decoded from configuration files.
func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// MarshalText encodes the mode name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}
