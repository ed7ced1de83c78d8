package channel

import (
	"fmt"
	"strings"
)

// Role is the part a quantitation type plays in a two-channel experiment.
type Role uint8

const (
	Other Role = iota
	Preferred
	BackgroundA
	BackgroundB
	SignalA
	SignalB
	BackgroundSubtractedA
	PresentAbsent
)

var roleNames = map[Role]string{
	Other:                 "other",
	Preferred:             "preferred",
	BackgroundA:           "background_a",
	BackgroundB:           "background_b",
	SignalA:               "signal_a",
	SignalB:               "signal_b",
	BackgroundSubtractedA: "background_subtracted_a",
	PresentAbsent:         "present_absent",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("role(%d)", r)
}

// ParseRole accepts the names produced by Role.String, case-insensitively.
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, v := range roleNames {
		if v == s {
			return k, nil
		}
	}
	return Other, fmt.Errorf("unknown channel role %q", s)
}

// MarshalText lets roles appear as strings in JSON configuration.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
