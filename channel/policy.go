// Package channel classifies quantitation types into the roles they play in
// one- and two-channel microarray data, using vendor naming conventions.
package channel

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/carbocation/qtmatrix"
)

// backgroundSubtractedA is a name some submitters used for the
// background-subtracted channel A signal.
const backgroundSubtractedA = "CH1D_MEAN"

type matcher struct {
	role  Role
	name  string
	regex *regexp.Regexp
}

func (m matcher) match(name string) bool {
	if m.regex != nil {
		return m.regex.MatchString(name)
	}
	return m.name == name
}

// Policy is a compiled set of naming rules. It is immutable once built and
// safe for concurrent use.
type Policy struct {
	byRole map[Role][]matcher
}

// NewPolicy compiles the rules of the given layouts. With no layouts, every
// entry of Layouts is used.
func NewPolicy(layouts ...Layout) (*Policy, error) {
	if len(layouts) == 0 {
		names := make([]string, 0, len(Layouts))
		for k := range Layouts {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			layouts = append(layouts, Layouts[k])
		}
	}

	p := &Policy{byRole: make(map[Role][]matcher)}
	for _, l := range layouts {
		if err := p.add(l.Rules...); err != nil {
			return nil, fmt.Errorf("layout %s: %w", l.Name, err)
		}
	}
	return p, nil
}

// NewPolicyByName is NewPolicy for layouts looked up in Layouts.
func NewPolicyByName(names ...string) (*Policy, error) {
	layouts := make([]Layout, 0, len(names))
	for _, name := range names {
		l, exists := Layouts[name]
		if !exists {
			return nil, fmt.Errorf("Layout %s is not found. Valid layout names include: %s", name, LayoutNames())
		}
		layouts = append(layouts, l)
	}
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layouts named. Valid layout names include: %s", LayoutNames())
	}
	return NewPolicy(layouts...)
}

var defaultPolicy = mustPolicy(NewPolicy())

func mustPolicy(p *Policy, err error) *Policy {
	if err != nil {
		panic(err)
	}
	return p
}

// Default returns the policy built from every known layout.
func Default() *Policy {
	return defaultPolicy
}

// With returns a copy of p extended by extra rules. p is not modified.
func (p *Policy) With(extra ...Rule) (*Policy, error) {
	out := &Policy{byRole: make(map[Role][]matcher, len(p.byRole))}
	for role, ms := range p.byRole {
		out.byRole[role] = append([]matcher(nil), ms...)
	}
	if err := out.add(extra...); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Policy) add(rules ...Rule) error {
	for _, r := range rules {
		switch r.Role {
		case BackgroundA, BackgroundB, SignalA, SignalB:
		default:
			return fmt.Errorf("rule for %q: role %s cannot be assigned by name", r.Name+r.Pattern, r.Role)
		}

		m := matcher{role: r.Role, name: r.Name}
		if r.Pattern != "" {
			re, err := regexp.Compile(`^(?:` + r.Pattern + `)$`)
			if err != nil {
				return err
			}
			m.regex = re
		} else if r.Name == "" {
			return fmt.Errorf("rule for %s has neither a name nor a pattern", r.Role)
		}
		p.byRole[r.Role] = append(p.byRole[r.Role], m)
	}
	return nil
}

// Is reports whether name is recognized as role.
func (p *Policy) Is(role Role, name string) bool {
	for _, m := range p.byRole[role] {
		if m.match(name) {
			return true
		}
	}
	return false
}

// Classify assigns a role to qt. The checks run in a fixed order because
// several vendor conventions overlap textually. Names nobody recognizes are
// Other.
func (p *Policy) Classify(qt *qtmatrix.QuantitationType) Role {
	if qt == nil {
		return Other
	}
	if qt.IsPreferred || qt.IsMaskedPreferred {
		return Preferred
	}

	for _, role := range []Role{BackgroundA, BackgroundB, SignalA, SignalB} {
		if p.Is(role, qt.Name) {
			return role
		}
	}

	if qt.Name == backgroundSubtractedA {
		return BackgroundSubtractedA
	}
	if qt.StandardType == qtmatrix.StandardTypePresentAbsent {
		return PresentAbsent
	}
	return Other
}
