package exportmatrix

import (
	"fmt"
	"strings"
)

// Variant is one styled derivative of the icon.
type Variant int

const (
	Core Variant = iota
	Inverse
	Inactive
	Expressive
	Masthead
)

var variantNames = [...]string{"core", "inverse", "inactive", "expressive", "masthead"}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return variantNames[v]
}

// ParseVariant accepts a configured variant name.
func ParseVariant(value string) (Variant, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	for i, name := range variantNames {
		if name == key {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("unknown variant %q", value)
}

// Family returns the scratch-document family that produces v. Core,
// Inverse, and Inactive share one document per color space, recolored in
// that order.
func (v Variant) Family() Family {
	switch v {
	case Expressive:
		return FamilyExpressive
	case Masthead:
		return FamilyMasthead
	default:
		return FamilyCore
	}
}

// Recolored reports whether v is produced by a destructive recolor of its
// family's document.
func (v Variant) Recolored() bool {
	return v == Inverse || v == Inactive
}

func (v Variant) fileSuffix() string {
	if v.Recolored() {
		return "_" + v.String()
	}
	return ""
}

// Family groups variants that are exported from one scratch document.
type Family int

const (
	FamilyCore Family = iota
	FamilyMasthead
	FamilyExpressive
)

// String is the family's directory and filename token.
func (f Family) String() string {
	switch f {
	case FamilyCore:
		return "Core"
	case FamilyMasthead:
		return "Masthead"
	case FamilyExpressive:
		return "Expressive"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Base is the variant holding the family's original colors.
func (f Family) Base() Variant {
	switch f {
	case FamilyMasthead:
		return Masthead
	case FamilyExpressive:
		return Expressive
	default:
		return Core
	}
}

// stages lists the color states a family's document passes through, in the
// only order that keeps every export reachable.
func (f Family) stages() []Variant {
	if f == FamilyCore {
		return []Variant{Core, Inverse, Inactive}
	}
	return []Variant{f.Base()}
}
