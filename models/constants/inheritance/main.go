package inheritance

import (
	"errors"
	"strings"

	"github.com/xbrowse/xbrowse/models/constants"
)

const (
	Any         constants.InheritanceMode = "any_affected"
	DeNovo      constants.InheritanceMode = "de_novo"
	Dominant    constants.InheritanceMode = "dominant"
	Recessive   constants.InheritanceMode = "recessive"
	XLinked     constants.InheritanceMode = "x_linked_recessive"
	CompoundHet constants.InheritanceMode = "compound_het"
)

func CastToInheritanceMode(text string) (constants.InheritanceMode, error) {
	switch strings.ToLower(text) {
	case "", "any_affected":
		return Any, nil
	case "de_novo":
		return DeNovo, nil
	case "dominant":
		return Dominant, nil
	case "recessive":
		return Recessive, nil
	case "x_linked_recessive":
		return XLinked, nil
	case "compound_het":
		return CompoundHet, nil
	default:
		return Any, errors.New("unable to parse inheritance mode")
	}
}

// HasCompoundHet reports whether the mode requires the paired
// compound heterozygous flow in addition to (or instead of) the
// single-variant flow.
func HasCompoundHet(mode constants.InheritanceMode) bool {
	return mode == CompoundHet || mode == Recessive
}

// HasSingleVariant reports whether the mode admits unpaired variants.
func HasSingleVariant(mode constants.InheritanceMode) bool {
	return mode != CompoundHet
}
