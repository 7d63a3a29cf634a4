package genotype

import (
	"github.com/xbrowse/xbrowse/models/constants"
)

// Normalized alternate-allele counts as stored in the callset
// entries. Hemizygous alternate calls are written as 2 by the
// loading pipelines, so haploid contigs need no special casing here.
const (
	Missing = -1
	RefRef  = 0
	RefAlt  = 1
	AltAlt  = 2
)

const (
	ExpectNone constants.GenotypeExpectation = iota
	ExpectRefRef
	ExpectRefAlt
	ExpectAltAlt
	ExpectHasRef
	ExpectHasAlt
	ExpectCompHetAlt
)

// Matches checks a called numAlt against an expectation. Missing
// calls are the caller's concern; numAlt is assumed >= 0 here.
func Matches(expectation constants.GenotypeExpectation, numAlt int, overrideCompHetAlt bool) bool {
	switch expectation {
	case ExpectRefRef:
		return numAlt == RefRef
	case ExpectRefAlt:
		return numAlt == RefAlt
	case ExpectAltAlt:
		return numAlt == AltAlt
	case ExpectHasRef:
		return numAlt < AltAlt
	case ExpectHasAlt:
		return numAlt > RefRef
	case ExpectCompHetAlt:
		if overrideCompHetAlt {
			return numAlt > RefRef
		}
		return numAlt == RefAlt
	default:
		return true
	}
}
