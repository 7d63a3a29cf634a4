package hgmd

import (
	"github.com/xbrowse/xbrowse/models/constants/clinvar"
)

// Classes is the canonical ordering of the HGMD class enum.
var Classes = []string{"DM", "DM?", "DP", "DFP", "FP", "R"}

var PathRanges = []clinvar.PathRange{
	{Filter: "disease_causing", Start: "DM", End: "DM"},
	{Filter: "likely_disease_causing", Start: "DM?", End: "DM?"},
	{Filter: "hgmd_other", Start: "DP", End: ""},
}
