package sort

import (
	"errors"
	"strings"

	"github.com/xbrowse/xbrowse/models/constants"
	"github.com/xbrowse/xbrowse/utils"
)

const (
	Xpos               constants.SortKey = "xpos"
	ProteinConsequence constants.SortKey = "protein_consequence"
	Pathogenicity      constants.SortKey = "pathogenicity"
	InOmim             constants.SortKey = "in_omim"
	Constraint         constants.SortKey = "constraint"
	PrioritizedGene    constants.SortKey = "prioritized_gene"
	Gnomad             constants.SortKey = "gnomad"
	CallsetAf          constants.SortKey = "callset_af"
	Size               constants.SortKey = "size"
)

// PredictionKeys are in-silico predictor scores accepted as sort
// keys and resolved against each variant's predictions payload.
var PredictionKeys = []string{
	"cadd", "revel", "splice_ai", "polyphen", "sift", "mut_taster", "hmtvar", "apogee", "mitotip",
}

func CastToSortKey(text string) (constants.SortKey, error) {
	lowered := strings.ToLower(text)
	switch lowered {
	case "", "xpos":
		return Xpos, nil
	case "protein_consequence":
		return ProteinConsequence, nil
	case "pathogenicity":
		return Pathogenicity, nil
	case "in_omim":
		return InOmim, nil
	case "constraint":
		return Constraint, nil
	case "prioritized_gene":
		return PrioritizedGene, nil
	case "gnomad":
		return Gnomad, nil
	case "callset_af":
		return CallsetAf, nil
	case "size":
		return Size, nil
	}
	if utils.StringInSlice(lowered, PredictionKeys) {
		return constants.SortKey(lowered), nil
	}
	return Xpos, errors.New("unable to parse sort key")
}
