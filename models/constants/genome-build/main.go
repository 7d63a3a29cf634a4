package genomeBuild

import (
	"errors"
	"strings"

	"github.com/xbrowse/xbrowse/models/constants"
)

const (
	Grch37 constants.GenomeBuild = "GRCh37"
	Grch38 constants.GenomeBuild = "GRCh38"
)

func CastToGenomeBuild(text string) (constants.GenomeBuild, error) {
	switch strings.TrimPrefix(strings.ToUpper(text), "GRCH") {
	case "37":
		return Grch37, nil
	case "38", "":
		return Grch38, nil
	default:
		return Grch38, errors.New("unable to parse genome build")
	}
}
