package dataType

import (
	"errors"
	"strings"

	"github.com/xbrowse/xbrowse/models/constants"
)

const (
	Unknown  constants.DataType = ""
	SnvIndel constants.DataType = "SNV_INDEL"
	Mito     constants.DataType = "MITO"

	// long-read callsets carry a reduced annotation set
	// and do not participate in variant lookup
	OntSnvIndel constants.DataType = "ONT_SNV_INDEL"
)

func All() []constants.DataType {
	return []constants.DataType{SnvIndel, Mito, OntSnvIndel}
}

func CastToDataType(text string) (constants.DataType, error) {
	switch strings.ToUpper(text) {
	case "SNV_INDEL":
		return SnvIndel, nil
	case "MITO":
		return Mito, nil
	case "ONT_SNV_INDEL":
		return OntSnvIndel, nil
	default:
		return Unknown, errors.New("unable to parse data type")
	}
}
