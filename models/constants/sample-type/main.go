package sampleType

import (
	"errors"
	"strings"

	"github.com/xbrowse/xbrowse/models/constants"
)

const (
	Unknown constants.SampleType = ""
	Wes     constants.SampleType = "WES"
	Wgs     constants.SampleType = "WGS"
)

func All() []constants.SampleType {
	return []constants.SampleType{Wes, Wgs}
}

func CastToSampleType(text string) (constants.SampleType, error) {
	switch strings.ToUpper(text) {
	case "WES":
		return Wes, nil
	case "WGS":
		return Wgs, nil
	default:
		return Unknown, errors.New("unable to parse sample type")
	}
}
