package sex

import (
	"errors"
	"strings"

	"github.com/xbrowse/xbrowse/models/constants"
)

const (
	Male    constants.Sex = "M"
	Female  constants.Sex = "F"
	Unknown constants.Sex = "U"
)

func IsMale(s constants.Sex) bool {
	return s == Male
}

func CastToSex(text string) (constants.Sex, error) {
	switch strings.ToUpper(text) {
	case "M", "MALE":
		return Male, nil
	case "F", "FEMALE":
		return Female, nil
	case "U", "UNKNOWN", "":
		return Unknown, nil
	default:
		return Unknown, errors.New("unable to parse sex")
	}
}
