package affectedStatus

import (
	"errors"
	"strings"

	"github.com/xbrowse/xbrowse/models/constants"
)

const (
	Affected   constants.AffectedStatus = "A"
	Unaffected constants.AffectedStatus = "N"
	Unknown    constants.AffectedStatus = "U"
)

func CastToAffectedStatus(text string) (constants.AffectedStatus, error) {
	switch strings.ToUpper(text) {
	case "A", "AFFECTED":
		return Affected, nil
	case "N", "UNAFFECTED":
		return Unaffected, nil
	case "U", "UNKNOWN", "":
		return Unknown, nil
	default:
		return Unknown, errors.New("unable to parse affected status")
	}
}
