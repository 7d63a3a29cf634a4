package chromosome

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// XposBase is the per-chromosome span of the flattened genomic
// coordinate: xpos = chromosomeIndex*XposBase + position.
const XposBase int64 = 1_000_000_000

const (
	xIndex    = 23
	yIndex    = 24
	mitoIndex = 25
)

func ValidListOfHumanChromosomes() []string {
	var humChroms []string
	for i := 1; i < 23; i++ {
		humChroms = append(humChroms, fmt.Sprint(i))
	}
	humChroms = append(humChroms, "X")
	humChroms = append(humChroms, "Y")
	humChroms = append(humChroms, "M")
	return humChroms
}

// Index maps a chromosome name to its ordinal (1-22, X=23, Y=24, M=25).
// Accepts an optional "chr" prefix and the "MT" mitochondrial alias.
func Index(text string) (int, bool) {
	name := strings.TrimPrefix(strings.TrimSpace(text), "chr")

	chromNumber, _ := strconv.Atoi(name)
	if chromNumber > 0 && chromNumber < 23 {
		return chromNumber, true
	}

	switch strings.ToUpper(name) {
	case "X":
		return xIndex, true
	case "Y":
		return yIndex, true
	case "M", "MT":
		return mitoIndex, true
	}
	return 0, false
}

func IsValidHumanChromosome(text string) bool {
	_, ok := Index(text)
	return ok
}

func FromIndex(idx int) string {
	switch {
	case idx > 0 && idx < 23:
		return strconv.Itoa(idx)
	case idx == xIndex:
		return "X"
	case idx == yIndex:
		return "Y"
	case idx == mitoIndex:
		return "M"
	default:
		return ""
	}
}

func ToXpos(chrom string, pos int) (int64, error) {
	idx, ok := Index(chrom)
	if !ok {
		return 0, errors.New("unable to parse chromosome " + chrom)
	}
	return int64(idx)*XposBase + int64(pos), nil
}

func FromXpos(xpos int64) (string, int) {
	return FromIndex(int(xpos / XposBase)), int(xpos % XposBase)
}
