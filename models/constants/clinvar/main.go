package clinvar

// Filter keys accepted in the pathogenicity section of a search
// request. Each key expands to a contiguous run of the pathogenicity
// enum via PathRanges.
const (
	PathFilter         = "pathogenic"
	LikelyPathFilter   = "likely_pathogenic"
	UncertainFilter    = "vus_or_conflicting"
	LikelyBenignFilter = "likely_benign"
	BenignFilter       = "benign"
)

// AbsentPathSortOffset ranks variants with no ClinVar record between
// "No_pathogenic_assertion" and "Likely_benign" when sorting by
// pathogenicity.
const AbsentPathSortOffset = 12.5

// Pathogenicities is the canonical ordering of the pathogenicity
// enum, most to least pathogenic. Loaded tables carry their own copy
// in globals; this one seeds reference fixtures and validation.
var Pathogenicities = []string{
	"Pathogenic",
	"Pathogenic/Likely_pathogenic",
	"Pathogenic/Likely_pathogenic/Likely_risk_allele",
	"Pathogenic/Likely_risk_allele",
	"Likely_pathogenic",
	"Likely_pathogenic/Likely_risk_allele",
	"Established_risk_allele",
	"Likely_risk_allele",
	"Conflicting_classifications_of_pathogenicity",
	"Uncertain_risk_allele",
	"Uncertain_significance/Uncertain_risk_allele",
	"Uncertain_significance",
	"No_pathogenic_assertion",
	"Likely_benign",
	"Benign/Likely_benign",
	"Benign",
}

type PathRange struct {
	Filter string
	Start  string
	// End is inclusive; empty means the range runs to the end of the enum
	End string
}

var PathRanges = []PathRange{
	{PathFilter, "Pathogenic", "Pathogenic/Likely_risk_allele"},
	{LikelyPathFilter, "Pathogenic/Likely_pathogenic", "Likely_risk_allele"},
	{UncertainFilter, "Conflicting_classifications_of_pathogenicity", "No_pathogenic_assertion"},
	{LikelyBenignFilter, "Likely_benign", "Benign/Likely_benign"},
	{BenignFilter, "Benign/Likely_benign", "Benign"},
}

// PathSignificances are the filter keys that activate the pathogenic
// sidecar prefilter and the family quality override.
var PathSignificances = []string{PathFilter, LikelyPathFilter}
