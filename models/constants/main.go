package constants

/*
	Defines a set of base level
	constants and enums to be used
	throughout xBrowse and its
	associated search services.
*/
type DataType string
type SampleType string
type InheritanceMode string
type AffectedStatus string
type Sex string
type SortKey string
type GenomeBuild string

type GenotypeExpectation int
