package search

import (
	"github.com/pkg/errors"

	"github.com/xbrowse/xbrowse/models"
	"github.com/xbrowse/xbrowse/models/constants"
	affectedStatus "github.com/xbrowse/xbrowse/models/constants/affected-status"
	genomeBuild "github.com/xbrowse/xbrowse/models/constants/genome-build"
	sampleType "github.com/xbrowse/xbrowse/models/constants/sample-type"
	"github.com/xbrowse/xbrowse/models/tables"
	"github.com/xbrowse/xbrowse/repositories/tabular"
	referenceService "github.com/xbrowse/xbrowse/services/reference"
)

// mapStore serves canned tables by name, for engine tests that do not
// need a directory tree.
type mapStore struct {
	tables map[string]*tabular.Table
}

func (s *mapStore) ReadTable(name string, opts ...tabular.ReadOption) (*tabular.Table, error) {
	table, ok := s.tables[name]
	if !ok {
		return nil, errors.Wrap(tabular.ErrTableNotFound, name)
	}
	return table, nil
}

func (s *mapStore) TableExists(name string) bool {
	_, ok := s.tables[name]
	return ok
}

func newTestService(store tabular.Store) *Service {
	cfg := &models.Config{}
	cfg.Datasets.GenomeBuild = string(genomeBuild.Grch38)
	return NewSearchService(cfg, store, referenceService.NewReferenceService(cfg, nil))
}

func testEntry(guid, individual string, affected constants.AffectedStatus, numAlt int) tables.SampleEntry {
	return tables.SampleEntry{
		SampleId:       individual,
		SampleType:     sampleType.Wes,
		IndividualGuid: individual,
		FamilyGuid:     guid,
		Affected:       affected,
		NumAlt:         numAlt,
	}
}

func affectedEntry(guid, individual string, numAlt int) tables.SampleEntry {
	return testEntry(guid, individual, affectedStatus.Affected, numAlt)
}

func unaffectedEntry(guid, individual string, numAlt int) tables.SampleEntry {
	return testEntry(guid, individual, affectedStatus.Unaffected, numAlt)
}
