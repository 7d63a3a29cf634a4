package reference

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/Jeffail/gabs"
	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/gocarina/gocsv"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/xbrowse/xbrowse/models"
	"github.com/xbrowse/xbrowse/models/constants/chromosome"
	"github.com/xbrowse/xbrowse/repositories/tabular"
)

const genesFile = "genes.tsv"

// GeneRecord is one gene's coordinates and sort metadata. Records
// come either from the reference directory's TSV or from the gene
// index when elasticsearch is configured.
type GeneRecord struct {
	GeneId         string `mapstructure:"geneId"`
	Symbol         string `mapstructure:"symbol"`
	Chrom          string `mapstructure:"chrom"`
	Start          int    `mapstructure:"start"`
	End            int    `mapstructure:"end"`
	ConstraintRank *int   `mapstructure:"constraintRank"`
	InOmim         bool   `mapstructure:"inOmim"`
}

// geneRow is the TSV row shape. The rank column is read as text so an
// empty cell stays distinct from rank 0.
type geneRow struct {
	GeneId         string `csv:"gene_id"`
	Symbol         string `csv:"symbol"`
	Chrom          string `csv:"chrom"`
	Start          int    `csv:"start"`
	End            int    `csv:"end"`
	ConstraintRank string `csv:"constraint_rank"`
	InOmim         bool   `csv:"in_omim"`
}

func (r *geneRow) toRecord() (*GeneRecord, error) {
	record := &GeneRecord{
		GeneId: r.GeneId,
		Symbol: r.Symbol,
		Chrom:  r.Chrom,
		Start:  r.Start,
		End:    r.End,
		InOmim: r.InOmim,
	}
	if r.ConstraintRank != "" {
		rank, err := strconv.Atoi(r.ConstraintRank)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid constraint rank for gene %s", r.GeneId)
		}
		record.ConstraintRank = &rank
	}
	return record, nil
}

type Service struct {
	cfg *models.Config
	es  *es7.Client

	mu       sync.RWMutex
	genes    map[string]*GeneRecord
	loadedAt time.Time
}

func NewReferenceService(cfg *models.Config, es *es7.Client) *Service {
	return &Service{cfg: cfg, es: es, genes: map[string]*GeneRecord{}}
}

// Load replaces the in-memory gene set from the configured source.
func (s *Service) Load() error {
	var (
		genes map[string]*GeneRecord
		err   error
	)
	if s.es != nil {
		genes, err = s.loadFromEs()
	} else {
		genes, err = s.loadFromDisk()
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.genes = genes
	s.loadedAt = time.Now()
	s.mu.Unlock()

	fmt.Printf("[%s] - reference gene set loaded (%d genes)\n", time.Now().Format(time.RFC3339), len(genes))
	return nil
}

func (s *Service) loadFromDisk() (map[string]*GeneRecord, error) {
	fileBytes, err := os.ReadFile(filepath.Join(s.cfg.Reference.Dir, genesFile))
	if err != nil {
		return nil, errors.Wrap(err, "reading gene reference file")
	}

	// tab-delimited reference export
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		r.Comma = '\t'
		r.LazyQuotes = true
		return r
	})

	rows := []*geneRow{}
	if err := gocsv.UnmarshalBytes(fileBytes, &rows); err != nil {
		return nil, errors.Wrap(err, "parsing gene reference file")
	}

	out := make(map[string]*GeneRecord, len(rows))
	for _, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		out[record.GeneId] = record
	}
	return out, nil
}

func (s *Service) loadFromEs() (map[string]*GeneRecord, error) {
	// begin building the request body.
	var buf bytes.Buffer
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"match_all": map[string]interface{}{},
		},
		"size": 10000, // increases the number of hits returned (default is 10)
		"sort": []map[string]interface{}{
			{
				"chrom.keyword": map[string]interface{}{
					"order": "asc",
				},
			},
			{
				"start": map[string]interface{}{
					"order": "asc",
				},
			},
		},
	}

	// encode the query
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, errors.Wrap(err, "encoding gene index query")
	}

	if s.cfg.Debug {
		// view the outbound elasticsearch query
		fmt.Println(buf.String())
	}

	// Perform the search request.
	res, searchErr := s.es.Search(
		s.es.Search.WithContext(context.Background()),
		s.es.Search.WithIndex(s.cfg.Elasticsearch.GeneIndex),
		s.es.Search.WithBody(&buf),
		s.es.Search.WithTrackTotalHits(true),
	)
	if searchErr != nil {
		return nil, errors.Wrap(searchErr, "querying gene index")
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, errors.Wrap(err, "parsing gene index response")
	}

	hits, err := parsed.Path("hits.hits").Children()
	if err != nil {
		return nil, errors.Wrap(err, "unexpected gene index response shape")
	}

	out := make(map[string]*GeneRecord, len(hits))
	for _, hit := range hits {
		source, ok := hit.Path("_source").Data().(map[string]interface{})
		if !ok {
			continue
		}
		var record GeneRecord
		if err := mapstructure.Decode(source, &record); err != nil {
			return nil, errors.Wrap(err, "decoding gene document")
		}
		out[record.GeneId] = &record
	}
	return out, nil
}

func (s *Service) Gene(geneId string) *GeneRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.genes[geneId]
}

func (s *Service) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.genes)
}

func (s *Service) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// GeneSpans maps known gene ids to their xpos spans and reports the
// ids it could not resolve.
func (s *Service) GeneSpans(geneIds []string) (map[string]tabular.Span, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spans := make(map[string]tabular.Span, len(geneIds))
	var missing []string
	for _, geneId := range geneIds {
		record, ok := s.genes[geneId]
		if !ok {
			missing = append(missing, geneId)
			continue
		}
		start, startErr := chromosome.ToXpos(record.Chrom, record.Start)
		end, endErr := chromosome.ToXpos(record.Chrom, record.End)
		if startErr != nil || endErr != nil {
			missing = append(missing, geneId)
			continue
		}
		spans[geneId] = tabular.Span{Start: start, End: end}
	}
	return spans, missing
}

// OmimGenes lists the gene ids flagged as OMIM members.
func (s *Service) OmimGenes() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool)
	for geneId, record := range s.genes {
		if record.InOmim {
			out[geneId] = true
		}
	}
	return out
}

// ConstraintRanks lists the per-gene constraint ranking, lower
// meaning more constrained.
func (s *Service) ConstraintRanks() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]int)
	for geneId, record := range s.genes {
		if record.ConstraintRank != nil {
			out[geneId] = *record.ConstraintRank
		}
	}
	return out
}
