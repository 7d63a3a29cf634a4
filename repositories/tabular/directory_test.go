package tabular

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func writeTable(t *testing.T, root, name, globals string, parts map[string]string) {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(name))
	assert.Nil(t, os.MkdirAll(dir, 0o755))
	assert.Nil(t, os.WriteFile(filepath.Join(dir, "globals.json"), []byte(globals), 0o644))
	for file, content := range parts {
		assert.Nil(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
	}
}

func TestDirectoryStoreTableNotFound(t *testing.T) {
	store := NewDirectoryStore(t.TempDir(), 2)

	assert.False(t, store.TableExists("SNV_INDEL/annotations"))
	_, err := store.ReadTable("SNV_INDEL/annotations")
	assert.True(t, errors.Is(err, ErrTableNotFound))
}

func TestDirectoryStoreReadsPartitionsInOrder(t *testing.T) {
	root := t.TempDir()
	writeTable(t, root, "SNV_INDEL/annotations",
		`{"familyGuids":[]}`,
		map[string]string{
			"part-0.jsonl": `{"variantId":"1-100-A-C","xpos":1000000100,"ref":"A","alt":"C"}
{"variantId":"1-200-A-G","xpos":1000000200,"ref":"A","alt":"G"}
`,
			"part-1.jsonl": `{"variantId":"2-100-T-C","xpos":2000000100,"ref":"T","alt":"C"}
`,
		})

	store := NewDirectoryStore(root, 2)
	assert.True(t, store.TableExists("SNV_INDEL/annotations"))

	table, err := store.ReadTable("SNV_INDEL/annotations")
	assert.Nil(t, err)

	rows, err := table.Collect(context.Background())
	assert.Nil(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, "1-100-A-C", rows[0].VariantId)
	assert.Equal(t, "1-200-A-G", rows[1].VariantId)
	assert.Equal(t, "2-100-T-C", rows[2].VariantId)
}

func TestDirectoryStoreRowLevelIntervalPruning(t *testing.T) {
	root := t.TempDir()
	writeTable(t, root, "SNV_INDEL/annotations",
		`{"familyGuids":[]}`,
		map[string]string{
			"part-0.jsonl": `{"variantId":"1-100-A-C","xpos":1000000100,"ref":"A","alt":"C"}
{"variantId":"1-900-A-G","xpos":1000000900,"ref":"A","alt":"G"}
`,
		})

	store := NewDirectoryStore(root, 2)
	set := NewIntervalSet([]Span{{Start: 1_000_000_000, End: 1_000_000_500}})

	table, err := store.ReadTable("SNV_INDEL/annotations", WithIntervals(set))
	assert.Nil(t, err)

	rows, err := table.Collect(context.Background())
	assert.Nil(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "1-100-A-C", rows[0].VariantId)
}

func TestDirectoryStoreManifestSkipsDisjointPartitions(t *testing.T) {
	root := t.TempDir()
	writeTable(t, root, "SNV_INDEL/annotations",
		`{"familyGuids":[]}`,
		map[string]string{
			"part-0.jsonl": `{"variantId":"1-100-A-C","xpos":1000000100,"ref":"A","alt":"C"}
`,
			// carries an in-range row, but the manifest claims the
			// partition is disjoint, so it must never be opened
			"part-1.jsonl": `{"variantId":"1-200-A-G","xpos":1000000200,"ref":"A","alt":"G"}
`,
			"partitions.json": `[
  {"file":"part-0.jsonl","startXpos":1000000000,"endXpos":1000000500},
  {"file":"part-1.jsonl","startXpos":2000000000,"endXpos":2000000500}
]`,
		})

	store := NewDirectoryStore(root, 2)
	set := NewIntervalSet([]Span{{Start: 1_000_000_000, End: 1_000_000_500}})

	table, err := store.ReadTable("SNV_INDEL/annotations", WithIntervals(set))
	assert.Nil(t, err)

	rows, err := table.Collect(context.Background())
	assert.Nil(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, "1-100-A-C", rows[0].VariantId)
}

func TestDirectoryStoreGlobals(t *testing.T) {
	root := t.TempDir()
	writeTable(t, root, "SNV_INDEL/projects/WES/P1",
		`{"sampleType":"WES","projectGuid":"P1","familyGuids":["F1"],"familySamples":{"F1":["S1","S2"]}}`,
		map[string]string{"part-0.jsonl": ""})

	store := NewDirectoryStore(root, 2)
	table, err := store.ReadTable("SNV_INDEL/projects/WES/P1")
	assert.Nil(t, err)

	globals := table.Globals()
	assert.Equal(t, "P1", globals.ProjectGuid)
	assert.Equal(t, []string{"F1"}, globals.FamilyGuids)
	assert.Equal(t, []string{"S1", "S2"}, globals.FamilySamples["F1"])
}
