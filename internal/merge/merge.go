// Package merge loads externally produced translation result files and
// writes their targets back into the original document model by segment id.
package merge

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/valpere/batchtran/internal/batch"
	"github.com/valpere/batchtran/internal/segment"
	"github.com/valpere/batchtran/internal/xliff"
)

// Stats reports merge coverage. Missing counts units with non-empty source
// for which no translation was supplied — an expected intermediate state in
// an iterative workflow, not an error.
type Stats struct {
	Merged  int
	Missing int
}

// LoadTranslations reads every result file in dir matching the batch naming
// pattern, in filename-sorted order, and folds the records into an id →
// target map. Later files override earlier ones on id collision; this
// sorted-filename fold is the defined last-write-wins contract, independent
// of worker completion order.
//
// A result file that fails to parse is skipped (reported on warn), and a
// record lacking an id or a target key is dropped; neither aborts the load.
func LoadTranslations(dir string, warn io.Writer) (map[string]string, error) {
	files, err := batch.ListBatchFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan results directory: %w", err)
	}

	translations := make(map[string]string)
	for _, path := range files {
		res, err := batch.ReadResult(path)
		if err != nil {
			warnf(warn, "skipping unreadable result file %s: %v\n", filepath.Base(path), err)
			continue
		}
		dropped := 0
		for _, t := range res.Translations {
			if t.ID == "" || t.Target == nil {
				dropped++
				continue
			}
			translations[t.ID] = *t.Target
		}
		if dropped > 0 {
			warnf(warn, "%s: dropped %d records without id or target\n", filepath.Base(path), dropped)
		}
	}
	return translations, nil
}

// Merge writes translations into doc. For every unit in the document: if its
// id has a translation, the target slot is set (created when absent) and
// Merged is incremented; otherwise, if its source text is non-empty, Missing
// is incremented. Units with empty source were never translation candidates
// and are not counted.
//
// Only target slots are mutated — never sources, never structure, never
// unit identity. Serializing the updated document is the caller's step.
func Merge(doc *xliff.Document, translations map[string]string) Stats {
	var stats Stats
	units, _ := doc.FindUnits()
	for _, u := range units {
		if target, ok := translations[u.ID]; ok {
			u.SetTarget(target)
			stats.Merged++
		} else if segment.Normalize(u.SourceText()) != "" {
			stats.Missing++
		}
	}
	return stats
}

func warnf(w io.Writer, format string, args ...any) {
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, format, args...)
}
