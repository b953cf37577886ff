// Package batch partitions an ordered segment sequence into balanced batches
// and persists them — one JSON file per batch plus a manifest — in a form
// each translation worker can load independently.
package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/valpere/batchtran/internal"
)

// ManifestFile is the fixed name of the partitioning manifest.
const ManifestFile = "manifest.json"

var (
	// ErrNoSegments reports a partition request over zero segments.
	ErrNoSegments = errors.New("batch: no segments to partition")
	// ErrBadBatchSize reports a target batch size below 1.
	ErrBadBatchSize = errors.New("batch: target batch size must be >= 1")
)

// Batch is one contiguous partition of the extracted segment sequence.
type Batch struct {
	Number       int                `json:"batch_number"`
	TotalBatches int                `json:"total_batches"`
	SegmentCount int                `json:"segment_count"`
	Segments     []internal.Segment `json:"segments"`
}

// Manifest summarizes a completed partitioning. It is written once by Save
// and read-only thereafter; merge never needs it.
type Manifest struct {
	Project       string   `json:"project"`
	TotalSegments int      `json:"total_segments"`
	TotalBatches  int      `json:"total_batches"`
	BatchFiles    []string `json:"batch_files"`
}

// Result is one translation result file produced by a worker for one batch.
type Result struct {
	BatchNumber  int                    `json:"batch_number"`
	Translations []internal.Translation `json:"translations"`
}

// FileName returns the canonical batch file name for a 1-indexed batch
// number. Zero padding keeps lexical order equal to numeric order.
func FileName(number int) string {
	return fmt.Sprintf("batch_%03d.json", number)
}

// NumberFromFileName extracts the batch number from a batch or result file
// name. ok is false for the manifest and anything else not matching the
// batch naming pattern.
func NumberFromFileName(name string) (int, bool) {
	base := filepath.Base(name)
	if !strings.HasPrefix(base, "batch_") || !strings.HasSuffix(base, ".json") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(base, "batch_"), ".json"))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Partition divides segments into ceil(total/targetSize) batches whose sizes
// differ by at most one. The first total%numBatches batches receive one
// extra segment; segments are consumed strictly in order, so concatenating
// the batches reproduces the input sequence exactly.
//
// Naive fixed-size chunking can leave a tiny final batch (e.g. 162 at size
// 40 → 40,40,40,40,2); this yields 33,33,32,32,32 instead.
func Partition(segments []internal.Segment, targetSize int) ([]Batch, error) {
	if targetSize < 1 {
		return nil, ErrBadBatchSize
	}
	total := len(segments)
	if total == 0 {
		return nil, ErrNoSegments
	}

	numBatches := (total + targetSize - 1) / targetSize
	base := total / numBatches
	remainder := total % numBatches

	batches := make([]Batch, 0, numBatches)
	idx := 0
	for i := 0; i < numBatches; i++ {
		size := base
		if i < remainder {
			size++
		}
		batches = append(batches, Batch{
			Number:       i + 1,
			TotalBatches: numBatches,
			SegmentCount: size,
			Segments:     segments[idx : idx+size],
		})
		idx += size
	}
	return batches, nil
}

// Save writes one file per batch plus the manifest into dir, creating dir if
// absent, and returns the manifest.
func Save(batches []Batch, dir, project string) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create batch directory: %w", err)
	}

	manifest := &Manifest{
		Project:      project,
		TotalBatches: len(batches),
	}
	for _, b := range batches {
		name := FileName(b.Number)
		if err := writeJSON(filepath.Join(dir, name), b); err != nil {
			return nil, fmt.Errorf("failed to write batch %d: %w", b.Number, err)
		}
		manifest.TotalSegments += len(b.Segments)
		manifest.BatchFiles = append(manifest.BatchFiles, name)
	}

	if err := writeJSON(filepath.Join(dir, ManifestFile), manifest); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	return manifest, nil
}

// Load reads every batch file in dir in filename-sorted order. The manifest
// is advisory and its absence is not an error.
func Load(dir string) ([]Batch, error) {
	files, err := ListBatchFiles(dir)
	if err != nil {
		return nil, err
	}

	batches := make([]Batch, 0, len(files))
	for _, path := range files {
		var b Batch
		if err := readJSON(path, &b); err != nil {
			return nil, fmt.Errorf("failed to load batch file %s: %w", filepath.Base(path), err)
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// ListBatchFiles returns the full paths of all batch-pattern files in dir,
// sorted by filename. The manifest is excluded.
func ListBatchFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := NumberFromFileName(e.Name()); ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadManifest reads the manifest from dir.
func LoadManifest(dir string) (*Manifest, error) {
	var m Manifest
	if err := readJSON(filepath.Join(dir, ManifestFile), &m); err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	return &m, nil
}

// WriteResult writes a worker's result file into dir under the same name as
// the batch it answers. The write is atomic-intent (temp file + rename) so a
// concurrent merge never observes a half-written result.
func WriteResult(dir string, res Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, FileName(res.BatchNumber))
	tmp, err := os.CreateTemp(dir, ".result*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to place result file: %w", err)
	}
	return nil
}

// ReadResult reads one translation result file.
func ReadResult(path string) (*Result, error) {
	var r Result
	if err := readJSON(path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
