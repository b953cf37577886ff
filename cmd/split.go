/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valpere/batchtran/internal/batch"
	"github.com/valpere/batchtran/internal/segment"
	"github.com/valpere/batchtran/internal/xliff"
)

var (
	splitInputFile  string
	splitOutputDir  string
	splitBatchSize  int
	splitProject    string
	splitExtractAll bool
)

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split an SDLXLIFF file into translation batches",
	Long: `Extract translatable segments from an SDLXLIFF/XLIFF file and split them
into balanced JSON batches plus a manifest.

By default only segments without an existing translation are extracted;
use --all to retranslate everything. Segments are distributed evenly, so
162 segments at --batch-size 40 become five batches of 33,33,32,32,32
rather than four of 40 and a final one of 2.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := xliff.Parse(splitInputFile)
		if err != nil {
			return err
		}

		mode := segment.ModeUntranslated
		modeLabel := "untranslated segments only"
		if splitExtractAll {
			mode = segment.ModeAll
			modeLabel = "all segments"
		}
		fmt.Fprintf(os.Stderr, "Extracting from %s (%s)\n", splitInputFile, modeLabel)

		segments, dialect, err := segment.Extract(doc, mode)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Extracted %d segments (%s dialect)\n", len(segments), dialect)

		batches, err := batch.Partition(segments, splitBatchSize)
		if err != nil {
			return err
		}

		manifest, err := batch.Save(batches, splitOutputDir, splitProject)
		if err != nil {
			return err
		}

		for _, b := range batches {
			fmt.Fprintf(os.Stderr, "  batch %d/%d: %d segments -> %s\n",
				b.Number, b.TotalBatches, b.SegmentCount, batch.FileName(b.Number))
		}
		fmt.Printf("Split complete: %d segments in %d batches -> %s\n",
			manifest.TotalSegments, manifest.TotalBatches, splitOutputDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(splitCmd)

	splitCmd.Flags().StringVarP(&splitInputFile, "input", "i", "", "Input SDLXLIFF/XLIFF file (required)")
	splitCmd.Flags().StringVarP(&splitOutputDir, "dir", "d", "", "Output directory for batch files (required)")
	splitCmd.Flags().IntVar(&splitBatchSize, "batch-size", 50, "Target segments per batch")
	splitCmd.Flags().StringVar(&splitProject, "project", "translation", "Project label written to the manifest")
	splitCmd.Flags().BoolVar(&splitExtractAll, "all", false, "Extract all segments, including already-translated ones")

	splitCmd.MarkFlagRequired("input")
	splitCmd.MarkFlagRequired("dir")
}
