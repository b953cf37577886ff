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

	"github.com/valpere/batchtran/internal/merge"
	"github.com/valpere/batchtran/internal/xliff"
)

var (
	mergeInputFile  string
	mergeResultsDir string
	mergeOutputFile string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge translation results back into the original file",
	Long: `Load every result file in the results directory (sorted by filename, later
files winning on id collisions), write the targets into the original
SDLXLIFF file's trans-units, and save the merged document.

Merging a partial result set is normal: untranslated units are reported as
missing, not treated as an error, and merge can be run again as more result
files arrive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if mergeInputFile == mergeOutputFile {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		fmt.Fprintf(os.Stderr, "Loading translations from %s\n", mergeResultsDir)
		translations, err := merge.LoadTranslations(mergeResultsDir, os.Stderr)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Loaded %d translations\n", len(translations))

		doc, err := xliff.Parse(mergeInputFile)
		if err != nil {
			return err
		}

		stats := merge.Merge(doc, translations)

		if err := doc.Serialize(mergeOutputFile); err != nil {
			return err
		}

		fmt.Printf("Merge complete: %d merged, %d missing -> %s\n",
			stats.Merged, stats.Missing, mergeOutputFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVarP(&mergeInputFile, "input", "i", "", "Original SDLXLIFF/XLIFF file (required)")
	mergeCmd.Flags().StringVarP(&mergeResultsDir, "dir", "d", "", "Directory containing result files (required)")
	mergeCmd.Flags().StringVarP(&mergeOutputFile, "output", "o", "", "Merged output file (required)")

	mergeCmd.MarkFlagRequired("input")
	mergeCmd.MarkFlagRequired("dir")
	mergeCmd.MarkFlagRequired("output")
}
