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
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/batchtran/internal/batch"
)

var (
	statusBatchesDir string
	statusResultsDir string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show translation coverage per batch",
	Long: `Compare the batch directory against the results directory and report,
per batch, how many segments have a non-empty translation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		batches, err := batch.Load(statusBatchesDir)
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			return fmt.Errorf("no batch files in %s", statusBatchesDir)
		}

		if m, err := batch.LoadManifest(statusBatchesDir); err == nil {
			fmt.Fprintf(os.Stderr, "Project: %s (%d segments, %d batches)\n",
				m.Project, m.TotalSegments, m.TotalBatches)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BATCH\tSEGMENTS\tTRANSLATED\tSTATE")

		totalSegments, totalDone, pending := 0, 0, 0
		for _, b := range batches {
			totalSegments += len(b.Segments)

			resPath := filepath.Join(statusResultsDir, batch.FileName(b.Number))
			res, err := batch.ReadResult(resPath)
			if err != nil {
				pending++
				fmt.Fprintf(w, "%d\t%d\t-\tpending\n", b.Number, len(b.Segments))
				continue
			}

			done := 0
			for _, t := range res.Translations {
				if t.ID != "" && t.Target != nil && *t.Target != "" {
					done++
				}
			}
			totalDone += done

			state := "complete"
			if done < len(b.Segments) {
				state = "partial"
			}
			fmt.Fprintf(w, "%d\t%d\t%d\t%s\n", b.Number, len(b.Segments), done, state)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Printf("\n%d/%d segments translated, %d batches pending\n", totalDone, totalSegments, pending)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVarP(&statusBatchesDir, "dir", "d", "", "Directory containing batch files (required)")
	statusCmd.Flags().StringVarP(&statusResultsDir, "results", "r", "", "Directory containing result files (required)")

	statusCmd.MarkFlagRequired("dir")
	statusCmd.MarkFlagRequired("results")
}
