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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpere/batchtran/internal/batch"
	"github.com/valpere/batchtran/internal/detector"
	"github.com/valpere/batchtran/internal/runner"
	"github.com/valpere/batchtran/internal/store"
	"github.com/valpere/batchtran/internal/translator"
	"github.com/valpere/batchtran/internal/validator"
)

var (
	trBatchesDir string
	trOutputDir  string
	trSourceLang string
	trTargetLang string

	trService     string
	trModel       string
	trDeepSeekKey string
	trOllamaURL   string
	trTimeout     time.Duration

	trWorkers     int
	trMaxAttempts int
	trBatches     []int

	trInstructions string
	trUseGlossary  bool
	trValidate     bool

	trDBPath  string
	trNoCache bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate batch files through a translation service",
	Long: `Translate the batch files in a directory in parallel and write one result
file per batch into the output directory.

Available services:
  - deepseek  DeepSeek chat API (requires API key)
  - ollama    Self-hosted Ollama LLM
  - google    Google Cloud Translation (requires credentials)

Each worker owns one batch file; a failed batch leaves its result file
absent and can simply be retried with another translate run — batches that
already have a result file are skipped unless --batches names them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		service, err := buildService(trService, trDeepSeekKey, trOllamaURL, trModel)
		if err != nil {
			return err
		}

		// Auto-detect the source language from a sample of segments when not
		// given explicitly.
		if trSourceLang == "auto" {
			if sample := sampleSegmentSources(trBatchesDir, detectSampleSize); len(sample) > 0 {
				det := detector.New()
				if detected, ok := det.DetectSampleISO(sample); ok {
					trSourceLang = detected
					fmt.Fprintf(os.Stderr, "Detected source language: %s\n", trSourceLang)
				}
			}
		}

		var db *store.Store
		var cache runner.SegmentCache
		if !trNoCache && trDBPath != "" {
			db, err = store.New(trDBPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()
			cache = db
		}

		glossary := map[string]string{}
		if trUseGlossary && db != nil {
			glossary, err = db.GlossaryMap(ctx, trSourceLang, trTargetLang)
			if err != nil {
				return fmt.Errorf("failed to load glossary: %w", err)
			}
			if len(glossary) > 0 {
				fmt.Fprintf(os.Stderr, "Using %d glossary terms\n", len(glossary))
			}
		}

		var check runner.TargetValidator
		if trValidate {
			check = validator.New()
		}

		var runID string
		if db != nil {
			if runID, err = db.CreateRun(ctx, trBatchesDir, trOutputDir, trSourceLang, trTargetLang, service.Name()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to record run: %v\n", err)
				runID = ""
			}
		}

		run := runner.New(service, translator.ServiceConfig{
			Model:   trModel,
			Timeout: trTimeout,
		}, cache, check)

		summary, err := run.Run(ctx, runner.Options{
			BatchesDir:   trBatchesDir,
			OutputDir:    trOutputDir,
			SourceLang:   trSourceLang,
			TargetLang:   trTargetLang,
			Workers:      trWorkers,
			MaxAttempts:  trMaxAttempts,
			Batches:      trBatches,
			Glossary:     glossary,
			Instructions: trInstructions,
		})
		if err != nil {
			return err
		}

		for _, out := range summary.Outcomes {
			if out.Err != nil {
				continue
			}
			line := fmt.Sprintf("  batch %2d: %d segments, %.1fs", out.Batch, out.Segments, out.Elapsed.Seconds())
			if out.Cached > 0 {
				line += fmt.Sprintf(" (%d from memory)", out.Cached)
			}
			if out.Suspect > 0 {
				line += fmt.Sprintf(" (%d suspect)", out.Suspect)
			}
			fmt.Fprintln(os.Stderr, line)
		}

		if db != nil && runID != "" {
			_ = db.FinishRun(ctx, runID, summary.Completed, summary.Failed, summary.Segments)
		}

		fmt.Printf("Translated %d/%d batches (%d segments) in %.1fs\n",
			summary.Completed, summary.Completed+summary.Failed, summary.Segments, summary.Elapsed.Seconds())
		if summary.Failed > 0 {
			return fmt.Errorf("%d batches failed; rerun translate to retry them", summary.Failed)
		}
		return nil
	},
}

// detectSampleSize is how many segment sources are pooled for language
// detection; one segment is often too short for a reliable verdict.
const detectSampleSize = 8

// sampleSegmentSources returns up to limit non-empty source texts from the
// batch files, for language detection.
func sampleSegmentSources(batchesDir string, limit int) []string {
	batches, err := batch.Load(batchesDir)
	if err != nil {
		return nil
	}
	var sample []string
	for _, b := range batches {
		for _, seg := range b.Segments {
			if seg.Source == "" {
				continue
			}
			sample = append(sample, seg.Source)
			if len(sample) >= limit {
				return sample
			}
		}
	}
	return sample
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&trBatchesDir, "dir", "d", "", "Directory containing batch files (required)")
	translateCmd.Flags().StringVarP(&trOutputDir, "output", "o", "", "Directory for result files (required)")
	translateCmd.Flags().StringVarP(&trSourceLang, "source", "s", "auto", "Source language code")
	translateCmd.Flags().StringVarP(&trTargetLang, "target", "t", "", "Target language code (required)")

	translateCmd.Flags().StringVar(&trService, "service", "deepseek", "Translation service (deepseek, ollama, google)")
	translateCmd.Flags().StringVar(&trModel, "model", "", "Model override for LLM services")
	translateCmd.Flags().StringVar(&trDeepSeekKey, "deepseek-key", "", "DeepSeek API key (or BATCHTRAN_DEEPSEEK_API_KEY)")
	translateCmd.Flags().StringVar(&trOllamaURL, "ollama-url", "", "Ollama base URL (or BATCHTRAN_OLLAMA_URL)")
	translateCmd.Flags().DurationVar(&trTimeout, "timeout", 120*time.Second, "Per-batch service timeout")

	translateCmd.Flags().IntVar(&trWorkers, "workers", 4, "Batches translated in parallel")
	translateCmd.Flags().IntVar(&trMaxAttempts, "max-retries", 3, "Total attempts per batch including the first (1 = no retries)")
	translateCmd.Flags().IntSliceVar(&trBatches, "batches", nil, "Specific batch numbers to translate (default: all without a result file)")

	translateCmd.Flags().StringVar(&trInstructions, "instructions", "", "Extra instructions appended to the translation prompt")
	translateCmd.Flags().BoolVar(&trUseGlossary, "glossary", false, "Inject glossary terms for this language pair into prompts")
	translateCmd.Flags().BoolVar(&trValidate, "validate", false, "Flag translated segments that are not in the target language")

	translateCmd.Flags().StringVar(&trDBPath, "db", "./data/batchtran.db", "Database path for translation memory")
	translateCmd.Flags().BoolVar(&trNoCache, "no-cache", false, "Disable the translation memory cache")

	translateCmd.MarkFlagRequired("dir")
	translateCmd.MarkFlagRequired("output")
	translateCmd.MarkFlagRequired("target")
}
