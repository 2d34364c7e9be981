// Copyright 2018 Bull S.A.S. Atos Technologies - Bull, Rue Jean Jaures, B.P.68, 78340, Les Clayes-sous-Bois, France.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"fmt"
	"io/ioutil"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ystia/gpucheck/log"
	"github.com/ystia/gpucheck/summary"
)

var summaryInputDir string
var summaryInputFiles []string
var summaryOutput string
var summaryStrict bool

func init() {
	RootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVar(&summaryInputDir, "input-dir", "", "Directory to scan for result files")
	summaryCmd.Flags().StringSliceVar(&summaryInputFiles, "input-files", nil, "Explicit list of result files, taking precedence over --input-dir")
	summaryCmd.Flags().StringVar(&summaryOutput, "output", "", "Path of the text report (required)")
	summaryCmd.Flags().BoolVar(&summaryStrict, "strict", false, "Exit with a non-zero code when any node failed")
	summaryCmd.MarkFlagRequired("output")
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Aggregate result records into a summary report",
	Long: `Loads per-node JSON result records, written by the test command, and
renders a plain-text summary report: success/failure counts, per-node
details, an error breakdown grouping nodes by identical error and a GPU
inventory. The report is written to the output file and echoed to stdout.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := summary.LoadRecords(summaryInputDir, summaryInputFiles)
		if err != nil {
			return err
		}
		report := summary.NewReport(records)

		// the file copy is always plain text
		if err = ioutil.WriteFile(summaryOutput, []byte(report.Render(false)), 0644); err != nil {
			return errors.Wrapf(err, "failed to write the summary report to %q", summaryOutput)
		}
		log.Printf("Summary written to: %s", summaryOutput)

		colorize := !noColor
		if colorize {
			defer color.Unset()
		}
		fmt.Println(report.Render(colorize))

		if summaryStrict {
			if failed := len(report.Failures()); failed > 0 {
				return errors.Errorf("%d node(s) failed validation", failed)
			}
		}
		return nil
	},
}
