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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ystia/gpucheck/log"
)

var noColor bool

// RootCmd is the root of the gpucheck commands tree
var RootCmd = &cobra.Command{
	Use:   "gpucheck",
	Short: "GPU compute node validation for Cellpose-SAM workloads",
	Long: `gpucheck validates GPU compute nodes before running Cellpose-SAM cell
segmentation workloads.

The test command runs a sequence of diagnostic checks on the local node and
writes a JSON result record. The summary command aggregates those records
into a plain-text report.`,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("debug") {
			log.SetDebug(true)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		err := cmd.Help()
		if err != nil {
			fmt.Print(err)
		}
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloring of console output")
	RootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	viper.BindPFlag("debug", RootCmd.PersistentFlags().Lookup("debug"))
	viper.BindEnv("debug")
}
