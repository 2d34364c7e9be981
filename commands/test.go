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
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ystia/gpucheck/checks"
	"github.com/ystia/gpucheck/config"
	"github.com/ystia/gpucheck/log"
	"github.com/ystia/gpucheck/result"
)

var cfgFile string
var testNode string
var testOutput string

func init() {
	RootCmd.AddCommand(testCmd)
	setConfig()
	cobra.OnInitialize(initConfig)
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the GPU smoke test on this node",
	Long: `Runs the diagnostic sequence on the local node: environment capture,
NVIDIA driver probe, PyTorch/CUDA probe, Cellpose import, CellposeSAM model
loading and a dummy inference. Writes the outcome as a JSON result record.

Exits with code 0 when every check passed and 1 otherwise.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration := getConfig()
		if err := checks.ValidateSkipList(configuration.SkipChecks); err != nil {
			return err
		}
		record, err := result.NewRecord(testNode)
		if err != nil {
			return err
		}

		fmt.Println(strings.Repeat("=", 60))
		fmt.Printf("TESTING GPU NODE: %s\n", testNode)
		fmt.Printf("Actual hostname: %s\n", record.Hostname)
		fmt.Println(strings.Repeat("=", 60))

		runner := checks.NewRunner(configuration, version)
		runner.Run(context.Background(), record)
		record.Finalize()

		if err = record.Store(testOutput); err != nil {
			return err
		}
		log.Printf("Results saved to: %s", testOutput)

		colorize := !noColor
		if colorize {
			defer color.Unset()
		}
		fmt.Println(strings.Repeat("=", 60))
		if record.Status == result.StatusSuccess {
			fmt.Println(coloredStatus(colorize, true, "ALL TESTS PASSED ✓"))
			fmt.Println(strings.Repeat("=", 60))
			return nil
		}
		fmt.Println(coloredStatus(colorize, false, fmt.Sprintf("TESTS FAILED: %d error(s)", len(record.Errors))))
		fmt.Println(strings.Repeat("=", 60))
		return errors.Errorf("node %q failed validation with %d error(s)", testNode, len(record.Errors))
	},
}

func coloredStatus(colorize, success bool, status string) string {
	if !colorize {
		return status
	}
	if success {
		return color.New(color.FgHiGreen, color.Bold).SprintFunc()(status)
	}
	return color.New(color.FgHiRed, color.Bold).SprintFunc()(status)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// enable ability to specify config file via flag
		viper.SetConfigFile(cfgFile)
	}
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Debugln("Using config file:", viper.ConfigFileUsed())
	} else {
		log.Debugln("Config not found...")
	}
}

func setConfig() {
	// Flags definition for the test command
	testCmd.PersistentFlags().StringVar(&testNode, "node", "", "Identifier of the node being tested (required)")
	testCmd.PersistentFlags().StringVar(&testOutput, "output", "", "Path of the JSON result file (required)")
	testCmd.MarkPersistentFlagRequired("node")
	testCmd.MarkPersistentFlagRequired("output")
	testCmd.PersistentFlags().String("model", config.DefaultModel, "Name of the pretrained model loaded by the model checks")
	testCmd.PersistentFlags().Int("image-size", config.DefaultImageSize, "Edge size of the square dummy image submitted to the inference check")
	testCmd.PersistentFlags().StringSlice("skip", nil, "Names of checks to skip, the environment check always runs")
	testCmd.PersistentFlags().String("working-directory", config.DefaultWorkingDirectory, "Directory used to materialize the harness worker and temporary files")
	testCmd.PersistentFlags().String("harness-command", "", "Comma-separated command running the harness worker, overriding the embedded worker entirely")

	testCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is /etc/gpucheck/config.gpucheck.json)")

	// Bind flags
	viper.BindPFlag("model", testCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("image_size", testCmd.PersistentFlags().Lookup("image-size"))
	viper.BindPFlag("skip_checks", testCmd.PersistentFlags().Lookup("skip"))
	viper.BindPFlag("working_directory", testCmd.PersistentFlags().Lookup("working-directory"))
	viper.BindPFlag("harness.command", testCmd.PersistentFlags().Lookup("harness-command"))

	// Environment Variables
	viper.SetEnvPrefix("gpucheck") // will be uppercased automatically - Become "GPUCHECK_"
	viper.AutomaticEnv()           // read in environment variables that match
	viper.BindEnv("model")
	viper.BindEnv("image_size")
	viper.BindEnv("skip_checks")
	viper.BindEnv("working_directory")
	viper.BindEnv("driver_query_timeout")
	viper.BindEnv("harness.command", "GPUCHECK_HARNESS_COMMAND")
	viper.BindEnv("harness.interpreter", "GPUCHECK_HARNESS_INTERPRETER")

	// Setting Defaults
	viper.SetDefault("model", config.DefaultModel)
	viper.SetDefault("image_size", config.DefaultImageSize)
	viper.SetDefault("skip_checks", make([]string, 0))
	viper.SetDefault("working_directory", config.DefaultWorkingDirectory)
	viper.SetDefault("driver_query_timeout", config.DefaultDriverQueryTimeout)

	// Configuration file directories
	viper.SetConfigName("config.gpucheck") // name of config file (without extension)
	viper.AddConfigPath("/etc/gpucheck/")
	if home, err := homedir.Dir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")
}

func getConfig() config.Configuration {
	configuration := config.Configuration{}
	configuration.WorkingDirectory = viper.GetString("working_directory")
	configuration.Model = viper.GetString("model")
	configuration.ImageSize = viper.GetInt("image_size")
	configuration.SkipChecks = viper.GetStringSlice("skip_checks")
	configuration.DriverQueryTimeout = viper.GetDuration("driver_query_timeout")
	configuration.Harness = viper.GetStringMap("harness")
	return configuration
}
