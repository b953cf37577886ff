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
	"github.com/spf13/viper"
)

var version = "0.1.0"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "batchtran",
	Short: "SDLXLIFF batch translation toolkit",
	Long: `Split a large SDLXLIFF/XLIFF file into balanced JSON batches, translate
the batches through an LLM or MT service in parallel, and merge the results
back into the original file with all untouched structure preserved.

Typical workflow:
  batchtran split     -i project.sdlxliff -d batches/
  batchtran translate -d batches/ -o results/ -t en-US --service deepseek
  batchtran merge     -i project.sdlxliff -d results/ -o project.translated.sdlxliff

Use "batchtran <command> --help" for command options.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $HOME/.batchtran.yaml)")
}

// initConfig wires viper: an optional config file plus BATCHTRAN_* env vars,
// so API keys and defaults never have to live on the command line.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".batchtran")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("BATCHTRAN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
