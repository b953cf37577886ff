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

	"github.com/spf13/viper"

	"github.com/valpere/batchtran/internal/translator"
)

// buildService constructs the translation service named by the CLI, filling
// credentials from flags first and viper (config file / BATCHTRAN_* env)
// second.
func buildService(name, deepseekKey, ollamaURL, model string) (translator.Service, error) {
	switch name {
	case "deepseek":
		key := deepseekKey
		if key == "" {
			key = viper.GetString("deepseek_api_key")
		}
		return translator.NewDeepSeekService(key, viper.GetString("deepseek_base_url"), model), nil
	case "ollama":
		url := ollamaURL
		if url == "" {
			url = viper.GetString("ollama_url")
		}
		return translator.NewOllamaService(url, model), nil
	case "google":
		return translator.NewGoogleService(), nil
	default:
		return nil, fmt.Errorf("unknown service: %s (want deepseek, ollama, or google)", name)
	}
}
