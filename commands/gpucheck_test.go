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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ystia/gpucheck/config"
)

func TestGetConfigDefaults(t *testing.T) {
	cfg := getConfig()
	assert.Equal(t, config.DefaultModel, cfg.Model)
	assert.Equal(t, config.DefaultImageSize, cfg.ImageSize)
	assert.Equal(t, config.DefaultWorkingDirectory, cfg.WorkingDirectory)
	assert.Equal(t, config.DefaultDriverQueryTimeout, cfg.DriverQueryTimeout)
	assert.Empty(t, cfg.SkipChecks)
}

func TestCommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range RootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, expected := range []string{"test", "summary", "version"} {
		assert.True(t, names[expected], "command %q not registered", expected)
	}
}
