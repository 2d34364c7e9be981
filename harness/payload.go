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

package harness

import (
	_ "embed"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

//go:embed cellpose_harness.py
var payload []byte

// PayloadFileName is the name under which the embedded worker is materialized
const PayloadFileName = "cellpose_harness.py"

// MaterializePayload writes the embedded Cellpose worker into the working
// directory and returns its path
func MaterializePayload(workingDirectory string) (string, error) {
	if err := os.MkdirAll(workingDirectory, 0755); err != nil {
		return "", errors.Wrapf(err, "failed to create the working directory %q", workingDirectory)
	}
	path := filepath.Join(workingDirectory, PayloadFileName)
	if err := ioutil.WriteFile(path, payload, 0755); err != nil {
		return "", errors.Wrapf(err, "failed to materialize the harness worker to %q", path)
	}
	return path, nil
}
