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

package result

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/ystia/gpucheck/helper/stringutil"
)

// Store writes the record as indented JSON to the given path.
//
// The record is first written to a unique temporary file in the target
// directory then renamed, so a partially written file is never observed
// under the final name.
func (r *Record) Store(path string) error {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to serialize the result record for node %q", r.Node)
	}
	b = append(b, '\n')

	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create the result directory %q", dir)
	}
	tmp := stringutil.UniqueTimestampedName(path+".", ".tmp")
	if err = ioutil.WriteFile(tmp, b, 0644); err != nil {
		return errors.Wrapf(err, "failed to write the result record to %q", tmp)
	}
	if err = os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "failed to rename the result record to %q", path)
	}
	return nil
}

// Load reads a record previously written by Store
func Load(path string) (*Record, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read the result file %q", path)
	}
	record := new(Record)
	if err = json.Unmarshal(b, record); err != nil {
		return nil, errors.Wrapf(err, "failed to parse the result file %q", path)
	}
	if record.Tests == nil {
		record.Tests = make(map[string]json.RawMessage)
	}
	if record.Errors == nil {
		record.Errors = make([]string, 0)
	}
	return record, nil
}
