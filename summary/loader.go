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

// Package summary aggregates per-node result records into a plain-text
// report.
package summary

import (
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/ystia/gpucheck/log"
	"github.com/ystia/gpucheck/result"
)

// LoadRecords loads result records from the explicit file list when given,
// otherwise from the files matching the fixed result suffix in the input
// directory, in lexical order. A directory matching no file yields an empty
// record set so the summary still renders, with a zero node count.
//
// A malformed input aborts the whole run; every offending file is reported
// in a single aggregated error.
func LoadRecords(inputDir string, inputFiles []string) ([]*result.Record, error) {
	files := inputFiles
	if len(files) == 0 {
		if inputDir == "" {
			return nil, errors.New("either an input directory or explicit input files must be provided")
		}
		pattern := filepath.Join(inputDir, "*"+result.FileSuffix)
		var err error
		files, err = filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to list result files matching %q", pattern)
		}
		if len(files) == 0 {
			log.Printf("No result file matching %q, the summary will cover 0 nodes", pattern)
		}
		sort.Strings(files)
	}

	records := make([]*result.Record, 0, len(files))
	var loadErrors *multierror.Error
	for _, file := range files {
		record, err := result.Load(file)
		if err != nil {
			loadErrors = multierror.Append(loadErrors, err)
			continue
		}
		log.Debugf("Loaded result record for node %q from %q", record.Node, file)
		records = append(records, record)
	}
	if err := loadErrors.ErrorOrNil(); err != nil {
		return nil, err
	}
	return records, nil
}
