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

package summary

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ystia/gpucheck/result"
)

func storeRecord(t *testing.T, dir string, record *result.Record) string {
	path := filepath.Join(dir, record.Node+result.FileSuffix)
	require.NoError(t, record.Store(path))
	return path
}

func TestLoadRecordsFromDirectory(t *testing.T) {
	t.Parallel()
	dir, err := ioutil.TempDir("", "gpucheck-summary")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	storeRecord(t, dir, testRecord(t, "gpu-node-2", result.StatusSuccess))
	storeRecord(t, dir, testRecord(t, "gpu-node-1", result.StatusFailed, "Driver error: boom"))
	// a file without the result suffix is ignored
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, "notes.json"), []byte(`{}`), 0644))

	records, err := LoadRecords(dir, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// lexical file order
	assert.Equal(t, "gpu-node-1", records[0].Node)
	assert.Equal(t, "gpu-node-2", records[1].Node)
}

func TestLoadRecordsExplicitFilesWin(t *testing.T) {
	t.Parallel()
	dir, err := ioutil.TempDir("", "gpucheck-summary")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	storeRecord(t, dir, testRecord(t, "gpu-node-1", result.StatusSuccess))
	explicit := storeRecord(t, dir, testRecord(t, "gpu-node-2", result.StatusSuccess))

	records, err := LoadRecords(dir, []string{explicit})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "gpu-node-2", records[0].Node)
}

func TestLoadRecordsMalformedInputsAllReported(t *testing.T) {
	t.Parallel()
	dir, err := ioutil.TempDir("", "gpucheck-summary")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	storeRecord(t, dir, testRecord(t, "gpu-node-1", result.StatusSuccess))
	badA := filepath.Join(dir, "gpu-node-2"+result.FileSuffix)
	require.NoError(t, ioutil.WriteFile(badA, []byte(`{"node":`), 0644))
	badB := filepath.Join(dir, "gpu-node-3"+result.FileSuffix)
	require.NoError(t, ioutil.WriteFile(badB, []byte(`not json`), 0644))

	_, err = LoadRecords(dir, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), badA)
	assert.Contains(t, err.Error(), badB)
}

// a directory matching no result file still produces a report, covering
// 0 nodes
func TestLoadRecordsEmptyDirectory(t *testing.T) {
	t.Parallel()
	dir, err := ioutil.TempDir("", "gpucheck-summary")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	records, err := LoadRecords(dir, nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	out := NewReport(records).Render(false)
	assert.Contains(t, out, "Total nodes tested: 0")
	assert.Contains(t, out, "✓ SUCCESS: 0 nodes")
	assert.Contains(t, out, "✗ FAILED:  0 nodes")
	assert.NotContains(t, out, "Oldest result:")
}

func TestLoadRecordsNoInput(t *testing.T) {
	t.Parallel()
	_, err := LoadRecords("", nil)
	require.Error(t, err)
}

// round trip: write records the way the test command does, load them back
// and verify the rendered counts
func TestWriteLoadSummarizeRoundTrip(t *testing.T) {
	t.Parallel()
	dir, err := ioutil.TempDir("", "gpucheck-summary")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	for _, node := range []string{"gpu-node-1", "gpu-node-2"} {
		record, err := result.NewRecord(node)
		require.NoError(t, err)
		record.Finalize()
		storeRecord(t, dir, record)
	}
	failed, err := result.NewRecord("gpu-node-3")
	require.NoError(t, err)
	failed.AddErrors("Inference error: CUDA out of memory")
	failed.Finalize()
	storeRecord(t, dir, failed)

	records, err := LoadRecords(dir, nil)
	require.NoError(t, err)
	out := NewReport(records).Render(false)
	assert.Contains(t, out, "Total nodes tested: 3")
	assert.Contains(t, out, "✓ SUCCESS: 2 nodes")
	assert.Contains(t, out, "✗ FAILED:  1 nodes")
	assert.Contains(t, out, "Affected nodes (1): gpu-node-3")
	assert.Contains(t, out, "Oldest result:")
}
