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
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ystia/gpucheck/checks"
	"github.com/ystia/gpucheck/harness"
	"github.com/ystia/gpucheck/result"
)

func testRecord(t *testing.T, node string, status result.Status, errs ...string) *result.Record {
	record := &result.Record{
		Node:     node,
		Hostname: node + ".cluster.local",
		Status:   status,
		Tests:    make(map[string]json.RawMessage),
		Errors:   errs,
	}
	if errs == nil {
		record.Errors = make([]string, 0)
	}
	return record
}

func withFramework(t *testing.T, record *result.Record, devices ...harness.FrameworkDevice) *result.Record {
	require.NoError(t, record.AddResult(checks.CheckFramework, harness.FrameworkInfo{
		Version:       "2.3.1",
		CUDAAvailable: true,
		DeviceCount:   len(devices),
		Devices:       devices,
	}))
	return record
}

func TestErrorGroupsFirstSeenOrder(t *testing.T) {
	t.Parallel()
	report := NewReport([]*result.Record{
		testRecord(t, "gpu-node-3", result.StatusFailed, "CUDA not available despite GPU partition"),
		testRecord(t, "gpu-node-1", result.StatusFailed, "PyTorch error: No module named 'torch'", "CUDA not available despite GPU partition"),
		testRecord(t, "gpu-node-2", result.StatusSuccess),
		testRecord(t, "gpu-node-7", result.StatusFailed, "PyTorch error: No module named 'torch'"),
	})

	groups := report.ErrorGroups()
	require.Len(t, groups, 2)
	assert.Equal(t, "CUDA not available despite GPU partition", groups[0].Error)
	assert.Equal(t, []string{"gpu-node-3", "gpu-node-1"}, groups[0].Nodes)
	assert.Equal(t, "PyTorch error: No module named 'torch'", groups[1].Error)
	assert.Equal(t, []string{"gpu-node-1", "gpu-node-7"}, groups[1].Nodes)
}

func TestPartitionNaturalOrder(t *testing.T) {
	t.Parallel()
	report := NewReport([]*result.Record{
		testRecord(t, "gpu-node-10", result.StatusSuccess),
		testRecord(t, "gpu-node-2", result.StatusSuccess),
		testRecord(t, "gpu-node-1", result.StatusFailed, "Driver error: boom"),
	})

	successes := report.Successes()
	require.Len(t, successes, 2)
	// natural sort puts 2 before 10
	assert.Equal(t, "gpu-node-2", successes[0].Node)
	assert.Equal(t, "gpu-node-10", successes[1].Node)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "gpu-node-1", failures[0].Node)
}

func TestUnknownStatusCountsAsFailed(t *testing.T) {
	t.Parallel()
	report := NewReport([]*result.Record{
		testRecord(t, "gpu-node-1", result.StatusUnknown),
	})
	assert.Empty(t, report.Successes())
	assert.Len(t, report.Failures(), 1)
}

func TestRenderCounts(t *testing.T) {
	t.Parallel()
	report := NewReport([]*result.Record{
		withFramework(t, testRecord(t, "gpu-node-1", result.StatusSuccess),
			harness.FrameworkDevice{Index: 0, Name: "NVIDIA A100-SXM4-80GB", MemoryGB: 85.9, ComputeCapability: "8.0"}),
		testRecord(t, "gpu-node-2", result.StatusFailed, "CUDA not available despite GPU partition"),
		testRecord(t, "gpu-node-3", result.StatusFailed, "CUDA not available despite GPU partition"),
	})

	out := report.Render(false)
	assert.Contains(t, out, "CELLPOSE-SAM GPU TEST SUMMARY")
	assert.Contains(t, out, "Total nodes tested: 3")
	assert.Contains(t, out, "✓ SUCCESS: 1 nodes")
	assert.Contains(t, out, "✗ FAILED:  2 nodes")
	assert.Contains(t, out, "  ✓ gpu-node-1 (hostname: gpu-node-1.cluster.local)")
	assert.Contains(t, out, "      GPU: NVIDIA A100-SXM4-80GB (85.9GB)")
	assert.Contains(t, out, "  ✗ gpu-node-2 (hostname: gpu-node-2.cluster.local)")
	assert.Contains(t, out, "      ERROR: CUDA not available despite GPU partition")
	assert.Contains(t, out, "Affected nodes (2): gpu-node-2, gpu-node-3")
	// no ANSI escape in the plain rendering
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderInventoryTable(t *testing.T) {
	t.Parallel()
	record := withFramework(t, testRecord(t, "gpu-node-1", result.StatusSuccess),
		harness.FrameworkDevice{Index: 0, Name: "NVIDIA A100-SXM4-80GB", MemoryGB: 85.9, ComputeCapability: "8.0"})
	report := NewReport([]*result.Record{record})

	out := report.Render(false)
	assert.Contains(t, out, "GPU INVENTORY:")
	assert.Contains(t, out, "NVIDIA A100-SXM4-80GB")
	assert.Contains(t, out, "85.9GB")
}

func TestRenderWithoutDevicesOmitsInventory(t *testing.T) {
	t.Parallel()
	report := NewReport([]*result.Record{
		testRecord(t, "gpu-node-1", result.StatusFailed, "PyTorch error: No module named 'torch'"),
	})
	out := report.Render(false)
	assert.NotContains(t, out, "GPU INVENTORY:")
}

func TestRenderBanners(t *testing.T) {
	t.Parallel()
	report := NewReport(nil)
	out := report.Render(false)
	lines := strings.Split(out, "\n")
	require.True(t, len(lines) > 4)
	assert.Equal(t, strings.Repeat("=", 80), lines[0])
	assert.Equal(t, strings.Repeat("=", 80), lines[len(lines)-2])
	assert.Contains(t, out, "Total nodes tested: 0")
}
