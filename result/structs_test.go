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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusJSONRoundTrip(t *testing.T) {
	t.Parallel()
	b, err := json.Marshal(StatusFailed)
	require.NoError(t, err)
	assert.Equal(t, `"FAILED"`, string(b))

	var s Status
	require.NoError(t, json.Unmarshal([]byte(`"SUCCESS"`), &s))
	assert.Equal(t, StatusSuccess, s)
	// the parser is case-insensitive on read
	require.NoError(t, json.Unmarshal([]byte(`"unknown"`), &s))
	assert.Equal(t, StatusUnknown, s)
}

func TestStatusUnmarshalInvalid(t *testing.T) {
	t.Parallel()
	var s Status
	err := json.Unmarshal([]byte(`"PASSED"`), &s)
	require.Error(t, err)
	err = json.Unmarshal([]byte(`42`), &s)
	require.Error(t, err)
}

func TestFinalizeStatusReflectsErrors(t *testing.T) {
	t.Parallel()
	r, err := NewRecord("gpu-node-1")
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, r.Status)

	r.Finalize()
	assert.Equal(t, StatusSuccess, r.Status)
	assert.NotEmpty(t, r.Duration)

	r, err = NewRecord("gpu-node-2")
	require.NoError(t, err)
	r.AddErrors("CUDA not available despite GPU partition")
	r.Finalize()
	assert.Equal(t, StatusFailed, r.Status)
}

func TestRecordResultRoundTrip(t *testing.T) {
	t.Parallel()
	r, err := NewRecord("gpu-node-1")
	require.NoError(t, err)

	type libraryOutput struct {
		Version  string `json:"version"`
		Imported bool   `json:"imported"`
	}
	require.NoError(t, r.AddResult("cellpose", libraryOutput{Version: "4.0.1", Imported: true}))

	var out libraryOutput
	found, err := r.Result("cellpose", &out)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "4.0.1", out.Version)
	assert.True(t, out.Imported)

	found, err = r.Result("inference", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewRecordHasRunID(t *testing.T) {
	t.Parallel()
	r1, err := NewRecord("gpu-node-1")
	require.NoError(t, err)
	r2, err := NewRecord("gpu-node-1")
	require.NoError(t, err)
	assert.NotEmpty(t, r1.RunID)
	assert.NotEqual(t, r1.RunID, r2.RunID)
}
