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

package log

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintRendering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Print("results saved to ", "out.json")
	line := buf.String()
	assert.Contains(t, line, "[INFO] results saved to out.json")
	assert.NotContains(t, line, "<nil>")
}

func TestPrintlnRendering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	Println("all tests passed")
	line := buf.String()
	assert.Contains(t, line, "[INFO]")
	assert.Contains(t, line, "all tests passed")
	assert.NotContains(t, line, "<nil>")
	require.True(t, strings.HasSuffix(line, "\n"))
}

func TestDebugRendering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	SetDebug(false)
	Debug("hidden")
	assert.Empty(t, buf.String())

	SetDebug(true)
	defer SetDebug(false)
	Debug("Exiting main...")
	Debugln("session closed")
	out := buf.String()
	assert.Contains(t, out, "[DEBUG]Exiting main...")
	assert.Contains(t, out, "[DEBUG] session closed")
	assert.NotContains(t, out, "<nil>")
}
