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

package stringutil

import (
	"strconv"
	"strings"
	"time"
)

// UniqueTimestampedName generates a time-stamped name for a temporary file or directory
func UniqueTimestampedName(prefix string, suffix string) string {
	return prefix + strconv.FormatInt(time.Now().UnixNano(), 10) + suffix
}

// Truncate returns a string truncated to the given maximum length with an ellipsis marker
func Truncate(str string, maxLength int) string {
	if maxLength > 3 && len(str) > maxLength {
		return str[:maxLength-3] + "..."
	}
	return str
}

// FirstLine returns the first line of a multi-line string, trimmed of trailing spaces
func FirstLine(str string) string {
	if idx := strings.IndexByte(str, '\n'); idx >= 0 {
		str = str[:idx]
	}
	return strings.TrimSpace(str)
}
