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

// Package tabutil renders fixed-column console tables, used by summary
// reports for the cross-node GPU inventory.
package tabutil

import (
	"fmt"

	"github.com/stevedomin/termtable"
)

// A Table accumulates rows and renders them as aligned, separated columns
type Table struct {
	tt *termtable.Table
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{tt: termtable.NewTable(nil, &termtable.TableOptions{
		Padding:      1,
		UseSeparator: true,
	})}
}

// AddHeaders sets the column headers
func (t *Table) AddHeaders(headers ...string) {
	t.tt.SetHeader(headers)
}

// AddRow appends one row, formatting each value with fmt.Sprint
func (t *Table) AddRow(values ...interface{}) {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = fmt.Sprint(v)
	}
	t.tt.AddRow(row)
}

// Render returns the formatted table
func (t *Table) Render() string {
	return t.tt.Render()
}
