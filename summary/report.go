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
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/fvbommel/sortorder"

	"github.com/ystia/gpucheck/checks"
	"github.com/ystia/gpucheck/harness"
	"github.com/ystia/gpucheck/helper/tabutil"
	"github.com/ystia/gpucheck/result"
)

const lineWidth = 80

// A Report aggregates loaded records for rendering
type Report struct {
	GeneratedAt time.Time
	Records     []*result.Record
}

// NewReport creates a Report over the given records
func NewReport(records []*result.Record) *Report {
	return &Report{GeneratedAt: time.Now(), Records: records}
}

// An ErrorGroup gathers the nodes affected by one literal error string
type ErrorGroup struct {
	Error string
	Nodes []string
}

// Successes returns the successful records ordered by natural node name sort
func (r *Report) Successes() []*result.Record {
	return r.partition(result.StatusSuccess)
}

// Failures returns the failed records ordered by natural node name sort.
// A record with any status other than SUCCESS counts as failed.
func (r *Report) Failures() []*result.Record {
	return r.partition(result.StatusFailed)
}

func (r *Report) partition(status result.Status) []*result.Record {
	records := make([]*result.Record, 0)
	for _, record := range r.Records {
		if (record.Status == result.StatusSuccess) == (status == result.StatusSuccess) {
			records = append(records, record)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return sortorder.NaturalLess(records[i].Node, records[j].Node)
	})
	return records
}

// ErrorGroups groups failed nodes by identical error string, in first-seen
// order over the records as they were loaded
func (r *Report) ErrorGroups() []ErrorGroup {
	groups := make([]ErrorGroup, 0)
	index := make(map[string]int)
	for _, record := range r.Records {
		if record.Status == result.StatusSuccess {
			continue
		}
		for _, e := range record.Errors {
			i, seen := index[e]
			if !seen {
				i = len(groups)
				index[e] = i
				groups = append(groups, ErrorGroup{Error: e})
			}
			groups[i].Nodes = append(groups[i].Nodes, record.Node)
		}
	}
	return groups
}

// Render formats the report. Only the check-mark lines are colorized, and
// only when colorize is set: the file copy of the report is always plain.
func (r *Report) Render(colorize bool) string {
	var b strings.Builder
	successes := r.Successes()
	failures := r.Failures()

	b.WriteString(strings.Repeat("=", lineWidth) + "\n")
	b.WriteString("CELLPOSE-SAM GPU TEST SUMMARY\n")
	fmt.Fprintf(&b, "Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Total nodes tested: %d\n", len(r.Records))
	if oldest := r.oldestRun(); !oldest.IsZero() {
		fmt.Fprintf(&b, "Oldest result: %s\n", humanize.Time(oldest))
	}
	b.WriteString(strings.Repeat("=", lineWidth) + "\n\n")

	b.WriteString(success(colorize, fmt.Sprintf("✓ SUCCESS: %d nodes", len(successes))) + "\n")
	b.WriteString(failure(colorize, fmt.Sprintf("✗ FAILED:  %d nodes", len(failures))) + "\n\n")

	if len(successes) > 0 {
		b.WriteString("SUCCESSFUL NODES:\n")
		b.WriteString(strings.Repeat("-", lineWidth) + "\n")
		for _, record := range successes {
			b.WriteString(success(colorize, fmt.Sprintf("  ✓ %s (hostname: %s)", record.Node, record.Hostname)) + "\n")
			for _, d := range frameworkDevices(record) {
				fmt.Fprintf(&b, "      GPU: %s (%sGB)\n", d.Name, formatGB(d.MemoryGB))
			}
		}
		b.WriteString("\n")
	}

	if len(failures) > 0 {
		b.WriteString("FAILED NODES:\n")
		b.WriteString(strings.Repeat("-", lineWidth) + "\n")
		for _, record := range failures {
			b.WriteString(failure(colorize, fmt.Sprintf("  ✗ %s (hostname: %s)", record.Node, record.Hostname)) + "\n")
			for _, e := range record.Errors {
				fmt.Fprintf(&b, "      ERROR: %s\n", e)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nDETAILED ERROR BREAKDOWN:\n")
	b.WriteString(strings.Repeat("-", lineWidth) + "\n")
	for _, group := range r.ErrorGroups() {
		fmt.Fprintf(&b, "\n%s\n", group.Error)
		fmt.Fprintf(&b, "  Affected nodes (%d): %s\n", len(group.Nodes), strings.Join(group.Nodes, ", "))
	}

	if table := r.inventoryTable(); table != "" {
		b.WriteString("\nGPU INVENTORY:\n")
		b.WriteString(strings.Repeat("-", lineWidth) + "\n")
		b.WriteString(table + "\n")
	}

	b.WriteString("\n" + strings.Repeat("=", lineWidth) + "\n")
	return b.String()
}

// oldestRun returns the start time of the oldest record carrying one
func (r *Report) oldestRun() time.Time {
	var oldest time.Time
	for _, record := range r.Records {
		if record.StartedAt.IsZero() {
			continue
		}
		if oldest.IsZero() || record.StartedAt.Before(oldest) {
			oldest = record.StartedAt
		}
	}
	return oldest
}

// inventoryTable renders all the GPUs reported across nodes, preferring the
// driver check output and falling back to the framework probe devices.
// An empty string is returned when no record reported any device.
func (r *Report) inventoryTable() string {
	table := tabutil.NewTable()
	table.AddHeaders("Node", "GPU", "Model", "Memory", "Compute cap.", "Driver")
	rows := 0
	for _, record := range r.partitionAll() {
		var driver checks.DriverReport
		if found, err := record.Result(checks.CheckDriver, &driver); err == nil && found && len(driver.Devices) > 0 {
			for _, d := range driver.Devices {
				table.AddRow(record.Node, d.Index, d.Name, formatGB(d.MemoryGB)+"GB", d.ComputeCapability, d.DriverVersion)
				rows++
			}
			continue
		}
		for _, d := range frameworkDevices(record) {
			table.AddRow(record.Node, d.Index, d.Name, formatGB(d.MemoryGB)+"GB", d.ComputeCapability, "N/A")
			rows++
		}
	}
	if rows == 0 {
		return ""
	}
	return table.Render()
}

// partitionAll returns every record in natural node name order
func (r *Report) partitionAll() []*result.Record {
	records := make([]*result.Record, len(r.Records))
	copy(records, r.Records)
	sort.SliceStable(records, func(i, j int) bool {
		return sortorder.NaturalLess(records[i].Node, records[j].Node)
	})
	return records
}

func frameworkDevices(record *result.Record) []harness.FrameworkDevice {
	var info harness.FrameworkInfo
	found, err := record.Result(checks.CheckFramework, &info)
	if err != nil || !found {
		return nil
	}
	return info.Devices
}

// formatGB renders a gigabyte figure without trailing zeros, as reported by
// the framework probe (85.9, not 85.90)
func formatGB(gb float64) string {
	return strconv.FormatFloat(gb, 'f', -1, 64)
}

func success(colorize bool, s string) string {
	if !colorize {
		return s
	}
	return color.New(color.FgHiGreen, color.Bold).SprintFunc()(s)
}

func failure(colorize bool, s string) string {
	if !colorize {
		return s
	}
	return color.New(color.FgHiRed, color.Bold).SprintFunc()(s)
}
