package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// TableFormatter formats output as a borderless table
type TableFormatter struct {
	options *Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(opts *Options) *TableFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &TableFormatter{
		options: opts,
	}
}

// Format outputs a single data item as a table
func (f *TableFormatter) Format(w io.Writer, data interface{}) error {
	table := f.createTable(w)

	switch v := data.(type) {
	case map[string]interface{}:
		return f.formatMap(table, v)
	case []map[string]interface{}:
		return f.formatMapSlice(table, v)
	default:
		// Fallback to simple string representation
		fmt.Fprintln(w, v)
		return nil
	}
}

// FormatReport outputs one row per task followed by a summary line
func (f *TableFormatter) FormatReport(w io.Writer, report Report) error {
	colors := NewColorScheme(w, f.options.NoColor)

	if len(report.Rows) == 0 {
		fmt.Fprintln(w, "No results")
		f.printSummary(w, report, colors)
		return nil
	}

	table := f.createTable(w)

	headers := []string{"INDEX", "STATUS", "WORKER", "DURATION"}
	if f.options.Wide {
		headers = append(headers, "DETAIL")
	}

	if !f.options.NoHeaders {
		if colors.Disabled {
			table.SetHeader(headers)
		} else {
			coloredHeaders := make([]string, len(headers))
			for i, h := range headers {
				coloredHeaders[i] = colors.Header(h)
			}
			table.SetHeader(coloredHeaders)
		}
	}

	for _, row := range report.Rows {
		table.Append(f.formatRow(row, colors))
	}

	table.Render()

	f.printSummary(w, report, colors)

	return nil
}

// formatRow formats a single task as a table row
func (f *TableFormatter) formatRow(row Row, colors *ColorScheme) []string {
	index := "-"
	if row.Index >= 0 {
		index = strconv.Itoa(row.Index)
	}

	status := string(row.Status)
	worker := row.Worker
	if worker == "" {
		worker = "-"
	}
	duration := "-"
	if row.Duration > 0 {
		duration = row.Duration.Round(100_000).String()
	}

	if !colors.Disabled {
		status = colors.ForStatus(row.Status)(status)
		worker = colors.Worker(worker)
		duration = colors.Duration(duration)
	}

	out := []string{index, status, worker, duration}

	if f.options.Wide {
		detail := row.Detail
		// Truncate long details
		if len(detail) > 60 {
			detail = detail[:57] + "..."
		}
		out = append(out, detail)
	}

	return out
}

// formatMap formats a map as a two-column table (key-value pairs)
func (f *TableFormatter) formatMap(table *tablewriter.Table, data map[string]interface{}) error {
	if !f.options.NoHeaders {
		table.SetHeader([]string{"KEY", "VALUE"})
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		table.Append([]string{k, fmt.Sprintf("%v", data[k])})
	}

	table.Render()
	return nil
}

// formatMapSlice formats a slice of maps as a table
func (f *TableFormatter) formatMapSlice(table *tablewriter.Table, data []map[string]interface{}) error {
	if len(data) == 0 {
		return nil
	}

	// Extract headers from the first map
	keys := make([]string, 0, len(data[0]))
	for k := range data[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if !f.options.NoHeaders {
		headers := make([]string, len(keys))
		for i, k := range keys {
			headers[i] = strings.ToUpper(k)
		}
		table.SetHeader(headers)
	}

	for _, item := range data {
		row := make([]string, 0, len(keys))
		for _, key := range keys {
			row = append(row, fmt.Sprintf("%v", item[key]))
		}
		table.Append(row)
	}

	table.Render()
	return nil
}

// createTable creates a new borderless, tab-padded table
func (f *TableFormatter) createTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)

	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	return table
}

// printSummary prints the batch summary
func (f *TableFormatter) printSummary(w io.Writer, report Report, colors *ColorScheme) {
	s := report.Summary

	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Summary: ")

	successText := fmt.Sprintf("%d succeeded", s.Succeeded)
	if !colors.Disabled {
		successText = colors.Succeeded(successText)
	}

	failedText := fmt.Sprintf("%d failed", s.Failed)
	if !colors.Disabled && s.Failed > 0 {
		failedText = colors.Failed(failedText)
	}

	timedOutText := fmt.Sprintf("%d timed out", s.TimedOut)
	droppedText := fmt.Sprintf("%d dropped", s.Dropped)
	if !colors.Disabled && s.Dropped > 0 {
		droppedText = colors.Warning(droppedText)
	}

	rateText := fmt.Sprintf("%.1f%% of %d", s.SuccessRate(), s.Total)
	if !colors.Disabled {
		rateText = colors.Duration(rateText)
	}

	fmt.Fprintf(w, "%s, %s, %s, %s (%s)", successText, failedText, timedOutText, droppedText, rateText)
	if s.Interrupted {
		interrupted := " interrupted"
		if !colors.Disabled {
			interrupted = colors.Failed(interrupted)
		}
		fmt.Fprint(w, interrupted)
	}
	fmt.Fprintln(w)
}
