// Package output renders batch outcomes for the batchexec CLI.
//
// A Report holds one Row per task (successes and failures, ordered by the
// task's index in the submitted slice) plus an executor.Summary. Formatters
// render it as a borderless table, JSON or YAML.
//
// # Basic Usage
//
//	rows := append(successRows, output.ErrorRows(res.Errors)...)
//	report := output.NewReport(rows, executor.Summarize(len(tasks), res))
//
//	formatter := output.NewFormatter(output.FormatTable, output.WithWide(true))
//	formatter.FormatReport(os.Stdout, report)
//
// # Color Support
//
// Colors are enabled only for TTY outputs and can be disabled with
// WithNoColor(true). Worker names are cyan, successes green, failures red
// and dropped counts yellow.
package output
