// Package aggregate merges the per-agent results of a session into one
// consolidated report. Everything here is pure: the same results always
// produce the same report.
package aggregate
