// Package testutil contains fakes shared by package tests: scripted agents
// and memory backends that fail on demand. They are not intended for
// production usage.
package testutil
