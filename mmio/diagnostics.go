package mmio

import (
	"fmt"
	"log"
	"sort"
)

// Diagnostics collects the warnings a device raises for software-visible
// anomalies. Every report is counted, but the text of a given key is only
// logged the first time it is reported.
type Diagnostics struct {
	owner  string
	logger *log.Logger
	counts map[string]int
}

// NewDiagnostics creates a Diagnostics for a device. A nil logger uses the
// standard logger.
func NewDiagnostics(owner string, logger *log.Logger) *Diagnostics {
	if logger == nil {
		logger = log.Default()
	}

	return &Diagnostics{
		owner:  owner,
		logger: logger,
		counts: make(map[string]int),
	}
}

// Report records an occurrence of the condition identified by key.
func (d *Diagnostics) Report(key string, format string, args ...any) {
	d.counts[key]++

	if d.counts[key] > 1 {
		return
	}

	d.logger.Printf("warn: %s: %s", d.owner, fmt.Sprintf(format, args...))
}

// Count returns how many times the key has been reported.
func (d *Diagnostics) Count(key string) int {
	return d.counts[key]
}

// Total returns the number of reports of all keys.
func (d *Diagnostics) Total() int {
	total := 0
	for _, c := range d.counts {
		total += c
	}

	return total
}

// Keys returns the reported keys, sorted.
func (d *Diagnostics) Keys() []string {
	keys := make([]string, 0, len(d.counts))
	for k := range d.counts {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
