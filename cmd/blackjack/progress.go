package main

import (
	"fmt"
	"io"
	"time"
)

// progressMonitor prints a line of dots as work completes. Calls must be
// serialised, which the simulator guarantees for its Progress callback.
type progressMonitor struct {
	w       io.Writer
	label   string
	width   int
	printed int
	started bool
	start   time.Time
}

func newProgressMonitor(w io.Writer, label string) *progressMonitor {
	return &progressMonitor{w: w, label: label, width: 40, start: time.Now()}
}

func (m *progressMonitor) update(done, total int) {
	if total <= 0 {
		return
	}
	if !m.started {
		fmt.Fprintf(m.w, "%s: ", m.label)
		m.started = true
	}

	// 40 dots keeps the line inside an 80 column terminal
	want := min(done*m.width/total, m.width)
	for m.printed < want {
		fmt.Fprint(m.w, ".")
		m.printed++
	}
	if done >= total {
		fmt.Fprintf(m.w, " %d in %s\n", total, time.Since(m.start).Round(time.Millisecond))
	}
}
