package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// SubmitTimeLayout renders submission times as 2024-01-15 01:30:00PM.
const SubmitTimeLayout = "2006-01-02 03:04:05PM"

const (
	ruleWidth      = 80
	logMarkerWidth = 74
	jobIDWidth     = 50
	statusWidth    = 12
)

// FormatSubmitTime converts a Nomad SubmitTime (nanoseconds since the epoch)
// to wall-clock time in loc.
func FormatSubmitTime(ns int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(0, ns).In(loc).Format(SubmitTimeLayout)
}

// printer writes report lines and remembers the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) linef(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) line(s string) {
	p.linef("%s", s)
}

func (p *printer) jobHeader(id, status, submitted string) {
	p.line(strings.Repeat("=", ruleWidth))
	p.linef("JOB ID : %-*s STATUS : %-*s SUBMITTED : %s", jobIDWidth, id, statusWidth, status, submitted)
}

func (p *printer) allocationLine(id, name string) {
	p.linef(">> ALLOCATION ID : %s ALLOCATION NAME : %s", id, name)
}

func (p *printer) logBlock(text string) {
	p.line("-- LOG " + strings.Repeat("-", logMarkerWidth))
	p.line(text)
	p.line(strings.Repeat("-", ruleWidth))
}

func (p *printer) exception(err error) {
	p.linef("EXCEPTION: %s", err)
}

// PrintError writes the single line reported when a run cannot continue.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "ERROR: %s\n", err)
}
