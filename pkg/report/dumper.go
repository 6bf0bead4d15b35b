// Package report walks every job, its allocations and one task log per
// allocation, and prints the result as a plain-text report.
package report

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/hashicorp/nomad/api"
	"go.uber.org/zap"

	"github.com/muman613/nomad-helper/pkg/config"
	apperrors "github.com/muman613/nomad-helper/pkg/errors"
	"github.com/muman613/nomad-helper/pkg/logging"
)

// Source is the read-only view of the cluster a report is built from.
type Source interface {
	Jobs(ctx context.Context) ([]*api.JobListStub, error)
	Allocations(ctx context.Context, jobID string) ([]*api.AllocationListStub, error)
	Logs(ctx context.Context, allocID, task, logType string) (string, error)
}

// Options configures a Dumper. Zero values get sensible defaults.
type Options struct {
	Out      io.Writer
	Location *time.Location
	LogType  string
	Verbose  bool
	Selector TaskSelector
	Logger   *logging.ColoredLogger
}

// Summary counts what a run printed.
type Summary struct {
	Jobs        int
	Allocations int
	Logs        int
	Exceptions  int
}

// Dumper prints the job/allocation/log report. Calls are strictly
// sequential, in the order the API returns them.
type Dumper struct {
	src  Source
	opts Options
}

// NewDumper creates a dumper reading from src.
func NewDumper(src Source, opts Options) *Dumper {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.LogType == "" {
		opts.LogType = config.LogTypeStderr
	}
	if opts.Selector == nil {
		opts.Selector = LexicalSelector{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Dumper{src: src, opts: opts}
}

// Run prints the full report. A failure of one allocation's log is printed
// as an EXCEPTION line and the run continues. Any other failure stops the
// run, is printed once as an ERROR line and returned.
func (d *Dumper) Run(ctx context.Context) (Summary, error) {
	p := &printer{w: d.opts.Out}
	var sum Summary

	if err := d.dumpJobs(ctx, p, &sum); err != nil {
		d.opts.Logger.ComponentError(logging.ComponentReport, "Report aborted",
			append(logging.ErrorFields(err), zap.Error(err))...,
		)
		PrintError(d.opts.Out, err)
		return sum, err
	}
	if p.err != nil {
		return sum, apperrors.Wrap(p.err, "write report")
	}
	return sum, nil
}

func (d *Dumper) dumpJobs(ctx context.Context, p *printer, sum *Summary) error {
	jobs, err := d.src.Jobs(ctx)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return apperrors.Classify(err, apperrors.Op{Name: "dump jobs"})
		}
		sum.Jobs++

		p.jobHeader(job.ID, job.Status, FormatSubmitTime(job.SubmitTime, d.opts.Location))

		allocs, err := d.src.Allocations(ctx, job.ID)
		if err != nil {
			return err
		}
		if len(allocs) == 0 {
			continue
		}

		p.line("ALLOCATIONS:")
		for _, alloc := range allocs {
			if err := ctx.Err(); err != nil {
				return apperrors.Classify(err, apperrors.Op{Name: "dump allocations"})
			}
			sum.Allocations++
			d.dumpAllocation(ctx, p, sum, alloc)
		}
	}
	return nil
}

func (d *Dumper) dumpAllocation(ctx context.Context, p *printer, sum *Summary, alloc *api.AllocationListStub) {
	p.allocationLine(alloc.ID, alloc.Name)
	if d.opts.Verbose {
		d.printAllocationJSON(p, alloc)
	}

	text, err := d.fetchLog(ctx, alloc)
	if err != nil {
		sum.Exceptions++
		fields := append([]zap.Field{zap.String("alloc", alloc.ID)}, logging.ErrorFields(err)...)
		d.opts.Logger.ComponentWarn(logging.ComponentReport, "Skipping allocation log",
			append(fields, zap.Error(err))...,
		)
		p.exception(err)
		return
	}

	sum.Logs++
	p.logBlock(text)
}

func (d *Dumper) fetchLog(ctx context.Context, alloc *api.AllocationListStub) (string, error) {
	task, err := d.opts.Selector.SelectTask(ctx, alloc)
	if err != nil {
		return "", err
	}
	return d.src.Logs(ctx, alloc.ID, task, d.opts.LogType)
}

func (d *Dumper) printAllocationJSON(p *printer, alloc *api.AllocationListStub) {
	data, err := json.MarshalIndent(alloc, "", "  ")
	if err != nil {
		d.opts.Logger.ComponentWarn(logging.ComponentReport, "Cannot encode allocation",
			zap.String("alloc", alloc.ID),
			zap.Error(err),
		)
		return
	}
	p.line(string(data))
}
