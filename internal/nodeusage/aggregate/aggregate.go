// Package aggregate turns a trace of node activity events into the per-node activity table read by the analysis
// pipeline.
//
// Each input line describes one interval:
//
//	component_id,node_name,event_type,start,end
//
// Fields are separated by a configurable delimiter, or by runs of whitespace. Blank lines, lines starting with '#'
// and header lines starting with "component_id" are skipped. Only intervals of the active event type count.
package aggregate

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/nodeusage/nodeusage/internal/common/usagecontext"
	"github.com/nodeusage/nodeusage/internal/common/usageerrors"
)

const (
	secondsPerDay  = 86400.0
	secondsPerHour = 3600.0

	// How often, in lines, the context is checked for cancellation.
	cancellationCheckInterval = 4096

	// Longest accepted input line.
	maxLineBytes = 1024 * 1024
)

// Delimiter value that splits fields on runs of spaces and tabs.
const WhitespaceDelimiter = ' '

type Options struct {
	// Field delimiter; WhitespaceDelimiter splits on runs of whitespace.
	Delimiter rune
	// Unit of the start and end timestamps, e.g. time.Second or time.Millisecond.
	TimestampUnit time.Duration
	// Event type whose intervals count as activity.
	ActiveEventType string
	// Nodes observed for fewer days than this are dropped.
	MinLifespanDays float64
	// Nodes averaging fewer active hours per day than this are dropped.
	MinHoursPerDay float64
	// Merge overlapping and touching intervals of a node before summing, so that time is not counted twice.
	MergeOverlaps bool
	// Reject the trace if any line is malformed instead of skipping those lines.
	Strict bool
}

func DefaultOptions() Options {
	return Options{
		Delimiter:       ',',
		TimestampUnit:   time.Second,
		ActiveEventType: "1",
		MinLifespanDays: 300,
		MinHoursPerDay:  1,
		MergeOverlaps:   true,
	}
}

// Stats counts what happened to the input lines.
type Stats struct {
	Lines int
	// Active intervals accepted.
	Events int
	// Lines ignored: comments, headers, other event types, empty intervals.
	Skipped int
	// Lines that could not be parsed.
	Malformed int
	// Distinct nodes with at least one active interval.
	Nodes int
	// Nodes that passed both filters.
	Kept int
}

// NodeActivity is the aggregated activity of a node, one row of the output table.
type NodeActivity struct {
	NodeID             string
	TotalActiveSeconds float64
	// Bounds of the observed period, in seconds since the epoch.
	StartEpoch int64
	EndEpoch   int64
	SpanDays   float64
	// Active hours per day averaged over the whole observed span, idle days included.
	AvgHoursPerDay float64
}

type interval struct {
	start, end float64
}

// Aggregate reads events from r and returns the nodes that pass the lifespan and activity filters, sorted by
// node id. Malformed lines are counted in Stats and skipped unless opts.Strict is set, in which case every
// problem is returned as an ErrInputMalformed.
func Aggregate(ctx *usagecontext.Context, source string, r io.Reader, opts Options) ([]NodeActivity, Stats, error) {
	var stats Stats
	if opts.TimestampUnit <= 0 {
		return nil, stats, errors.WithStack(&usageerrors.ErrInvalidArgument{
			Name:    "timestampUnit",
			Value:   opts.TimestampUnit,
			Message: "must be positive",
		})
	}
	unitSeconds := opts.TimestampUnit.Seconds()

	intervals := make(map[string][]interval)
	var malformed *multierror.Error

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		stats.Lines++
		if stats.Lines%cancellationCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, errors.WithStack(err)
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || isHeader(line) {
			stats.Skipped++
			continue
		}

		fields := splitFields(line, opts.Delimiter)
		if len(fields) < 5 {
			stats.Malformed++
			malformed = multierror.Append(malformed, errors.Errorf("line %d: expected 5 fields, got %d", stats.Lines, len(fields)))
			continue
		}
		if fields[2] != opts.ActiveEventType {
			stats.Skipped++
			continue
		}
		start, errStart := strconv.ParseFloat(fields[3], 64)
		end, errEnd := strconv.ParseFloat(fields[4], 64)
		if errStart != nil || errEnd != nil || math.IsNaN(start) || math.IsNaN(end) {
			stats.Malformed++
			malformed = multierror.Append(malformed, errors.Errorf("line %d: invalid interval %q to %q", stats.Lines, fields[3], fields[4]))
			continue
		}
		start *= unitSeconds
		end *= unitSeconds
		if end <= start {
			stats.Skipped++
			continue
		}
		node := fields[1]
		intervals[node] = append(intervals[node], interval{start: start, end: end})
		stats.Events++
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, stats, errors.WithStack(&usageerrors.ErrInputMalformed{
				Path:    source,
				Message: fmt.Sprintf("line %d is longer than %d bytes", stats.Lines+1, maxLineBytes),
				Cause:   err,
			})
		}
		return nil, stats, errors.WithStack(&usageerrors.ErrInputUnavailable{Path: source, Message: err.Error()})
	}

	if stats.Malformed > 0 {
		if opts.Strict {
			return nil, stats, errors.WithStack(&usageerrors.ErrInputMalformed{
				Path:    source,
				Message: "event trace contains malformed lines",
				Cause:   malformed.ErrorOrNil(),
			})
		}
		ctx.Warnf("skipped %d malformed lines in %s", stats.Malformed, source)
	}

	stats.Nodes = len(intervals)
	rv := make([]NodeActivity, 0, len(intervals))
	for node, ivs := range intervals {
		activity, ok := summarise(node, ivs, opts)
		if ok {
			rv = append(rv, activity)
		}
	}
	sort.Slice(rv, func(i, j int) bool { return rv[i].NodeID < rv[j].NodeID })
	stats.Kept = len(rv)
	return rv, stats, nil
}

func isHeader(line string) bool {
	return strings.HasPrefix(line, "component_id") || strings.HasPrefix(line, "componentId")
}

func splitFields(line string, delimiter rune) []string {
	if delimiter == 0 || delimiter == WhitespaceDelimiter || delimiter == '\t' {
		return strings.Fields(line)
	}
	fields := strings.Split(line, string(delimiter))
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// summarise computes the activity of one node and applies the filters.
func summarise(node string, ivs []interval, opts Options) (NodeActivity, bool) {
	if opts.MergeOverlaps {
		ivs = mergeIntervals(ivs)
	}
	first, last := math.Inf(1), math.Inf(-1)
	var total float64
	for _, iv := range ivs {
		first = math.Min(first, iv.start)
		last = math.Max(last, iv.end)
		total += iv.end - iv.start
	}
	span := last - first
	if span <= 0 {
		return NodeActivity{}, false
	}
	days := span / secondsPerDay
	if days < opts.MinLifespanDays {
		return NodeActivity{}, false
	}
	avgHours := total / days / secondsPerHour
	if avgHours < opts.MinHoursPerDay {
		return NodeActivity{}, false
	}
	return NodeActivity{
		NodeID:             node,
		TotalActiveSeconds: total,
		StartEpoch:         int64(math.Floor(first)),
		EndEpoch:           int64(math.Floor(last)),
		SpanDays:           days,
		AvgHoursPerDay:     avgHours,
	}, true
}

// mergeIntervals returns the union of ivs as disjoint intervals sorted by start. Touching intervals are joined.
func mergeIntervals(ivs []interval) []interval {
	if len(ivs) == 0 {
		return nil
	}
	sorted := append([]interval(nil), ivs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })
	rv := []interval{sorted[0]}
	for _, iv := range sorted[1:] {
		current := &rv[len(rv)-1]
		if iv.start <= current.end {
			current.end = math.Max(current.end, iv.end)
			continue
		}
		rv = append(rv, iv)
	}
	return rv
}
