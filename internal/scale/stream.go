package scale

import (
	"bufio"
	"context"
	"errors"
	"io"
	"time"

	"github.com/banshee-data/tray.report/internal/align"
	"github.com/banshee-data/tray.report/internal/monitoring"
	"github.com/banshee-data/tray.report/internal/timeutil"
)

var logf = monitoring.Component("scale")

// Stream reads scale output line by line.
type Stream struct {
	r     io.Reader
	idle  time.Duration
	clock timeutil.Clock
}

// NewStream returns a Stream over r. A positive idle ends a capture once no
// line has arrived for that long; zero waits indefinitely.
func NewStream(r io.Reader, idle time.Duration) *Stream {
	return &Stream{r: r, idle: idle, clock: timeutil.RealClock{}}
}

// WithClock replaces the clock driving the idle timeout.
func (s *Stream) WithClock(c timeutil.Clock) *Stream {
	s.clock = c
	return s
}

// Capture collects readings until the reader is exhausted, the stream goes
// idle, or ctx is done, and returns them as a weight event sequence.
// Malformed lines are logged and skipped. On cancellation the events read so
// far are returned together with ctx.Err().
func (s *Stream) Capture(ctx context.Context) ([]align.WeightEvent, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scan := bufio.NewScanner(s.r)
	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// the blocking scan.Scan must not hold up the select below
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			scanErrChan <- err
		}
	}()

	var idle <-chan time.Time
	var timer timeutil.Timer
	if s.idle > 0 {
		timer = s.clock.NewTimer(s.idle)
		defer timer.Stop()
		idle = timer.C()
	}

	var readings []Reading
	for {
		select {
		case <-ctx.Done():
			return EventsFromReadings(readings), ctx.Err()

		case <-idle:
			logf("no reading for %s, ending capture after %d reading(s)", s.idle, len(readings))
			return EventsFromReadings(readings), nil

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					if !errors.Is(err, io.EOF) {
						return EventsFromReadings(readings), err
					}
				default:
				}
				return EventsFromReadings(readings), nil
			}
			if timer != nil {
				timer.Reset(s.idle)
			}
			if line == "" {
				continue
			}
			r, err := ParseReading(line)
			if err != nil {
				logf("skipping line: %v", err)
				continue
			}
			readings = append(readings, r)
		}
	}
}
