// Package sender runs outbound Bot API calls on a bounded worker pool.
package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/placementbot/core/logger"
	"github.com/m3rciful/placementbot/core/metrics"
	"github.com/m3rciful/placementbot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

var (
	// ErrQueueClosed is returned by Enqueue once Close has been called.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull means the job was refused because every slot is taken.
	ErrQueueFull = errors.New("telegram sender: queue full")

	tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)
)

// Options controls the behaviour of the outbound dispatcher.
// MaxRetries defaults to zero: a failed send is logged and counted, not repeated.
type Options struct {
	QueueSize    int
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent on a single job, retries included.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls on a small worker pool so
// handlers return before the Bot API answers.
type Dispatcher struct {
	opts Options
	jobs chan job

	// mu guards closed so Enqueue never sends on a closed channel.
	mu     sync.RWMutex
	closed bool

	once sync.Once
	wg   sync.WaitGroup
	errs atomic.Uint64
}

// NewDispatcher starts the workers. Zero options get defaults.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{
		opts: opts,
		jobs: make(chan job, opts.QueueSize),
	}
	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go func() {
			defer d.wg.Done()
			for j := range d.jobs {
				d.process(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run on a worker. Jobs run concurrently, so callers that
// need several messages delivered in order must send them from one job.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of jobs that finally failed.
func (d *Dispatcher) ErrorCount() uint64 {
	return d.errs.Load()
}

// Close refuses new jobs, drains the queue and waits for the workers.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *Dispatcher) process(j job) {
	start := time.Now()
	attrs := jobAttrs(j)
	logger.Debug(j.ctx, logger.CompSender, "send.start", attrs...)

	attempts, err := d.attempt(j)
	elapsed := slog.Int("elapsed_ms", durationToMS(time.Since(start)))
	if attempts > 1 {
		attrs = append(attrs, slog.Int("attempts", attempts))
	}

	if err == nil {
		logger.Debug(j.ctx, logger.CompSender, "send.success", append(attrs, elapsed)...)
		return
	}

	d.errs.Add(1)
	metrics.SendFailures.WithLabelValues(j.action).Inc()
	logger.Error(j.ctx, logger.CompSender, "send.fail", append(attrs,
		slog.String("status", "fail"),
		slog.String("err", sanitizeErrorMessage(err)),
		slog.String("err_kind", classifyError(err)),
		elapsed,
	)...)
}

// attempt runs j until it succeeds, fails permanently or runs out of
// attempts or time. It returns how many times run was called.
func (d *Dispatcher) attempt(j job) (int, error) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	var err error
	for n := 1; ; n++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return n - 1, err
		}
		if err = j.run(); err == nil {
			return n, nil
		}
		if n > d.opts.MaxRetries || !netutil.ShouldRetry(err) {
			return n, err
		}

		delay := d.opts.RetryBackoff * time.Duration(n)
		logger.Debug(j.ctx, logger.CompSender, "send.retry.backoff", append(jobAttrs(j),
			slog.Int("attempt", n),
			slog.Duration("delay", delay),
		)...)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return n, err
		case <-timer.C:
		}
	}
}

// jobAttrs carries the update metadata already in ctx plus the call name.
func jobAttrs(j job) []slog.Attr {
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}
	if rid := logger.RIDFrom(j.ctx); rid != "" {
		attrs = append(attrs, slog.String("rid", rid))
	}
	if id := logger.UserIDFrom(j.ctx); id != 0 {
		attrs = append(attrs, slog.Int64("user_id", id))
	}
	return attrs
}

func durationToMS(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(logger.RoundMS(d) / time.Millisecond)
}

// classifyError buckets a send failure for the err_kind log field.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return "dial"
	}
	var alertErr tls.AlertError
	if errors.As(err, &alertErr) {
		return "tls"
	}

	switch status := httpStatus(err); {
	case status >= 500:
		return "http_5xx"
	case status >= 400:
		return "http_4xx"
	}
	return "unknown"
}

// httpStatus recovers the Bot API status code from a telebot error, or from
// a trailing "(NNN)" in the message.
func httpStatus(err error) int {
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var floodErr tele.FloodError
	if errors.As(err, &floodErr) {
		return http.StatusTooManyRequests
	}

	msg := err.Error()
	open, end := strings.LastIndex(msg, "("), strings.LastIndex(msg, ")")
	if open < 0 || end <= open+1 {
		return 0
	}
	code, convErr := strconv.Atoi(strings.TrimSpace(msg[open+1 : end]))
	if convErr != nil {
		return 0
	}
	return code
}

// sanitizeErrorMessage keeps bot tokens embedded in request URLs out of logs.
func sanitizeErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
