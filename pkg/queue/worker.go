package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"golang.org/x/text/language"

	"github.com/Killjoybr/IA-CAI/pkg/defaults"
	"github.com/Killjoybr/IA-CAI/pkg/jsonutil"
	"github.com/Killjoybr/IA-CAI/pkg/output"
	"github.com/Killjoybr/IA-CAI/pkg/scanner"
	"github.com/Killjoybr/IA-CAI/pkg/scoring"
)

// Channel is the subset of *amqp.Channel the worker uses.
type Channel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher is the subset of Channel needed to submit jobs.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Scanner runs one scan.
type Scanner interface {
	Scan(ctx context.Context, t scanner.Target) (*scanner.Report, error)
}

// ReportStore persists rendered reports and returns their location.
type ReportStore interface {
	SaveReport(ctx context.Context, rep *scanner.Report, f output.Format, opts output.Options) (string, error)
}

// Config configures a Worker.
type Config struct {
	JobQueue    string
	ResultQueue string
	// Prefetch bounds unacknowledged deliveries and is also the number of
	// jobs scanned concurrently.
	Prefetch int
	// Defaults fills MaxPages and Timeout for jobs that omit them.
	Defaults scanner.Target
	Lang     language.Tag
}

// Worker consumes jobs, scans, optionally stores the report, and
// publishes a Result.
type Worker struct {
	ch         Channel
	scanner    Scanner
	classifier *scoring.Classifier
	store      ReportStore
	cfg        Config
	logger     *slog.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithStore uploads each report before publishing the result.
func WithStore(s ReportStore) Option {
	return func(w *Worker) { w.store = s }
}

// WithClassifier overrides the default trained classifier.
func WithClassifier(c *scoring.Classifier) Option {
	return func(w *Worker) { w.classifier = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// NewWorker creates a worker on ch.
func NewWorker(ch Channel, sc Scanner, cfg Config, opts ...Option) *Worker {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if cfg.Defaults.MaxPages <= 0 {
		cfg.Defaults.MaxPages = defaults.MaxPages
	}
	if cfg.Defaults.Timeout <= 0 {
		cfg.Defaults.Timeout = defaults.Timeout
	}
	if cfg.Lang == (language.Tag{}) {
		cfg.Lang = language.English
	}
	w := &Worker{ch: ch, scanner: sc, cfg: cfg}
	for _, opt := range opts {
		opt(w)
	}
	if w.classifier == nil {
		w.classifier = scoring.New()
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	w.logger = w.logger.With(slog.String("component", "worker"))
	return w
}

// Run declares both queues and processes deliveries until ctx is done
// or the broker closes the delivery channel.
func (w *Worker) Run(ctx context.Context) error {
	for _, q := range []string{w.cfg.JobQueue, w.cfg.ResultQueue} {
		if _, err := w.ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue: declare %s: %w", q, err)
		}
	}
	if err := w.ch.Qos(w.cfg.Prefetch, 0, false); err != nil {
		return fmt.Errorf("queue: qos: %w", err)
	}
	deliveries, err := w.ch.Consume(w.cfg.JobQueue, defaults.ToolName+"-"+uuid.NewString()[:8], false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue: consume %s: %w", w.cfg.JobQueue, err)
	}
	w.logger.InfoContext(ctx, "worker started",
		slog.String("jobs", w.cfg.JobQueue),
		slog.String("results", w.cfg.ResultQueue),
		slog.Int("prefetch", w.cfg.Prefetch))

	var wg sync.WaitGroup
	for range w.cfg.Prefetch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-deliveries:
					if !ok {
						return
					}
					w.Handle(ctx, d)
				}
			}
		}()
	}
	wg.Wait()
	w.logger.InfoContext(ctx, "worker stopped")
	return nil
}

// Handle processes one delivery. Malformed jobs are rejected without
// requeue; a job cut short by ctx, or whose result cannot be
// published, is requeued.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	var job Job
	if err := jsonutil.Unmarshal(d.Body, &job); err != nil {
		w.logger.WarnContext(ctx, "rejecting malformed job", slog.Any("error", err))
		_ = d.Reject(false)
		return
	}
	if job.ID == "" {
		job.ID = d.CorrelationId
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	log := w.logger.With(slog.String("job_id", job.ID))

	res := w.process(ctx, job, log)
	if err := ctx.Err(); err != nil {
		log.WarnContext(ctx, "job interrupted, requeueing", slog.Any("error", err))
		_ = d.Nack(false, true)
		return
	}
	if err := w.publish(ctx, job.ID, res); err != nil {
		log.ErrorContext(ctx, "publish result failed, requeueing", slog.Any("error", err))
		_ = d.Nack(false, true)
		return
	}
	if err := d.Ack(false); err != nil {
		log.WarnContext(ctx, "ack failed", slog.Any("error", err))
	}
}

func (w *Worker) process(ctx context.Context, job Job, log *slog.Logger) Result {
	res := Result{JobID: job.ID, Status: StatusFailed}

	format := output.FormatJSON
	if job.Format != "" {
		f, err := output.ParseFormat(job.Format)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		format = f
	}

	rep, err := w.scanner.Scan(ctx, job.target(w.cfg.Defaults))
	if err != nil {
		res.Error = err.Error()
		if !errors.Is(err, scanner.ErrInvalidTarget) {
			log.WarnContext(ctx, "scan failed", slog.Any("error", err))
		}
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Error = err.Error()
		return res
	}
	lang := w.cfg.Lang
	if job.Lang != "" {
		lang = scoring.ParseLang(job.Lang)
	}
	rep.Annotate(w.classifier, lang)
	res.Report = rep
	res.Status = StatusDone

	if w.store != nil {
		loc, err := w.store.SaveReport(ctx, rep, format, output.Options{Lang: lang, Title: "webprobe report: " + rep.Target})
		if err != nil {
			log.WarnContext(ctx, "report upload failed", slog.Any("error", err))
			res.Error = err.Error()
		} else {
			res.ReportURL = loc
		}
	}
	log.InfoContext(ctx, "job finished",
		slog.String("scan_id", rep.ScanID),
		slog.Int("findings", len(rep.Findings)),
		slog.String("report_url", res.ReportURL))
	return res
}

func (w *Worker) publish(_ context.Context, jobID string, res Result) error {
	body, err := jsonutil.Marshal(res)
	if err != nil {
		return fmt.Errorf("queue: marshal result: %w", err)
	}
	return w.ch.Publish("", w.cfg.ResultQueue, false, false, amqp.Publishing{
		ContentType:   defaults.ContentTypeJSON,
		CorrelationId: jobID,
		DeliveryMode:  amqp.Persistent,
		Body:          body,
	})
}

// Submit publishes job to queue, assigning an ID when empty. It returns
// the job ID.
func Submit(p Publisher, queue string, job Job) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	body, err := jsonutil.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("queue: marshal job: %w", err)
	}
	err = p.Publish("", queue, false, false, amqp.Publishing{
		ContentType:   defaults.ContentTypeJSON,
		CorrelationId: job.ID,
		DeliveryMode:  amqp.Persistent,
		Body:          body,
	})
	if err != nil {
		return "", fmt.Errorf("queue: publish to %s: %w", queue, err)
	}
	return job.ID, nil
}
