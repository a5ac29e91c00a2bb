// ABOUTME: The daily notification run
// ABOUTME: Collects candidates, applies the reminder policy, dedups per run and delivers with bounded fan-out
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/expirytrack/expiry"
	"github.com/harperreed/expirytrack/mail"
	"github.com/harperreed/expirytrack/models"
	"github.com/harperreed/expirytrack/scope"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrRunInProgress is returned when a run is triggered while another is active.
var ErrRunInProgress = errors.New("notification run already in progress")

// CandidateSource loads assets expiring on or before a date, already expired
// ones included, with their rule and owner resolved where possible.
type CandidateSource interface {
	FindCandidates(ctx context.Context, through time.Time) ([]models.ResolvedAsset, error)
}

// Directory lists users holding the given roles.
type Directory interface {
	ListByRoles(ctx context.Context, roles ...models.Role) ([]models.User, error)
}

// CcScope values.
const (
	CcAll       = "all"
	CcHierarchy = "hierarchy"
)

// Options configures a Runner.
type Options struct {
	LookaheadDays int
	CcRoles       []models.Role
	CcScope       string
	Concurrency   int
	SendTimeout   time.Duration
	RatePerSecond float64
	TopicLabels   map[string]string
	// Location decides which calendar day "today" is. Nil keeps the clock's zone.
	Location *time.Location
}

// DefaultOptions returns the stock schedule settings.
func DefaultOptions() Options {
	return Options{
		LookaheadDays: 30,
		CcRoles:       []models.Role{models.RoleAdmin, models.RoleSupervisor},
		CcScope:       CcAll,
		Concurrency:   4,
		SendTimeout:   30 * time.Second,
		RatePerSecond: 2,
	}
}

// Phase is the state of the run.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseCollecting
	PhaseEvaluating
	PhaseDelivering
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCollecting:
		return "collecting"
	case PhaseEvaluating:
		return "evaluating"
	case PhaseDelivering:
		return "delivering"
	case PhaseDone:
		return "done"
	}
	return fmt.Sprintf("Phase(%d)", int32(p))
}

// Summary is the outcome of one run.
type Summary struct {
	RunID      ulid.ULID     `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Processed  int           `json:"processed"`
	Due        int           `json:"due"`
	Delivered  int           `json:"delivered"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Duplicates int           `json:"duplicates"`
}

// Runner executes daily notification runs. Runs are not reentrant.
type Runner struct {
	logger    *zap.Logger
	assets    CandidateSource
	directory Directory
	transport mail.Transport
	opts      Options
	composer  Composer
	limiter   *rate.Limiter
	now       func() time.Time

	running atomic.Bool
	phase   atomic.Int32
}

func NewRunner(assets CandidateSource, directory Directory, transport mail.Transport, logger *zap.Logger, opts Options) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	switch {
	case opts.LookaheadDays < 1:
		opts.LookaheadDays = DefaultOptions().LookaheadDays
	case opts.LookaheadDays < expiry.LongestReminderDays:
		opts.LookaheadDays = expiry.LongestReminderDays
	}
	if opts.CcScope == "" {
		opts.CcScope = CcAll
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}

	return &Runner{
		logger:    logger.Named("notify"),
		assets:    assets,
		directory: directory,
		transport: transport,
		opts:      opts,
		composer:  Composer{TopicLabels: opts.TopicLabels},
		limiter:   rate.NewLimiter(limit, 1),
		now:       time.Now,
	}
}

// WithClock replaces the time source. Used by tests and one-off backfills.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Phase reports where the current run is.
func (r *Runner) Phase() Phase {
	return Phase(r.phase.Load())
}

// sentSet is the per-run dedup set keyed by (recipient, asset).
type sentSet map[sentKey]struct{}

type sentKey struct {
	recipient string
	asset     uuid.UUID
}

// tryMark records the pair and reports whether it was new.
func (s sentSet) tryMark(recipient string, asset uuid.UUID) bool {
	key := sentKey{recipient: strings.ToLower(recipient), asset: asset}
	if _, seen := s[key]; seen {
		return false
	}
	s[key] = struct{}{}
	return true
}

// Run performs one daily notification check. Delivery failures are logged
// and counted, never returned; only a failure to load candidates or the
// distribution list fails the run.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Summary{}, ErrRunInProgress
	}
	defer func() {
		r.phase.Store(int32(PhaseIdle))
		r.running.Store(false)
	}()

	now := r.now()
	if r.opts.Location != nil {
		now = now.In(r.opts.Location)
	}
	summary := Summary{RunID: ulid.Make(), StartedAt: now}
	logger := r.logger.With(zap.String("run_id", summary.RunID.String()))
	start := time.Now()

	r.phase.Store(int32(PhaseCollecting))
	through := expiry.Midnight(now).AddDate(0, 0, r.opts.LookaheadDays)
	candidates, err := r.assets.FindCandidates(ctx, through)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return summary, fmt.Errorf("failed to load candidates: %w", err)
	}
	distribution, err := r.directory.ListByRoles(ctx, r.opts.CcRoles...)
	if err != nil {
		runsTotal.WithLabelValues("error").Inc()
		return summary, fmt.Errorf("failed to load distribution list: %w", err)
	}

	r.phase.Store(int32(PhaseEvaluating))
	events := r.evaluate(logger, now, candidates, distribution, &summary)

	r.phase.Store(int32(PhaseDelivering))
	r.deliver(ctx, logger, events, &summary)

	r.phase.Store(int32(PhaseDone))
	summary.Duration = time.Since(start)
	runDuration.Observe(summary.Duration.Seconds())
	runsTotal.WithLabelValues("completed").Inc()

	logger.Info("Notification run finished",
		zap.Int("processed", summary.Processed),
		zap.Int("due", summary.Due),
		zap.Int("delivered", summary.Delivered),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Int("duplicates", summary.Duplicates),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (r *Runner) evaluate(logger *zap.Logger, now time.Time, candidates []models.ResolvedAsset, distribution []models.User, summary *Summary) []models.NotificationEvent {
	sent := make(sentSet)
	var events []models.NotificationEvent

	for _, c := range candidates {
		summary.Processed++

		if c.Rule == nil || c.Owner == nil || c.Owner.Email == "" {
			summary.Skipped++
			notificationsTotal.WithLabelValues("skipped").Inc()
			logger.Warn("Skipping asset with unresolved references",
				zap.String("asset_id", c.Asset.ID.String()),
				zap.String("external_id", c.Asset.ExternalID),
				zap.Bool("rule_missing", c.Rule == nil),
				zap.Bool("owner_missing", c.Owner == nil || c.Owner.Email == ""),
			)
			continue
		}

		days := expiry.DaysRemaining(c.Asset.ExpirationDate, now)
		window := c.Rule.ValidityWindowDays
		if !expiry.IsNotificationDue(days, window) {
			continue
		}
		summary.Due++

		if !sent.tryMark(c.Owner.Email, c.Asset.ID) {
			summary.Duplicates++
			notificationsTotal.WithLabelValues("duplicate").Inc()
			continue
		}

		events = append(events, models.NotificationEvent{
			Asset:         c.Asset,
			Rule:          *c.Rule,
			Recipient:     c.Owner.Email,
			Cc:            r.ccFor(distribution, c.Owner.Email, c.Asset),
			Urgency:       expiry.StatusTier(days, window),
			DaysRemaining: days,
		})
	}
	return events
}

// ccFor lists the distribution addresses copied on a message, never the
// recipient itself.
func (r *Runner) ccFor(distribution []models.User, recipient string, asset models.Asset) []string {
	seen := map[string]bool{strings.ToLower(recipient): true}
	var cc []string
	for _, u := range distribution {
		addr := strings.ToLower(u.Email)
		if addr == "" || seen[addr] {
			continue
		}
		if r.opts.CcScope == CcHierarchy && !scope.Covers(u, asset) {
			continue
		}
		seen[addr] = true
		cc = append(cc, u.Email)
	}
	return cc
}

func (r *Runner) deliver(ctx context.Context, logger *zap.Logger, events []models.NotificationEvent, summary *Summary) {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, r.opts.Concurrency)
	)

	record := func(ok bool) {
		mu.Lock()
		defer mu.Unlock()
		if ok {
			summary.Delivered++
			notificationsTotal.WithLabelValues("delivered").Inc()
		} else {
			summary.Failed++
			notificationsTotal.WithLabelValues("failed").Inc()
		}
	}

	for _, ev := range events {
		ev := ev
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			err := r.send(ctx, r.composer.Reminder(ev))
			if err != nil {
				logger.Error("Failed to deliver notification",
					zap.String("asset_id", ev.Asset.ID.String()),
					zap.String("external_id", ev.Asset.ExternalID),
					zap.String("recipient", ev.Recipient),
					zap.Error(err),
				)
			}
			record(err == nil)
		}()
	}
	wg.Wait()
}

// send throttles and bounds a single delivery.
func (r *Runner) send(ctx context.Context, msg mail.Message) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return &mail.DeliveryError{Recipient: msg.To, Err: err}
	}

	sendCtx := ctx
	if r.opts.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, r.opts.SendTimeout)
		defer cancel()
	}

	err := r.transport.Send(sendCtx, msg)
	if err == nil {
		return nil
	}
	var de *mail.DeliveryError
	if errors.As(err, &de) {
		return err
	}
	return &mail.DeliveryError{Recipient: msg.To, Err: err}
}
