package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/monedero/internal/domain"
	"github.com/prn-tf/monedero/internal/lock"
	"github.com/prn-tf/monedero/internal/metrics"
	"github.com/prn-tf/monedero/internal/repository"
)

// errAlreadyAdvanced aborts a posting transaction when another run moved
// the payment first.
var errAlreadyAdvanced = errors.New("recurring payment already advanced")

// RecurringProcessor posts due recurring payments as expense records.
type RecurringProcessor struct {
	recurring repository.RecurringRepository
	records   repository.OwnedRepository[*domain.Record]
	tx        repository.TxManager
	locker    lock.Locker
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	config    RecurringConfig
	now       func() time.Time

	// Control
	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

// RecurringConfig contains recurring payment processing configuration.
type RecurringConfig struct {
	// Interval is how often to look for due payments.
	Interval time.Duration

	// BatchSize is the maximum number of payments processed per run.
	BatchSize int

	// MaxOccurrences bounds how many missed occurrences of one payment are
	// posted per run. The rest are posted by following runs.
	MaxOccurrences int
}

// DefaultRecurringConfig returns sensible defaults.
func DefaultRecurringConfig() RecurringConfig {
	return RecurringConfig{
		Interval:       15 * time.Minute,
		BatchSize:      500,
		MaxOccurrences: 366,
	}
}

// NewRecurringProcessor creates a new RecurringProcessor.
func NewRecurringProcessor(
	recurring repository.RecurringRepository,
	records repository.OwnedRepository[*domain.Record],
	tx repository.TxManager,
	locker lock.Locker,
	m *metrics.Metrics,
	logger zerolog.Logger,
	config RecurringConfig,
) *RecurringProcessor {
	defaults := DefaultRecurringConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	if config.MaxOccurrences <= 0 {
		config.MaxOccurrences = defaults.MaxOccurrences
	}

	return &RecurringProcessor{
		recurring: recurring,
		records:   records,
		tx:        tx,
		locker:    locker,
		metrics:   m,
		logger:    logger.With().Str("service", "recurring").Logger(),
		config:    config,
		now:       time.Now,
	}
}

// Start begins the processing scheduler. A stopped processor may be started again.
func (p *RecurringProcessor) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	stop, done := make(chan struct{}), make(chan struct{})
	p.stopChan, p.doneChan = stop, done
	p.mu.Unlock()

	p.logger.Info().
		Dur("interval", p.config.Interval).
		Int("batch_size", p.config.BatchSize).
		Msg("Starting recurring payment processor")

	go p.runLoop(stop, done)
}

// Stop stops the scheduler and waits for a run in progress to finish.
func (p *RecurringProcessor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stop, done := p.stopChan, p.doneChan
	p.mu.Unlock()

	close(stop)
	<-done

	p.logger.Info().Msg("Recurring payment processor stopped")
}

func (p *RecurringProcessor) runLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	// Run immediately on start
	p.RunOnce(ctx)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.RunOnce(ctx)
		case <-stop:
			return
		}
	}
}

// RecurringResult contains the result of a processing run.
type RecurringResult struct {
	// Payments is the number of due payments examined.
	Payments int

	// Posted is the number of records created.
	Posted int

	// Errors is the number of payments that failed.
	Errors int

	// Skipped is true when another process held the run lock.
	Skipped bool

	// Duration is how long the run took.
	Duration time.Duration
}

// RunOnce posts every payment due today or earlier.
// This can be called manually or by the scheduler.
func (p *RecurringProcessor) RunOnce(ctx context.Context) RecurringResult {
	start := time.Now()
	result := RecurringResult{}

	// Only one instance posts at a time
	lockKey := lock.RecurringRunKey
	lockTTL := p.config.Interval / 2
	if lockTTL < 5*time.Minute {
		lockTTL = 5 * time.Minute
	}

	acquired, err := p.locker.Acquire(ctx, lockKey, lockTTL)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to acquire recurring lock")
		result.Errors++
		result.Duration = time.Since(start)
		return result
	}
	if !acquired {
		p.logger.Debug().Msg("Recurring lock held by another process, skipping run")
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}
	defer func() {
		if _, err := p.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			p.logger.Error().Err(err).Msg("Failed to release recurring lock")
		}
	}()

	today := domain.DateOf(p.now())
	due, err := p.recurring.ListDue(ctx, today, p.config.BatchSize)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to list due recurring payments")
		result.Errors++
		result.Duration = time.Since(start)
		return result
	}
	result.Payments = len(due)

	renewAt := time.Now().Add(lockTTL / 2)
	for _, payment := range due {
		if ctx.Err() != nil {
			break
		}
		if time.Now().After(renewAt) {
			held, err := p.locker.Extend(ctx, lockKey, lockTTL)
			if err != nil || !held {
				p.logger.Warn().Err(err).Msg("Lost recurring lock, stopping run")
				result.Errors++
				break
			}
			renewAt = time.Now().Add(lockTTL / 2)
		}
		posted, err := p.post(ctx, payment, today)
		if err != nil {
			p.logger.Error().Err(err).
				Int64("recurring_id", payment.ID).
				Int64("user_id", payment.OwnerID).
				Msg("Failed to post recurring payment")
			result.Errors++
			continue
		}
		result.Posted += posted
	}

	result.Duration = time.Since(start)
	p.metrics.RecordRecurringRun(result.Posted, result.Errors)

	if result.Payments > 0 {
		p.logger.Info().
			Int("payments", result.Payments).
			Int("posted", result.Posted).
			Int("errors", result.Errors).
			Dur("duration", result.Duration).
			Msg("Recurring payment run completed")
	}

	return result
}

// post creates the records of every occurrence of payment due by today and
// moves its next due day past today, all in one transaction. The advance is
// guarded on the stored next due day, so a payment is posted once even
// when two runs overlap.
func (p *RecurringProcessor) post(ctx context.Context, payment *domain.RecurringPayment, today domain.Date) (int, error) {
	days, next := payment.Occurrences(today, p.config.MaxOccurrences)
	if len(days) == 0 {
		return 0, nil
	}

	expected := payment.NextDueOn
	last := days[len(days)-1]

	err := p.tx.WithTx(ctx, func(ctx context.Context) error {
		payment.NextDueOn = next
		payment.LastPostedOn = &last

		advanced, err := p.recurring.Advance(ctx, payment, expected)
		if err != nil {
			return err
		}
		if !advanced {
			return errAlreadyAdvanced
		}

		for _, day := range days {
			if err := p.records.Create(ctx, payment.Record(day)); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errAlreadyAdvanced) {
		p.logger.Debug().Int64("recurring_id", payment.ID).Msg("Recurring payment already posted")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	p.logger.Debug().
		Int64("recurring_id", payment.ID).
		Int("occurrences", len(days)).
		Str("next_due_on", next.String()).
		Msg("Recurring payment posted")

	return len(days), nil
}
