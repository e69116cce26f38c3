package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"zap-dispatch/internal/core/domain"
	"zap-dispatch/internal/core/port"
)

// Dispatcher drives the single dispatch loop: it holds at most one current
// campaign system-wide and sends its contacts one at a time, each send
// separated by SendInterval. The interval exists to respect the delivery
// provider's rate limit, so there is deliberately one global pacing clock
// rather than per-campaign fan-out. Exactly one Dispatcher instance is
// expected per deployment; the SKIP LOCKED claim and the pending-only
// contact updates in the store keep an accidental second instance from
// double-sending.
type Dispatcher struct {
	repo   port.CampaignRepository
	sender port.DeliverySender
	gate   Gate
	clock  Clock
	logger *slog.Logger

	sendInterval time.Duration
	pollInterval time.Duration

	mu       sync.Mutex
	running  bool
	stopping bool
	stop     chan struct{}
	done     chan struct{}

	// current is only touched by the loop goroutine.
	current *domain.Campaign
}

// Options bundle the loop pacing intervals.
type Options struct {
	SendInterval time.Duration
	PollInterval time.Duration
}

// New creates a Dispatcher. Start must be called to begin dispatching.
func New(repo port.CampaignRepository, sender port.DeliverySender, gate Gate, clock Clock, opts Options, logger *slog.Logger) *Dispatcher {
	done := make(chan struct{})
	close(done)
	return &Dispatcher{
		repo:         repo,
		sender:       sender,
		gate:         gate,
		clock:        clock,
		logger:       logger,
		sendInterval: opts.SendInterval,
		pollInterval: opts.PollInterval,
		done:         done,
	}
}

// Start launches the loop goroutine. It is idempotent: calling it while the
// loop is already running is a no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.stopping = false
	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	go d.run(ctx, d.stop, d.done)
}

// Stop requests a cooperative shutdown. The flag is observed at iteration
// boundaries only: an in-flight delivery attempt or an in-progress suspend
// is not interrupted, so termination can lag by up to one iteration.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running || d.stopping {
		return
	}
	d.stopping = true
	close(d.stop)
}

// Done returns a channel closed once the loop goroutine has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

func (d *Dispatcher) run(ctx context.Context, stop, done chan struct{}) {
	defer close(done)
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	d.logger.Info("dispatch loop started",
		slog.Duration("send_interval", d.sendInterval),
		slog.Duration("poll_interval", d.pollInterval))

	for {
		select {
		case <-stop:
			d.logger.Info("dispatch loop stopped")
			return
		case <-ctx.Done():
			d.logger.Info("dispatch loop stopped", slog.Any("reason", ctx.Err()))
			return
		default:
		}
		if err := d.iterate(ctx); err != nil {
			// ctx cancellation during a suspend; loop exits on the next check
			continue
		}
	}
}

// iterate performs one dispatch tick: (re)acquire a current campaign if none
// is held, send at most one contact, then suspend. Store and delivery errors
// are absorbed and logged here; the loop must never die because of a single
// bad contact or a transient store blip.
func (d *Dispatcher) iterate(ctx context.Context) error {
	open := d.gate.Open(d.clock.Now())

	if d.current == nil && open {
		if err := d.acquire(ctx); err != nil {
			d.logger.Error("acquire campaign", slog.Any("error", err))
			return d.clock.Sleep(ctx, d.pollInterval)
		}
	}

	if cur := d.current; cur != nil && open {
		if _, err := d.dispatchOne(ctx); err != nil {
			d.logger.Error("dispatch contact",
				slog.Int64("campaign_id", cur.ID), slog.Any("error", err))
		}
		return d.clock.Sleep(ctx, d.sendInterval)
	}

	return d.clock.Sleep(ctx, d.pollInterval)
}

// acquire selects the campaign to work on: the earliest due scheduled
// campaign is promoted to running and held; otherwise the oldest already
// running campaign is held without a status change. The selection is global,
// not per channel.
func (d *Dispatcher) acquire(ctx context.Context) error {
	c, err := d.repo.ClaimDueScheduled(ctx, d.clock.Now())
	if err != nil {
		return err
	}
	if c != nil {
		d.current = c
		d.logger.Info("campaign promoted to running",
			slog.Int64("campaign_id", c.ID), slog.Int64("channel_id", c.ChannelID))
		return nil
	}
	c, err = d.repo.NextRunning(ctx)
	if err != nil {
		return err
	}
	if c != nil {
		d.current = c
		d.logger.Info("campaign resumed",
			slog.Int64("campaign_id", c.ID), slog.Int64("channel_id", c.ChannelID))
	}
	return nil
}

// dispatchOne sends one pending contact of the current campaign and records
// the outcome. When no pending contact remains the campaign is completed and
// released. A delivery failure marks the contact failed terminally, is
// logged, and never propagates: the returned error covers store access only.
func (d *Dispatcher) dispatchOne(ctx context.Context) (bool, error) {
	campaign := d.current

	contact, err := d.repo.NextPendingContact(ctx, campaign.ID)
	if err != nil {
		return false, err
	}
	if contact == nil {
		if err := d.repo.CompleteCampaign(ctx, campaign.ID); err != nil {
			return false, err
		}
		d.logger.Info("campaign completed", slog.Int64("campaign_id", campaign.ID))
		d.current = nil
		return false, nil
	}

	ch, err := d.repo.GetChannel(ctx, campaign.ChannelID)
	if err != nil {
		return false, err
	}
	if ch == nil {
		return false, fmt.Errorf("channel %d not found for campaign %d", campaign.ChannelID, campaign.ID)
	}

	msg := port.DeliveryMessage{Phone: contact.PhoneNumber, Message: campaign.Message}
	body, _ := json.Marshal(msg)

	status, err := d.sender.Send(ctx, ch.EvolutionWebhookURL, msg)
	if err != nil {
		if status == 0 {
			status = http.StatusInternalServerError
		}
		d.logger.Warn("delivery failed",
			slog.Int64("contact_id", contact.ID),
			slog.Int("status", status),
			slog.Any("error", err))
		if err := d.repo.MarkContactFailed(ctx, contact.ID); err != nil {
			return true, err
		}
		d.logWebhook(ctx, ch.ID, body, status)
		return true, nil
	}

	if err := d.repo.MarkContactSent(ctx, contact.ID, d.clock.Now()); err != nil {
		return true, err
	}
	d.logWebhook(ctx, ch.ID, body, status)
	return true, nil
}

func (d *Dispatcher) logWebhook(ctx context.Context, channelID int64, body []byte, status int) {
	entry := &domain.WebhookLog{
		ChannelID:   channelID,
		WebhookType: domain.WebhookEvolution,
		RequestBody: body,
		StatusCode:  status,
	}
	if err := d.repo.InsertWebhookLog(ctx, entry); err != nil {
		d.logger.Error("insert delivery webhook log",
			slog.Int64("channel_id", channelID), slog.Any("error", err))
	}
}
