package host

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

// Notifier accepts notifications by kind. *Bus implements it.
type Notifier interface {
	Notify(kind string) bool
}

// FingerprintFunc summarizes the host's network state. Two calls return the
// same string when nothing relevant has changed.
type FingerprintFunc func() (string, error)

// Poller turns a fingerprint into change notifications for hosts that have
// no native change events.
type Poller struct {
	fingerprint FingerprintFunc
	notifier    Notifier
	interval    time.Duration
	clock       clock.Clock
	log         *zap.SugaredLogger

	last string
}

func NewPoller(fp FingerprintFunc, n Notifier, interval time.Duration, clk clock.Clock, log *zap.SugaredLogger) *Poller {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Poller{
		fingerprint: fp,
		notifier:    n,
		interval:    interval,
		clock:       clk,
		log:         log,
	}
}

// Run polls until ctx is cancelled. The first fingerprint only primes the
// poller; the observer publishes the initial state itself on Register.
func (p *Poller) Run(ctx context.Context) error {
	p.last = p.sample()

	ticker := p.clock.Ticker(p.interval)
	defer ticker.Stop()

	p.log.Infow("poller started", "interval", p.interval)
	for {
		select {
		case <-ctx.Done():
			p.log.Infow("poller stopped")
			return nil
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick reports a fingerprint change before the routine poll tick. The new
// fingerprint is only recorded once the change notification is accepted,
// so a dropped change is retried on the next tick.
func (p *Poller) tick() {
	if fp := p.sample(); fp != p.last {
		if p.notifier.Notify(netinfo.KindConnectivityChange) {
			p.last = fp
			p.log.Debugw("network fingerprint changed")
		} else {
			p.log.Warnw("change notification dropped, retrying next tick")
		}
	}
	p.notifier.Notify(netinfo.KindPollTick)
}

// sample returns the current fingerprint. Errors become part of the
// fingerprint so that a host starting or stopping to fail counts as a
// change.
func (p *Poller) sample() string {
	fp, err := p.fingerprint()
	if err != nil {
		p.log.Debugw("fingerprint failed", "err", err)
		return "error:" + err.Error()
	}
	return fp
}
