package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/netinfo-bridge/netinfo/internal/host"
	"github.com/netinfo-bridge/netinfo/internal/netinfo"
)

// Generator advances a Host on a timer and notifies for every step.
type Generator struct {
	host     *Host
	notifier host.Notifier
	interval time.Duration
	clock    clock.Clock
	log      *zap.SugaredLogger
}

func NewGenerator(h *Host, n host.Notifier, interval time.Duration, clk clock.Clock, log *zap.SugaredLogger) *Generator {
	if clk == nil {
		clk = clock.New()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Generator{host: h, notifier: n, interval: interval, clock: clk, log: log}
}

// Run advances the script every interval until ctx is cancelled.
func (g *Generator) Run(ctx context.Context) error {
	if g.interval <= 0 {
		return fmt.Errorf("mock generator: interval must be positive, got %v", g.interval)
	}
	ticker := g.clock.Ticker(g.interval)
	defer ticker.Stop()

	g.log.Infow("mock generator started", "interval", g.interval, "step", g.host.Current().Name)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			g.step()
		}
	}
}

func (g *Generator) step() {
	s := g.host.Advance()
	g.log.Infow("mock step", "name", s.Name)

	// Unrelated traffic the observer must ignore.
	g.notifier.Notify(netinfo.KindPollTick)
	for i := 0; i <= s.Repeat; i++ {
		g.notifier.Notify(netinfo.KindConnectivityChange)
	}
}
