package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/netinfo-bridge/netinfo/internal/config"
	"github.com/netinfo-bridge/netinfo/internal/host"
	"github.com/netinfo-bridge/netinfo/internal/logging"
	"github.com/netinfo-bridge/netinfo/internal/mock"
	"github.com/netinfo-bridge/netinfo/internal/netinfo"
	"github.com/netinfo-bridge/netinfo/internal/ws"
)

type options struct {
	configPath   string
	mock         bool
	mockInterval time.Duration
}

func validateOptions(opts options) error {
	if opts.mock && opts.mockInterval <= 0 {
		return fmt.Errorf("mock-interval must be positive, got %v", opts.mockInterval)
	}
	return nil
}

func main() {
	mockMode := flag.Bool("mock", false, "Drive the observer from a scripted network timeline")
	mockInterval := flag.Duration("mock-interval", 3*time.Second, "Time between scripted network changes")
	configPath := flag.String("config", "config.yaml", "Path to config file")
	port := flag.Int("port", 0, "Override server port")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}

	opts := options{configPath: *configPath, mock: *mockMode, mockInterval: *mockInterval}
	if err := validateOptions(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		os.Exit(2)
	}
	if err := run(cfg, opts, log); err != nil {
		log.Errorw("netinfod exited with error", "err", err)
		log.Sync()
		os.Exit(1)
	}
	log.Sync()
}

func run(cfg *config.Config, opts options, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := ws.NewMetrics()
	bus := host.NewBus(cfg.Observer.QueueSize, nil, logging.Named(log, "bus"))
	bus.OnNotify = metrics.ObserveNotification
	broadcaster := ws.NewBroadcaster(cfg.Broadcast.SnapshotInterval, cfg.Broadcast.ClientBuffer, metrics, logging.Named(log, "broadcast"))
	defer broadcaster.Stop()

	var (
		netHost netinfo.Host
		workers []func(context.Context) error
	)
	if opts.mock {
		log.Infow("starting in mock mode", "interval", opts.mockInterval)
		mh := mock.NewHost(nil)
		netHost = mh
		gen := mock.NewGenerator(mh, bus, opts.mockInterval, nil, logging.Named(log, "mock"))
		workers = append(workers, gen.Run)
	} else {
		log.Infow("starting in host mode", "route_file", cfg.Interfaces.RouteFile, "poll_interval", cfg.Observer.PollInterval)
		sh := host.NewSystemHost(cfg.Interfaces.RouteFile, cfg.Rules())
		netHost = sh
		poller := host.NewPoller(sh.Fingerprint, bus, cfg.Observer.PollInterval, nil, logging.Named(log, "poller"))
		workers = append(workers, poller.Run)
		if cfg.Observer.Netlink {
			workers = append(workers, netlinkWorker(host.NewNetlink(bus, logging.Named(log, "netlink")), log))
		}
		workers = append(workers, func(ctx context.Context) error {
			return reloadOnHangup(ctx, opts.configPath, sh, bus, log)
		})
	}

	obs := netinfo.NewObserver(bus, netHost, broadcaster, logging.Named(log, "observer"))
	broadcaster.SetStateHook(obs.State)
	if cfg.Observer.AutoRegister {
		if err := obs.Register(); err != nil {
			return fmt.Errorf("register observer: %w", err)
		}
	}

	server := ws.NewServer(broadcaster, obs, bus, metrics, cfg.Server.AllowedOrigins, cfg.Server.AuthToken, logging.Named(log, "http"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bus.Run(gctx) })
	for _, w := range workers {
		w := w
		g.Go(func() error { return w(gctx) })
	}
	g.Go(func() error {
		return ws.ListenAndServe(gctx, cfg.Server.Host, cfg.Server.Port, server.Handler(), logging.Named(log, "http"))
	})

	err := g.Wait()
	log.Infow("shutting down")
	return multierr.Combine(err, obs.Unregister())
}

// netlinkWorker runs the netlink watcher, falling back to polling alone
// where netlink is unavailable.
func netlinkWorker(nl *host.Netlink, log *zap.SugaredLogger) func(context.Context) error {
	return func(ctx context.Context) error {
		err := nl.Run(ctx)
		if errors.Is(err, host.ErrNetlinkUnsupported) {
			log.Infow("netlink unavailable, relying on polling")
			return nil
		}
		if err != nil {
			return fmt.Errorf("netlink: %w", err)
		}
		return nil
	}
}

// reloadOnHangup re-reads interface rules on SIGHUP and asks the observer
// to recompute, since a reclassified interface changes the descriptor.
func reloadOnHangup(ctx context.Context, path string, sh *host.SystemHost, n host.Notifier, log *zap.SugaredLogger) error {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-hup:
			cfg, err := config.LoadOrDefault(path)
			if err != nil {
				log.Warnw("config reload failed, keeping current rules", "path", path, "err", err)
				continue
			}
			sh.SetRules(cfg.Rules())
			log.Infow("interface rules reloaded", "path", path)
			n.Notify(netinfo.KindConnectivityChange)
		}
	}
}
