package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/hostwatch/internal/commands"
	"codeberg.org/mutker/hostwatch/internal/config"
	"codeberg.org/mutker/hostwatch/internal/errors"
	"codeberg.org/mutker/hostwatch/internal/eventbus"
	"codeberg.org/mutker/hostwatch/internal/gpu"
	"codeberg.org/mutker/hostwatch/internal/logger"
	"codeberg.org/mutker/hostwatch/internal/metrics"
	"codeberg.org/mutker/hostwatch/internal/pid"
	"codeberg.org/mutker/hostwatch/internal/server"
	"codeberg.org/mutker/hostwatch/internal/surface"
	"codeberg.org/mutker/hostwatch/internal/sysinfo"
	"codeberg.org/mutker/hostwatch/internal/telemetry"
	"github.com/dustin/go-humanize"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level: %v\n", err)
		os.Exit(1)
	}
	logger.Init(level, logger.IsService())
	logger.Debug().Msg("Config loaded")

	var pidFile *pid.File
	if cfg.PIDFile {
		pidFile = pid.New("")
		if err := pidFile.Write(); err != nil {
			logger.FatalWithCode(asCoded(err)).Msg("failed to write PID file")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	logInventory(ctx)

	recorder, err := metrics.NewService(metrics.Config{Enabled: cfg.Metrics})
	if err != nil {
		logger.FatalWithCode(asCoded(err)).Msg("failed to initialize metrics")
	}

	bus := eventbus.New(eventbus.WithDropHook(recorder.DeliveryDropped))

	sourceOpts := []sysinfo.Option{}
	var gpuSensors *gpu.Sensors
	if cfg.GPUSensors {
		if gpuSensors, err = gpu.New(); err != nil {
			logger.Info().Err(err).Msg("GPU temperatures unavailable")
		} else {
			sourceOpts = append(sourceOpts, sysinfo.WithSensorProviders(gpuSensors))
		}
	}

	publisher := telemetry.NewPublisher(
		sysinfo.NewSource(ctx, sourceOpts...),
		bus,
		telemetry.WithObserver(recorder.ObserveSnapshot),
		telemetry.WithPublishErrorHook(recorder.PublishFailed),
	)
	publisher.Start(ctx)

	// The shell owns the real window; this handle forwards the flag to it.
	overlay := surface.NewOverlay("main", nil)
	srv := server.New(cfg.Listen, bus, commands.NewService(overlay), recorder)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.ErrorWithContext(asCoded(err), "server", "listen").Msg("presentation bridge stopped")
		}
		cancel()
	}

	cleanup(srv, bus, publisher, overlay, gpuSensors, pidFile)
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func logInventory(ctx context.Context) {
	inv := sysinfo.QueryInventory(ctx, sysinfo.SystemProbe())

	event := logger.Info().
		Str("host", inv.Host).
		Str("os", inv.OSVersion).
		Str("cpu", inv.CPUBrand).
		Str("memory", humanize.IBytes(inv.TotalMemory))
	if inv.PhysicalCores != nil {
		event.Uint("physical_cores", *inv.PhysicalCores)
	}
	event.Msg("Host detected")
}

func cleanup(
	srv *server.Server,
	bus *eventbus.Bus,
	publisher *telemetry.Publisher,
	overlay *surface.Overlay,
	gpuSensors *gpu.Sensors,
	pidFile *pid.File,
) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithCode(asCoded(err)).Msg("failed to stop presentation bridge")
	}

	select {
	case <-publisher.Done():
	case <-shutdownCtx.Done():
		logger.Warn().Msg("Telemetry publisher did not stop in time")
	}

	bus.Close()
	overlay.Destroy()

	if gpuSensors != nil {
		if err := gpuSensors.Shutdown(); err != nil {
			logger.ErrorWithCode(asCoded(err)).Msg("failed to shut down NVML")
		}
	}

	if pidFile != nil {
		if err := pidFile.Remove(); err != nil {
			logger.ErrorWithCode(asCoded(err)).Msg("failed to remove PID file")
		}
	}

	logger.Info().Msg("Exiting...")
}

func asCoded(err error) errors.Error {
	var coded errors.Error
	if errors.As(err, &coded) {
		return coded
	}

	return errors.New().Wrap(errors.ErrInternal, err)
}
