package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	appcatalog "github.com/javierleyes/vidro-android/internal/application/catalog"
	appschedule "github.com/javierleyes/vidro-android/internal/application/schedule"
	"github.com/javierleyes/vidro-android/internal/infrastructure/config"
	"github.com/javierleyes/vidro-android/internal/infrastructure/i18n"
	"github.com/javierleyes/vidro-android/internal/infrastructure/logger"
	"github.com/javierleyes/vidro-android/internal/infrastructure/remote"
	"github.com/javierleyes/vidro-android/internal/infrastructure/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const meterName = "github.com/javierleyes/vidro-android/cmd/vidro"

// globalFlags override the loaded configuration
type globalFlags struct {
	configPath string
	baseURL    string
	locale     string
	logLevel   string
	timeout    time.Duration
}

// app holds the stores and their collaborators for one command run
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	tr       *i18n.Translator
	catalog  *appcatalog.Store
	schedule *appschedule.Store
	out      io.Writer
	errOut   io.Writer
	closers  []func(context.Context) error
}

// errReported marks a failure whose alert was already printed
var errReported = errors.New("command failed")

func newApp(ctx context.Context, flags *globalFlags, out, errOut io.Writer) (*app, error) {
	cfg, err := config.LoadFile(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.baseURL != "" {
		cfg.API.BaseURL = flags.baseURL
	}
	if flags.locale != "" {
		cfg.App.Locale = flags.locale
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.timeout > 0 {
		cfg.API.Timeout = flags.timeout
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Name:   cfg.App.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		tr:     i18n.New(cfg.App.Locale),
		out:    out,
		errOut: errOut,
	}

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
	}
	tp, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, tp.Shutdown)

	mp, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, mp.Shutdown)

	metrics, err := telemetry.NewStoreMetrics(mp.Meter(meterName))
	if err != nil {
		return nil, fmt.Errorf("failed to register store metrics: %w", err)
	}

	client, err := remote.NewClient(cfg.API, remote.WithLogger(log))
	if err != nil {
		return nil, err
	}

	a.catalog = appcatalog.NewStore(client, log, metrics)
	a.schedule = appschedule.NewStore(client, log, metrics)

	log.Debug("vidro ready",
		zap.String("env", cfg.App.Env),
		zap.String("base_url", client.BaseURL()),
		zap.String("locale", a.tr.Tag().String()),
	)
	return a, nil
}

// close shuts the telemetry providers down and flushes the logger
func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn("shutdown failed", zap.Error(err))
		}
	}
	_ = logger.Sync(a.log)
}

// alert prints the localized failure of op and returns errReported
func (a *app) alert(op i18n.Operation, err error) error {
	fmt.Fprintf(a.errOut, "%s: %s\n", a.tr.Title(), a.tr.Alert(op, err))
	return errReported
}

// alertText prints an already rendered alert message
func (a *app) alertText(msg string) error {
	fmt.Fprintf(a.errOut, "%s: %s\n", a.tr.Title(), msg)
	return errReported
}

type appKey struct{}

func appFrom(cmd *cobra.Command) *app {
	a, _ := cmd.Context().Value(appKey{}).(*app)
	return a
}
