// Package app is the composition root: it owns the RTL-SDR capture
// device, log rotators, BaseStation writer, and pipeline, and runs them
// under one cancellable context exactly as the teacher's Application
// did for its RTL-SDR/ADS-B/BaseStation stack — generalized to the
// rebuilt validator/tracker/filter pipeline.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"go1090/internal/basestation"
	"go1090/internal/config"
	"go1090/internal/logging"
	"go1090/internal/pipeline"
	"go1090/internal/rtlsdr"
)

// Application owns the capture device, sinks, and pipeline for one
// run of the decoder.
type Application struct {
	cfg    config.PipelineConfig
	logger *logrus.Logger

	device       *rtlsdr.Device
	logRotator   *logging.LogRotator
	eventRotator *logging.LogRotator
	writer       *basestation.Writer
	pipe         *pipeline.Pipeline

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an Application. Components are wired but not started;
// call Start to begin capture.
func New(cfg config.PipelineConfig, showVersion bool) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	logger := logrus.New()
	if cfg.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Application{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start initializes components, begins capture and processing, and
// blocks until a shutdown signal arrives or an unrecoverable error
// occurs.
func (a *Application) Start() error {
	a.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("starting ADS-B decoder")

	if err := a.initializeComponents(); err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := a.run(); err != nil {
		a.logger.WithError(err).Error("application error")
		return err
	}

	<-sigChan
	a.logger.Info("received shutdown signal")
	a.shutdown()
	return nil
}

func (a *Application) initializeComponents() error {
	var err error

	a.device, err = rtlsdr.NewDevice(a.cfg.DeviceIndex, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize rtl-sdr: %w", err)
	}
	if err := a.device.Configure(a.cfg.Frequency, a.cfg.SampleRate, a.cfg.Gain); err != nil {
		return fmt.Errorf("failed to configure rtl-sdr: %w", err)
	}

	a.logRotator, err = logging.NewLogRotator(a.cfg.LogDir, a.cfg.LogRotateUTC, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize log rotator: %w", err)
	}
	a.eventRotator, err = logging.NewLogRotator(a.cfg.LogDir+"/events", a.cfg.LogRotateUTC, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize event rotator: %w", err)
	}

	a.writer = basestation.NewWriter(a.logRotator, a.eventRotator, a.logger)
	a.pipe = pipeline.New(a.cfg, a.logger, a.writer, a.writer)

	return nil
}

func (a *Application) run() error {
	a.logger.Info("starting rtl-sdr capture and pipeline")

	a.pipe.Start()

	go func() {
		a.logRotator.Start(a.ctx)
	}()
	go func() {
		a.eventRotator.Start(a.ctx)
	}()

	go func() {
		if err := a.device.StartCapture(a.ctx, a.pipe.IngestIQChunk); err != nil {
			a.logger.WithError(err).Error("rtl-sdr capture failed")
		}
	}()

	a.logger.Info("all components started")
	return nil
}

func (a *Application) shutdown() {
	a.logger.Info("shutting down")
	a.cancel()
	a.pipe.Stop()

	if a.device != nil {
		a.device.Close()
	}
	if a.logRotator != nil {
		a.logRotator.Close()
	}
	if a.eventRotator != nil {
		a.eventRotator.Close()
	}
	a.logger.Info("shutdown complete")
}
