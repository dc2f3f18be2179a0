package main

import (
	"context"
	"fmt"
	"time"

	"botcast/internal/collector"
	"botcast/internal/config"
	"botcast/internal/dispatch"
	"botcast/internal/history"
	"botcast/internal/transport"
	"botcast/internal/transport/telegram"
	logx "botcast/pkg/logx"
)

// app wires config, logging, transport and dispatch for one command run.
// Commands call setup(), use what they need, and defer close().
type app struct {
	cfg *config.Config
	log logx.Logger

	closeLog func() error
}

func setup() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	log, closeLog, err := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, closeLog: closeLog}, nil
}

func (a *app) close() {
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

func (a *app) adapter() (*telegram.Adapter, error) {
	return telegram.New(telegram.Config{
		Token:      a.cfg.Telegram.Token,
		RatePerSec: a.cfg.Telegram.RatePerSec,
		Timeout:    a.cfg.RequestTimeout(),
	}, a.log)
}

func (a *app) dispatcher(t transport.Transporter) *dispatch.Dispatcher {
	return dispatch.New(t, a.reporter(), a.log,
		dispatch.WithSendOptions(&transport.SendOptions{ParseMode: a.cfg.Telegram.ParseMode}))
}

func (a *app) collector(src collector.UpdateSource) *collector.Service {
	return collector.New(src, a.cfg.Paths.ReceivedLog, a.log)
}

// reporter prints progress on stdout and mirrors it into the structured log,
// so interactive runs and journal runs see the same lines.
func (a *app) reporter() dispatch.Reporter {
	mirror := dispatch.LogReporter(a.log)
	return dispatch.ReporterFunc(func(line string, sev dispatch.Severity) {
		fmt.Printf("%s: %s\n", sev, line)
		mirror.Report(line, sev)
	})
}

// saveSummary records the finished session when a history store is
// configured. Persistence failures never fail the command, and an aborted
// session still gets recorded, so the append runs on its own context.
func (a *app) saveSummary(sum dispatch.Summary) {
	if a.cfg.Storage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := history.Open(history.Config{
		Driver:      a.cfg.Storage.Driver,
		Path:        a.cfg.Storage.Path,
		BusyTimeout: a.cfg.BusyTimeout(),
	}, a.log)
	if err != nil {
		a.log.Warn("history store unavailable", logx.Err(err))
		return
	}
	if store == nil {
		return
	}
	defer store.Close()

	if err := store.Append(ctx, history.FromSummary(sum)); err != nil {
		a.log.Warn("history append failed", logx.Err(err), logx.String("session", sum.ID))
	}
}

// sessionExit maps a finished session onto the process exit contract: the
// summary line was already reported, so a failed session only needs a short
// error to flip the exit code.
func sessionExit(sum dispatch.Summary) error {
	if sum.Succeeded() {
		return nil
	}
	return fmt.Errorf("no messages delivered (%s)", sum.StopReason)
}
