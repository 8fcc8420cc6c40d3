package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"event-tracker/internal/config"
	"event-tracker/internal/log"
	"event-tracker/internal/model"
	"event-tracker/internal/repository"
	"event-tracker/internal/service"
)

// session is an opened tracker with everything it holds on to.
type session struct {
	cfg     *config.Config
	cal     model.Calendar
	tracker *service.Tracker
	closers []func() error
}

// openSession loads the config, sets up logging and opens the event store.
// Interactive commands log to the configured file so the terminal stays
// clean; logToStderr overrides that.
func openSession(ctx context.Context, opts *RootOptions, logToStderr bool) (*session, error) {
	path := opts.ConfigPath
	if path == "" {
		def, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = def
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}
	if err := s.setupLogging(logToStderr); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.cal = model.NewCalendar(loc)

	repo, closeRepo, err := repository.Open(cfg.Backend, cfg.StorePath)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open event store: %w", err)
	}
	s.closers = append(s.closers, closeRepo)

	s.tracker = service.NewTracker(repo, s.cal, opts.Clock, service.NewView(cfg.LookAhead))
	err = s.tracker.Open(ctx)
	switch {
	case repository.IsMalformed(err) && opts.Reset:
		log.Warn("replacing malformed event store", "err", err)
		if err := s.tracker.Reset(ctx); err != nil {
			s.Close()
			return nil, err
		}
	case repository.IsMalformed(err):
		s.Close()
		return nil, fmt.Errorf("%w (run with --reset to start over)", err)
	case err != nil:
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) setupLogging(toStderr bool) error {
	level, err := log.ParseLevel(s.cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	if toStderr || s.cfg.LogFile == "-" {
		log.SetOutput(os.Stderr)
		return nil
	}
	f, err := os.OpenFile(s.cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	s.closers = append(s.closers, func() error {
		log.SetOutput(os.Stderr)
		return f.Close()
	})
	return nil
}

// Close releases the store and the log file, newest first.
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// writeOutcome prints the notice of a cycle followed by the listing.
func writeOutcome(w io.Writer, tracker *service.Tracker, out service.Outcome) {
	if out.Notice != "" {
		fmt.Fprintf(w, "%s\n\n", out.Notice)
	}
	fmt.Fprint(w, tracker.Render())
}
