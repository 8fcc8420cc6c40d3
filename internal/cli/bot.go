package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"event-tracker/internal/bot"
	"event-tracker/internal/log"
	"event-tracker/internal/service"
)

// NewBotCommand creates the Telegram bot command.
func NewBotCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Serve the tracker over Telegram",
		Long: `Serve the tracker in a Telegram chat until interrupted. Every message is
one input line. telegram.token must be set; telegram.digest_at and
telegram.digest_interval_hours schedule digests of due events.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd.Context(), opts)
		},
	}
}

func runBot(ctx context.Context, opts *RootOptions) error {
	s, err := openSession(ctx, opts, true)
	if err != nil {
		return err
	}
	defer s.Close()

	tg := s.cfg.Telegram
	if tg.Token == "" {
		return errors.New("telegram.token is not set")
	}

	telegramBot, err := bot.New(tg.Token, s.tracker, tg.ChatID)
	if err != nil {
		return err
	}

	scheduler := service.NewSchedulerService(s.cal.Location())
	n, err := scheduler.ScheduleDigest(tg.DigestAt, s.cfg.DigestInterval(), telegramBot.RequestDigest)
	if err != nil {
		return err
	}
	if n > 0 {
		scheduler.Start()
		defer scheduler.Stop()
		if next, ok := scheduler.Next(); ok {
			log.Info("digest scheduled", "next", next)
		}
	}

	log.Info("event tracker bot started")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("shutdown complete")
	return nil
}
