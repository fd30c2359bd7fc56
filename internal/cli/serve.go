package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/vocabdrill/internal/bot"
	"github.com/example/vocabdrill/internal/scheduler"
)

func (a *app) serveCommand() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Send reminders for due words until interrupted",
		Long: `Serve checks for due words on the configured interval and sends a
reminder through Telegram when a bot token and chat id are set, or to the
log otherwise. Reminders are only sent inside the notification hours.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			notifier, err := a.notifier()
			if err != nil {
				return err
			}
			sched := scheduler.New(a.svc, notifier, a.cfg.SchedulerConfig(), a.logger)

			if once {
				count, err := sched.RunManualCheck(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d word(s) due\n", count)
				return nil
			}

			if !a.cfg.Reminders.Enabled {
				a.logger.Info("reminders disabled, nothing to serve")
				return nil
			}

			// Отменяем контекст по сигналу
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := sched.Start(ctx); err != nil {
				return err
			}
			a.logger.Info("serving reminders, press Ctrl+C to stop")

			<-ctx.Done()
			sched.Stop()
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Check once, ignoring notification hours, and exit")
	return cmd
}

func (a *app) notifier() (scheduler.Notifier, error) {
	tg := a.cfg.Telegram
	if tg.Token == "" || tg.ChatID == 0 {
		a.logger.Debug("telegram not configured, reminders go to the log")
		return bot.LogNotifier{Logger: a.logger}, nil
	}
	n, err := bot.NewTelegramNotifier(tg.Token, tg.ChatID, a.logger)
	if err != nil {
		return nil, fmt.Errorf("create telegram notifier: %w", err)
	}
	return n, nil
}
