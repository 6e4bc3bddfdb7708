package commands

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var flagCron string

func init() {
	scheduleCmd.Flags().StringVar(&flagCron, "cron", "0 2 * * *", "cron expression (minute hour dom month dow)")
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the full pipeline on a cron schedule until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		sched, err := parseSchedule(flagCron)
		if err != nil {
			return err
		}
		c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		c.Schedule(sched, cron.FuncJob(func() {
			if runID, err := runOnce(cmd); err != nil {
				logger.Error().Err(err).Str("run_id", runID).Msg("scheduled run failed")
			}
		}))

		logger.Info().Str("cron", flagCron).Time("next", sched.Next(time.Now())).Msg("scheduler started")
		c.Start()
		<-cmd.Context().Done()
		<-c.Stop().Done()
		logger.Info().Msg("scheduler stopped")
		return nil
	},
}

// parseSchedule accepts standard five-field expressions and descriptors
// such as @daily.
func parseSchedule(expr string) (cron.Schedule, error) {
	s, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid --cron %q: %w", expr, err)
	}
	return s, nil
}
