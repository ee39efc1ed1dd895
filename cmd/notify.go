package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mohsinsiddi/monsend/internal/frame"
	"github.com/Mohsinsiddi/monsend/internal/ui"
)

var (
	notifyFID    int64
	notifyTitle  string
	notifyBody   string
	notifyTarget string
	notifyAll    bool
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a notification to mini app users",
	Long: `Push a notification to users who enabled notifications, using the
tokens the webhook recorded.

  monsend notify --fid 1234 --title "Hello" --body "MON is live"
  monsend notify --all --title "Maintenance" --body "Back in 10 minutes"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if notifyTitle == "" || notifyBody == "" {
			return fmt.Errorf("--title and --body are required")
		}
		if (notifyFID > 0) == notifyAll {
			return fmt.Errorf("use exactly one of --fid or --all")
		}
		ctx := cmd.Context()

		tokens, err := openTokenStore()
		if err != nil {
			return err
		}
		defer tokens.Close() //nolint:errcheck

		fids := []int64{notifyFID}
		if notifyAll {
			if fids, err = tokens.FIDs(ctx); err != nil {
				return err
			}
			if len(fids) == 0 {
				fmt.Println(ui.Info("No users have notifications enabled."))
				return nil
			}
		}

		target := notifyTarget
		if target == "" {
			target = cfg.AppURL()
		}
		msg := frame.Notification{Title: notifyTitle, Body: notifyBody, TargetURL: target}
		notifier := frame.NewNotifier(tokens, frame.WithNotifierLogger(logger))

		var sent, failed int
		for _, fid := range fids {
			err := notifier.SendToUser(ctx, fid, msg)
			switch {
			case err == nil:
				sent++
				fmt.Println(ui.Success(fmt.Sprintf("fid %d: sent", fid)))
			case errors.Is(err, frame.ErrRateLimited):
				failed++
				fmt.Println(ui.Warn(fmt.Sprintf("fid %d: rate limited, try again later", fid)))
			default:
				failed++
				fmt.Println(ui.Err(fmt.Sprintf("fid %d: %v", fid, err)))
			}
		}
		if failed > 0 && sent == 0 {
			return fmt.Errorf("no notification delivered")
		}
		return nil
	},
}

func init() {
	notifyCmd.Flags().Int64Var(&notifyFID, "fid", 0, "Farcaster user id")
	notifyCmd.Flags().BoolVar(&notifyAll, "all", false, "notify every user with notifications enabled")
	notifyCmd.Flags().StringVar(&notifyTitle, "title", "", "notification title")
	notifyCmd.Flags().StringVar(&notifyBody, "body", "", "notification body")
	notifyCmd.Flags().StringVar(&notifyTarget, "target", "", "URL opened on tap (default: the app URL)")
}
