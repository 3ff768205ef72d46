package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/triad/internal/util"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored debate sessions",
	Long:  `List all stored debate sessions, newest first.`,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}

	infos, err := st.ListSessions(cmd.Context())
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tROUNDS\tVOTING\tUPDATED\tPROBLEM")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.1f\t%s\t%s\n",
			info.ID,
			info.Status,
			info.Rounds,
			info.VotingScore,
			info.UpdatedAt.Format("2006-01-02 15:04"),
			util.Ellipsize(info.Problem, 60),
		)
	}
	return w.Flush()
}
