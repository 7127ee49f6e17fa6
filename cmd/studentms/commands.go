package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pspschool/studentms/internal/interface/console"
)

// newRootCmd builds the command tree. The root command runs the menu.
func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:           "studentms",
		Short:         "Manage students, courses and grades",
		Long:          "studentms keeps students, courses and enrollments in a database and serves\nreports from an in-memory copy that is updated after every saved change.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          withApp(f, runMenu(f)),
	}
	root.PersistentFlags().StringVar(&f.driver, "driver", "", "store driver: sqlite, postgres or memory (overrides DB_DRIVER)")
	root.PersistentFlags().StringVar(&f.dbPath, "db", "", "SQLite database file (overrides DB_PATH)")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	root.Flags().BoolVar(&f.accessible, "accessible", false, "plain line prompts instead of the full-screen menu")

	menuCmd := &cobra.Command{
		Use:   "menu",
		Short: "Open the interactive menu (default)",
		Args:  cobra.NoArgs,
		RunE:  withApp(f, runMenu(f)),
	}
	menuCmd.Flags().BoolVar(&f.accessible, "accessible", false, "plain line prompts instead of the full-screen menu")

	reportCmd := &cobra.Command{
		Use:   "report <roll-no>",
		Short: "Print the grade report of one student",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(f, func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			rep, err := a.reg.Report(ctx, args[0])
			if err != nil {
				return err
			}
			console.NewRenderer(cmd.OutOrStdout()).Report(rep)
			return nil
		}),
	}

	listCmd := &cobra.Command{
		Use:       "list students|courses|enrollments",
		Short:     "Print one table",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"students", "courses", "enrollments"},
		RunE: withApp(f, func(_ context.Context, cmd *cobra.Command, a *app, args []string) error {
			out := console.NewRenderer(cmd.OutOrStdout())
			switch args[0] {
			case "students":
				out.Students(a.reg.Students())
			case "courses":
				out.Courses(a.reg.Courses())
			default:
				out.Enrollments(a.reg.Enrollments())
			}
			return nil
		}),
	}

	countsCmd := &cobra.Command{
		Use:   "counts",
		Short: "Print the row count of each table",
		Args:  cobra.NoArgs,
		RunE: withApp(f, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			c, err := a.reg.Counts(ctx)
			if err != nil {
				return err
			}
			console.NewRenderer(cmd.OutOrStdout()).Counts(c)
			return nil
		}),
	}

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Compare the in-memory copy with the database",
		Args:  cobra.NoArgs,
		RunE: withApp(f, func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			if err := a.reg.Verify(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "mirror and store are in sync")
			return nil
		}),
	}

	root.AddCommand(menuCmd, reportCmd, listCmd, countsCmd, verifyCmd)
	return root
}

type appRunner func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error

// withApp opens the application for the duration of one command.
func withApp(f *flags, run appRunner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx, f)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(ctx, cmd, a, args)
	}
}

func runMenu(f *flags) appRunner {
	return func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
		prompt := console.NewHuhPrompter(cmd.InOrStdin(), cmd.OutOrStdout(), f.accessible)
		menu := console.NewMenu(a.reg, prompt, console.NewRenderer(cmd.OutOrStdout()), a.log)
		if err := menu.Run(ctx); err != nil {
			return err
		}
		a.log.Info("menu closed")
		return nil
	}
}
