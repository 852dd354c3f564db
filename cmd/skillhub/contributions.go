package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	service "github.com/okian/skillhub/internal/app"
	"github.com/okian/skillhub/internal/domain/contribution"
	"github.com/okian/skillhub/pkg/logger"
)

func contributionsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contributions",
		Short: "Moderate submitted skills",
	}
	cmd.AddCommand(contributionsListCmd(flags))
	cmd.AddCommand(contributionsDismissCmd(flags))
	return cmd
}

func contributionsListCmd(flags *rootFlags) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending contributions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env, err := bootstrap(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			list, err := env.svc.ListContributions(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tNAME\tSUBMITTED\tDESCRIPTION")
			for _, c := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Key, c.Name, c.SubmittedAt.Format(time.RFC3339), c.Description)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func contributionsDismissCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss KEY...",
		Short: "Dismiss contributions by key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			env, err := bootstrap(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			for _, key := range args {
				if err := env.svc.DismissContribution(ctx, key); err != nil {
					return fmt.Errorf("dismiss %s: %w", key, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dismissed %s\n", key)
			}
			return nil
		},
	}
}

func contributeCmd(flags *rootFlags) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "contribute",
		Short: "Submit a SKILL.md document for review",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			doc, err := contribution.ParseDocument(string(raw))
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}

			env, err := bootstrap(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			key, err := env.svc.SubmitContribution(ctx, service.ContributionInput{
				Name:        doc.Name,
				Description: doc.Description,
				Body:        doc.Body,
				Raw:         doc.Raw,
			})
			if err != nil {
				return err
			}
			env.log.Info(ctx, "contribution submitted", logger.String("key", key), logger.String("file", path))
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "path to a SKILL.md with name and description front matter")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
