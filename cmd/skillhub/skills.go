package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	service "github.com/okian/skillhub/internal/app"
	"github.com/okian/skillhub/internal/domain/rating"
	"github.com/okian/skillhub/internal/domain/skill"
)

func skillsCmd(flags *rootFlags) *cobra.Command {
	var (
		q          service.Query
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "skills",
		Short: "List catalog skills with their ratings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			env, err := bootstrap(ctx, cmd, flags)
			if err != nil {
				return err
			}
			defer env.Close()

			skills, err := env.svc.SearchSkills(ctx, q)
			if err != nil {
				return err
			}
			all, err := env.svc.GetAllRatings(ctx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeSkillsJSON(cmd.OutOrStdout(), skills, all)
			}
			return writeSkillsTable(cmd.OutOrStdout(), skills, all)
		},
	}

	cmd.Flags().StringVarP(&q.Text, "query", "q", "", "match name, description and tags")
	cmd.Flags().StringVar(&q.Category, "category", "", "exact category")
	cmd.Flags().StringVar(&q.Tag, "tag", "", "exact tag")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

type skillRow struct {
	Slug    string              `json:"slug"`
	Name    string              `json:"name"`
	Author  string              `json:"author"`
	Ratings rating.SkillRatings `json:"ratings"`
	Tier    rating.Tier         `json:"tier,omitempty"`
}

func writeSkillsJSON(w io.Writer, skills []skill.Skill, all map[string]rating.SkillRatings) error {
	rows := make([]skillRow, 0, len(skills))
	for _, sk := range skills {
		r := all[sk.Slug]
		rows = append(rows, skillRow{Slug: sk.Slug, Name: sk.Name, Author: sk.Author, Ratings: r, Tier: rating.ComputeTier(r)})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeSkillsTable(w io.Writer, skills []skill.Skill, all map[string]rating.SkillRatings) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tNAME\tCATEGORY\tTAGS\tCURATOR\tUSER\tTIER")
	for _, sk := range skills {
		r := all[sk.Slug]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			sk.Slug, sk.Name, sk.Category, strings.Join(sk.Tags, ","),
			formatAgg(r.Curator), formatAgg(r.User), rating.ComputeTier(r))
	}
	return tw.Flush()
}

func formatAgg(a rating.AggScore) string {
	if a.Count == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f (%d)", a.Avg, a.Count)
}
