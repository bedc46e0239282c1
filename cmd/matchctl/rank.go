package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/studioloop/backend/internal/config"
	"github.com/studioloop/backend/internal/models"
	"github.com/studioloop/backend/internal/repository"
	"github.com/studioloop/backend/internal/services"
)

type rankOptions struct {
	title       string
	description string
	skills      []string
	category    string
	hours       float64
	hoursSet    bool
	deadline    string
	clientTZ    string
	top         int
}

var rankOpts rankOptions

// rankCmd scores a hypothetical task against the live pool. Nothing is written.
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Dry-run the ranking for a task descriptor",
	Long: `Scores every approved freelancer against the described task and prints
each candidate's breakdown, including excluded candidates and the reason.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rankOpts.hoursSet = cmd.Flags().Changed("hours")
		task, err := buildDescriptor(rankOpts, time.Now())
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		table, err := loadTable(cfg.WeightsFile)
		if err != nil {
			return fmt.Errorf("failed to load weight table: %w", err)
		}

		pool, err := pgxpool.New(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect: %w", err)
		}
		defer pool.Close()

		matcher := services.NewMatcher(repository.NewFreelancerRepo(pool), table)
		scores, err := matcher.ScoreCandidates(cmd.Context(), task)
		if err != nil {
			return err
		}
		if rankOpts.top > 0 && len(scores) > rankOpts.top {
			scores = scores[:rankOpts.top]
		}
		if jsonOutput {
			return writeRankingJSON(cmd.OutOrStdout(), task, scores)
		}
		return writeRankingTable(cmd.OutOrStdout(), task, scores)
	},
}

func init() {
	f := rankCmd.Flags()
	f.StringVar(&rankOpts.title, "title", "", "task title")
	f.StringVar(&rankOpts.description, "description", "", "task description")
	f.StringSliceVar(&rankOpts.skills, "skills", nil, "required skills (comma separated)")
	f.StringVar(&rankOpts.category, "category", "", "category slug")
	f.Float64Var(&rankOpts.hours, "hours", 0, "estimated hours")
	f.StringVar(&rankOpts.deadline, "deadline", "", "deadline (RFC3339)")
	f.StringVar(&rankOpts.clientTZ, "client-tz", "UTC", "client IANA timezone")
	f.IntVar(&rankOpts.top, "top", 0, "limit output to the first N candidates (0 = all)")
}

// buildDescriptor classifies the described task the same way task creation does.
func buildDescriptor(o rankOptions, now time.Time) (*models.TaskDescriptor, error) {
	var deadline *time.Time
	if o.deadline != "" {
		d, err := time.Parse(time.RFC3339, o.deadline)
		if err != nil {
			return nil, fmt.Errorf("invalid --deadline: %w", err)
		}
		deadline = &d
	}
	var hours *float64
	if o.hoursSet {
		if o.hours < 0 {
			return nil, fmt.Errorf("--hours must be >= 0")
		}
		h := o.hours
		hours = &h
	}
	skills := services.NormalizeSkills(o.skills)
	return &models.TaskDescriptor{
		Title:          o.title,
		Description:    o.description,
		Complexity:     services.DetectTaskComplexity(hours, len(skills), o.description),
		Urgency:        services.UrgencyAt(deadline, now),
		RequiredSkills: skills,
		CategorySlug:   strings.TrimSpace(o.category),
		ClientTimezone: o.clientTZ,
		Deadline:       deadline,
		EstimatedHours: hours,
	}, nil
}

func writeRankingTable(w io.Writer, task *models.TaskDescriptor, scores []services.ArtistScore) error {
	fmt.Fprintf(w, "complexity=%s urgency=%s skills=%s\n\n",
		task.Complexity, task.Urgency, strings.Join(task.RequiredSkills, ","))
	if len(scores) == 0 {
		fmt.Fprintln(w, "No approved freelancers.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFREELANCER\tTOTAL\tSKILL\tTZ\tEXP\tLOAD\tPERF\tACTIVE\tEXCLUDED")
	for i, s := range scores {
		excluded := "-"
		if s.Excluded {
			excluded = s.ExclusionReason
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%d/%d\t%s\n",
			i+1, s.Freelancer.Name, s.TotalScore,
			s.Breakdown.Skill, s.Breakdown.Timezone, s.Breakdown.Experience,
			s.Breakdown.Workload, s.Breakdown.Performance,
			s.Freelancer.ActiveTasks, s.Freelancer.MaxConcurrentTasks, excluded)
	}
	return tw.Flush()
}

type rankingOutput struct {
	Complexity models.Complexity      `json:"complexity"`
	Urgency    models.Urgency         `json:"urgency"`
	Skills     []string               `json:"requiredSkills"`
	Candidates []services.ArtistScore `json:"candidates"`
}

func writeRankingJSON(w io.Writer, task *models.TaskDescriptor, scores []services.ArtistScore) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rankingOutput{
		Complexity: task.Complexity,
		Urgency:    task.Urgency,
		Skills:     task.RequiredSkills,
		Candidates: scores,
	})
}
