package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/studioloop/backend/internal/models"
	"github.com/studioloop/backend/internal/observability"
)

// Reasons a candidate is removed from selection.
const (
	ExclusionVacation       = "vacation_mode"
	ExclusionDeclinesUrgent = "declines_urgent_tasks"
	ExclusionAtCapacity     = "at_capacity"
)

// Neutral sub-scores used when a signal is missing.
const (
	neutralSkillScore    = 50.0
	neutralTimezoneScore = 50.0
	neutralRate          = 0.6
	neutralNewcomer      = 0.7
)

// Client business window, local time in the client's timezone.
const (
	clientWindowStart = 9 * 60
	clientWindowEnd   = 17 * 60
	minutesPerDay     = 24 * 60
)

var experienceTable = map[models.Complexity]map[models.ExperienceLevel]float64{
	models.ComplexitySimple: {
		models.ExperienceJunior: 80, models.ExperienceMid: 85, models.ExperienceSenior: 90, models.ExperienceExpert: 90,
	},
	models.ComplexityModerate: {
		models.ExperienceJunior: 50, models.ExperienceMid: 75, models.ExperienceSenior: 90, models.ExperienceExpert: 100,
	},
	models.ComplexityComplex: {
		models.ExperienceJunior: 20, models.ExperienceMid: 50, models.ExperienceSenior: 85, models.ExperienceExpert: 100,
	},
}

// FreelancerRepo is the minimal interface required for matching.
type FreelancerRepo interface {
	ListApproved(ctx context.Context) ([]*models.Freelancer, error)
}

// ScoreBreakdown holds the per-factor sub-scores, each on [0,100].
type ScoreBreakdown struct {
	Skill       float64 `json:"skillScore"`
	Timezone    float64 `json:"timezoneScore"`
	Experience  float64 `json:"experienceScore"`
	Workload    float64 `json:"workloadScore"`
	Performance float64 `json:"performanceScore"`
}

// ArtistScore is the result of scoring one freelancer against one task.
type ArtistScore struct {
	Freelancer      *models.Freelancer `json:"freelancer"`
	TotalScore      float64            `json:"totalScore"`
	Breakdown       ScoreBreakdown     `json:"breakdown"`
	Excluded        bool               `json:"excluded"`
	ExclusionReason string             `json:"exclusionReason,omitempty"`
	IsFallback      bool               `json:"isFallback"`
}

// Matcher scores and ranks approved freelancers for a task.
type Matcher struct {
	Repo  FreelancerRepo
	Table WeightTable
	// Now anchors timezone conversion; defaults to time.Now.
	Now func() time.Time
}

// NewMatcher returns a new Matcher using the given weight table.
func NewMatcher(repo FreelancerRepo, table WeightTable) *Matcher {
	return &Matcher{Repo: repo, Table: table, Now: time.Now}
}

func (m *Matcher) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

// ScoreCandidates scores every approved freelancer, excluded ones included,
// ordered best first.
func (m *Matcher) ScoreCandidates(ctx context.Context, task *models.TaskDescriptor) ([]ArtistScore, error) {
	pool, err := m.Repo.ListApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("list approved freelancers: %w", err)
	}
	weights := m.Table.For(task.Complexity, task.Urgency)
	ref := m.now()

	scores := make([]ArtistScore, 0, len(pool))
	for _, f := range pool {
		if f == nil {
			continue
		}
		scores = append(scores, ScoreFreelancer(task, f, weights, ref))
	}
	sortScores(scores)
	return scores, nil
}

// RankArtistsForTask returns the non-excluded candidates ordered best first,
// truncated to topN. topN <= 0 returns all of them.
func (m *Matcher) RankArtistsForTask(ctx context.Context, task *models.TaskDescriptor, topN int) ([]ArtistScore, error) {
	start := time.Now()
	all, err := m.ScoreCandidates(ctx, task)
	if err != nil {
		return nil, err
	}
	ranked := make([]ArtistScore, 0, len(all))
	for _, s := range all {
		if s.Excluded {
			observability.ObserveExclusion(s.ExclusionReason)
			continue
		}
		ranked = append(ranked, s)
	}
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	slog.Debug("ranked candidates",
		"complexity", task.Complexity,
		"urgency", task.Urgency,
		"scored", len(all),
		"eligible", len(ranked),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return ranked, nil
}

// ScoreFreelancer computes the breakdown, total and exclusion for one candidate.
// ref is the instant used to resolve timezone offsets.
func ScoreFreelancer(task *models.TaskDescriptor, f *models.Freelancer, w Weights, ref time.Time) ArtistScore {
	b := ScoreBreakdown{
		Skill:       round2(skillScore(task.RequiredSkills, task.CategorySlug, f)),
		Timezone:    round2(timezoneScore(task.ClientTimezone, f, ref)),
		Experience:  round2(experienceScore(task.Complexity, f.ExperienceLevel)),
		Workload:    round2(workloadScore(f.ActiveTasks, f.MaxConcurrentTasks)),
		Performance: round2(performanceScore(f)),
	}
	total := b.Skill*w.Skill +
		b.Timezone*w.Timezone +
		b.Experience*w.Experience +
		b.Workload*w.Workload +
		b.Performance*w.Performance

	s := ArtistScore{Freelancer: f, TotalScore: round2(clamp(total, 0, 100)), Breakdown: b}
	if reason := exclusionReason(task, f); reason != "" {
		s.Excluded = true
		s.ExclusionReason = reason
	}
	return s
}

func exclusionReason(task *models.TaskDescriptor, f *models.Freelancer) string {
	switch {
	case f.VacationMode:
		return ExclusionVacation
	case task.Urgency.IsUrgent() && !f.AcceptsUrgentTasks:
		return ExclusionDeclinesUrgent
	case f.ActiveTasks >= effectiveCapacity(f.MaxConcurrentTasks):
		return ExclusionAtCapacity
	}
	return ""
}

// sortScores orders by total desc, completed tasks desc, active tasks asc, user id asc.
func sortScores(scores []ArtistScore) {
	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.Freelancer.CompletedTasks != b.Freelancer.CompletedTasks {
			return a.Freelancer.CompletedTasks > b.Freelancer.CompletedTasks
		}
		if a.Freelancer.ActiveTasks != b.Freelancer.ActiveTasks {
			return a.Freelancer.ActiveTasks < b.Freelancer.ActiveTasks
		}
		return a.Freelancer.UserID.String() < b.Freelancer.UserID.String()
	})
}

func skillScore(required []string, categorySlug string, f *models.Freelancer) float64 {
	req := normalizeSet(required)
	if len(req) == 0 {
		return neutralSkillScore
	}
	offered := normalizeSet(f.Skills, f.Specializations, f.PreferredCategories)
	matched := 0
	for s := range req {
		if _, ok := offered[s]; ok {
			matched++
		}
	}
	score := 90 * float64(matched) / float64(len(req))

	if slug := strings.ToLower(strings.TrimSpace(categorySlug)); slug != "" {
		if _, ok := normalizeSet(f.PreferredCategories, f.Skills)[slug]; ok {
			score += 10
		}
	}
	return clamp(score, 0, 100)
}

func normalizeSet(lists ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range lists {
		for _, s := range list {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				set[s] = struct{}{}
			}
		}
	}
	return set
}

// NormalizeSkills lowercases, trims and de-duplicates a skill list, preserving first-seen order.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func timezoneScore(clientTZ string, f *models.Freelancer, ref time.Time) float64 {
	clientLoc := time.UTC
	if clientTZ != "" {
		if loc, err := time.LoadLocation(clientTZ); err == nil {
			clientLoc = loc
		}
	}
	freelancerLoc, err := time.LoadLocation(f.Timezone)
	if err != nil || f.Timezone == "" {
		return neutralTimezoneScore
	}
	start, err1 := parseClock(f.WorkingHoursStart)
	end, err2 := parseClock(f.WorkingHoursEnd)
	if err1 != nil || err2 != nil {
		return neutralTimezoneScore
	}

	client := utcIntervals(clientWindowStart, clientWindowEnd, offsetMinutes(ref, clientLoc))
	worker := utcIntervals(start, end, offsetMinutes(ref, freelancerLoc))

	overlap := 0
	for _, a := range client {
		for _, b := range worker {
			lo, hi := max(a[0], b[0]), min(a[1], b[1])
			if hi > lo {
				overlap += hi - lo
			}
		}
	}
	return clamp(float64(overlap)/float64(clientWindowEnd-clientWindowStart)*100, 0, 100)
}

func offsetMinutes(ref time.Time, loc *time.Location) int {
	_, off := ref.In(loc).Zone()
	return off / 60
}

// utcIntervals converts a local [start,end) window into UTC minute-of-day
// intervals, splitting at midnight. end <= start means the window wraps past
// midnight; equal bounds mean all day.
func utcIntervals(start, end, offset int) [][2]int {
	length := end - start
	if length <= 0 {
		length += minutesPerDay
	}
	s := ((start-offset)%minutesPerDay + minutesPerDay) % minutesPerDay
	e := s + length
	if e <= minutesPerDay {
		return [][2]int{{s, e}}
	}
	return [][2]int{{s, minutesPerDay}, {0, e - minutesPerDay}}
}

// parseClock parses "HH:MM" into minutes after midnight.
func parseClock(v string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock %q", v)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 24 {
		return 0, fmt.Errorf("invalid hour in %q", v)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 || (hh == 24 && mm != 0) {
		return 0, fmt.Errorf("invalid minute in %q", v)
	}
	return hh*60 + mm, nil
}

func experienceScore(c models.Complexity, level models.ExperienceLevel) float64 {
	row, ok := experienceTable[c]
	if !ok {
		row = experienceTable[models.ComplexityModerate]
	}
	if v, ok := row[level]; ok {
		return v
	}
	return 50
}

func effectiveCapacity(maxConcurrent int) int {
	if maxConcurrent <= 0 {
		return 1
	}
	return maxConcurrent
}

func workloadScore(active, maxConcurrent int) float64 {
	return clamp((1-float64(active)/float64(effectiveCapacity(maxConcurrent)))*100, 0, 100)
}

func performanceScore(f *models.Freelancer) float64 {
	rating := clamp(f.Rating/5, 0, 1)
	if f.Rating == 0 && f.CompletedTasks == 0 {
		rating = neutralNewcomer
	}
	acceptance := neutralRate
	if f.AcceptanceRate != nil {
		acceptance = clamp(*f.AcceptanceRate, 0, 1)
	}
	onTime := neutralRate
	if f.OnTimeRate != nil {
		onTime = clamp(*f.OnTimeRate, 0, 1)
	}
	volume := 1 - 1/(1+float64(max(f.CompletedTasks, 0))/10)

	return clamp((0.4*rating+0.2*acceptance+0.25*onTime+0.15*volume)*100, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
