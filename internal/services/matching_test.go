package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studioloop/backend/internal/models"
)

// ---------------------------------------------------------------------------
// Fake FreelancerRepo
// ---------------------------------------------------------------------------

// fakeFreelancerRepo returns a static pool; the APPROVED filter is assumed
// to have been applied by the query, as in production.
type fakeFreelancerRepo struct {
	pool []*models.Freelancer
	err  error
}

func (f *fakeFreelancerRepo) ListApproved(_ context.Context) ([]*models.Freelancer, error) {
	return f.pool, f.err
}

func (f *fakeFreelancerRepo) FindAnyApproved(_ context.Context) (*models.Freelancer, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pool) == 0 {
		return nil, nil
	}
	return f.pool[0], nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

var refTime = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func makeFreelancer(name string, skills ...string) *models.Freelancer {
	return &models.Freelancer{
		UserID:             uuid.New(),
		Name:               name,
		Email:              name + "@example.com",
		Timezone:           "UTC",
		ExperienceLevel:    models.ExperienceSenior,
		Rating:             4.5,
		CompletedTasks:     20,
		MaxConcurrentTasks: 5,
		ActiveTasks:        1,
		WorkingHoursStart:  "09:00",
		WorkingHoursEnd:    "17:00",
		AcceptsUrgentTasks: true,
		Skills:             skills,
	}
}

func newTestMatcher(pool ...*models.Freelancer) *Matcher {
	m := NewMatcher(&fakeFreelancerRepo{pool: pool}, DefaultWeightTable())
	m.Now = func() time.Time { return refTime }
	return m
}

func findScore(t *testing.T, scores []ArtistScore, id uuid.UUID) ArtistScore {
	t.Helper()
	for _, s := range scores {
		if s.Freelancer.UserID == id {
			return s
		}
	}
	t.Fatalf("freelancer %s not in scores", id)
	return ArtistScore{}
}

// ---------------------------------------------------------------------------
// ranking scenarios
// ---------------------------------------------------------------------------

func TestRank_SkillMatchWinsAndVacationExcluded(t *testing.T) {
	matching := makeFreelancer("match", "Branding", "illustration")
	matching.ActiveTasks = 0
	nonMatching := makeFreelancer("other", "video")
	onVacation := makeFreelancer("away", "branding", "illustration")
	onVacation.VacationMode = true

	m := newTestMatcher(nonMatching, onVacation, matching)
	hours := 40.0
	task := &models.TaskDescriptor{
		ClientID:       uuid.New(),
		RequiredSkills: []string{"branding", "illustration"},
		EstimatedHours: &hours,
		Complexity:     DetectTaskComplexity(&hours, 2, ""),
		Urgency:        UrgencyAt(nil, refTime),
	}

	ranked, err := m.RankArtistsForTask(context.Background(), task, 5)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, matching.UserID, ranked[0].Freelancer.UserID)
	assert.Greater(t, ranked[0].TotalScore, ranked[1].TotalScore)

	all, err := m.ScoreCandidates(context.Background(), task)
	require.NoError(t, err)
	require.Len(t, all, 3)
	away := findScore(t, all, onVacation.UserID)
	assert.True(t, away.Excluded)
	assert.Equal(t, ExclusionVacation, away.ExclusionReason)
}

func TestRank_EmptyRequiredSkillsIsNeutral(t *testing.T) {
	a := makeFreelancer("a", "logo")
	b := makeFreelancer("b")
	m := newTestMatcher(a, b)

	task := &models.TaskDescriptor{Complexity: models.ComplexitySimple, Urgency: models.UrgencyLow}
	ranked, err := m.RankArtistsForTask(context.Background(), task, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	for _, s := range ranked {
		assert.Equal(t, 50.0, s.Breakdown.Skill)
	}
}

func TestRank_UrgentTaskExcludesOptOuts(t *testing.T) {
	a := makeFreelancer("a")
	a.AcceptsUrgentTasks = false
	b := makeFreelancer("b")
	b.AcceptsUrgentTasks = false
	m := newTestMatcher(a, b)

	deadline := refTime.Add(12 * time.Hour)
	task := &models.TaskDescriptor{Complexity: models.ComplexityModerate, Urgency: UrgencyAt(&deadline, refTime)}
	ranked, err := m.RankArtistsForTask(context.Background(), task, 5)
	require.NoError(t, err)
	assert.Empty(t, ranked)

	all, err := m.ScoreCandidates(context.Background(), task)
	require.NoError(t, err)
	for _, s := range all {
		assert.Equal(t, ExclusionDeclinesUrgent, s.ExclusionReason)
	}
}

func TestRank_CapacityExclusion(t *testing.T) {
	full := makeFreelancer("full")
	full.ActiveTasks = 5
	zeroCap := makeFreelancer("zero")
	zeroCap.MaxConcurrentTasks = 0
	zeroCap.ActiveTasks = 1
	m := newTestMatcher(full, zeroCap)

	ranked, err := m.RankArtistsForTask(context.Background(), &models.TaskDescriptor{Complexity: models.ComplexitySimple}, 0)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestRank_TopNAndEmptyPool(t *testing.T) {
	m := newTestMatcher(makeFreelancer("a"), makeFreelancer("b"), makeFreelancer("c"))
	ranked, err := m.RankArtistsForTask(context.Background(), &models.TaskDescriptor{Complexity: models.ComplexitySimple}, 2)
	require.NoError(t, err)
	assert.Len(t, ranked, 2)

	empty := newTestMatcher()
	ranked, err = empty.RankArtistsForTask(context.Background(), &models.TaskDescriptor{}, 5)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}

func TestRank_RepoErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	m := NewMatcher(&fakeFreelancerRepo{err: boom}, DefaultWeightTable())
	_, err := m.RankArtistsForTask(context.Background(), &models.TaskDescriptor{}, 5)
	require.ErrorIs(t, err, boom)
}

func TestRank_DeterministicTieBreak(t *testing.T) {
	mk := func(id string, completed, active int) *models.Freelancer {
		f := makeFreelancer("x")
		f.UserID = uuid.MustParse(id)
		f.CompletedTasks = completed
		f.ActiveTasks = active
		return f
	}
	// identical profiles score identically; ordering falls to user id.
	a := mk("00000000-0000-0000-0000-00000000000b", 20, 1)
	b := mk("00000000-0000-0000-0000-00000000000a", 20, 1)
	task := &models.TaskDescriptor{Complexity: models.ComplexityModerate, Urgency: models.UrgencyNormal}

	for i := 0; i < 5; i++ {
		ranked, err := newTestMatcher(a, b).RankArtistsForTask(context.Background(), task, 0)
		require.NoError(t, err)
		require.Len(t, ranked, 2)
		assert.Equal(t, b.UserID, ranked[0].Freelancer.UserID)
		assert.Equal(t, ranked[0].TotalScore, ranked[1].TotalScore)
	}
}

func TestSortScores_TieBreakOrder(t *testing.T) {
	mk := func(completed, active int) ArtistScore {
		f := makeFreelancer("x")
		f.CompletedTasks = completed
		f.ActiveTasks = active
		return ArtistScore{Freelancer: f, TotalScore: 70}
	}
	moreCompleted := mk(30, 3)
	fewerActive := mk(10, 0)
	busier := mk(10, 2)
	scores := []ArtistScore{busier, fewerActive, moreCompleted}
	sortScores(scores)

	assert.Same(t, moreCompleted.Freelancer, scores[0].Freelancer)
	assert.Same(t, fewerActive.Freelancer, scores[1].Freelancer)
	assert.Same(t, busier.Freelancer, scores[2].Freelancer)
}

// ---------------------------------------------------------------------------
// sub-scores
// ---------------------------------------------------------------------------

func TestSkillScore(t *testing.T) {
	f := makeFreelancer("f", "Branding")
	f.Specializations = []string{"packaging"}
	f.PreferredCategories = []string{"logo-design"}

	assert.Equal(t, 90.0, skillScore([]string{"branding", "packaging"}, "", f))
	assert.Equal(t, 45.0, skillScore([]string{"branding", "motion"}, "", f))
	assert.Equal(t, 100.0, skillScore([]string{"branding"}, "logo-design", f))
	assert.Equal(t, 10.0, skillScore([]string{"motion"}, "Logo-Design", f))
	assert.Equal(t, 50.0, skillScore(nil, "logo-design", f))
}

func TestTimezoneScore(t *testing.T) {
	f := makeFreelancer("f")

	assert.Equal(t, 100.0, timezoneScore("", f, refTime), "same window in UTC")

	f.Timezone = "Asia/Tokyo" // UTC+9, 09:00-17:00 local = 00:00-08:00 UTC
	assert.Equal(t, 0.0, timezoneScore("UTC", f, refTime))

	f.Timezone = "Europe/Berlin" // UTC+1 in January
	assert.InDelta(t, 87.5, timezoneScore("UTC", f, refTime), 1e-9)

	night := makeFreelancer("n")
	night.WorkingHoursStart = "22:00"
	night.WorkingHoursEnd = "10:00"
	assert.InDelta(t, 12.5, timezoneScore("UTC", night, refTime), 1e-9, "wraps midnight")

	bad := makeFreelancer("b")
	bad.Timezone = "Mars/Olympus"
	assert.Equal(t, 50.0, timezoneScore("UTC", bad, refTime))

	badClock := makeFreelancer("c")
	badClock.WorkingHoursStart = "nine"
	assert.Equal(t, 50.0, timezoneScore("UTC", badClock, refTime))

	assert.Equal(t, 100.0, timezoneScore("Not/AZone", makeFreelancer("u"), refTime), "unknown client zone means UTC")
}

func TestExperienceScore_MonotonicPerComplexity(t *testing.T) {
	levels := []models.ExperienceLevel{models.ExperienceJunior, models.ExperienceMid, models.ExperienceSenior, models.ExperienceExpert}
	for _, c := range []models.Complexity{models.ComplexitySimple, models.ComplexityModerate, models.ComplexityComplex} {
		prev := -1.0
		for _, l := range levels {
			v := experienceScore(c, l)
			assert.GreaterOrEqual(t, v, prev, "%s/%s", c, l)
			prev = v
		}
	}
	assert.Less(t, experienceScore(models.ComplexityComplex, models.ExperienceJunior),
		experienceScore(models.ComplexitySimple, models.ExperienceJunior))
}

func TestWorkloadScore(t *testing.T) {
	assert.Equal(t, 100.0, workloadScore(0, 4))
	assert.Equal(t, 50.0, workloadScore(2, 4))
	assert.Equal(t, 0.0, workloadScore(4, 4))
	assert.Equal(t, 0.0, workloadScore(3, 0))
}

func TestPerformanceScore_NeutralDefaults(t *testing.T) {
	newcomer := makeFreelancer("new")
	newcomer.Rating = 0
	newcomer.CompletedTasks = 0
	// 0.4*0.7 + 0.2*0.6 + 0.25*0.6 + 0.15*0 = 0.55
	assert.InDelta(t, 55.0, performanceScore(newcomer), 1e-9)

	veteran := makeFreelancer("vet")
	veteran.Rating = 5
	veteran.CompletedTasks = 90
	acc, onTime := 1.0, 1.0
	veteran.AcceptanceRate = &acc
	veteran.OnTimeRate = &onTime
	// volume = 1 - 1/10 = 0.9
	assert.InDelta(t, 98.5, performanceScore(veteran), 1e-9)
}

func TestScoreFreelancer_RoundedAndBounded(t *testing.T) {
	f := makeFreelancer("f", "branding")
	task := &models.TaskDescriptor{RequiredSkills: []string{"branding", "type", "3d"}, Complexity: models.ComplexityComplex, Urgency: models.UrgencyCritical}
	s := ScoreFreelancer(task, f, DefaultWeightTable().For(task.Complexity, task.Urgency), refTime)

	assert.Equal(t, round2(s.TotalScore), s.TotalScore)
	assert.Equal(t, 30.0, s.Breakdown.Skill)
	assert.GreaterOrEqual(t, s.TotalScore, 0.0)
	assert.LessOrEqual(t, s.TotalScore, 100.0)
	assert.False(t, s.Excluded)
}

func TestNormalizeSkills(t *testing.T) {
	assert.Equal(t, []string{"branding", "ui"}, NormalizeSkills([]string{" Branding", "UI", "branding", ""}))
	assert.Empty(t, NormalizeSkills(nil))
}
