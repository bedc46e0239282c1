package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/studioloop/backend/internal/models"
	"github.com/studioloop/backend/internal/services"
)

func TestBuildDescriptor(t *testing.T) {
	now := time.Date(2030, 3, 1, 12, 0, 0, 0, time.UTC)

	d, err := buildDescriptor(rankOptions{
		title:    "Poster",
		skills:   []string{" Illustration ", "illustration", "Print"},
		deadline: now.Add(12 * time.Hour).Format(time.RFC3339),
		clientTZ: "Europe/Madrid",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, models.UrgencyCritical, d.Urgency)
	assert.Len(t, d.RequiredSkills, 2)
	assert.Nil(t, d.EstimatedHours)
	assert.Equal(t, "Europe/Madrid", d.ClientTimezone)

	d, err = buildDescriptor(rankOptions{hours: 2, hoursSet: true}, now)
	require.NoError(t, err)
	require.NotNil(t, d.EstimatedHours)
	assert.Equal(t, models.UrgencyLow, d.Urgency)

	_, err = buildDescriptor(rankOptions{deadline: "tomorrow"}, now)
	assert.Error(t, err)
	_, err = buildDescriptor(rankOptions{hours: -1, hoursSet: true}, now)
	assert.Error(t, err)
}

func TestWriteRankingTable(t *testing.T) {
	task := &models.TaskDescriptor{Complexity: models.ComplexitySimple, Urgency: models.UrgencyNormal}
	scores := []services.ArtistScore{
		{Freelancer: &models.Freelancer{Name: "Ada", MaxConcurrentTasks: 3, ActiveTasks: 1}, TotalScore: 77.5},
		{Freelancer: &models.Freelancer{Name: "Bo", MaxConcurrentTasks: 2, ActiveTasks: 0}, Excluded: true, ExclusionReason: services.ExclusionVacation},
	}
	var buf bytes.Buffer
	require.NoError(t, writeRankingTable(&buf, task, scores))
	out := buf.String()
	assert.Contains(t, out, "complexity=SIMPLE urgency=NORMAL")
	assert.Contains(t, out, "77.50")
	assert.Contains(t, out, "1/3")
	assert.Contains(t, out, services.ExclusionVacation)
	assert.Less(t, strings.Index(out, "Ada"), strings.Index(out, "Bo"))

	buf.Reset()
	require.NoError(t, writeRankingTable(&buf, task, nil))
	assert.Contains(t, buf.String(), "No approved freelancers.")
}

func TestWriteRankingJSON(t *testing.T) {
	task := &models.TaskDescriptor{Complexity: models.ComplexityComplex, Urgency: models.UrgencyHigh, RequiredSkills: []string{"3d"}}
	var buf bytes.Buffer
	require.NoError(t, writeRankingJSON(&buf, task, []services.ArtistScore{{Freelancer: &models.Freelancer{Name: "Ada"}, TotalScore: 50}}))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "COMPLEX", got["complexity"])
	assert.Len(t, got["candidates"], 1)
}

func TestPrintWeightsRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printWeights(&buf, services.DefaultWeightTable(), false))

	var table services.WeightTable
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &table))
	assert.NoError(t, table.Validate())
	assert.Equal(t, services.DefaultWeightTable(), table)
}
