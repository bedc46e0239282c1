package services

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/studioloop/backend/internal/models"
)

// Weights is one row of the weight table. Values are relative; Normalize scales them to sum 1.
type Weights struct {
	Skill       float64 `yaml:"skill" json:"skill"`
	Timezone    float64 `yaml:"timezone" json:"timezone"`
	Experience  float64 `yaml:"experience" json:"experience"`
	Workload    float64 `yaml:"workload" json:"workload"`
	Performance float64 `yaml:"performance" json:"performance"`
}

func (w Weights) sum() float64 {
	return w.Skill + w.Timezone + w.Experience + w.Workload + w.Performance
}

func (w Weights) add(o Weights) Weights {
	return Weights{
		Skill:       w.Skill + o.Skill,
		Timezone:    w.Timezone + o.Timezone,
		Experience:  w.Experience + o.Experience,
		Workload:    w.Workload + o.Workload,
		Performance: w.Performance + o.Performance,
	}
}

// Normalize returns w scaled so the components sum to 1.
func (w Weights) Normalize() Weights {
	s := w.sum()
	if s <= 0 {
		return Weights{}
	}
	return Weights{
		Skill:       w.Skill / s,
		Timezone:    w.Timezone / s,
		Experience:  w.Experience / s,
		Workload:    w.Workload / s,
		Performance: w.Performance / s,
	}
}

// WeightTable maps a complexity tier to base weights and an urgency tier to an additive boost.
type WeightTable struct {
	ByComplexity map[models.Complexity]Weights `yaml:"by_complexity" json:"byComplexity"`
	UrgencyBoost map[models.Urgency]Weights    `yaml:"urgency_boost" json:"urgencyBoost"`
}

// DefaultWeightTable returns the built-in table. Skill and experience weigh
// more for complex work; the urgent boosts shift weight to workload and timezone.
func DefaultWeightTable() WeightTable {
	return WeightTable{
		ByComplexity: map[models.Complexity]Weights{
			models.ComplexitySimple:   {Skill: 0.30, Timezone: 0.15, Experience: 0.10, Workload: 0.25, Performance: 0.20},
			models.ComplexityModerate: {Skill: 0.35, Timezone: 0.10, Experience: 0.20, Workload: 0.15, Performance: 0.20},
			models.ComplexityComplex:  {Skill: 0.35, Timezone: 0.05, Experience: 0.30, Workload: 0.10, Performance: 0.20},
		},
		UrgencyBoost: map[models.Urgency]Weights{
			models.UrgencyHigh:     {Timezone: 0.15, Workload: 0.15},
			models.UrgencyCritical: {Timezone: 0.35, Workload: 0.35},
		},
	}
}

// For resolves the normalized weights for one ranking call. Unknown
// complexity uses the MODERATE row; unknown urgency adds no boost.
func (t WeightTable) For(c models.Complexity, u models.Urgency) Weights {
	base, ok := t.ByComplexity[c]
	if !ok {
		base = t.ByComplexity[models.ComplexityModerate]
	}
	return base.add(t.UrgencyBoost[u]).Normalize()
}

// Validate checks every complexity row is present and every value is finite and non-negative.
func (t WeightTable) Validate() error {
	for _, c := range []models.Complexity{models.ComplexitySimple, models.ComplexityModerate, models.ComplexityComplex} {
		w, ok := t.ByComplexity[c]
		if !ok {
			return fmt.Errorf("weights: missing row for complexity %s", c)
		}
		if err := w.validate(); err != nil {
			return fmt.Errorf("weights: complexity %s: %w", c, err)
		}
		if w.sum() <= 0 {
			return fmt.Errorf("weights: complexity %s sums to zero", c)
		}
	}
	for u, w := range t.UrgencyBoost {
		if err := w.validate(); err != nil {
			return fmt.Errorf("weights: urgency %s: %w", u, err)
		}
	}
	return nil
}

var errBadWeight = errors.New("weight must be finite and >= 0")

func (w Weights) validate() error {
	for _, v := range []float64{w.Skill, w.Timezone, w.Experience, w.Workload, w.Performance} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return errBadWeight
		}
	}
	return nil
}

// weightsPatch is one row as written in a weights file; absent fields are nil.
type weightsPatch struct {
	Skill       *float64 `yaml:"skill"`
	Timezone    *float64 `yaml:"timezone"`
	Experience  *float64 `yaml:"experience"`
	Workload    *float64 `yaml:"workload"`
	Performance *float64 `yaml:"performance"`
}

func (p weightsPatch) apply(w Weights) Weights {
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&w.Skill, p.Skill)
	set(&w.Timezone, p.Timezone)
	set(&w.Experience, p.Experience)
	set(&w.Workload, p.Workload)
	set(&w.Performance, p.Performance)
	return w
}

type weightTableFile struct {
	ByComplexity map[models.Complexity]weightsPatch `yaml:"by_complexity"`
	UrgencyBoost map[models.Urgency]weightsPatch    `yaml:"urgency_boost"`
}

// LoadWeightTable reads a YAML weight table. An empty path yields the default table.
// The file is merged field by field over the defaults: a row that sets only
// skill keeps the default timezone, experience, workload and performance.
func LoadWeightTable(path string) (WeightTable, error) {
	table := DefaultWeightTable()
	if path == "" {
		return table, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return WeightTable{}, fmt.Errorf("read weights %q: %w", path, err)
	}
	var file weightTableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return WeightTable{}, fmt.Errorf("parse weights %q: %w", path, err)
	}
	for c, p := range file.ByComplexity {
		table.ByComplexity[c] = p.apply(table.ByComplexity[c])
	}
	for u, p := range file.UrgencyBoost {
		table.UrgencyBoost[u] = p.apply(table.UrgencyBoost[u])
	}
	if err := table.Validate(); err != nil {
		return WeightTable{}, err
	}
	return table, nil
}

// YAML encodes the table in the format LoadWeightTable reads.
func (t WeightTable) YAML() ([]byte, error) {
	return yaml.Marshal(t)
}
