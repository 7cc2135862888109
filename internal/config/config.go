// Package config holds the planner tunables. Values come from defaults,
// optionally overlaid from a YAML file and from per-request overrides.
package config

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// KnapsackWeights are the w1..w4 coefficients of the low-priority subset
// score: w1*density + w2*priority + w3*utilization - w4*dwell.
type KnapsackWeights struct {
	Density     float64 `yaml:"density" json:"density"`
	Priority    float64 `yaml:"priority" json:"priority"`
	Utilization float64 `yaml:"utilization" json:"utilization"`
	Dwell       float64 `yaml:"dwell" json:"dwell"`
}

// Planner is the full optimization configuration.
type Planner struct {
	PopulationSize            int             `yaml:"population_size" json:"population_size"`
	Generations               int             `yaml:"generations" json:"generations"`
	CrossoverRate             float64         `yaml:"crossover_rate" json:"crossover_rate"`
	MutationRate              float64         `yaml:"mutation_rate" json:"mutation_rate"`
	TournamentSize            int             `yaml:"tournament_size" json:"tournament_size"`
	Seed                      int64           `yaml:"seed" json:"seed"`
	MaxLegs                   int             `yaml:"max_legs" json:"max_legs"`
	DenialFactor              float64         `yaml:"denial_factor" json:"denial_factor"`
	Knapsack                  KnapsackWeights `yaml:"knapsack_weights" json:"knapsack_weights"`
	DisruptionMarginThreshold float64         `yaml:"disruption_margin_threshold" json:"disruption_margin_threshold"`
	OptimizationBudgetMs      int             `yaml:"optimization_budget_ms" json:"optimization_budget_ms"`
	Workers                   int             `yaml:"workers" json:"workers"`
}

// Default returns the stock planner configuration.
func Default() Planner {
	return Planner{
		PopulationSize:            80,
		Generations:               120,
		CrossoverRate:             0.8,
		MutationRate:              0.15,
		TournamentSize:            3,
		Seed:                      42,
		MaxLegs:                   4,
		DenialFactor:              0.25,
		Knapsack:                  KnapsackWeights{Density: 1.0, Priority: 0.5, Utilization: 0.3, Dwell: 0.05},
		DisruptionMarginThreshold: 5000,
		OptimizationBudgetMs:      0,
		Workers:                   0, // 0 = GOMAXPROCS
	}
}

// Load reads a YAML file over the defaults. A missing path yields defaults.
func Load(path string) (Planner, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values that would break the optimizer.
func (p Planner) Validate() error {
	if p.PopulationSize <= 0 {
		return fmt.Errorf("population_size must be > 0")
	}
	if p.Generations <= 0 {
		return fmt.Errorf("generations must be > 0")
	}
	if p.CrossoverRate < 0 || p.CrossoverRate > 1 {
		return fmt.Errorf("crossover_rate must be in [0,1]")
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return fmt.Errorf("mutation_rate must be in [0,1]")
	}
	if p.TournamentSize <= 0 {
		return fmt.Errorf("tournament_size must be > 0")
	}
	if p.MaxLegs <= 0 {
		return fmt.Errorf("max_legs must be > 0")
	}
	if p.DenialFactor < 0 {
		return fmt.Errorf("denial_factor must be >= 0")
	}
	if p.DisruptionMarginThreshold < 0 {
		return fmt.Errorf("disruption_margin_threshold must be >= 0")
	}
	if p.OptimizationBudgetMs < 0 {
		return fmt.Errorf("optimization_budget_ms must be >= 0")
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	return nil
}
