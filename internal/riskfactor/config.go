// Package riskfactor materializes personalized and population-level risk
// edges from a small configuration table of continuous risk-factor types.
package riskfactor

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Threshold scales disease weights once the factor value reaches Value.
type Threshold struct {
	Value  float64 `yaml:"value"`
	Weight float64 `yaml:"weight"`
}

// TypeConfig parameterizes one risk-factor type.
type TypeConfig struct {
	Min        float64     `yaml:"min"`
	Max        float64     `yaml:"max"`
	Thresholds []Threshold `yaml:"thresholds"`
	// Diseases maps disease CUI to the per-disease base weight.
	Diseases map[string]float64 `yaml:"diseases"`
}

// Config is the full table, keyed by risk-factor type name.
type Config map[string]TypeConfig

// ThresholdWeight returns the weight of the highest threshold at or below
// value, or 1.0 when value sits below every threshold.
func (tc TypeConfig) ThresholdWeight(value float64) float64 {
	weight := 1.0
	bestValue := 0.0
	matched := false
	for _, t := range tc.Thresholds {
		if t.Value <= value && (!matched || t.Value >= bestValue) {
			weight = t.Weight
			bestValue = t.Value
			matched = true
		}
	}
	return weight
}

// SortedDiseases returns disease CUIs in deterministic order.
func (tc TypeConfig) SortedDiseases() []string {
	out := make([]string, 0, len(tc.Diseases))
	for cui := range tc.Diseases {
		out = append(out, cui)
	}
	sort.Strings(out)
	return out
}

// Well-known risk-factor type names.
const (
	TypeAge           = "AGE"
	TypeBMI           = "BMI"
	TypeBloodPressure = "BLOOD_PRESSURE"
	TypeGlucose       = "GLUCOSE"
	TypeSmoking       = "SMOKING"
)

// DefaultConfig is the compiled-in parameterization table. A YAML file via
// RISK_FACTOR_CONFIG_PATH overrides it wholesale.
func DefaultConfig() Config {
	return Config{
		TypeAge: {
			Min: 0, Max: 120,
			Thresholds: []Threshold{
				{Value: 40, Weight: 1.1},
				{Value: 55, Weight: 1.25},
				{Value: 65, Weight: 1.4},
				{Value: 75, Weight: 1.6},
			},
			Diseases: map[string]float64{
				"C0020538": 0.6,  // hypertension
				"C0011860": 0.5,  // type 2 diabetes
				"C0010054": 0.7,  // coronary heart disease
				"C0038454": 0.65, // stroke
			},
		},
		TypeBMI: {
			Min: 10, Max: 50,
			Thresholds: []Threshold{
				{Value: 25, Weight: 1.2},
				{Value: 30, Weight: 1.4},
				{Value: 35, Weight: 1.6},
				{Value: 40, Weight: 1.8},
			},
			Diseases: map[string]float64{
				"C0011860": 0.7,  // type 2 diabetes
				"C0020538": 0.6,  // hypertension
				"C0520679": 0.65, // obstructive sleep apnea
				"C0029408": 0.5,  // osteoarthritis
			},
		},
		TypeBloodPressure: {
			Min: 70, Max: 250,
			Thresholds: []Threshold{
				{Value: 130, Weight: 1.2},
				{Value: 140, Weight: 1.4},
				{Value: 160, Weight: 1.6},
				{Value: 180, Weight: 1.8},
			},
			Diseases: map[string]float64{
				"C0038454": 0.7,  // stroke
				"C0010054": 0.65, // coronary heart disease
				"C1561643": 0.6,  // chronic kidney disease
				"C0018801": 0.6,  // heart failure
			},
		},
		TypeGlucose: {
			Min: 40, Max: 600,
			Thresholds: []Threshold{
				{Value: 100, Weight: 1.1},
				{Value: 126, Weight: 1.4},
				{Value: 180, Weight: 1.6},
				{Value: 250, Weight: 1.8},
			},
			Diseases: map[string]float64{
				"C0011860": 0.8,  // type 2 diabetes
				"C0011884": 0.55, // diabetic retinopathy
				"C1561643": 0.5,  // chronic kidney disease
			},
		},
		TypeSmoking: {
			Min: 0, Max: 10,
			Thresholds: []Threshold{
				{Value: 2, Weight: 1.2},
				{Value: 5, Weight: 1.5},
				{Value: 8, Weight: 1.8},
			},
			Diseases: map[string]float64{
				"C0242379": 0.8,  // lung cancer
				"C0024117": 0.75, // COPD
				"C0010054": 0.6,  // coronary heart disease
				"C0038454": 0.55, // stroke
			},
		},
	}
}

// LoadConfig reads a YAML parameterization table.
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read risk factor config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse risk factor config: %w", err)
	}
	return cfg, nil
}

// ConfigFromEnv loads RISK_FACTOR_CONFIG_PATH when set, else defaults.
func ConfigFromEnv() (Config, error) {
	path := os.Getenv("RISK_FACTOR_CONFIG_PATH")
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}
