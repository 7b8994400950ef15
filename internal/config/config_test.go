package config

import "testing"

func baseConfig() *Config {
	var c Config
	setDefaultsForTest(&c)
	return &c
}

// setDefaultsForTest mirrors setDefaults without requiring a viper
// instance, for fast unit tests of Validate.
func setDefaultsForTest(c *Config) {
	c.Node.URL = "http://127.0.0.1:8080"
	c.Mining.Algorithm = AlgorithmDistinguishedPoints
	c.Mining.NumWorkers = 8
	c.Mining.Alpha = 0.666
	c.Mining.Beta = 0.667
	c.Mining.MaxTimeToAttempt = 1
	c.Mining.MaxDifficulty = 64
}

func TestValidateAcceptsDefaults(t *testing.T) {
	c := baseConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestValidateRejectsMissingNodeURL(t *testing.T) {
	c := baseConfig()
	c.Node.URL = ""
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for missing node url")
	}
}

func TestValidateRejectsDifficultyAboveCeiling(t *testing.T) {
	c := baseConfig()
	c.Mining.MaxDifficulty = 65
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for max_difficulty > 64")
	}
}

func TestValidateRejectsBadAlphaBetaFeasibility(t *testing.T) {
	c := baseConfig()
	c.Mining.Algorithm = AlgorithmMemoization
	c.Mining.Alpha = 0.1
	c.Mining.Beta = 0.1 // fails beta >= 1 - alpha/2 (needs >= 0.95)
	if err := c.Validate(); err == nil {
		t.Fatal("expected feasibility constraint violation to be rejected")
	}
}

func TestValidateAcceptsFeasibleAlphaBeta(t *testing.T) {
	c := baseConfig()
	c.Mining.Algorithm = AlgorithmMemoization
	c.Mining.Alpha = 0.75
	c.Mining.Beta = 0.625 // 1 - 0.75/2 = 0.625, boundary satisfied
	if err := c.Validate(); err != nil {
		t.Fatalf("expected feasible alpha/beta to validate: %v", err)
	}
}

func TestValidateDifficultyOverride(t *testing.T) {
	c := baseConfig()
	if err := c.ValidateDifficultyOverride(64, 20); err != nil {
		t.Fatalf("expected override within bounds to pass: %v", err)
	}
	if err := c.ValidateDifficultyOverride(65, 20); err == nil {
		t.Fatal("expected override above MAX_DIFFICULTY to fail")
	}
	if err := c.ValidateDifficultyOverride(10, 20); err == nil {
		t.Fatal("expected override below template difficulty to fail")
	}
}

func TestValidateRejectsZeroWorkers(t *testing.T) {
	c := baseConfig()
	c.Mining.NumWorkers = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for zero workers")
	}
}
