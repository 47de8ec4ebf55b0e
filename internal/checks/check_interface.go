package checks

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/raven-betanet/elfhdr/internal/utils"
)

// HeaderCheck defines the interface that all header checks must implement
type HeaderCheck interface {
	// ID returns the unique identifier for this check (e.g., "ident-magic")
	ID() string

	// Description returns a short description of what this check validates
	Description() string

	// Execute runs the check against the specified file, logging through the context logger
	Execute(ctx context.Context, binaryPath string) CheckResult
}

// CheckStatus represents the possible outcomes of a check
type CheckStatus string

const (
	StatusPass  CheckStatus = "pass"
	StatusFail  CheckStatus = "fail"
	StatusSkip  CheckStatus = "skip"
	StatusError CheckStatus = "error"
)

// CheckResult contains the outcome of a check execution
type CheckResult struct {
	ID          string                 `json:"id"`
	Description string                 `json:"description"`
	Status      CheckStatus            `json:"status"`
	Details     string                 `json:"details"`
	Duration    time.Duration          `json:"duration"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// CheckRegistry manages an ordered collection of checks
type CheckRegistry struct {
	checks map[string]HeaderCheck
	order  []string
}

// NewCheckRegistry creates a new check registry
func NewCheckRegistry() *CheckRegistry {
	return &CheckRegistry{
		checks: make(map[string]HeaderCheck),
	}
}

// DefaultRegistry returns a registry holding every built-in check in execution order
func DefaultRegistry() *CheckRegistry {
	r := NewCheckRegistry()
	for _, check := range []HeaderCheck{
		&MagicCheck{},
		&ClassCheck{},
		&EncodingCheck{},
		&OSABICheck{},
		&Header32Check{},
	} {
		r.MustRegister(check)
	}
	return r
}

// Register adds a check to the registry
func (r *CheckRegistry) Register(check HeaderCheck) error {
	if _, exists := r.checks[check.ID()]; exists {
		return fmt.Errorf("check %s already registered", check.ID())
	}
	r.checks[check.ID()] = check
	r.order = append(r.order, check.ID())
	return nil
}

// MustRegister is like Register but panics on a duplicate ID
func (r *CheckRegistry) MustRegister(check HeaderCheck) {
	if err := r.Register(check); err != nil {
		panic(err)
	}
}

// Get retrieves a check by ID
func (r *CheckRegistry) Get(id string) (HeaderCheck, bool) {
	check, exists := r.checks[id]
	return check, exists
}

// List returns all registered checks in registration order
func (r *CheckRegistry) List() []HeaderCheck {
	checks := make([]HeaderCheck, 0, len(r.order))
	for _, id := range r.order {
		checks = append(checks, r.checks[id])
	}
	return checks
}

// RunnerOptions tunes a CheckRunner
type RunnerOptions struct {
	Skip     []string // check IDs reported as skipped without running
	FailFast bool     // stop after the first fail or error
}

// CheckRunner executes header checks
type CheckRunner struct {
	registry *CheckRegistry
	skip     map[string]bool
	failFast bool
}

// NewCheckRunner creates a new check runner
func NewCheckRunner(registry *CheckRegistry, opts RunnerOptions) *CheckRunner {
	skip := make(map[string]bool, len(opts.Skip))
	for _, id := range opts.Skip {
		skip[id] = true
	}

	return &CheckRunner{
		registry: registry,
		skip:     skip,
		failFast: opts.FailFast,
	}
}

// CheckReport contains the results of running multiple checks
type CheckReport struct {
	BinaryPath string        `json:"binary_path"`
	Results    []CheckResult `json:"results"`
	Summary    CheckSummary  `json:"summary"`
}

// CheckSummary contains summary statistics for a check report
type CheckSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// OK reports whether no check failed or errored
func (r *CheckReport) OK() bool {
	return r.Summary.Failed == 0 && r.Summary.Errors == 0
}

// RunAll executes all registered checks against a file.
// The logger is taken from ctx (see utils.WithLogger).
func (r *CheckRunner) RunAll(ctx context.Context, binaryPath string) (*CheckReport, error) {
	return r.run(ctx, binaryPath, r.registry.List())
}

// RunSelected executes specific checks by ID against a file
func (r *CheckRunner) RunSelected(ctx context.Context, binaryPath string, checkIDs []string) (*CheckReport, error) {
	selected := make([]HeaderCheck, 0, len(checkIDs))
	for _, id := range checkIDs {
		check, exists := r.registry.Get(id)
		if !exists {
			return nil, fmt.Errorf("unknown check: %s", id)
		}
		selected = append(selected, check)
	}
	return r.run(ctx, binaryPath, selected)
}

func (r *CheckRunner) run(ctx context.Context, binaryPath string, checks []HeaderCheck) (*CheckReport, error) {
	if _, err := os.Stat(binaryPath); err != nil {
		return nil, fmt.Errorf("binary file not found: %w", err)
	}

	log := utils.LoggerFromContext(ctx).WithFile("checks", binaryPath)
	log.Debugf("Running %d checks", len(checks))
	results := make([]CheckResult, 0, len(checks))

	for _, check := range checks {
		if r.skip[check.ID()] {
			log.Debugf("Skipping %s by configuration", check.ID())
			results = append(results, CheckResult{
				ID:          check.ID(),
				Description: check.Description(),
				Status:      StatusSkip,
				Details:     "skipped by configuration",
			})
			continue
		}

		result := check.Execute(ctx, binaryPath)
		results = append(results, result)

		if r.failFast && (result.Status == StatusFail || result.Status == StatusError) {
			log.Infof("Stopping after %s (fail fast)", result.ID)
			break
		}
	}

	return &CheckReport{
		BinaryPath: binaryPath,
		Results:    results,
		Summary:    calculateSummary(results),
	}, nil
}

// calculateSummary calculates summary statistics from check results
func calculateSummary(results []CheckResult) CheckSummary {
	summary := CheckSummary{Total: len(results)}

	for _, result := range results {
		switch result.Status {
		case StatusPass:
			summary.Passed++
		case StatusFail:
			summary.Failed++
		case StatusSkip:
			summary.Skipped++
		case StatusError:
			summary.Errors++
		}
	}

	return summary
}
