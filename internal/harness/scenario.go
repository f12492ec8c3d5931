package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of edits against one split document.
// Running it checks per-step amounts and the final tree.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is the split document to build the tree from.
	// A relative path is resolved against the scenario file's directory.
	Config string `yaml:"config"`

	// Total overrides the document's total, in pennies.
	Total *int64 `yaml:"total,omitempty"`

	// Steps are applied in order to the freshly built tree.
	Steps []Step `yaml:"steps"`

	// Assertions validate the tree after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one edit.
type Step struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Key names the node to edit. Empty means the root.
	Key string `yaml:"key,omitempty"`

	// Value is the edit's argument as written: a share, pennies, a slider
	// position, an allotment name or typed text, depending on Op.
	Value string `yaml:"value,omitempty"`

	// Expect lists amounts in pennies that must hold after the step.
	Expect map[string]int64 `yaml:"expect,omitempty"`

	// ExpectError, when set, requires the step to fail with an error whose
	// message contains it. The tree must then be unchanged.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Step operations.
const (
	OpSetShare       = "set_share"
	OpSetAmount      = "set_amount"
	OpCommitEdit     = "commit_edit"
	OpResetDefaults  = "reset_defaults"
	OpApplyAllotment = "apply_allotment"
	OpSlide          = "slide"
	OpTypeAmount     = "type_amount"
)

var knownOps = map[string]bool{
	OpSetShare:       true,
	OpSetAmount:      true,
	OpCommitEdit:     true,
	OpResetDefaults:  true,
	OpApplyAllotment: true,
	OpSlide:          true,
	OpTypeAmount:     true,
}

// Assertion validates the final tree.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Key names the parent whose children share_sum checks. Empty means
	// the root.
	Key string `yaml:"key,omitempty"`

	// Expect maps keys to pennies (amounts), shares (shares) or percentages
	// of the root (flattened).
	Expect map[string]float64 `yaml:"expect,omitempty"`

	// Tolerance bounds float comparisons. Zero selects the type's default.
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// Assertion type constants.
const (
	AssertConserved = "conserved"
	AssertAmounts   = "amounts"
	AssertShares    = "shares"
	AssertShareSum  = "share_sum"
	AssertFlattened = "flattened"
	AssertRoundTrip = "round_trip"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Config != "" && !filepath.IsAbs(scenario.Config) {
		scenario.Config = filepath.Join(filepath.Dir(path), scenario.Config)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// FindScenarios lists the .yaml and .yml files under dir in lexical order.
// A non-empty filter is a glob matched against each file's base name
// without its extension.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Config == "" {
		return fmt.Errorf("config is required")
	}
	if _, err := os.Stat(s.Config); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", s.Config)
	}

	if s.Total != nil && *s.Total < 0 {
		return fmt.Errorf("total must not be negative, got %d", *s.Total)
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	if step.Op == "" {
		return fmt.Errorf("steps[%d]: op is required", index)
	}
	if !knownOps[step.Op] {
		return fmt.Errorf("steps[%d]: unknown op %q", index, step.Op)
	}

	switch step.Op {
	case OpResetDefaults:
	case OpApplyAllotment:
		if step.Value == "" {
			return fmt.Errorf("steps[%d]: %s requires an allotment name as value", index, step.Op)
		}
	default:
		if step.Value == "" {
			return fmt.Errorf("steps[%d]: %s requires a value", index, step.Op)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Tolerance < 0 {
		return fmt.Errorf("assertions[%d]: tolerance must not be negative", index)
	}

	switch a.Type {
	case AssertConserved, AssertRoundTrip, AssertShareSum:
		return nil
	case AssertAmounts, AssertShares, AssertFlattened:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: %s requires expect", index, a.Type)
		}
		return nil
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
}
