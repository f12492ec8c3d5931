package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// To regenerate golden files, run:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden_DragCharity(t *testing.T) {
	result, err := RunWithGolden(t, loadRepoScenario(t, "drag-charity"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestTraceJSON_Canonical(t *testing.T) {
	result := NewResult()
	result.Config = "two-way"
	result.AddTrace(1, "build", "", "100", map[string]int64{"total": 100, "charity": 80}, nil)
	result.AddTrace(2, OpResetDefaults, "", "", map[string]int64{"total": 100, "charity": 80}, nil)

	got, err := TraceJSON("sample", result)
	require.NoError(t, err)

	want := `{"config":"two-way","scenario_name":"sample","trace":[` +
		`{"amounts":{"charity":80,"total":100},"op":"build","seq":1,"value":"100"},` +
		`{"amounts":{"charity":80,"total":100},"op":"reset_defaults","seq":2}]}`
	assert.Equal(t, want, string(got))
}

func TestTraceJSON_IncludesStepErrors(t *testing.T) {
	result := NewResult()
	result.Config = "two-way"
	result.AddTrace(1, OpSetShare, "total", "0.5", map[string]int64{"total": 100}, assert.AnError)

	got, err := TraceJSON("errs", result)
	require.NoError(t, err)

	assert.Contains(t, string(got), `"error":"assert.AnError general error for testing"`)
}

func TestAssertGolden_FromResult(t *testing.T) {
	scenario := loadRepoScenario(t, "drag-charity")
	result, err := Run(scenario)
	require.NoError(t, err)

	require.NoError(t, AssertGolden(t, "drag-charity", result))
}
