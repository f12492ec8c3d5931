package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Text(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), twoWayDoc)
	require.NoError(t, err)
	assert.Equal(t, "✓ two-way valid (3 nodes, 2 leaves, total $1.00)\n", out)
}

func TestValidate_JSON(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), humbleDoc)
	require.NoError(t, err)

	var result ValidationResult
	env := decodeEnvelope(t, out, &result)
	assert.Equal(t, "ok", env.Status)
	assert.True(t, result.Valid)
	assert.Equal(t, "humble-bundle", result.Name)
	assert.Equal(t, 5, result.Nodes)
	assert.Equal(t, 3, result.Leaves)
	assert.Equal(t, int64(2500), result.Total)
	assert.ElementsMatch(t, []string{"all-to-charity", "default"}, result.Allotments)
}

func TestValidate_TotalOverride(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), humbleDoc, "--total", "$40")
	require.NoError(t, err)

	var result ValidationResult
	decodeEnvelope(t, out, &result)
	assert.Equal(t, int64(4000), result.Total)
}

func TestValidate_Errors(t *testing.T) {
	dir := t.TempDir()

	malformed := filepath.Join(dir, "malformed.yaml")
	writeFile(t, malformed, "name: [\n")

	badPreset := filepath.Join(dir, "bad-preset.yaml")
	writeFile(t, badPreset, `name: bad-preset
allotments:
  default:
    a: 0.5
    b: 0.5
  bad:
    ghost: 1
splits:
  - name: A
    key: a
  - name: B
    key: b
`)

	tests := []struct {
		name     string
		args     []string
		wantCode string
		wantExit int
	}{
		{"missing file", []string{filepath.Join(dir, "missing.yaml")}, ErrCodeNoFile, ExitCommandError},
		{"malformed yaml", []string{malformed}, ErrCodeParse, ExitFailure},
		{"preset names unknown key", []string{badPreset}, ErrCodeEdit, ExitFailure},
		{"below minimum", []string{twoWayDoc, "--total", "$0"}, ErrCodeMinimum, ExitFailure},
		{"total without digits", []string{twoWayDoc, "--total", "lots"}, ErrCodeBadOp, ExitFailure},
		{"total past the maximum", []string{twoWayDoc, "--total", "$184467440737095516.17"}, ErrCodeBadOp, ExitFailure},
		{"unknown allotment", []string{humbleDoc, "--allotment", "nobody"}, ErrCodeEdit, ExitFailure},
		{"missing snapshot", []string{twoWayDoc, "--snapshot", filepath.Join(dir, "snap.json")}, ErrCodeNotFound, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			env := decodeEnvelope(t, out, nil)
			assert.Equal(t, "error", env.Status)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestValidate_TextError(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), twoWayDoc, "--total", "$0")
	require.Error(t, err)
	assert.Contains(t, out, "Error [E012]")
	assert.Contains(t, out, "total is below the minimum")
}

func TestValidate_RequiresOneArg(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
