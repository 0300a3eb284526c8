package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavs06/HackNYU/internal/models"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.json")}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestScoreCommand_JSON(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantScore int
		wantGrade models.Grade
		country   string
	}{
		{
			name:      "certified organic cotton",
			args:      []string{"--materials", "100% organic cotton", "--origin", "Portugal", "--cert", "GOTS"},
			wantScore: 98,
			wantGrade: models.GradeA,
			country:   "Portugal",
		},
		{
			name:      "polyester from bangladesh",
			args:      []string{"--materials", "100% polyester", "--origin", "Bangladesh"},
			wantScore: 13,
			wantGrade: models.GradeF,
			country:   "Bangladesh",
		},
		{
			name:      "nothing known",
			args:      nil,
			wantScore: 50,
			wantGrade: models.GradeC,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"score", "--json"}, tt.args...)...)
			require.NoError(t, err)

			var report scoreReport
			require.NoError(t, json.Unmarshal([]byte(out), &report))
			assert.Equal(t, tt.wantScore, report.Score)
			assert.Equal(t, tt.wantGrade, report.Grade)
			assert.Equal(t, tt.country, report.Country)
			assert.NotNil(t, report.Flags)
			assert.NotEmpty(t, report.Table)
		})
	}
}

func TestScoreCommand_Text(t *testing.T) {
	out, err := execute(t, "score", "-m", "100% polyester", "-o", "Bangladesh")
	require.NoError(t, err)
	assert.Contains(t, out, "13/100")
	assert.Contains(t, out, "100% polyester")
	assert.Contains(t, out, "Flags")
	assert.Contains(t, out, "Tips")
}

func TestScoreCommand_RejectsArgs(t *testing.T) {
	_, err := execute(t, "score", "cotton")
	assert.Error(t, err)
}

func TestPicksExport(t *testing.T) {
	out, err := execute(t, "picks", "export")
	require.NoError(t, err)

	var picks []models.Candidate
	require.NoError(t, json.Unmarshal([]byte(out), &picks))
	require.Len(t, picks, 6)
	for i := 1; i < len(picks); i++ {
		assert.GreaterOrEqual(t, picks[i-1].EcoScore, picks[i].EcoScore)
	}
	ids := make([]string, len(picks))
	for i, p := range picks {
		ids[i] = p.ID
		assert.NotEmpty(t, p.Grade)
	}
	assert.Contains(t, ids, "pick_organic_tee")
}

func TestPicksExport_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "picks.json")
	out, err := execute(t, "picks", "export", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 6 picks")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var picks []models.Candidate
	require.NoError(t, json.Unmarshal(data, &picks))
	assert.Len(t, picks, 6)
}

func TestTableCommand(t *testing.T) {
	out, err := execute(t, "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Impact table 2025.1")
	assert.Contains(t, out, "Materials:")

	_, err = execute(t, "--table", filepath.Join(t.TempDir(), "nope.yaml"), "table")
	assert.Error(t, err)
}
