package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"kannadi/internal/budget"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("KANNADI_CONFIG", "")
	t.Setenv("DATA_BACKEND", "memory")
	flagDB, flagMonth, flagJSON, flagVerbose = "", "", false, false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSummaryJSONOnEmptyLedger(t *testing.T) {
	out, err := runCLI(t, "summary", "2024-03", "--json")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	var got struct {
		Period string `json:"period"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Period != "2024-03" {
		t.Errorf("period = %q", got.Period)
	}
}

func TestProjectWithoutHistory(t *testing.T) {
	out, err := runCLI(t, "project", "--month", "2024-06")
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if !strings.Contains(out, "record 3 more completed month") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestCommandErrors(t *testing.T) {
	tests := [][]string{
		{"summary", "March"},
		{"goal", "lots", "12"},
		{"goal", "1000", "48", "--month", "2024-06"},
		{"insights", "--month", "2024/06"},
	}
	for _, args := range tests {
		if _, err := runCLI(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestMarks(t *testing.T) {
	if goalMark(budget.Achievable) != "[ok]" || goalMark(budget.NotAchievable) != "[x]" {
		t.Error("goal marks")
	}
	if sentimentMark(budget.Warning) != "!" || sentimentMark(budget.Neutral) != "-" {
		t.Error("sentiment marks")
	}
}
