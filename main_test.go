package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestPolicyShow(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"policy", "show", "--spacing", "0,1,3", "--count", "5"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("policy show: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5:\n%s", len(lines), out.String())
	}
	if lines[0] != "Policy 0,1,3" {
		t.Errorf("title = %q", lines[0])
	}
	if fields := strings.Fields(lines[4]); len(fields) != 3 || fields[1] != "3" || fields[2] != "2" {
		t.Errorf("last row = %q, want repetition 3 on day 3 after a gap of 2", lines[4])
	}
}

func TestPolicyShowRejectsBadSpacing(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"policy", "show", "--spacing", "3,1"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected decreasing spacing to be rejected")
	}
}
