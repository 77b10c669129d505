package main

import (
	"path/filepath"
	"testing"
)

func TestCLIDoctorPassesWithPreparedEnvironment(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	requireContains(t, out, "All checks passed")
	requireContains(t, out, "ffmpeg")
	requireContains(t, out, "ffprobe")
}

func TestCLIDoctorFailsWhenToolsMissing(t *testing.T) {
	env := setupCLITestEnv(t)
	// Point PATH at an empty directory so the binary lookups fail.
	t.Setenv("PATH", filepath.Join(env.baseDir, "nowhere"))

	out, _, err := runCLI(t, []string{"doctor"}, env.configPath)
	if err == nil {
		t.Fatal("expected doctor to fail without ffmpeg on PATH")
	}
	requireContains(t, out, "FAIL")
	requireContains(t, err.Error(), "checks failed")
}
