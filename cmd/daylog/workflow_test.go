package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const serveStartTimeout = 15 * time.Second

// buildCLI compiles the daylog binary into a temp dir. DAYLOG_BIN may point
// at a prebuilt binary instead.
func buildCLI(t *testing.T) string {
	t.Helper()
	if bin := os.Getenv("DAYLOG_BIN"); bin != "" {
		return bin
	}
	if testing.Short() {
		t.Skip("skipping end-to-end workflow in short mode")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go toolchain not on PATH")
	}

	bin := filepath.Join(t.TempDir(), "daylog")
	build := exec.Command(goBin, "build", "-o", bin, ".")
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("failed to build daylog: %v\nOutput: %s", err, out)
	}
	return bin
}

// isolatedEnv points HOME and DAYLOG_CONFIG into dir and clears anything
// that could select PostgreSQL.
func isolatedEnv(dir string) []string {
	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "HOME=") || strings.HasPrefix(e, "DAYLOG_") {
			continue
		}
		env = append(env, e)
	}
	return append(env,
		"HOME="+dir,
		"DAYLOG_CONFIG="+filepath.Join(dir, "daylog", "daylog.db"),
	)
}

func runCmd(t *testing.T, bin string, env []string, args ...string) []byte {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("daylog %v failed: %v\nOutput: %s", args, err, out)
	}
	return out
}

func runJSON(t *testing.T, bin string, env []string, v any, args ...string) {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Env = env
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("daylog %v failed: %v", args, err)
	}
	if err := json.Unmarshal(out, v); err != nil {
		t.Fatalf("daylog %v printed invalid JSON: %v\nOutput: %s", args, err, out)
	}
}

type resultList struct {
	Entries []struct {
		Date    string `json:"date"`
		IsDraft bool   `json:"is_draft"`
	} `json:"entries"`
	Count int `json:"count"`
}

func TestEndToEndWorkflow(t *testing.T) {
	bin := buildCLI(t)
	env := isolatedEnv(t.TempDir())

	t.Log("Initializing storage...")
	runCmd(t, bin, env, "init")

	runCmd(t, bin, env, "submit", "2024-03-01", "-a", "energy=9", "-a", "rose=walk with Priya")
	runCmd(t, bin, env, "draft", "2024-03-02", "-a", "energy=4", "-a", "workouts=Push,Core")

	var status struct {
		Exists  bool `json:"exists"`
		IsDraft bool `json:"is_draft"`
	}
	runJSON(t, bin, env, &status, "entry", "exists", "2024-03-02", "--json")
	if !status.Exists || !status.IsDraft {
		t.Errorf("expected 2024-03-02 to be a draft, got %+v", status)
	}

	var explored resultList
	runJSON(t, bin, env, &explored, "explore", "numeric",
		"-p", "question_key=energy", "-p", "operator=>=", "-p", "value=8", "--json")
	if explored.Count != 1 || explored.Entries[0].Date != "2024-03-01" {
		t.Errorf("numeric explore returned %+v", explored)
	}

	var workouts resultList
	runJSON(t, bin, env, &workouts, "explore", "workout", "-p", "workout_types=Core", "--json")
	if workouts.Count != 1 || workouts.Entries[0].Date != "2024-03-02" {
		t.Errorf("workout explore returned %+v", workouts)
	}

	var found resultList
	runJSON(t, bin, env, &found, "search", "-q", "priya", "--json")
	if len(found.Entries) != 1 || found.Entries[0].Date != "2024-03-01" {
		t.Errorf("search returned %+v", found)
	}

	out := runCmd(t, bin, env, "backup", "list")
	if !strings.Contains(string(out), "daylog-") {
		t.Errorf("expected the automatic submit backup to be listed:\n%s", out)
	}

	out = runCmd(t, bin, env, "doctor")
	if !strings.Contains(string(out), "All diagnostics passed") {
		t.Errorf("doctor did not pass:\n%s", out)
	}
}

func TestServeWorkflow(t *testing.T) {
	bin := buildCLI(t)
	env := isolatedEnv(t.TempDir())
	runCmd(t, bin, env, "init")
	runCmd(t, bin, env, "submit", "2024-03-01", "-a", "day_quality=8")

	addr := freeAddr(t)
	serve := exec.Command(bin, "serve", "--addr", addr)
	serve.Env = env
	if err := serve.Start(); err != nil {
		t.Fatalf("failed to start serve: %v", err)
	}
	defer func() {
		_ = serve.Process.Signal(os.Interrupt)
		_ = serve.Wait()
	}()

	base := "http://" + addr
	waitForHealthy(t, base+"/healthz")

	resp, err := http.Get(base + "/api/journal/explore?type=numeric&question_key=day_quality&operator=%3E%3D&value=8")
	if err != nil {
		t.Fatalf("explore request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("explore status %d: %s", resp.StatusCode, body)
	}
	var results resultList
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatalf("invalid explore response: %v", err)
	}
	if results.Count != 1 {
		t.Errorf("expected one match, got %+v", results)
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve a port: %v", err)
	}
	defer l.Close()
	return fmt.Sprintf("127.0.0.1:%d", l.Addr().(*net.TCPAddr).Port)
}

func waitForHealthy(t *testing.T, url string) {
	t.Helper()
	start := time.Now()
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		if time.Since(start) > serveStartTimeout {
			t.Fatalf("timed out waiting for %s", url)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
