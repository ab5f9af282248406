package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[creator]
name = "Test Creator"
address = "0x00000000000000000000000000000000000000aa"

[storage_gateway]
upload_base_url = "https://uploads.example"
gateway_base_url = "https://gateway.example/ipfs"

[verification]
base_url = "https://verify.example"

[ledger]
base_url = "https://ledger.example"
spg_contract = "0x00000000000000000000000000000000000000bb"

[logging]
format = "json"
`, filepath.Join(base, "data"), filepath.Join(base, "logs"))
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configPath, base
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSubmitAndListCommands(t *testing.T) {
	configPath, base := writeTestConfig(t)

	mediaPath := filepath.Join(base, "first light.mp3")
	if err := os.WriteFile(mediaPath, []byte("waveform"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}

	out, err := runCommand(t, "--config", configPath, "submit", mediaPath)
	if err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Queued work #1") {
		t.Fatalf("unexpected submit output: %q", out)
	}

	out, err = runCommand(t, "--config", configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v\n%s", err, out)
	}
	if !strings.Contains(out, "First Light") || !strings.Contains(out, "pending") {
		t.Fatalf("queue list missing submitted work: %q", out)
	}

	out, err = runCommand(t, "--config", configPath, "queue", "show", "1")
	if err != nil {
		t.Fatalf("queue show: %v\n%s", err, out)
	}
	if !strings.Contains(out, "First Light") || !strings.Contains(out, mediaPath) {
		t.Fatalf("queue show missing details: %q", out)
	}
}

func TestSubmitRejectsUnsupportedFile(t *testing.T) {
	configPath, base := writeTestConfig(t)

	textPath := filepath.Join(base, "notes.txt")
	if err := os.WriteFile(textPath, []byte("not audio"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	out, err := runCommand(t, "--config", configPath, "submit", textPath)
	if err == nil {
		t.Fatalf("expected submit to fail, output: %q", out)
	}
	if !strings.Contains(err.Error(), "unsupported media extension") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueueClearAndHealthCommands(t *testing.T) {
	configPath, base := writeTestConfig(t)

	mediaPath := filepath.Join(base, "loop.wav")
	if err := os.WriteFile(mediaPath, []byte("waveform"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	if out, err := runCommand(t, "--config", configPath, "submit", mediaPath); err != nil {
		t.Fatalf("submit: %v\n%s", err, out)
	}

	out, err := runCommand(t, "--config", configPath, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Removed 1 work(s)") {
		t.Fatalf("unexpected clear output: %q", out)
	}

	out, err = runCommand(t, "--config", configPath, "queue", "health")
	if err != nil {
		t.Fatalf("queue health: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Total:      0") {
		t.Fatalf("unexpected health output: %q", out)
	}
}

func TestConfigInitCommand(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatalf("second init without --overwrite must fail")
	}
	if out, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite init: %v\n%s", err, out)
	}
}
