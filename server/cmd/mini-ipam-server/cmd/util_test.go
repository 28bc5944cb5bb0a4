package cmd

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = prev })
	return &buf
}

func TestExecuteUtil_Dispatch(t *testing.T) {
	if err := ExecuteUtil(nil); err == nil || !strings.Contains(err.Error(), "verify-collections") {
		t.Fatalf("expected usage error, got %v", err)
	}
	if err := ExecuteUtil([]string{"prune-everything"}); err == nil {
		t.Fatal("expected unknown subcommand error")
	}
}

func TestTokenCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ipam.db")
	out := captureStdout(t)

	if err := ExecuteCreateToken([]string{"-db", db, "-secret", testSecret, "-name", "ci"}); err != nil {
		t.Fatalf("create-token: %v", err)
	}
	plain := regexp.MustCompile(`mipam_[A-Za-z0-9_-]+`).FindString(out.String())
	if plain == "" {
		t.Fatalf("token not printed: %s", out.String())
	}

	out.Reset()
	if err := ExecuteVerifyToken([]string{"-db", db, "-secret", testSecret, "-token", plain}); err != nil {
		t.Fatalf("verify-token: %v", err)
	}
	if !strings.Contains(out.String(), "SUCCESSFUL") {
		t.Fatalf("unexpected output: %s", out.String())
	}

	if err := ExecuteVerifyToken([]string{"-db", db, "-secret", "another-secret-another-secret-xx", "-token", plain}); err == nil {
		t.Fatal("expected failure with a different secret")
	}

	if err := ExecuteRevokeToken([]string{"-db", db, "-secret", testSecret, "-name", "ci"}); err != nil {
		t.Fatalf("revoke-token: %v", err)
	}
	if err := ExecuteVerifyToken([]string{"-db", db, "-secret", testSecret, "-token", plain}); err == nil {
		t.Fatal("expected failure after revoke")
	}
}

func TestTokenCommands_RequireSecret(t *testing.T) {
	t.Setenv("MINI_IPAM_HMAC_SECRET", "")
	db := filepath.Join(t.TempDir(), "ipam.db")
	if err := ExecuteCreateToken([]string{"-db", db, "-name", "ci"}); err == nil {
		t.Fatal("expected missing secret error")
	}
}

func TestVerifyCollections_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ipam.db")
	out := captureStdout(t)

	if err := ExecuteVerifyCollections([]string{"-db", db}); err != nil {
		t.Fatalf("verify-collections: %v", err)
	}
	if !strings.Contains(out.String(), "consistent") || !strings.Contains(out.String(), "192.168.0.0/16") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestCompactDB(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ipam.db")
	out := captureStdout(t)

	if err := ExecuteCompactDB([]string{"-db", db}); err != nil {
		t.Fatalf("compact-db: %v", err)
	}
	if !strings.Contains(out.String(), "collections:") {
		t.Fatalf("unexpected output: %s", out.String())
	}
}

func TestHumanBytes(t *testing.T) {
	for n, want := range map[int64]string{512: "512 B", 4096: "4.00 KiB", 3 << 20: "3.00 MiB"} {
		if got := humanBytes(n); got != want {
			t.Errorf("humanBytes(%d) = %q, want %q", n, got, want)
		}
	}
}
