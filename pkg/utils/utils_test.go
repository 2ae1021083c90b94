package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	if a == b {
		t.Fatal("ids should differ")
	}
	if !ValidID(a) || len(a) != 36 {
		t.Errorf("bad id %q", a)
	}
	if ValidID("not-a-uuid") {
		t.Error("ValidID accepted garbage")
	}
}

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	if err := MakeDir(filepath.Join(dir, "a", "b")); err != nil {
		t.Fatalf("MakeDir: %v", err)
	}
	src := filepath.Join(dir, "a", "b", "x.wav")
	if err := os.WriteFile(src, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "y.wav")
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("dst missing: %v", err)
	}
	if err := MoveFile(src, dst); err == nil {
		t.Error("moving a missing file should fail")
	}
	if err := DeleteDir(filepath.Join(dir, "a")); err != nil {
		t.Errorf("DeleteDir: %v", err)
	}
}

func TestWorkDir(t *testing.T) {
	dir, cleanup, err := WorkDir("tuner-test-")
	if err != nil {
		t.Fatalf("WorkDir: %v", err)
	}
	nested := filepath.Join(dir, "out", "cues.wav")
	if err := EnsureParent(nested); err != nil {
		t.Fatalf("EnsureParent: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(nested)); err != nil {
		t.Errorf("parent missing: %v", err)
	}
	cleanup()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("work dir still present: %v", err)
	}
}
