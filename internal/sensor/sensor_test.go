package sensor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/5TUM8L3/vigia-fogo/internal/severity"
)

func TestFileReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in_voltage0_raw")
	if err := os.WriteFile(path, []byte("742\n"), 0644); err != nil {
		t.Fatal(err)
	}
	r := &FileReader{Path: path}
	v, err := r.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v != 742 {
		t.Errorf("Read = %d, want 742", v)
	}
}

func TestFileReaderClampsRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw")
	if err := os.WriteFile(path, []byte("70000"), 0644); err != nil {
		t.Fatal(err)
	}
	r := &FileReader{Path: path}
	if v, err := r.Read(); err != nil || v != severity.MaxReading {
		t.Errorf("Read = %d, %v; want clamp to %d", v, err, severity.MaxReading)
	}
}

func TestFileReaderErrors(t *testing.T) {
	r := &FileReader{Path: filepath.Join(t.TempDir(), "missing")}
	if _, err := r.Read(); err == nil {
		t.Error("missing channel file should fail")
	}
	path := filepath.Join(t.TempDir(), "raw")
	if err := os.WriteFile(path, []byte("not a number"), 0644); err != nil {
		t.Fatal(err)
	}
	r = &FileReader{Path: path}
	if _, err := r.Read(); err == nil {
		t.Error("garbage channel content should fail")
	}
}

func TestSimulatedScript(t *testing.T) {
	s := &Simulated{Script: []int{400, 1500, 3500}}
	want := []int{400, 1500, 3500, 400}
	for i, w := range want {
		v, err := s.Read()
		if err != nil || v != w {
			t.Errorf("read %d = %d, %v; want %d", i, v, err, w)
		}
	}
	calm := &Simulated{}
	if v, _ := calm.Read(); v != severity.MaxReading {
		t.Errorf("empty script should read calm, got %d", v)
	}
}
