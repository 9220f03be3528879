package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStateFile_InitAndRead(t *testing.T) {
	sf, err := NewStateFile(filepath.Join(t.TempDir(), "data", "checkout.log"))
	if err != nil {
		t.Fatalf("NewStateFile failed: %v", err)
	}

	created, err := sf.Init(time.Now())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if !created {
		t.Error("Expected Init to create the file")
	}

	state, err := sf.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !state.Free() || !state.Since.IsZero() {
		t.Errorf("Expected free state, got %+v", state)
	}

	// A second Init must not clobber an existing record
	if err := sf.Write("Alice", time.Now()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	created, err = sf.Init(time.Now())
	if err != nil || created {
		t.Errorf("Expected no-op Init, got created=%v err=%v", created, err)
	}
	state, _ = sf.Read()
	if state.Holder != "Alice" {
		t.Errorf("Expected Alice to survive Init, got %q", state.Holder)
	}
}

func TestStateFile_WriteIsSingleLine(t *testing.T) {
	sf, _ := NewStateFile(filepath.Join(t.TempDir(), "checkout.log"))
	at := time.Date(2024, 3, 1, 9, 30, 15, 123456000, time.Local)

	sf.Write("Alice", at)
	sf.Write("Bob", at)

	content, err := os.ReadFile(sf.Path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(content) != "Bob,2024-03-01T09:30:15.123456" {
		t.Errorf("Unexpected file content %q", content)
	}

	state, err := sf.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if state.Holder != "Bob" || !state.Since.Equal(at) {
		t.Errorf("Expected Bob at %v, got %+v", at, state)
	}
}

func TestStateFile_ReadsLastLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkout.log")
	os.WriteFile(path, []byte("Alice,2024-03-01T09:00:00\nNone,2024-03-01T10:00:00.000001\n"), 0644)

	sf, _ := NewStateFile(path)
	state, err := sf.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if !state.Free() {
		t.Errorf("Expected last line to win, got %+v", state)
	}
}

func TestStateFile_HolderWithComma(t *testing.T) {
	sf, _ := NewStateFile(filepath.Join(t.TempDir(), "checkout.log"))
	sf.Write("Liddell, Alice", time.Now())

	state, err := sf.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if state.Holder != "Liddell, Alice" {
		t.Errorf("Expected full name, got %q", state.Holder)
	}
}

func TestStateFile_Errors(t *testing.T) {
	dir := t.TempDir()

	missing, _ := NewStateFile(filepath.Join(dir, "missing.log"))
	if _, err := missing.Read(); !errors.Is(err, ErrStateMissing) {
		t.Errorf("Expected ErrStateMissing, got %v", err)
	}

	cases := map[string]string{
		"empty":         "",
		"no-comma":      "Alice",
		"bad-timestamp": "Alice,yesterday",
	}
	for name, content := range cases {
		path := filepath.Join(dir, name+".log")
		os.WriteFile(path, []byte(content), 0644)
		sf, _ := NewStateFile(path)
		if _, err := sf.Read(); !errors.Is(err, ErrCorruptState) {
			t.Errorf("%s: expected ErrCorruptState, got %v", name, err)
		}
	}
}

func TestParseTimestamp_Layouts(t *testing.T) {
	for _, s := range []string{
		"2024-03-01T09:30:15.123456",
		"2024-03-01T09:30:15",
		"2024-03-01T09:30:15Z",
		"2024-03-01T09:30:15.5+02:00",
	} {
		if _, err := ParseTimestamp(s); err != nil {
			t.Errorf("ParseTimestamp(%q) failed: %v", s, err)
		}
	}
}

func TestElapsedMinutes(t *testing.T) {
	cases := map[time.Duration]string{
		0:                                     "0.0",
		5 * time.Minute:                       "5.0",
		90*time.Second + 900*time.Millisecond: "1.5",
		2*time.Hour + 6*time.Second:           "120.1",
		-time.Second:                          "0.0",
	}
	for d, want := range cases {
		if got := ElapsedMinutes(d); got != want {
			t.Errorf("ElapsedMinutes(%v) = %s, want %s", d, got, want)
		}
	}
}

func TestUsageLog_AppendAndTail(t *testing.T) {
	ul, err := NewUsageLog(filepath.Join(t.TempDir(), "usage.log"))
	if err != nil {
		t.Fatalf("NewUsageLog failed: %v", err)
	}

	entries, err := ul.Tail(10)
	if err != nil || len(entries) != 0 {
		t.Fatalf("Expected empty tail before first write, got %v, %v", entries, err)
	}

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)
	ul.Append("Alice", at, "alphabot checkout")
	ul.Append("", at, "alphabot status")
	ul.Append("Bob", at.Add(time.Minute), "alphabot status, please")

	content, _ := os.ReadFile(ul.Path)
	want := "Alice,2024-03-01T09:00:00.000000,alphabot checkout\n" +
		"Bob,2024-03-01T09:01:00.000000,alphabot status, please\n"
	if string(content) != want {
		t.Errorf("Unexpected usage log:\n%s", content)
	}

	entries, err = ul.Tail(1)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Actor != "Bob" || entries[0].Text != "alphabot status, please" {
		t.Errorf("Unexpected tail %+v", entries)
	}

	entries, _ = ul.Tail(0)
	if len(entries) != 2 {
		t.Errorf("Expected all 2 entries, got %d", len(entries))
	}
}

func TestUsageLog_MultilineTextStaysOneEntry(t *testing.T) {
	ul, _ := NewUsageLog(filepath.Join(t.TempDir(), "usage.log"))
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.Local)

	if err := ul.Append("Alice", at, "alphabot checkout\nfor the\r\nthermal test\r"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	ul.Append("Bob", at, "alphabot status")

	entries, err := ul.Tail(0)
	if err != nil {
		t.Fatalf("Tail failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %+v", entries)
	}
	if entries[0].Text != "alphabot checkout for the thermal test " {
		t.Errorf("Unexpected text %q", entries[0].Text)
	}
}
