package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// StateFile handles the disk I/O for the checkout record.
type StateFile struct {
	Path string
}

// NewStateFile returns a handle on path, creating its directory if needed.
func NewStateFile(path string) (*StateFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return &StateFile{Path: path}, nil
}

// Init writes a free record if the file does not exist yet.
func (s *StateFile) Init(at time.Time) (bool, error) {
	_, err := os.Stat(s.Path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	return true, s.Write("", at)
}

// Read parses the last line of the file.
func (s *StateFile) Read() (LockState, error) {
	content, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return LockState{}, fmt.Errorf("%w: %s", ErrStateMissing, s.Path)
		}
		return LockState{}, err
	}

	lines := strings.Split(strings.TrimRight(string(content), "\r\n"), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return LockState{}, fmt.Errorf("%w: %s is empty", ErrCorruptState, s.Path)
	}

	// Display names may contain commas; timestamps never do
	i := strings.LastIndex(last, ",")
	if i < 0 {
		return LockState{}, fmt.Errorf("%w: %s: expected holder,timestamp got %q", ErrCorruptState, s.Path, last)
	}
	holder, stamp := last[:i], last[i+1:]
	if holder == NoHolder {
		return LockState{}, nil
	}
	since, err := ParseTimestamp(stamp)
	if err != nil {
		return LockState{}, fmt.Errorf("%w: %s: %v", ErrCorruptState, s.Path, err)
	}
	return LockState{Holder: holder, Since: since}, nil
}

// Write replaces the file with a single holder,timestamp line.
// An empty holder is stored as NoHolder.
func (s *StateFile) Write(holder string, at time.Time) error {
	if holder == "" {
		holder = NoHolder
	}
	line := holder + "," + FormatTimestamp(at)

	// Write to a temporary file first, then rename over the original so a
	// reader never sees a half-written record.
	tempPath := s.Path + ".tmp"
	if err := os.WriteFile(tempPath, []byte(line), 0644); err != nil {
		return err
	}
	return os.Rename(tempPath, s.Path)
}

// UsageEntry is one line of the usage log.
type UsageEntry struct {
	Actor string
	At    time.Time
	Text  string
}

// UsageLog is the append-only audit trail of recognized commands.
type UsageLog struct {
	Path string
	mu   sync.Mutex
}

// NewUsageLog returns a handle on path, creating its directory if needed.
func NewUsageLog(path string) (*UsageLog, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return &UsageLog{Path: path}, nil
}

// lineBreaks keeps one message on one log line.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Append adds actor,timestamp,text as a new line. Line breaks in text become
// spaces. An empty actor is skipped.
func (u *UsageLog) Append(actor string, at time.Time, text string) error {
	if actor == "" {
		return nil
	}
	text = lineBreaks.Replace(text)

	u.mu.Lock()
	defer u.mu.Unlock()

	f, err := os.OpenFile(u.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open usage log: %w", err)
	}
	defer f.Close()

	line := strings.Join([]string{actor, FormatTimestamp(at), text}, ",") + "\n"
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append usage log: %w", err)
	}
	return nil
}

// Tail returns up to n of the most recent entries, oldest first.
// Lines that cannot be parsed are skipped.
func (u *UsageLog) Tail(n int) ([]UsageEntry, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	f, err := os.Open(u.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []UsageEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), ",", 3)
		if len(parts) < 3 {
			continue
		}
		at, err := ParseTimestamp(parts[1])
		if err != nil {
			continue
		}
		entries = append(entries, UsageEntry{Actor: parts[0], At: at, Text: parts[2]})
		if n > 0 && len(entries) > n {
			entries = entries[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
