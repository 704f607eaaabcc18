// Package rollout implements the Rollout Recorder: an append-only JSONL
// writer/reader for session transcripts, grounded on
// original_source/src/core/memory/rollout_recorder.py.
package rollout

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/xushun007/agentcore/internal/model"
)

// Recorder writes session_meta/message/compacted lines to a single JSONL
// file, one file per session, opened in append mode so a resumed session
// picks up where it left off.
type Recorder struct {
	path string
	file *os.File
	w    *bufio.Writer
}

// PathFor builds the conventional rollout file path for a session,
// grounded on the teacher's tape-file naming and the Python reference's
// "rollout-*.jsonl" glob in list_sessions.
func PathFor(dir, sessionID string) string {
	return filepath.Join(dir, fmt.Sprintf("rollout-%s.jsonl", sessionID))
}

// NewSessionID generates a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Open opens (creating if necessary) the rollout file for append.
func Open(path string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("rollout: create directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("rollout: open %s: %w", path, err)
	}
	return &Recorder{path: path, file: f, w: bufio.NewWriter(f)}, nil
}

// Close flushes and closes the underlying file.
func (r *Recorder) Close() error {
	if err := r.w.Flush(); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// Path returns the file path this recorder writes to.
func (r *Recorder) Path() string { return r.path }

// WriteSessionMeta writes the session header line. Callers write this once,
// as the first line of a new session's rollout.
func (r *Recorder) WriteSessionMeta(meta model.SessionMeta) error {
	return r.appendLine(model.RolloutLine{
		Timestamp: time.Now(),
		Type:      model.RolloutSessionMeta,
		Meta:      &meta,
	})
}

// WriteMessage appends a message line.
func (r *Recorder) WriteMessage(msg model.Message) error {
	return r.appendLine(model.RolloutLine{
		Timestamp: time.Now(),
		Type:      model.RolloutMessage,
		Message:   &msg,
	})
}

// WriteCompactedMarker appends a compaction marker line.
func (r *Recorder) WriteCompactedMarker(marker model.CompactedMarker) error {
	return r.appendLine(model.RolloutLine{
		Timestamp: time.Now(),
		Type:      model.RolloutCompacted,
		Compacted: &marker,
	})
}

func (r *Recorder) appendLine(line model.RolloutLine) error {
	raw, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("rollout: marshal line: %w", err)
	}
	if _, err := r.w.Write(raw); err != nil {
		return fmt.Errorf("rollout: write line: %w", err)
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return err
	}
	return r.w.Flush()
}

// LoadHistory replays a rollout file into its SessionMeta header and the
// resulting message list, applying the same compaction-marker semantics as
// the Python reference: a compacted marker clears prior non-system messages
// and appends a synthetic system message carrying the summary.
func LoadHistory(path string) (model.SessionMeta, []model.Message, error) {
	var meta model.SessionMeta
	var haveMeta bool
	var messages []model.Message

	f, err := os.Open(path)
	if err != nil {
		return meta, nil, fmt.Errorf("rollout: open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}

		var line model.RolloutLine
		if err := json.Unmarshal(text, &line); err != nil {
			continue
		}

		switch line.Type {
		case model.RolloutSessionMeta:
			if line.Meta != nil {
				meta = *line.Meta
				haveMeta = true
			}
		case model.RolloutMessage:
			if line.Message != nil {
				messages = append(messages, *line.Message)
			}
		case model.RolloutCompacted:
			if line.Compacted == nil {
				continue
			}
			marker := line.Compacted
			var systemMsgs []model.Message
			for _, m := range messages {
				if m.Role == model.RoleSystem {
					systemMsgs = append(systemMsgs, m)
				}
			}
			summary := model.Message{
				Role:      model.RoleSystem,
				Content:   fmt.Sprintf("[compacted summary - %d prior messages]\n%s", marker.OriginalCount, marker.Summary),
				Timestamp: line.Timestamp,
			}
			summary.SetMeta(model.MetaCompressed, true)
			summary.SetMeta(model.MetaCompactedAt, line.Timestamp)
			messages = append(systemMsgs, summary)
		}
	}
	if err := scanner.Err(); err != nil {
		return meta, nil, fmt.Errorf("rollout: scan %s: %w", path, err)
	}
	if !haveMeta {
		return meta, nil, fmt.Errorf("rollout: %s: missing session_meta line", path)
	}
	return meta, messages, nil
}

// SessionFile pairs a rollout path with the session metadata read from it.
type SessionFile struct {
	Path string
	Meta model.SessionMeta
}

// ListSessions scans dir for "rollout-*.jsonl" files, reading only the
// first line of each for its metadata header, sorted newest-first.
func ListSessions(dir string) ([]SessionFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sessions []SessionFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if ok, _ := filepath.Match("rollout-*.jsonl", name); !ok {
			continue
		}
		path := filepath.Join(dir, name)
		meta, ok := readFirstLineMeta(path)
		if !ok {
			continue
		}
		sessions = append(sessions, SessionFile{Path: path, Meta: meta})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Meta.CreatedAt.After(sessions[j].Meta.CreatedAt)
	})
	return sessions, nil
}

func readFirstLineMeta(path string) (model.SessionMeta, bool) {
	var meta model.SessionMeta
	f, err := os.Open(path)
	if err != nil {
		return meta, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return meta, false
	}
	var line model.RolloutLine
	if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
		return meta, false
	}
	if line.Type != model.RolloutSessionMeta || line.Meta == nil {
		return meta, false
	}
	return *line.Meta, true
}
