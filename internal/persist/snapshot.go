package persist

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/tilerealm/engine/internal/world"
)

const snapshotVersion = 1

type SnapshotHeader struct {
	Version int    `json:"version"`
	Level   string `json:"level"`
	Tick    uint64 `json:"tick"`
}

// Snapshot is the on-disk form: a JSON header line followed by a JSON body,
// zstd-compressed together.
type Snapshot struct {
	Header SnapshotHeader     `json:"header"`
	Agents []world.AgentState `json:"agents"`
}

// SnapshotWriter writes compressed tick snapshots into a directory.
type SnapshotWriter struct {
	dir   string
	level zstd.EncoderLevel
	log   *zap.Logger
}

// NewSnapshotWriter creates dir if needed. level is a zstd level; values
// outside 1-4 fall back to the default speed.
func NewSnapshotWriter(dir string, level int, log *zap.Logger) (*SnapshotWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	lv := zstd.SpeedDefault
	if level >= 1 && level <= 4 {
		lv = zstd.EncoderLevel(level)
	}
	return &SnapshotWriter{dir: dir, level: lv, log: log}, nil
}

// Path returns the file a snapshot for tick is written to.
func (w *SnapshotWriter) Path(tick uint64) string {
	return filepath.Join(w.dir, fmt.Sprintf("tick-%010d.json.zst", tick))
}

// Write stores states for tick and returns the file path. The file appears
// atomically: it is written under a temporary name and renamed.
func (w *SnapshotWriter) Write(tick uint64, level string, states []world.AgentState) (string, error) {
	path := w.Path(tick)
	tmp := path + ".tmp"
	snap := Snapshot{
		Header: SnapshotHeader{Version: snapshotVersion, Level: level, Tick: tick},
		Agents: states,
	}
	if err := writeSnapshot(tmp, snap, w.level); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("write snapshot %d: %w", tick, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("publish snapshot %d: %w", tick, err)
	}
	w.log.Debug("snapshot written", zap.Uint64("tick", tick), zap.Int("agents", len(states)), zap.String("path", path))
	return path, nil
}

func writeSnapshot(path string, snap Snapshot, level zstd.EncoderLevel) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(level))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 64*1024)

	hb, err := json.Marshal(snap.Header)
	if err != nil {
		enc.Close()
		return err
	}
	bw.Write(hb)
	bw.WriteByte('\n')
	if err := json.NewEncoder(bw).Encode(snap.Agents); err != nil {
		enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadSnapshot decodes a file written by SnapshotWriter.
func ReadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &snap.Header); err != nil {
		return snap, fmt.Errorf("decode header: %w", err)
	}
	if snap.Header.Version != snapshotVersion {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	if err := json.NewDecoder(br).Decode(&snap.Agents); err != nil {
		return snap, fmt.Errorf("json decode: %w", err)
	}
	return snap, nil
}
