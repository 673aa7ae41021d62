// Author: momentics <momentics@gmail.com>

package logwriter

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/momentics/gammacore/api"
	"github.com/momentics/gammacore/gammaconfig"
	"github.com/momentics/gammacore/stats"
)

func testMeta() SessionMeta {
	return SessionMeta{
		SessionID: "test-session",
		StartedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Calibration: api.CalibrationInfo{
			CPF: 1_000_000, CPT: 1_000_000, Serial: "FT12345", Firmware: "1.2.3",
		},
		Units:     gammaconfig.UnitsConfig{Force: gammaconfig.ForceUnitN, Torque: gammaconfig.TorqueUnitNm},
		Filtering: gammaconfig.FilteringConfig{Enabled: false},
		BiasMode:  gammaconfig.BiasModeSoft,
	}
}

func listPartFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, filepath.Join(dir, e.Name()))
	}
	sort.Strings(names)
	return names
}

// countDataRows reads a part file and returns the number of rows after
// the metadata block and column header, and whether it started with a
// metadata line and a header row.
func countDataRows(t *testing.T, path string) (rows int, hasMeta bool, hasHeader bool) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	seenHeader := false
	for sc.Scan() {
		line := sc.Text()
		line = strings.TrimPrefix(line, "﻿")
		if strings.HasPrefix(line, "#") {
			hasMeta = true
			continue
		}
		if line == "" {
			continue
		}
		if !seenHeader {
			if strings.Contains(line, "timestamp_utc") {
				hasHeader = true
				seenHeader = true
				continue
			}
		}
		rows++
	}
	return rows, hasMeta, hasHeader
}

func TestWriter_S3RotationBySize(t *testing.T) {
	dir := t.TempDir()
	cfg := gammaconfig.LoggingConfig{
		OutputDir:         dir,
		FilenamePrefix:    "ft",
		Format:            gammaconfig.FormatCSV,
		FlushIntervalMs:   10,
		DecimationFactor:  1,
		RotationEnabled:   true,
		RotationSizeBytes: 1024,
		BatchSize:         50,
		QueueCapacity:     1000,
	}
	reg := stats.NewRegistry()
	w := NewWriter(cfg, testMeta(), reg, time.Unix(0, 0))
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	const total = 200
	for i := 0; i < total; i++ {
		rec := api.SampleRecord{
			TMonoNs:     int64(i) * int64(time.Millisecond),
			RDTSequence: uint32(i),
			FTSequence:  uint32(i),
			Counts:      [6]int32{1, 2, 3, 4, 5, 6},
			ForceN:      [3]float64{0.1, 0.2, 0.3},
			TorqueNm:    [3]float64{0.01, 0.02, 0.03},
		}
		if !w.Enqueue(rec) {
			t.Fatalf("Enqueue dropped sample %d unexpectedly", i)
		}
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	files := listPartFiles(t, dir)
	if len(files) < 2 {
		t.Fatalf("expected >= 2 parts, got %d: %v", len(files), files)
	}

	totalRows := 0
	for _, f := range files {
		rows, hasMeta, hasHeader := countDataRows(t, f)
		if !hasMeta {
			t.Errorf("part %s missing metadata block", f)
		}
		if !hasHeader {
			t.Errorf("part %s missing column header", f)
		}
		totalRows += rows
	}
	if totalRows != total {
		t.Fatalf("total data rows across parts = %d, want %d", totalRows, total)
	}
}

func TestWriter_P7RowsMatchWrittenMinusDropped(t *testing.T) {
	dir := t.TempDir()
	cfg := gammaconfig.LoggingConfig{
		OutputDir:        dir,
		FilenamePrefix:   "ft",
		Format:           gammaconfig.FormatCSV,
		FlushIntervalMs:  5,
		DecimationFactor: 1,
		RotationEnabled:  false,
		BatchSize:        10,
		QueueCapacity:    20,
	}
	reg := stats.NewRegistry()
	w := NewWriter(cfg, testMeta(), reg, time.Unix(0, 0))
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	const attempted = 500
	written := 0
	for i := 0; i < attempted; i++ {
		rec := api.SampleRecord{RDTSequence: uint32(i)}
		if w.Enqueue(rec) {
			written++
		}
		if i%10 == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	time.Sleep(50 * time.Millisecond)
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	files := listPartFiles(t, dir)
	totalRows := 0
	for _, f := range files {
		rows, _, _ := countDataRows(t, f)
		totalRows += rows
	}
	if totalRows != written {
		t.Fatalf("rows on disk = %d, want %d (attempted=%d)", totalRows, written, attempted)
	}
}

func TestWriter_P8ExcelBOMAndCRLF(t *testing.T) {
	dir := t.TempDir()
	cfg := gammaconfig.LoggingConfig{
		OutputDir:        dir,
		FilenamePrefix:   "ft",
		Format:           gammaconfig.FormatExcelCompatible,
		FlushIntervalMs:  5,
		DecimationFactor: 1,
		RotationEnabled:  false,
		BatchSize:        10,
		QueueCapacity:    100,
	}
	w := NewWriter(cfg, testMeta(), nil, time.Unix(0, 0))
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		w.Enqueue(api.SampleRecord{RDTSequence: uint32(i)})
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}

	files := listPartFiles(t, dir)
	if len(files) != 1 {
		t.Fatalf("expected 1 part, got %d", len(files))
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, excelBOM) {
		t.Fatalf("excel_compatible file does not start with UTF-8 BOM")
	}
	body := data[len(excelBOM):]
	if !bytes.Contains(body, []byte("\r\n")) {
		t.Fatalf("excel_compatible file does not use CRLF line endings")
	}
	// Every line ending, including the '#' metadata header block, must be
	// CRLF: a bare '\n' not preceded by '\r' means mixed endings.
	for i, b := range body {
		if b == '\n' && (i == 0 || body[i-1] != '\r') {
			t.Fatalf("excel_compatible file has a bare LF at offset %d, endings are mixed", i)
		}
	}
}

// TestWriter_RotationFailureStops forces the rotation policy to trigger
// while the output directory has been replaced by a plain file, so opening
// the next part fails. The writer must stop itself and flag the failure
// as a rotation failure rather than a plain write failure.
func TestWriter_RotationFailureStops(t *testing.T) {
	dir := t.TempDir()
	outputDir := filepath.Join(dir, "parts")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := gammaconfig.LoggingConfig{
		OutputDir:         outputDir,
		FilenamePrefix:    "ft",
		Format:            gammaconfig.FormatCSV,
		FlushIntervalMs:   5,
		DecimationFactor:  1,
		RotationEnabled:   true,
		RotationSizeBytes: 1,
		BatchSize:         1,
		QueueCapacity:     100,
	}
	w := NewWriter(cfg, testMeta(), nil, time.Unix(0, 0))
	if err := w.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if !w.Enqueue(api.SampleRecord{RDTSequence: 1}) {
		t.Fatal("first enqueue unexpectedly dropped")
	}
	time.Sleep(50 * time.Millisecond)

	// Replace the output directory with a plain file: every subsequent
	// os.OpenFile for a new part now fails with ENOTDIR.
	if err := os.RemoveAll(outputDir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(outputDir, []byte("not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}
	defer os.Remove(outputDir)

	w.Enqueue(api.SampleRecord{RDTSequence: 2})

	deadline := time.After(2 * time.Second)
	for !w.Stopped() {
		select {
		case <-deadline:
			t.Fatal("writer never stopped after rotation failure")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if !w.RotationFailed() {
		t.Fatalf("Stopped() = true but RotationFailed() = false, want a rotation failure")
	}
	if w.LastError() == nil {
		t.Fatal("LastError() = nil after a rotation failure")
	}
	if w.Enqueue(api.SampleRecord{RDTSequence: 3}) {
		t.Fatal("Enqueue() succeeded after the writer stopped")
	}
}
