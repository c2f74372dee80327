package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/xvenuelabs/hyperarb/internal/domain"
)

type fakeUploader struct {
	paths     []string
	payloads  [][]byte
	multipart int
}

func (f *fakeUploader) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.paths = append(f.paths, path)
	f.payloads = append(f.payloads, buf)
	return nil
}

func (f *fakeUploader) PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error {
	f.multipart++
	return f.Put(ctx, path, data, "")
}

type fakeJournal struct {
	reports []domain.ExecutionReport
}

func (f *fakeJournal) Insert(ctx context.Context, r domain.ExecutionReport) error { return nil }
func (f *fakeJournal) ListRecent(ctx context.Context, limit int) ([]domain.ExecutionReport, error) {
	return nil, nil
}
func (f *fakeJournal) SumFeesUsd(ctx context.Context, since time.Time) (float64, error) {
	return 0, nil
}
func (f *fakeJournal) ListDay(ctx context.Context, day time.Time) ([]domain.ExecutionReport, error) {
	return f.reports, nil
}

func TestArchiveDayWritesJSONL(t *testing.T) {
	day := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	journal := &fakeJournal{reports: []domain.ExecutionReport{
		{ID: "r1", OrderID: "o1", Strategy: "hype_usdc", Outcome: domain.OutcomeFilled},
		{ID: "r2", OrderID: "o2", Strategy: "hype_usdc", Outcome: domain.OutcomeOneSided},
	}}
	up := &fakeUploader{}
	a := NewArchiver(up, journal, slog.New(slog.NewTextHandler(io.Discard, nil)))

	count, err := a.ArchiveDay(context.Background(), day)
	if err != nil {
		t.Fatalf("archive day: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if len(up.paths) != 1 || up.paths[0] != "executions/2026-08-29.jsonl" {
		t.Fatalf("paths = %v", up.paths)
	}
	if up.multipart != 0 {
		t.Error("small archive must not use multipart")
	}

	lines := bytes.Split(bytes.TrimSpace(up.payloads[0]), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("jsonl lines = %d, want 2", len(lines))
	}
	var first domain.ExecutionReport
	if err := json.Unmarshal(lines[0], &first); err != nil {
		t.Fatalf("unmarshal line: %v", err)
	}
	if first.ID != "r1" {
		t.Errorf("first record = %q, want r1", first.ID)
	}
}

func TestArchiveDayEmpty(t *testing.T) {
	up := &fakeUploader{}
	a := NewArchiver(up, &fakeJournal{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	count, err := a.ArchiveDay(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("archive day: %v", err)
	}
	if count != 0 {
		t.Fatalf("count = %d, want 0", count)
	}
	if len(up.paths) != 0 {
		t.Fatal("empty day must not upload")
	}
}
