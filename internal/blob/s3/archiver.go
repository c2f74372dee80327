package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xvenuelabs/hyperarb/internal/domain"
)

// multipartThreshold switches an archive upload to the multipart path. Daily
// files rarely cross it; a busy day with a fat error column can.
const multipartThreshold = 64 * 1024 * 1024

// uploader is the slice of Writer the archiver needs.
type uploader interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// Archiver copies each finished UTC day of the execution journal to object
// storage as JSONL at executions/YYYY-MM-DD.jsonl. Uploads are idempotent;
// re-archiving a day overwrites the same key.
type Archiver struct {
	writer  uploader
	journal domain.ExecutionJournal
	logger  *slog.Logger
}

// NewArchiver creates an archiver reading from the journal and writing
// through the writer.
func NewArchiver(writer uploader, journal domain.ExecutionJournal, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer:  writer,
		journal: journal,
		logger:  logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveDay uploads every report from the UTC day containing day and
// returns the record count. A day with no executions uploads nothing.
func (a *Archiver) ArchiveDay(ctx context.Context, day time.Time) (int64, error) {
	reports, err := a.journal.ListDay(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive day query: %w", err)
	}
	if len(reports) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(reports)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive day marshal: %w", err)
	}

	path := archivePath(day)
	if len(buf) > multipartThreshold {
		err = a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	} else {
		err = a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive day upload: %w", err)
	}

	a.logger.InfoContext(ctx, "day archived",
		slog.String("path", path),
		slog.Int("records", len(reports)),
	)
	return int64(len(reports)), nil
}

// Run archives the previous UTC day shortly after each midnight until the
// context ends. Failures are logged and retried at the next boundary; the
// journal still holds the data.
func (a *Archiver) Run(ctx context.Context) error {
	for {
		now := time.Now().UTC()
		next := now.Truncate(24 * time.Hour).Add(24*time.Hour + 5*time.Minute)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(next.Sub(now)):
		}

		day := time.Now().UTC().AddDate(0, 0, -1)
		if _, err := a.ArchiveDay(ctx, day); err != nil {
			a.logger.ErrorContext(ctx, "archive failed",
				slog.String("day", day.Format("2006-01-02")),
				slog.String("error", err.Error()),
			)
		}
	}
}

// archivePath partitions archives by UTC day:
//
//	executions/2026-08-29.jsonl
func archivePath(day time.Time) string {
	return fmt.Sprintf("executions/%s.jsonl", day.UTC().Format("2006-01-02"))
}

// marshalJSONL renders records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
