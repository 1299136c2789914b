package data

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FSReportStore writes report artifacts into a filesystem bucket using the
// {year}/{month}/{name} path convention.
type FSReportStore struct {
	root   string
	bucket string
	logger *slog.Logger
	now    func() time.Time
}

// NewFSReportStore creates a report store rooted at root/bucket.
func NewFSReportStore(root, bucket string, logger *slog.Logger) *FSReportStore {
	if logger != nil {
		logger = logger.With("component", "report_store")
	}
	return &FSReportStore{root: root, bucket: bucket, logger: logger, now: time.Now}
}

// Save writes the artifact bytes and returns its storage path relative to the
// bucket, e.g. "2026/08/<job_id>.pdf". The write is atomic (temp file plus
// rename) so a crashed upload never leaves a partial artifact behind.
func (s *FSReportStore) Save(ctx context.Context, name string, contents []byte) (string, error) {
	now := s.now().UTC()
	storagePath := fmt.Sprintf("%04d/%02d/%s", now.Year(), int(now.Month()), name)
	fullPath := filepath.Join(s.root, s.bucket, filepath.FromSlash(storagePath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".report-tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(contents); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", fmt.Errorf("write artifact %s: %w", storagePath, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", fmt.Errorf("close artifact %s: %w", storagePath, err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		cleanup()
		return "", fmt.Errorf("rename artifact %s: %w", storagePath, err)
	}
	if err := os.Chmod(fullPath, 0o644); err != nil {
		return "", fmt.Errorf("chmod artifact %s: %w", storagePath, err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "artifact saved",
			"path", storagePath,
			"size_bytes", len(contents),
		)
	}

	return storagePath, nil
}
