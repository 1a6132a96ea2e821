// Package storage archives generated call reports in an S3-compatible object store.
package storage

import (
	"context"
	"io"
	"path"
	"time"
)

// ReportPrefix is the key prefix under which all call reports are archived.
const ReportPrefix = "reports"

// ReportKey returns the archive key of a report file for one agent and day.
func ReportKey(agentID, date, filename string) string {
	return path.Join(ReportPrefix, agentID, date, filename)
}

// PutObjectOptions describe an upload. Size must be the exact byte count.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo is what the archive reports back after an upload.
type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
}

// Storage is the report archive.
type Storage interface {
	// Put uploads an object under key.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// PresignGet returns a time-limited download URL. The download is served
	// as an attachment named after the last key segment.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
