package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"reminderapi/internal/model"
	"reminderapi/internal/storage"
)

const reportLinkTTL = 15 * time.Minute

// ReportColumns is the header row of the daily call report.
var ReportColumns = []string{
	"Date",
	"Time",
	"Contact Number",
	"Call Status",
	"Medicine Taken",
	"Blood Glucose Level",
	"Systolic BP",
	"Diastolic BP",
}

// Report is a rendered daily call report.
type Report struct {
	Filename string
	Content  []byte
	// ArchiveKey is set once the report is stored in the archive.
	ArchiveKey string
}

func renderReport(date string, records []model.CallRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ReportColumns); err != nil {
		return nil, err
	}
	for _, r := range records {
		row := []string{
			date,
			r.Time,
			r.CallingTo,
			r.Stage,
			r.Analysis["medicine_taken"],
			r.Analysis["blood_glucose_level"],
			r.Analysis["systolic_blood_pressure"],
			r.Analysis["diastolic_blood_pressure"],
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *reminderService) buildReport(ctx context.Context, agentID, date string) (*Report, error) {
	records, err := s.Records(ctx, agentID, date)
	if err != nil {
		return nil, err
	}
	content, err := renderReport(date, records)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return &Report{
		Filename: fmt.Sprintf("ai_calls_%s_%s.csv", date, s.now().Format("20060102_150405")),
		Content:  content,
	}, nil
}

func (s *reminderService) archive(ctx context.Context, agentID, date string, r *Report) error {
	key := storage.ReportKey(agentID, date, r.Filename)
	if _, err := s.store.Put(ctx, key, bytes.NewReader(r.Content), storage.PutObjectOptions{
		Size:        int64(len(r.Content)),
		ContentType: "text/csv",
		Metadata:    map[string]string{"agent_id": agentID, "date": date},
	}); err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	r.ArchiveKey = key
	return nil
}

func (s *reminderService) Report(ctx context.Context, agentID, date string) (*Report, error) {
	r, err := s.buildReport(ctx, agentID, date)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.archive(ctx, agentID, date, r); err != nil {
			s.log.Warn("report not archived", "component", "report", "agent_id", agentID, "date", date, "error", err)
		}
	}
	return r, nil
}

func (s *reminderService) ReportLink(ctx context.Context, agentID, date string) (string, error) {
	if s.store == nil {
		return "", ErrArchiveDisabled
	}
	r, err := s.buildReport(ctx, agentID, date)
	if err != nil {
		return "", err
	}
	if err := s.archive(ctx, agentID, date, r); err != nil {
		return "", err
	}
	link, err := s.store.PresignGet(ctx, r.ArchiveKey, reportLinkTTL)
	if err != nil {
		return "", fmt.Errorf("presign report: %w", err)
	}
	return link, nil
}
