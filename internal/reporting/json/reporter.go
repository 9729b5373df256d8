package json

import (
	"context"
	"fmt"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/heroku-tools/internal/core/domain"
	"github.com/olusolaa/heroku-tools/internal/core/ports"
)

const ReporterTypeJSON = "json"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Reporter emits one JSON document per settings comparison. ReportDiff
// collects the entries and ReportUpdates writes the document.
type Reporter struct {
	writer io.Writer
	logger ports.Logger
	report *jsonReport
}

var _ ports.DiffReporter = (*Reporter)(nil)

func NewReporter(w io.Writer, logger ports.Logger) (*Reporter, error) {
	if w == nil {
		w = os.Stdout
	}
	return &Reporter{
		writer: w,
		logger: logger,
	}, nil
}

type jsonReport struct {
	App      string            `json:"app"`
	Summary  jsonSummary       `json:"summary"`
	Entries  []jsonEntry       `json:"entries"`
	Updates  map[string]string `json:"updates"`
	UpToDate bool              `json:"up_to_date"`
}

type jsonSummary struct {
	Total      int `json:"total"`
	Match      int `json:"match"`
	Mismatch   int `json:"mismatch"`
	LocalOnly  int `json:"local_only"`
	RemoteOnly int `json:"remote_only"`
}

type jsonEntry struct {
	Key         string        `json:"key"`
	Status      domain.Status `json:"status"`
	Marker      string        `json:"marker"`
	LocalValue  *string       `json:"local_value"`
	RemoteValue *string       `json:"remote_value"`
}

func (r *Reporter) ReportDiff(ctx context.Context, app string, entries []domain.ConfigEntry, statuses ...domain.Status) error {
	report := &jsonReport{App: app, Entries: make([]jsonEntry, 0, len(entries))}
	for _, e := range domain.FilterEntries(entries, statuses...) {
		if ctx.Err() != nil {
			r.logger.Warnf(ctx, "JSON report generation cancelled.")
			return ctx.Err()
		}
		switch e.Status {
		case domain.StatusMatch:
			report.Summary.Match++
		case domain.StatusMismatch:
			report.Summary.Mismatch++
		case domain.StatusLocalOnly:
			report.Summary.LocalOnly++
		case domain.StatusRemoteOnly:
			report.Summary.RemoteOnly++
		}
		report.Entries = append(report.Entries, jsonEntry{
			Key:         e.Key,
			Status:      e.Status,
			Marker:      e.Status.Marker(),
			LocalValue:  e.LocalValue,
			RemoteValue: e.RemoteValue,
		})
	}
	report.Summary.Total = len(report.Entries)
	r.report = report
	return nil
}

func (r *Reporter) ReportUpdates(ctx context.Context, app string, updates []domain.ConfigEntry) error {
	report := r.report
	if report == nil {
		report = &jsonReport{App: app, Entries: []jsonEntry{}}
	}
	r.report = nil
	report.Updates = domain.UpdateSet(updates)
	report.UpToDate = len(updates) == 0

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		r.logger.Errorf(ctx, err, "Failed to encode JSON report")
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}

	r.logger.Debugf(ctx, "JSON report successfully generated.")
	return nil
}
