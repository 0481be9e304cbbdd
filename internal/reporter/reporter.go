package reporter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/shakewatch/shakewatch/internal/config"
	"github.com/shakewatch/shakewatch/internal/database"
	"github.com/shakewatch/shakewatch/internal/models"
	"github.com/shakewatch/shakewatch/pkg/utils"
)

// Reporter handles report generation
type Reporter struct {
	config *config.Config
	repo   *database.Repository
	now    func() time.Time
}

// New creates a new reporter
func New(cfg *config.Config, repo *database.Repository) *Reporter {
	return &Reporter{
		config: cfg,
		repo:   repo,
		now:    time.Now,
	}
}

// GenerateReport counts triggers per source for the specified period
func (r *Reporter) GenerateReport(periodType string) (*models.Report, error) {
	period, err := r.Period(periodType)
	if err != nil {
		return nil, err
	}

	summaries, err := r.repo.GetSourceSummarySince(period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get source summary")
	}

	total := 0
	for _, s := range summaries {
		total += s.Count
	}
	if total > 0 {
		for i := range summaries {
			summaries[i].Percentage = float64(summaries[i].Count) / float64(total) * 100.0
		}
	}

	errorCount, err := r.repo.CountErrorsSince(period.Start)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count errors")
	}

	latest, err := r.repo.GetLatest()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get latest trigger")
	}

	return &models.Report{
		Period:      *period,
		Sources:     summaries,
		TotalCount:  total,
		ErrorCount:  errorCount,
		LastTrigger: latest,
		GeneratedAt: r.now(),
	}, nil
}

func (r *Reporter) location() *time.Location {
	tz := r.config.Report.TimeZone
	if tz == "" || tz == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local
	}
	return loc
}

// Period calculates the time range for the report
func (r *Reporter) Period(periodType string) (*models.ReportPeriod, error) {
	now := r.now().In(r.location())
	var start, end time.Time

	switch periodType {
	case "day", "today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 0, 1)

	case "week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(weekday - 1))
		end = start.AddDate(0, 0, 7)

	case "month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		end = start.AddDate(0, 1, 0)

	default:
		return nil, errors.Errorf("invalid period type: %s (valid: day, week, month)", periodType)
	}

	return &models.ReportPeriod{
		Start: start,
		End:   end,
		Type:  periodType,
	}, nil
}

// FormatReportText formats the report as human-readable text
func (r *Reporter) FormatReportText(report *models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Trigger Report - %s\n", report.Period.Type)
	fmt.Fprintf(&b, "Period: %s to %s\n",
		report.Period.Start.Format("2006-01-02 15:04"),
		report.Period.End.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Total Triggers: %d\n", report.TotalCount)
	fmt.Fprintf(&b, "Errors: %d\n", report.ErrorCount)
	if report.LastTrigger != nil {
		ago := report.GeneratedAt.Sub(report.LastTrigger.Timestamp)
		fmt.Fprintf(&b, "Last Trigger: %s ago (%s)\n", utils.FormatAge(ago), report.LastTrigger.Source)
	}
	b.WriteString("\n")

	if len(report.Sources) == 0 {
		b.WriteString("No triggers recorded for this period.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-20s %10s %10s\n", "Source", "Count", "Percent")
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 42))

	for _, s := range report.Sources {
		fmt.Fprintf(&b, "%-20s %10d %9.1f%%\n", truncate(s.Source, 20), s.Count, s.Percentage)
	}

	return b.String()
}

// FormatReportJSON formats the report as JSON
func (r *Reporter) FormatReportJSON(report *models.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal JSON")
	}
	return string(data), nil
}

// truncate truncates a string to the specified length
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
