// Package export flattens project tasks into semicolon-delimited records.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"tracker/internal/models"
)

// Delimiter separates record fields.
const Delimiter = ';'

// Record is one exported task line.
type Record struct {
	Project       string
	Administrator string
	Manager       string
	Responsible   string
	Description   string
	Start         string
	PlannedEnd    string
	Status        string
	Reason        string
}

// Fields returns the record in column order.
func (r Record) Fields() []string {
	return []string{
		r.Project,
		r.Administrator,
		r.Manager,
		r.Responsible,
		r.Description,
		r.Start,
		r.PlannedEnd,
		r.Status,
		r.Reason,
	}
}

// Serialize produces one record per task, in the given order.
func Serialize(project models.Project, tasks []models.Task) []Record {
	records := make([]Record, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, Record{
			Project:       project.Name,
			Administrator: project.Administrator.Name,
			Manager:       project.Manager.Name,
			Responsible:   t.Responsible.Name,
			Description:   t.Description,
			Start:         t.Start.String(),
			PlannedEnd:    t.PlannedEnd.String(),
			Status:        string(t.Status),
			Reason:        reason(t),
		})
	}
	return records
}

func reason(t models.Task) string {
	if t.CancelReason != "" {
		return t.CancelReason
	}
	return t.DelayReason
}

// Encode writes records one per line with no header. Fields containing the
// delimiter, quotes or line breaks are quoted.
func Encode(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	for _, r := range records {
		if err := cw.Write(r.Fields()); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}
