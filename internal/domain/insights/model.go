// Package insights stores generated health-insight reports so past
// assessments can be listed and reviewed.
package insights

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/healthassist/healthassist/pkg/vitals"
)

// Report maps to the insight_reports table. The vitals assessment and the
// raw input snapshot are stored as JSONB alongside the generated narrative.
type Report struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	PatientID  uuid.UUID       `db:"patient_id" json:"patient_id"`
	Insights   string          `db:"insights" json:"insights"`
	Assessment vitals.Report   `db:"assessment" json:"assessment"`
	Snapshot   json.RawMessage `db:"snapshot" json:"data_snapshot"`
	CreatedAt  time.Time       `db:"created_at" json:"generated_at"`
}
