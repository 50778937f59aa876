package insights

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthassist/healthassist/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

func (r *reportRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *reportRepoPG) Create(ctx context.Context, rep *Report) error {
	rep.ID = uuid.New()
	assessment, err := json.Marshal(rep.Assessment)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO insight_reports (id, patient_id, insights, assessment, snapshot)
		VALUES ($1,$2,$3,$4,$5)`,
		rep.ID, rep.PatientID, rep.Insights, assessment, rep.Snapshot)
	return err
}

func (r *reportRepoPG) scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	var assessment []byte
	if err := row.Scan(&rep.ID, &rep.PatientID, &rep.Insights, &assessment,
		&rep.Snapshot, &rep.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(assessment, &rep.Assessment); err != nil {
		return nil, fmt.Errorf("unmarshal assessment: %w", err)
	}
	return &rep, nil
}

const reportCols = `id, patient_id, insights, assessment, snapshot, created_at`

func (r *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	return r.scanReport(r.conn(ctx).QueryRow(ctx, `SELECT `+reportCols+` FROM insight_reports WHERE id = $1`, id))
}

func (r *reportRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Report, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM insight_reports WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reportCols+` FROM insight_reports WHERE patient_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Report
	for rows.Next() {
		rep, err := r.scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rep)
	}
	return items, total, nil
}
