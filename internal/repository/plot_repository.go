package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/terra-erp-api/internal/models"
)

// PlotRepository provides database access for plots.
type PlotRepository struct {
	db *sqlx.DB
}

// NewPlotRepository constructs the repository.
func NewPlotRepository(db *sqlx.DB) *PlotRepository {
	return &PlotRepository{db: db}
}

func (r *PlotRepository) Create(ctx context.Context, plot *models.Plot) error {
	if plot.ID == "" {
		plot.ID = uuid.NewString()
	}
	if plot.Status == "" {
		plot.Status = models.PlotStatusAvailable
	}
	now := time.Now().UTC()
	if plot.CreatedAt.IsZero() {
		plot.CreatedAt = now
	}
	plot.UpdatedAt = now
	const query = `INSERT INTO plots (id, project_id, number, area_sqm, price, status, created_at, updated_at)
	VALUES (:id, :project_id, :number, :area_sqm, :price, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, plot); err != nil {
		return fmt.Errorf("create plot: %w", err)
	}
	return nil
}

func (r *PlotRepository) Update(ctx context.Context, plot *models.Plot) error {
	plot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE plots SET project_id = :project_id, number = :number, area_sqm = :area_sqm, price = :price, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, plot); err != nil {
		return fmt.Errorf("update plot: %w", err)
	}
	return nil
}

func (r *PlotRepository) FindByID(ctx context.Context, id string) (*models.Plot, error) {
	const query = `SELECT id, project_id, number, area_sqm, price, status, created_at, updated_at FROM plots WHERE id = $1 LIMIT 1`
	var plot models.Plot
	if err := r.db.GetContext(ctx, &plot, query, id); err != nil {
		return nil, err
	}
	return &plot, nil
}

// ExistsByNumber reports whether the plot number is taken within a project.
func (r *PlotRepository) ExistsByNumber(ctx context.Context, projectID, number, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM plots WHERE project_id = $1 AND number = $2 AND id <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, projectID, number, excludeID); err != nil {
		return false, fmt.Errorf("check plot number: %w", err)
	}
	return exists, nil
}

func (r *PlotRepository) List(ctx context.Context, projectID string, limit, offset int) ([]models.Plot, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 1)
	builder.WriteString(`SELECT id, project_id, number, area_sqm, price, status, created_at, updated_at FROM plots`)
	if projectID != "" {
		args = append(args, projectID)
		builder.WriteString(" WHERE project_id = $1")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" ORDER BY number ASC LIMIT %d OFFSET %d", limit, offset))

	var plots []models.Plot
	if err := r.db.SelectContext(ctx, &plots, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list plots: %w", err)
	}
	return plots, nil
}
