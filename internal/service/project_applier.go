package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/terra-erp-api/internal/models"
	appErrors "github.com/noah-isme/terra-erp-api/pkg/errors"
)

type projectApplierRepository interface {
	Create(ctx context.Context, project *models.Project) error
	Update(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
}

// ProjectApplier creates and updates land-development projects.
type ProjectApplier struct {
	repo   projectApplierRepository
	logger *zap.Logger
}

// NewProjectApplier constructs the applier.
func NewProjectApplier(repo projectApplierRepository, logger *zap.Logger) *ProjectApplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectApplier{repo: repo, logger: logger}
}

// Apply implements ChangeApplier.
func (a *ProjectApplier) Apply(ctx context.Context, change *models.ChangeSet) ([]byte, error) {
	if a.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "project repository not configured")
	}
	payload, err := decodePayload(change.Payload)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid project payload")
	}
	switch change.Operation {
	case models.OperationCreate:
		return a.create(ctx, payload)
	case models.OperationUpdate:
		return a.update(ctx, change.EntityID, payload)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported operation for project")
	}
}

func (a *ProjectApplier) create(ctx context.Context, payload map[string]json.RawMessage) ([]byte, error) {
	project := models.Project{Active: true}
	if str, ok, err := readString(payload, "code"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code must be a string")
	} else if ok {
		project.Code = *str
	}
	if str, ok, err := readString(payload, "name"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name must be a string")
	} else if ok {
		project.Name = *str
	}
	if str, ok, err := readString(payload, "location"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "location must be a string")
	} else if ok {
		project.Location = *str
	}
	if val, ok, err := readBool(payload, "active"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean")
	} else if ok {
		project.Active = val
	}
	if project.Code == "" || project.Name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code and name are required")
	}
	exists, err := a.repo.ExistsByCode(ctx, project.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate project code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "project code already used")
	}
	if err := a.repo.Create(ctx, &project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	return marshalSnapshot(a.logger, "project", project), nil
}

func (a *ProjectApplier) update(ctx context.Context, id string, payload map[string]json.RawMessage) ([]byte, error) {
	project, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "project not found")
	}
	changes := 0
	if str, ok, err := readString(payload, "code"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "code must be a string")
	} else if ok {
		if *str != project.Code {
			exists, err := a.repo.ExistsByCode(ctx, *str, project.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate project code")
			}
			if exists {
				return nil, appErrors.Clone(appErrors.ErrConflict, "project code already used")
			}
			project.Code = *str
		}
		changes++
	}
	if str, ok, err := readString(payload, "name"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "name must be a string")
	} else if ok {
		project.Name = *str
		changes++
	}
	if str, ok, err := readString(payload, "location"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "location must be a string")
	} else if ok {
		project.Location = *str
		changes++
	}
	if val, ok, err := readBool(payload, "active"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean")
	} else if ok {
		project.Active = val
		changes++
	}
	if changes == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no supported project fields provided")
	}
	if err := a.repo.Update(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update project")
	}
	return marshalSnapshot(a.logger, "project", project), nil
}

type plotApplierRepository interface {
	Create(ctx context.Context, plot *models.Plot) error
	Update(ctx context.Context, plot *models.Plot) error
	FindByID(ctx context.Context, id string) (*models.Plot, error)
	ExistsByNumber(ctx context.Context, projectID, number, excludeID string) (bool, error)
}

// PlotApplier creates and updates plots within a project.
type PlotApplier struct {
	repo     plotApplierRepository
	projects projectApplierRepository
	logger   *zap.Logger
}

// NewPlotApplier constructs the applier. The project repository guards
// against plots pointing at unknown projects.
func NewPlotApplier(repo plotApplierRepository, projects projectApplierRepository, logger *zap.Logger) *PlotApplier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlotApplier{repo: repo, projects: projects, logger: logger}
}

// Apply implements ChangeApplier.
func (a *PlotApplier) Apply(ctx context.Context, change *models.ChangeSet) ([]byte, error) {
	if a.repo == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "plot repository not configured")
	}
	payload, err := decodePayload(change.Payload)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid plot payload")
	}
	switch change.Operation {
	case models.OperationCreate:
		return a.create(ctx, payload)
	case models.OperationUpdate:
		return a.update(ctx, change.EntityID, payload)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported operation for plot")
	}
}

func (a *PlotApplier) create(ctx context.Context, payload map[string]json.RawMessage) ([]byte, error) {
	plot := models.Plot{Status: models.PlotStatusAvailable}
	if str, ok, err := readString(payload, "project_id", "projectId"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "projectId must be a string")
	} else if ok {
		plot.ProjectID = *str
	}
	if str, ok, err := readString(payload, "number"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "number must be a string")
	} else if ok {
		plot.Number = *str
	}
	if val, ok, err := readDecimal(payload, "area_sqm", "areaSqm"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "areaSqm must be numeric")
	} else if ok {
		plot.AreaSqm = val
	}
	if val, ok, err := readDecimal(payload, "price"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "price must be numeric")
	} else if ok {
		plot.Price = val
	}
	if status, ok, err := readPlotStatus(payload); err != nil {
		return nil, err
	} else if ok {
		plot.Status = status
	}
	if plot.ProjectID == "" || plot.Number == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "projectId and number are required")
	}
	if a.projects != nil {
		if _, err := a.projects.FindByID(ctx, plot.ProjectID); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown project")
		}
	}
	exists, err := a.repo.ExistsByNumber(ctx, plot.ProjectID, plot.Number, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate plot number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "plot number already used in project")
	}
	if err := a.repo.Create(ctx, &plot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create plot")
	}
	return marshalSnapshot(a.logger, "plot", plot), nil
}

func (a *PlotApplier) update(ctx context.Context, id string, payload map[string]json.RawMessage) ([]byte, error) {
	plot, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "plot not found")
	}
	changes := 0
	if str, ok, err := readString(payload, "number"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "number must be a string")
	} else if ok {
		if *str != plot.Number {
			exists, err := a.repo.ExistsByNumber(ctx, plot.ProjectID, *str, plot.ID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate plot number")
			}
			if exists {
				return nil, appErrors.Clone(appErrors.ErrConflict, "plot number already used in project")
			}
			plot.Number = *str
		}
		changes++
	}
	if val, ok, err := readDecimal(payload, "area_sqm", "areaSqm"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "areaSqm must be numeric")
	} else if ok {
		plot.AreaSqm = val
		changes++
	}
	if val, ok, err := readDecimal(payload, "price"); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "price must be numeric")
	} else if ok {
		plot.Price = val
		changes++
	}
	if status, ok, err := readPlotStatus(payload); err != nil {
		return nil, err
	} else if ok {
		plot.Status = status
		changes++
	}
	if changes == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no supported plot fields provided")
	}
	if err := a.repo.Update(ctx, plot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update plot")
	}
	return marshalSnapshot(a.logger, "plot", plot), nil
}

func readPlotStatus(payload map[string]json.RawMessage) (models.PlotStatus, bool, error) {
	str, ok, err := readString(payload, "status")
	if err != nil {
		return "", false, appErrors.Clone(appErrors.ErrValidation, "status must be a string")
	}
	if !ok {
		return "", false, nil
	}
	status := models.PlotStatus(strings.ToUpper(*str))
	switch status {
	case models.PlotStatusAvailable, models.PlotStatusBooked, models.PlotStatusSold:
		return status, true, nil
	default:
		return "", false, appErrors.Clone(appErrors.ErrValidation, "status must be AVAILABLE, BOOKED or SOLD")
	}
}
