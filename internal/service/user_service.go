package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/nss-vignan/nss-portal-api/internal/models"
	appErrors "github.com/nss-vignan/nss-portal-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id, name, phone, department, year string) error
	UpdateTeamRole(ctx context.Context, id string, teamRole models.TeamRole) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type historyLister interface {
	List(ctx context.Context, filter models.ParticipationFilter) ([]models.ParticipationDetail, int, error)
}

// UserService provides volunteer roster and profile workflows.
type UserService struct {
	repo           userRepository
	participations historyLister
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewUserService constructs UserService.
func NewUserService(repo userRepository, participations historyLister, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, participations: participations, validator: validate, logger: logger}
}

// ListStudents returns the student roster ordered by contributed hours.
func (s *UserService) ListStudents(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	role := models.RoleStudent
	filter.Role = &role
	if filter.SortBy == "" {
		filter.SortBy = "total_hours"
		filter.SortOrder = "DESC"
	}

	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// GetProfile returns a student along with their participation history.
func (s *UserService) GetProfile(ctx context.Context, id string) (*models.StudentProfile, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	history, _, err := s.participations.List(ctx, models.ParticipationFilter{
		StudentID: id,
		PageSize:  100,
		SortBy:    "submitted_at",
		SortOrder: "DESC",
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participation history")
	}

	return &models.StudentProfile{Student: *student, Participations: history}, nil
}

// UpdateProfile updates the caller's own profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := s.repo.UpdateProfile(ctx, userID, req.Name, req.Phone, req.Department, req.Year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload user")
	}
	return user, nil
}

// UpdateTeamRole assigns a unit position to a student.
func (s *UserService) UpdateTeamRole(ctx context.Context, actorID, studentID string, req models.UpdateTeamRoleRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid team role payload")
	}

	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.IsStudent() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "team roles apply to students only")
	}

	if err := s.repo.UpdateTeamRole(ctx, studentID, req.TeamRole); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update team role")
	}

	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionTeamRoleUpdate,
		Resource:   "user",
		ResourceID: &studentID,
	}); err != nil {
		s.logger.Warn("failed to record team role audit log", zap.Error(err))
	}

	updated, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload student")
	}
	return updated, nil
}
