package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/enrolldesk/enroll-api/internal/models"
	"github.com/enrolldesk/enroll-api/internal/repository"
	appErrors "github.com/enrolldesk/enroll-api/pkg/errors"
	"github.com/enrolldesk/enroll-api/pkg/export"
)

const listingCacheKey = "enrollments:list"

// submissionDateLayout mirrors the en-IN locale rendering the admin UI has
// always displayed, e.g. "23/5/2024, 10:15:00 am". The value is stored as
// text and never parsed back.
const submissionDateLayout = "2/1/2006, 3:04:05 pm"

var exportHeaders = []string{"ID", "Name", "Phone", "Email", "School", "Class", "Admin", "Submitted"}

type enrollmentRepository interface {
	List(ctx context.Context) ([]models.Enrollment, error)
	ExistsByPhoneOrEmail(ctx context.Context, phone, email string) (bool, error)
	Insert(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, id int64, fields models.EnrollmentFields) (int64, error)
}

type listingCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// EnrollmentRequest holds the operator-submitted fields shared by create and
// update. Whitespace-only values count as missing.
type EnrollmentRequest struct {
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"phone" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	SchoolName string `json:"school_name" validate:"required"`
	Class      string `json:"class" validate:"required"`
}

func (r *EnrollmentRequest) trim() {
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.SchoolName = strings.TrimSpace(r.SchoolName)
	r.Class = strings.TrimSpace(r.Class)
}

// EnrollmentService orchestrates validation, the duplicate guard and the
// record store for enrollment submissions.
type EnrollmentService struct {
	repo      enrollmentRepository
	cache     listingCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	location  *time.Location
	now       func() time.Time
}

// NewEnrollmentService constructs the enrollment service. The cache is
// optional; a nil cache disables listing caching entirely.
func NewEnrollmentService(repo enrollmentRepository, cache listingCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	location, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// IST has no DST; a fixed offset is equivalent when tzdata is absent.
		location = time.FixedZone("IST", 5*3600+1800)
	}
	return &EnrollmentService{
		repo:      repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		location:  location,
		now:       time.Now,
	}
}

// Create validates a submission, consults the duplicate guard and inserts a
// new record stamped with the current IST time. AdminName comes from the
// authenticated operator, not the request body.
func (s *EnrollmentService) Create(ctx context.Context, req EnrollmentRequest, adminName string) (*models.Enrollment, error) {
	req.trim()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if strings.TrimSpace(adminName) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "operator identity is required")
	}

	exists, err := s.repo.ExistsByPhoneOrEmail(ctx, req.Phone, req.Email)
	if err != nil {
		s.logger.Error("duplicate check failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled")
	}

	enrollment := &models.Enrollment{
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		SchoolName:     req.SchoolName,
		Class:          req.Class,
		AdminName:      adminName,
		SubmissionDate: s.formatSubmissionDate(s.now()),
	}
	if err := s.repo.Insert(ctx, enrollment); err != nil {
		// The unique constraints close the check-then-insert race: a
		// concurrent duplicate that slipped past the guard lands here.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled")
		}
		s.logger.Error("insert enrollment failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	s.invalidateListing(ctx)
	return enrollment, nil
}

// Update replaces the five business fields of the record matching id and
// echoes the submitted values back. ID, admin_name and submission_date are
// immutable.
func (s *EnrollmentService) Update(ctx context.Context, id int64, req EnrollmentRequest) (*models.UpdatedEnrollment, error) {
	if id <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment id is required")
	}
	req.trim()
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	fields := models.EnrollmentFields{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		SchoolName: req.SchoolName,
		Class:      req.Class,
	}
	affected, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "phone or email already used by another enrollment")
		}
		s.logger.Error("update enrollment failed", zap.Error(err), zap.Int64("id", id))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}

	s.invalidateListing(ctx)
	return &models.UpdatedEnrollment{ID: id, EnrollmentFields: fields}, nil
}

// List returns every enrollment newest first, serving from the cache when a
// fresh copy exists. Cache failures degrade to the store.
func (s *EnrollmentService) List(ctx context.Context) ([]models.Enrollment, error) {
	if s.cache != nil {
		start := time.Now()
		payload, err := s.cache.Get(ctx, listingCacheKey)
		if err == nil {
			var cached []models.Enrollment
			if jsonErr := json.Unmarshal([]byte(payload), &cached); jsonErr == nil {
				s.metrics.RecordCacheOperation(true, time.Since(start))
				return cached, nil
			}
		} else if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("listing cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false, time.Since(start))
	}

	enrollments, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("list enrollments failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}

	if s.cache != nil {
		if payload, jsonErr := json.Marshal(enrollments); jsonErr == nil {
			start := time.Now()
			if err := s.cache.Set(ctx, listingCacheKey, string(payload), s.cacheTTL); err != nil {
				s.logger.Warn("listing cache write failed", zap.Error(err))
			}
			s.metrics.ObserveCacheWrite(time.Since(start))
		}
	}
	return enrollments, nil
}

// ExportCSV renders the full listing as CSV bytes.
func (s *EnrollmentService) ExportCSV(ctx context.Context) ([]byte, error) {
	dataset, err := s.exportDataset(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := export.NewCSVExporter().Render(dataset)
	if err != nil {
		s.logger.Error("csv export failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return payload, nil
}

// ExportPDF renders the full listing as a tabular PDF.
func (s *EnrollmentService) ExportPDF(ctx context.Context, title string) ([]byte, error) {
	dataset, err := s.exportDataset(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := export.NewPDFExporter().Render(dataset, title)
	if err != nil {
		s.logger.Error("pdf export failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, appErrors.ErrInternal.Message)
	}
	return payload, nil
}

func (s *EnrollmentService) exportDataset(ctx context.Context) (export.Dataset, error) {
	enrollments, err := s.List(ctx)
	if err != nil {
		return export.Dataset{}, err
	}
	rows := make([]map[string]string, 0, len(enrollments))
	for _, e := range enrollments {
		rows = append(rows, map[string]string{
			"ID":        fmt.Sprintf("%d", e.ID),
			"Name":      e.Name,
			"Phone":     e.Phone,
			"Email":     e.Email,
			"School":    e.SchoolName,
			"Class":     e.Class,
			"Admin":     e.AdminName,
			"Submitted": e.SubmissionDate,
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}, nil
}

func (s *EnrollmentService) formatSubmissionDate(t time.Time) string {
	return t.In(s.location).Format(submissionDateLayout)
}

func (s *EnrollmentService) invalidateListing(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, listingCacheKey); err != nil {
		s.logger.Warn("listing cache invalidation failed", zap.Error(err))
	}
}
