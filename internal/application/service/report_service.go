package service

import (
	"context"
	"fmt"
	"io"

	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

// ReportService exports submission listings for the back office
type ReportService struct {
	submissions port.SubmissionRepository
	writer      port.ReportWriter
	logger      Logger
}

// NewReportService creates a new ReportService
func NewReportService(submissions port.SubmissionRepository, writer port.ReportWriter, logger Logger) *ReportService {
	return &ReportService{
		submissions: submissions,
		writer:      writer,
		logger:      logger,
	}
}

// ContentType is the MIME type of the exported report
func (s *ReportService) ContentType() string {
	return s.writer.ContentType()
}

// ExportSubmissions writes every submission matching filter to out. Elevated actors only.
func (s *ReportService) ExportSubmissions(ctx context.Context, filter entity.SubmissionFilter, actor entity.Actor, out io.Writer) (int, error) {
	if !actor.Elevated {
		return 0, &workflow.Error{
			Kind:    workflow.KindRequiresElevatedPrivilege,
			Message: "exporting submissions requires elevated privilege",
		}
	}

	subs, err := s.submissions.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to load submissions for report", "error", err)
		return 0, fmt.Errorf("list submissions: %w", err)
	}

	if err := s.writer.WriteSubmissions(out, subs); err != nil {
		s.logger.Error("Failed to write report", "error", err)
		return 0, fmt.Errorf("write report: %w", err)
	}

	s.logger.Info("Submission report exported", "actor_id", actor.ID, "rows", len(subs))
	return len(subs), nil
}
