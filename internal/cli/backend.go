package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/homologa/vehicle-homologation/internal/application/service"
	"github.com/homologa/vehicle-homologation/internal/application/workflow"
	"github.com/homologa/vehicle-homologation/internal/config"
	"github.com/homologa/vehicle-homologation/internal/container"
	"github.com/homologa/vehicle-homologation/internal/domain/entity"
	"github.com/homologa/vehicle-homologation/pkg/utils"
)

// ReportExporter writes the submission workbook
type ReportExporter interface {
	ExportSubmissions(ctx context.Context, filter entity.SubmissionFilter, actor entity.Actor, out io.Writer) (int, error)
}

// Backend is what commands operate on
type Backend struct {
	Submissions service.SubmissionService
	Engine      workflow.WorkflowEngine
	Reports     ReportExporter

	// Close releases the backend; may be nil
	Close func() error
}

// BackendFactory opens a backend for the given config path
type BackendFactory func(ctx context.Context, configPath string) (*Backend, error)

// ContainerBackend opens the SQLite-backed container described by the config file.
func ContainerBackend(ctx context.Context, configPath string) (*Backend, error) {
	cfg, err := config.LoadForCLI(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := utils.NewCLILogger(cfg.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("start container: %w", err)
	}

	return &Backend{
		Submissions: c.Services().Submission,
		Engine:      c.WorkflowEngine(),
		Reports:     c.Services().Report,
		Close: func() error {
			err := c.Close()
			_ = logger.Sync()
			return err
		},
	}, nil
}
