package container

import (
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"github.com/homologa/vehicle-homologation/internal/application/dispatcher"
	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/application/service"
	"github.com/homologa/vehicle-homologation/internal/application/workflow"
	"github.com/homologa/vehicle-homologation/internal/domain/event"
	"github.com/homologa/vehicle-homologation/internal/infrastructure/export"
	infraLark "github.com/homologa/vehicle-homologation/internal/infrastructure/external/lark"
	"github.com/homologa/vehicle-homologation/internal/infrastructure/external/logsink"
	"github.com/homologa/vehicle-homologation/internal/infrastructure/persistence/repository"
	"github.com/homologa/vehicle-homologation/internal/infrastructure/persistence/sqlite"
	"github.com/homologa/vehicle-homologation/internal/infrastructure/storage"
	"github.com/homologa/vehicle-homologation/migrations"
	"github.com/homologa/vehicle-homologation/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the SQLite database, applies pending migrations and
// wraps the connection in a transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	var source fs.FS = migrations.FS
	if cfg.MigrationsDir != "" {
		source = os.DirFS(cfg.MigrationsDir)
	}

	if err := database.NewMigrator(db, logger).RunMigrations(source); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Submission:   repository.NewSubmissionRepository(db.DB, logger),
		Attachment:   repository.NewAttachmentRepository(db.DB, logger),
		Audit:        repository.NewAuditRepository(db.DB, logger),
		Notification: repository.NewNotificationRepository(db.DB, logger),
	}, nil
}

// ProvideMessageSender returns the Lark messenger when Lark is enabled and the
// log sink otherwise.
func ProvideMessageSender(cfg *LarkConfig, logger *zap.Logger) (port.MessageSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("lark config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if !cfg.Enabled {
		logger.Info("Lark disabled, status notifications go to the log")
		return logsink.NewSender(logger), nil
	}

	sdk := infraLark.NewSDKClient(infraLark.Config{
		AppID:      cfg.AppID,
		AppSecret:  cfg.AppSecret,
		APITimeout: cfg.APITimeout,
		BaseURL:    cfg.BaseURL,
	}, logger)
	return infraLark.NewMessenger(sdk, logger), nil
}

// ProvideStorage creates the attachment file storage.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := os.MkdirAll(cfg.AttachmentDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory: %w", err)
	}

	return storage.NewLocalFileStorage(cfg.AttachmentDir, logger), nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(cfg *DispatcherConfig, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := []dispatcher.Option{dispatcher.WithLogger(NewLoggerAdapter(logger))}
	if cfg != nil && cfg.AsyncTimeout > 0 {
		opts = append(opts, dispatcher.WithAsyncTimeout(cfg.AsyncTimeout))
	}
	return dispatcher.NewDispatcher(opts...), nil
}

// ServiceDeps holds dependencies for creating services.
type ServiceDeps struct {
	Repos          *RepositoryBundle
	TxManager      port.TransactionManager
	Storage        port.FileStorage
	Sender         port.MessageSender
	Dispatcher     dispatcher.Dispatcher
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Storage == nil {
		return nil, fmt.Errorf("file storage is required")
	}
	if deps.Sender == nil {
		return nil, fmt.Errorf("message sender is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := NewLoggerAdapter(deps.Logger)

	opts := []service.SubmissionOption{service.WithMaxUploadBytes(deps.MaxUploadBytes)}
	if deps.Dispatcher != nil {
		opts = append(opts, service.WithEventDispatcher(deps.Dispatcher))
	}

	return &ServiceBundle{
		Submission: service.NewSubmissionService(
			deps.Repos.Submission,
			deps.Repos.Attachment,
			deps.Repos.Audit,
			deps.Storage,
			deps.TxManager,
			serviceLogger,
			opts...,
		),
		Notification: service.NewNotificationService(
			deps.Repos.Notification,
			deps.Sender,
			serviceLogger,
		),
		Report: service.NewReportService(
			deps.Repos.Submission,
			export.NewExcelWriter(deps.Logger),
			serviceLogger,
		),
	}, nil
}

// WorkflowDeps holds dependencies for creating the workflow engine.
type WorkflowDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Notifier   port.Notifier
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideWorkflowEngine creates the workflow engine and subscribes it to
// payment confirmations.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.WorkflowEngine, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	opts := []workflow.EngineOption{workflow.WithLogger(NewLoggerAdapter(deps.Logger))}
	if deps.Notifier != nil {
		opts = append(opts, workflow.WithNotifier(deps.Notifier))
	}
	if deps.Dispatcher != nil {
		opts = append(opts, workflow.WithDispatcher(deps.Dispatcher))
	}

	engine := workflow.NewEngine(
		deps.Repos.Submission,
		deps.Repos.Attachment,
		deps.Repos.Audit,
		deps.TxManager,
		opts...,
	)

	if deps.Dispatcher != nil {
		deps.Dispatcher.SubscribeNamed(event.TypePaymentConfirmed, "workflow.mark_paid", engine.HandleEvent)
	}

	return engine, nil
}

// NewLoggerAdapter adapts a zap logger to the key/value Logger interfaces of
// the application packages.
func NewLoggerAdapter(logger *zap.Logger) *ZapLoggerAdapter {
	return &ZapLoggerAdapter{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

// ZapLoggerAdapter adapts zap.Logger to Info/Warn/Error(msg, keysAndValues...)
type ZapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *ZapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *ZapLoggerAdapter) Warn(msg string, keysAndValues ...interface{}) {
	a.logger.Warn(msg, convertToZapFields(keysAndValues...)...)
}

func (a *ZapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
