package port

import (
	"context"
	"io"

	"github.com/homologa/vehicle-homologation/internal/domain/entity"
)

// FileStorage defines file storage operations for attachment content
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	Delete(ctx context.Context, path string) error
	GetFullPath(relativePath string) string
}

// ReportWriter renders a submission report
type ReportWriter interface {
	WriteSubmissions(out io.Writer, subs []*entity.Submission) error
	ContentType() string
}
