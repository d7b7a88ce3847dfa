package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/farewellhq/event-pass-api/internal/models"
	appErrors "github.com/farewellhq/event-pass-api/pkg/errors"
	"github.com/farewellhq/event-pass-api/pkg/export"
)

// Export formats supported by the roster export endpoint.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type exportRepository interface {
	All(ctx context.Context) ([]models.Student, error)
}

// ExportFile is a rendered export ready for download.
type ExportFile struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders the roster as a downloadable file.
type ExportService struct {
	repo   exportRepository
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(repo exportRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		repo:   repo,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		logger: logger,
	}
}

var exportHeaders = []string{"Name", "Email", "Roll Number", "Class/Section", "Pass Generated", "Pass Generated At"}

// Export renders the full roster in the requested format.
func (s *ExportService) Export(ctx context.Context, format string) (*ExportFile, error) {
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	students, err := s.repo.All(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	dataset := export.Dataset{Headers: exportHeaders, Rows: make([]map[string]string, 0, len(students))}
	for _, student := range students {
		row := map[string]string{
			"Name":           student.Name,
			"Email":          student.Email,
			"Roll Number":    student.RollNumber,
			"Pass Generated": "no",
		}
		if student.ClassSection != nil {
			row["Class/Section"] = *student.ClassSection
		}
		if student.PassGenerated {
			row["Pass Generated"] = "yes"
		}
		if student.PassGeneratedAt != nil {
			row["Pass Generated At"] = student.PassGeneratedAt.Format(time.RFC3339)
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	stamp := time.Now().UTC().Format("2006-01-02")
	switch format {
	case FormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{Content: content, ContentType: "text/csv", Filename: "students-" + stamp + ".csv"}, nil
	default:
		content, err := s.pdf.Render(dataset, "Event Roster")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{Content: content, ContentType: "application/pdf", Filename: "students-" + stamp + ".pdf"}, nil
	}
}
