package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capyvagas/capyvagas-api/internal/models"
	appErrors "github.com/capyvagas/capyvagas-api/pkg/errors"
	"github.com/capyvagas/capyvagas-api/pkg/export"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// exportPageSize caps how many rows one export pulls.
const exportPageSize = 1000

// ExportResult is a rendered report ready to stream to the client.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders the dashboard's history views into downloadable
// CSV and PDF reports.
type ExportService struct {
	interactions interactionReader
	searches     jobSearchReader
	csv          csvRenderer
	pdf          pdfRenderer
	logger       *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(interactions interactionReader, searches jobSearchReader, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{interactions: interactions, searches: searches, csv: csv, pdf: pdf, logger: logger}
}

// ExportInteractions renders the interaction history matching the filter.
func (s *ExportService) ExportInteractions(ctx context.Context, filter models.InteractionFilter, format ExportFormat) (*ExportResult, error) {
	filter.Page = 1
	filter.PageSize = exportPageSize
	logs, _, err := s.interactions.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load interactions")
	}

	dataset := export.Dataset{
		Headers: []string{"Data", "Chat", "Direção", "Mensagem", "Sessão"},
	}
	for _, log := range logs {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Data":     log.CreatedAt.Format(time.RFC3339),
			"Chat":     log.ChatID,
			"Direção":  string(log.Direction),
			"Mensagem": log.Message,
			"Sessão":   log.SessionName,
		})
	}

	return s.render(dataset, "interacoes", "Histórico de Interações", format)
}

// ExportSearches renders the job-search history matching the filter.
func (s *ExportService) ExportSearches(ctx context.Context, filter models.JobSearchFilter, format ExportFormat) (*ExportResult, error) {
	filter.Page = 1
	filter.PageSize = exportPageSize
	logs, _, err := s.searches.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load job searches")
	}

	dataset := export.Dataset{
		Headers: []string{"Data", "Chat", "Termos", "Resultados", "Vagas"},
	}
	for _, log := range logs {
		titles := make([]string, 0, len(log.ResultsPreview))
		for _, job := range log.ResultsPreview {
			titles = append(titles, job.Title)
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Data":       log.CreatedAt.Format(time.RFC3339),
			"Chat":       log.ChatID,
			"Termos":     log.SearchTerm,
			"Resultados": strconv.Itoa(log.ResultsCount),
			"Vagas":      strings.Join(titles, "; "),
		})
	}

	return s.render(dataset, "buscas", "Histórico de Buscas de Vagas", format)
}

func (s *ExportService) render(dataset export.Dataset, stem, title string, format ExportFormat) (*ExportResult, error) {
	timestamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case FormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("%s-%s.csv", stem, timestamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case FormatPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("%s-%s.pdf", stem, timestamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
