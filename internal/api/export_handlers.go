package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/easycomment/easycomment-server/internal/errors"
	"github.com/easycomment/easycomment-server/internal/export"
)

func (s *Server) registerExportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "exportCommentsJSON",
		Method:      http.MethodGet,
		Path:        "/export/{id}/json",
		Summary:     "Export comments as JSON",
		Description: "Downloads every comment of the instance, hidden ones included",
		Tags:        []string{"Export"},
	}, s.exportHandler(export.FormatJSON))

	huma.Register(s.api, huma.Operation{
		OperationID: "exportCommentsCSV",
		Method:      http.MethodGet,
		Path:        "/export/{id}/csv",
		Summary:     "Export comments as CSV",
		Description: "Downloads every comment of the instance, hidden ones included",
		Tags:        []string{"Export"},
	}, s.exportHandler(export.FormatCSV))
}

// ExportOutput is a file download.
type ExportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func (s *Server) exportHandler(format export.Format) func(context.Context, *InstanceIDInput) (*ExportOutput, error) {
	return func(ctx context.Context, input *InstanceIDInput) (*ExportOutput, error) {
		instance, err := s.services.Instance.Get(ctx, input.ID)
		if err != nil {
			return nil, statusError(err)
		}
		comments, err := s.services.Comment.ListAll(ctx, input.ID)
		if err != nil {
			return nil, statusError(err)
		}

		var body []byte
		switch format {
		case export.FormatCSV:
			body = export.CSV(comments)
		default:
			body, err = export.JSON(export.NewDocument(instance, comments, s.clock.Now().In(s.location)))
			if err != nil {
				return nil, statusError(domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to encode export"))
			}
		}

		s.logger.Info("comments exported",
			"instance_id", input.ID,
			"format", string(format),
			"count", len(comments))

		return &ExportOutput{
			ContentType:        format.ContentType(),
			ContentDisposition: "attachment; filename=" + export.Filename(input.ID, format),
			Body:               body,
		}, nil
	}
}
