package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/JonMunkholm/agentstats/internal/core"
	"github.com/JonMunkholm/agentstats/internal/web/templates"
)

// multipartSlack covers the multipart envelope around the file part.
const multipartSlack = 1 << 20

// ImportResponse is the JSON body of POST /api/import.
type ImportResponse struct {
	Success      bool            `json:"success"`
	UpdatedCount int             `json:"updatedCount"`
	SourceKind   core.SourceKind `json:"sourceKind,omitempty"`
	Message      string          `json:"message"`
	Reason       string          `json:"reason,omitempty"`
	Action       string          `json:"action,omitempty"`
	Code         string          `json:"code,omitempty"`
	Job          *core.ImportJob `json:"job"`
}

// handleImport accepts a CSV export as the multipart field "file" or as a
// raw text/csv body and runs it through the import pipeline.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartSlack)

	body, fileName, err := importBody(r, maxSize)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	defer body.Close()

	job := s.service.ImportReader(r.Context(), teamID(r), fileName, body)
	s.respondImport(w, r, job)
}

// importBody returns the upload stream. Size is enforced again when the
// stream is read, so a raw body of exactly the limit is accepted.
func importBody(r *http.Request, maxSize int64) (io.ReadCloser, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, "", nil
	}

	if err := r.ParseMultipartForm(min(maxSize, 32<<20)); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", fmt.Errorf("%w: exceeds %d bytes", core.ErrFileTooLarge, maxSize)
		}
		return nil, "", fmt.Errorf("%w: invalid multipart form", core.ErrValidation)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: no file provided", core.ErrValidation)
	}
	if header.Size > maxSize {
		file.Close()
		return nil, "", fmt.Errorf("%w: exceeds %d bytes", core.ErrFileTooLarge, maxSize)
	}
	return file, header.Filename, nil
}

func (s *Server) respondImport(w http.ResponseWriter, r *http.Request, job *core.ImportJob) {
	o := job.Outcome
	resp := ImportResponse{
		Success:      o.Success,
		UpdatedCount: o.UpdatedCount,
		SourceKind:   o.Source,
		Message:      o.Message(),
		Job:          job,
	}
	status := http.StatusOK
	if !o.Success {
		msg := core.MapError(o.Err)
		resp.Message = msg.Message
		resp.Reason = o.Reason
		resp.Action = msg.Action
		resp.Code = msg.Code
		status = statusFor(o.Err)
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.ImportBanner(templates.ImportResult{
			Success:     resp.Success,
			Message:     resp.Message,
			Detail:      resp.Action,
			RowsRead:    job.RowsRead,
			RowsSkipped: job.RowsSkipped,
		}).Render(r.Context(), w)
		return
	}
	writeJSON(w, r, status, resp)
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.Aggregate(r.Context(), teamID(r))
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}
