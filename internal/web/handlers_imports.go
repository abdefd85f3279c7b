package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/academia/internal/core"
)

// multipartOverhead is allowed on top of the file size for form framing.
const multipartOverhead = 1 << 20

type createImportRequest struct {
	ImportType string `json:"importType" validate:"required,import_kind"`
	FileName   string `json:"fileName" validate:"notblank,max=255"`
	ImportedBy string `json:"importedBy" validate:"omitempty,uuid"`
}

type processImportRequest struct {
	ImportID    string `json:"importId" validate:"required,uuid"`
	ImportType  string `json:"importType" validate:"required,import_kind"`
	FileContent string `json:"fileContent"`
	FileName    string `json:"fileName" validate:"max=255"`
}

type processImportResponse struct {
	Success    bool      `json:"success"`
	ImportID   uuid.UUID `json:"importId"`
	Processed  int       `json:"processed"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
}

func toProcessResponse(res core.ImportResult) processImportResponse {
	return processImportResponse{
		Success:    true,
		ImportID:   res.JobID,
		Processed:  res.Processed,
		Successful: res.Successful,
		Failed:     res.Failed,
	}
}

// decodeJSON reads a JSON body of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errUploadTooLarge
		}
		return errInvalidJSON
	}
	return nil
}

func parseID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errInvalidID
	}
	return id, nil
}

// handleCreateImport registers a pending import job.
func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	var req createImportRequest
	if err := decodeJSON(w, r, 64<<10, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, err)
		return
	}

	kind, _ := core.ParseImportKind(req.ImportType)
	newJob := core.NewJob{Kind: kind, FileName: req.FileName}
	if req.ImportedBy != "" {
		newJob.ImportedBy = uuid.MustParse(req.ImportedBy)
	}

	job, err := s.service.CreateJob(r.Context(), newJob)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, job)
}

// handleProcessImport is the JSON entry point: the whole file travels as
// text in fileContent.
func (s *Server) handleProcessImport(w http.ResponseWriter, r *http.Request) {
	// JSON escaping can double the content size.
	limit := 2*s.service.MaxFileSize() + multipartOverhead

	var req processImportRequest
	if err := decodeJSON(w, r, limit, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(w, r, err)
		return
	}

	kind, _ := core.ParseImportKind(req.ImportType)
	res, err := s.service.ProcessImport(r.Context(), core.ImportRequest{
		JobID:    uuid.MustParse(req.ImportID),
		Kind:     kind,
		FileName: req.FileName,
		Content:  []byte(req.FileContent),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, toProcessResponse(res))
}

// handleUploadImport runs a job from a multipart upload. The form field
// "file" holds the CSV; "importType" is optional and defaults to the job's.
func (s *Server) handleUploadImport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, errUploadTooLarge)
			return
		}
		s.respondError(w, r, fmt.Errorf("invalid request: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	var kind core.ImportKind
	if raw := r.FormValue("importType"); raw != "" {
		if kind, err = core.ParseImportKind(raw); err != nil {
			s.respondError(w, r, err)
			return
		}
	} else {
		job, err := s.service.GetJob(r.Context(), id)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		kind = job.Kind
	}

	res, err := s.service.ProcessImport(r.Context(), core.ImportRequest{
		JobID:    id,
		Kind:     kind,
		FileName: header.Filename,
		Content:  content,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, toProcessResponse(res))
}

// handleListImports returns import history, newest first.
func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	filter, err := parseJobFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	jobs, err := s.service.ListJobs(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"imports": jobs,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}

func parseJobFilter(r *http.Request) (core.JobFilter, error) {
	q := r.URL.Query()
	var filter core.JobFilter
	bad := map[string]string{}

	if raw := q.Get("type"); raw != "" {
		kind, err := core.ParseImportKind(raw)
		if err != nil {
			bad["type"] = "type must be one of: users, subjects, groups, schedules"
		}
		filter.Kind = kind
	}
	if raw := q.Get("status"); raw != "" {
		st, err := core.ParseJobStatus(raw)
		if err != nil {
			bad["status"] = "status must be one of: pending, processing, completed, failed"
		}
		filter.Status = st
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || n < 0 {
			bad[name] = name + " must be a non-negative integer"
			continue
		}
		*dst = n
	}

	if len(bad) > 0 {
		return core.JobFilter{}, &RequestError{Fields: bad}
	}
	if filter.Limit == 0 {
		filter.Limit = 50
	}
	if filter.Limit > 200 {
		filter.Limit = 200
	}
	return filter, nil
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	job, err := s.service.GetJob(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, job)
}

func (s *Server) handleListRowErrors(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rowErrs, err := s.service.ListRowErrors(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{
		"import_id": id,
		"errors":    rowErrs,
	})
}
