package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"tabrev/internal/config"
	"tabrev/internal/eval"
	"tabrev/internal/models"
	"tabrev/internal/parser"
	"tabrev/internal/review"
	"tabrev/internal/storage"
	"tabrev/internal/table"
	"tabrev/internal/util"
	"tabrev/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg          config.Config
	db           *storage.DB
	projectRepo  *storage.ProjectRepo
	documentRepo *storage.DocumentRepo
	chunkRepo    *storage.ChunkRepo
	fieldRepo    *storage.FieldDefRepo
	recordRepo   *storage.RecordRepo
	auditRepo    *storage.AuditRepo
	taskRepo     *storage.TaskRepo
	temporal     tclient.Client
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	return &Server{
		cfg:          cfg,
		db:           db,
		projectRepo:  storage.NewProjectRepo(db),
		documentRepo: storage.NewDocumentRepo(db),
		chunkRepo:    storage.NewChunkRepo(db),
		fieldRepo:    storage.NewFieldDefRepo(db),
		recordRepo:   storage.NewRecordRepo(db),
		auditRepo:    storage.NewAuditRepo(db),
		taskRepo:     storage.NewTaskRepo(db),
		temporal:     tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/projects", s.handleProjects)
	mux.HandleFunc("/projects/", s.handleProjectScoped)
	mux.HandleFunc("/tasks/", s.handleTaskScoped)
	mux.HandleFunc("/records/", s.handleRecordScoped)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		projects, err := s.projectRepo.List(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
	case http.MethodPost:
		var req struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
			return
		}
		p := models.Project{ProjectID: uuid.NewString(), Name: req.Name, Description: strings.TrimSpace(req.Description)}
		if err := s.projectRepo.Create(r.Context(), p); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"project_id": p.ProjectID, "name": p.Name})
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleProjectScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/projects/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	projectID := parts[0]

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		p, err := s.projectRepo.Get(r.Context(), projectID)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
		return
	}

	switch parts[1] {
	case "documents":
		s.handleDocuments(w, r, projectID)
	case "fields":
		s.handleFields(w, r, projectID)
	case "extract":
		s.handleExtract(w, r, projectID)
	case "table":
		if len(parts) == 3 && parts[2] == "export" {
			s.handleTableExport(w, r, projectID)
			return
		}
		s.handleTable(w, r, projectID)
	case "evaluation":
		s.handleEvaluation(w, r, projectID)
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request, projectID string) {
	switch r.Method {
	case http.MethodGet:
		docs, err := s.documentRepo.ListCurrentByProject(r.Context(), projectID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
	case http.MethodPost:
		s.handleUpload(w, r, projectID)
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

// handleUpload ingests documents: detect format, normalize and chunk
// synchronously, persist. Re-uploading a filename produces a new version and
// supersedes the old one together with its review outcomes.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, projectID string) {
	if _, err := s.projectRepo.Get(r.Context(), projectID); err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	if err := r.ParseMultipartForm(s.cfg.UploadMaxBytes); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		for _, fhs := range r.MultipartForm.File {
			files = append(files, fhs...)
		}
	}
	if len(files) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}

	out := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		doc, err := s.ingestFile(r.Context(), projectID, fh)
		if err != nil {
			if errors.Is(err, parser.ErrUnsupportedFormat) {
				writeErr(w, http.StatusBadRequest, err)
				return
			}
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, map[string]any{
			"document_id": doc.DocumentID,
			"filename":    doc.Filename,
			"version":     doc.Version,
			"status":      doc.Status,
			"fail_reason": doc.FailReason,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"uploaded": out})
}

func (s *Server) ingestFile(ctx context.Context, projectID string, fh *multipart.FileHeader) (models.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return models.Document{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return models.Document{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}

	format, err := parser.DetectFormat(fh.Filename)
	if err != nil {
		return models.Document{}, err
	}

	sum := util.SHA256Hex(raw)
	// Re-uploading identical bytes is a no-op, not a new version.
	if latest, err := s.documentRepo.GetLatestByFilename(ctx, projectID, fh.Filename); err == nil {
		if latest.SHA256 == sum && latest.Status != models.ParseFailed {
			return latest, nil
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.Document{}, err
	}

	version, err := s.documentRepo.NextVersion(ctx, projectID, fh.Filename)
	if err != nil {
		return models.Document{}, err
	}

	doc := models.Document{
		DocumentID: uuid.NewString(),
		ProjectID:  projectID,
		Filename:   fh.Filename,
		Format:     string(format),
		ByteSize:   int64(len(raw)),
		SHA256:     sum,
		Version:    version,
		Status:     models.ParsePending,
	}
	if err := s.documentRepo.Insert(ctx, doc); err != nil {
		return models.Document{}, err
	}

	chunks, status, perr := parser.Parse(raw, format, s.cfg.ChunkMaxChars)
	doc.Status = status
	if perr != nil {
		doc.FailReason = perr.Error()
		if err := s.documentRepo.UpdateStatus(ctx, doc.DocumentID, status, doc.FailReason); err != nil {
			return models.Document{}, err
		}
		// A failed re-parse never displaces the prior version: the failed row
		// is superseded immediately so the old version stays current.
		if version > 1 {
			if err := s.documentRepo.MarkVersionSuperseded(ctx, doc.DocumentID); err != nil {
				return models.Document{}, err
			}
			doc.Superseded = true
		}
		return doc, nil
	}

	for i := range chunks {
		chunks[i].ChunkID = uuid.NewString()
		chunks[i].DocumentID = doc.DocumentID
	}
	if err := s.chunkRepo.ReplaceForDocument(ctx, doc.DocumentID, chunks); err != nil {
		return models.Document{}, err
	}
	if err := s.documentRepo.UpdateStatus(ctx, doc.DocumentID, status, ""); err != nil {
		return models.Document{}, err
	}

	superseded, err := s.documentRepo.MarkSuperseded(ctx, projectID, fh.Filename, version)
	if err != nil {
		return models.Document{}, err
	}
	if err := s.supersedeRecords(ctx, superseded, fh.Filename, version); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

// supersedeRecords returns finalized records of replaced document versions
// to PENDING, writing the transition to the audit trail.
func (s *Server) supersedeRecords(ctx context.Context, documentIDs []string, filename string, newVersion int) error {
	if len(documentIDs) == 0 {
		return nil
	}
	records, err := s.recordRepo.ListByDocuments(ctx, documentIDs)
	if err != nil {
		return err
	}
	note := fmt.Sprintf("document %s replaced by version %d", filename, newVersion)
	for _, rec := range records {
		if !rec.State.Terminal() {
			continue
		}
		expected := rec.Version
		entry, err := review.Supersede(&rec, note)
		if err != nil {
			return err
		}
		if err := s.recordRepo.UpdateReview(ctx, rec, expected); err != nil {
			return err
		}
		if err := s.auditRepo.Insert(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request, projectID string) {
	switch r.Method {
	case http.MethodGet:
		fields, err := s.fieldRepo.ListByProject(r.Context(), projectID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"fields": fields})
	case http.MethodPost:
		var req struct {
			Name       string   `json:"name"`
			Type       string   `json:"type"`
			Hint       string   `json:"hint"`
			EnumValues []string `json:"enum_values"`
			Required   bool     `json:"required"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("field name is required"))
			return
		}
		ftype := models.FieldType(strings.ToUpper(strings.TrimSpace(req.Type)))
		switch ftype {
		case models.FieldString, models.FieldDate, models.FieldCurrency, models.FieldBoolean, models.FieldEnum:
		default:
			writeErr(w, http.StatusBadRequest, fmt.Errorf("unknown field type %q", req.Type))
			return
		}
		if ftype == models.FieldEnum && len(req.EnumValues) == 0 {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("enum fields require enum_values"))
			return
		}
		f := models.FieldDefinition{
			FieldID:    uuid.NewString(),
			ProjectID:  projectID,
			Name:       req.Name,
			Type:       ftype,
			Hint:       strings.TrimSpace(req.Hint),
			EnumValues: req.EnumValues,
			Required:   req.Required,
		}
		if err := s.fieldRepo.Create(r.Context(), f); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"field_id": f.FieldID, "name": f.Name})
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

// handleExtract starts an extraction run. The workflow ID is derived from
// the project so a project never has two concurrent runs; a second request
// while one is active attaches to the running task instead of starting over.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request, projectID string) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		DocumentIDs []string `json:"document_ids"`
		FieldIDs    []string `json:"field_ids"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
	}

	taskID := uuid.NewString()
	task := models.Task{TaskID: taskID, ProjectID: projectID, State: models.TaskPending}
	if err := s.taskRepo.Create(r.Context(), task); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:                                       "extract-" + projectID,
		TaskQueue:                                s.cfg.TemporalTaskQueue,
		WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}, workflows.ExtractionRunWorkflow, workflows.ExtractionRunInput{
		TaskID:      taskID,
		ProjectID:   projectID,
		DocumentIDs: req.DocumentIDs,
		FieldIDs:    req.FieldIDs,
		MaxParallel: s.cfg.MaxParallelPairs,
	})
	if err != nil {
		if prog, ok := s.runningProgress(r.Context(), projectID); ok {
			_ = s.taskRepo.Finish(r.Context(), taskID, models.TaskFailed, "attached to running task "+prog.TaskID)
			writeJSON(w, http.StatusOK, map[string]any{
				"task_id":     prog.TaskID,
				"workflow_id": "extract-" + projectID,
				"attached":    true,
			})
			return
		}
		_ = s.taskRepo.Finish(r.Context(), taskID, models.TaskFailed, "extraction already running for project")
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"task_id":     taskID,
		"workflow_id": we.GetID(),
		"run_id":      we.GetRunID(),
	})
}

// runningProgress queries the project's live extraction workflow, if any.
func (s *Server) runningProgress(ctx context.Context, projectID string) (workflows.ExtractionRunProgress, bool) {
	resp, err := s.temporal.QueryWorkflow(ctx, "extract-"+projectID, "", workflows.QueryGetProgress)
	if err != nil {
		return workflows.ExtractionRunProgress{}, false
	}
	var prog workflows.ExtractionRunProgress
	if err := resp.Get(&prog); err != nil || prog.TaskID == "" {
		return workflows.ExtractionRunProgress{}, false
	}
	return prog, true
}

func (s *Server) handleTaskScoped(w http.ResponseWriter, r *http.Request) {
	taskID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/tasks/"), "/")
	if taskID == "" || strings.Contains(taskID, "/") {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}

	task, err := s.taskRepo.Get(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	// Prefer live workflow progress; fall back to the task row when the
	// workflow is gone or belongs to a newer run.
	if prog, ok := s.runningProgress(r.Context(), task.ProjectID); ok && prog.TaskID == taskID {
		writeJSON(w, http.StatusOK, map[string]any{"task": task, "progress": prog})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request, projectID string) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	grid, err := s.buildGrid(r.Context(), projectID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

func (s *Server) handleTableExport(w http.ResponseWriter, r *http.Request, projectID string) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	grid, err := s.buildGrid(r.Context(), projectID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", projectID+"-table.csv"))
		if err := grid.WriteCSV(w); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
		}
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", projectID+"-table.xlsx"))
		if err := grid.WriteXLSX(w); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
		}
	default:
		writeErr(w, http.StatusBadRequest, fmt.Errorf("unsupported export format %q", format))
	}
}

func (s *Server) buildGrid(ctx context.Context, projectID string) (table.Grid, error) {
	docs, err := s.documentRepo.ListCurrentByProject(ctx, projectID)
	if err != nil {
		return table.Grid{}, err
	}
	fields, err := s.fieldRepo.ListByProject(ctx, projectID)
	if err != nil {
		return table.Grid{}, err
	}
	records, err := s.recordRepo.ListByProject(ctx, projectID)
	if err != nil {
		return table.Grid{}, err
	}
	return table.Build(projectID, docs, fields, records), nil
}

func (s *Server) handleEvaluation(w http.ResponseWriter, r *http.Request, projectID string) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	docs, err := s.documentRepo.ListCurrentByProject(r.Context(), projectID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	fields, err := s.fieldRepo.ListByProject(r.Context(), projectID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	records, err := s.recordRepo.ListByProject(r.Context(), projectID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, eval.Evaluate(projectID, docs, fields, records, time.Now().UTC()))
}

func (s *Server) handleRecordScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/records/"), "/"), "/")
	if len(parts) < 2 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	recordID := parts[0]

	switch parts[1] {
	case "review":
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleReview(w, r, recordID)
	case "audit":
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		entries, err := s.auditRepo.ListByRecord(r.Context(), recordID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

// handleReview applies one review action. OPEN moves the record to
// UNDER_REVIEW; APPROVE, REJECT and OVERRIDE close it. The record's version
// guards against concurrent reviewers.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request, recordID string) {
	var req struct {
		Action   string `json:"action"`
		Value    string `json:"value"`
		Note     string `json:"note"`
		Reviewer string `json:"reviewer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.Reviewer = strings.TrimSpace(req.Reviewer)
	if req.Reviewer == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("reviewer is required"))
		return
	}

	rec, err := s.recordRepo.GetByID(r.Context(), recordID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	expected := rec.Version

	var entry models.AuditEntry
	action := strings.ToUpper(strings.TrimSpace(req.Action))
	switch action {
	case "OPEN":
		entry, err = review.Open(&rec, req.Reviewer)
	case string(review.ActionApprove), string(review.ActionReject), string(review.ActionOverride):
		var override *string
		if req.Value != "" {
			override = &req.Value
		}
		entry, err = review.Apply(&rec, review.Action(action), req.Reviewer, req.Note, override)
	default:
		writeErr(w, http.StatusBadRequest, fmt.Errorf("unknown review action %q", req.Action))
		return
	}
	if err != nil {
		switch {
		case errors.Is(err, review.ErrInvalidTransition):
			writeErr(w, http.StatusConflict, err)
		case errors.Is(err, review.ErrMissingOverrideValue):
			writeErr(w, http.StatusBadRequest, err)
		default:
			writeErr(w, http.StatusInternalServerError, err)
		}
		return
	}

	if err := s.recordRepo.UpdateReview(r.Context(), rec, expected); err != nil {
		if errors.Is(err, storage.ErrVersionConflict) {
			writeErr(w, http.StatusConflict, err)
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	if err := s.auditRepo.Insert(r.Context(), entry); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": rec, "audit_entry": entry})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "TR-API-4000"
	raw := ""
	if err != nil {
		raw = strings.ToLower(err.Error())
	}

	switch {
	case status >= 500:
		switch {
		case strings.Contains(raw, "relation") && strings.Contains(raw, "does not exist"):
			return apiError{
				Code:    "TR-DB-5001",
				Message: "Database schema is not initialized. Run migrations and retry.",
			}
		case strings.Contains(raw, "connect"), strings.Contains(raw, "dial tcp"), strings.Contains(raw, "connection refused"):
			return apiError{
				Code:    "TR-DB-5002",
				Message: "Database connection is unavailable. Check local services and retry.",
			}
		default:
			return apiError{
				Code:    "TR-API-5000",
				Message: "Internal server error. Please retry or check service logs.",
			}
		}
	case status == http.StatusBadRequest:
		code = "TR-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case status == http.StatusNotFound:
		code = "TR-API-4004"
		msg = "Requested resource was not found."
	case status == http.StatusConflict:
		code = "TR-API-4009"
		msg = "Operation conflicts with current state. Retry after checking status."
	case status == http.StatusMethodNotAllowed:
		code = "TR-API-4005"
		msg = "This endpoint does not support the requested method."
	}

	// For 4xx, keep user-safe validation context only.
	if status >= 400 && status < 500 && err != nil {
		switch {
		case strings.Contains(raw, "name is required"):
			msg = "A name is required."
		case strings.Contains(raw, "reviewer is required"):
			msg = "Reviewer identity is required."
		case strings.Contains(raw, "no files provided"):
			msg = "No document files were provided."
		case strings.Contains(raw, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(raw, "unsupported document format"):
			msg = "Unsupported document format. Use PDF, DOCX, HTML or plain text."
		case strings.Contains(raw, "override requires a value"):
			msg = "A replacement value is required to override."
		case strings.Contains(raw, "invalid review transition"):
			msg = "The record is not in a state that allows this action."
		case strings.Contains(raw, "unsupported export format"):
			msg = "Unsupported export format. Use csv or xlsx."
		}
	}

	return apiError{Code: code, Message: msg}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
