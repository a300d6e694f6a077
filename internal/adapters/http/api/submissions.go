// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jinzhu/copier"

	service "github.com/okian/verdict/internal/app"
	"github.com/okian/verdict/internal/domain/types"
)

// maxMultipartMemory bounds the in-memory portion of form parsing.
const maxMultipartMemory = 32 << 20

// SubmissionsHandler handles submission intake and read requests.
type SubmissionsHandler struct {
	deps Dependencies
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(deps Dependencies) *SubmissionsHandler {
	return &SubmissionsHandler{deps: deps}
}

// evaluateRequest mirrors the OpenAPI schema for POST /submissions/evaluate.
type evaluateRequest struct {
	TeamID    string  `json:"team_id"`
	ProblemID string  `json:"problem_id"`
	StudentID *string `json:"student_id,omitempty"`
	Source    string  `json:"source"`
	Actor     string  `json:"actor"`
}

func (e evaluateRequest) validate() error {
	switch {
	case strings.TrimSpace(e.TeamID) == "":
		return errors.New("missing team_id")
	case strings.TrimSpace(e.ProblemID) == "":
		return errors.New("missing problem_id")
	case strings.TrimSpace(e.Source) == "":
		return errors.New("missing source")
	case strings.TrimSpace(e.Actor) == "":
		return errors.New("missing actor")
	}
	return nil
}

// evaluationResponse is the submitter-facing outcome envelope.
type evaluationResponse struct {
	SubmissionID string             `json:"submission_id"`
	Status       string             `json:"status"`
	Raw          float64            `json:"raw_score"`
	Final        float64            `json:"final_score"`
	Cases        []types.CaseResult `json:"cases"`
}

// HandleEvaluate handles POST /submissions/evaluate requests.
func (h *SubmissionsHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", WrapKind(op, ErrBadRequest, err))
		return
	}

	out, err := h.deps.EvaluateCode(r.Context(), service.EvaluateRequest{
		TeamID:    req.TeamID,
		ProblemID: req.ProblemID,
		StudentID: req.StudentID,
		Source:    req.Source,
		Actor:     req.Actor,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var resp evaluationResponse
	_ = copier.Copy(&resp, out)
	resp.Status = out.Status.String()
	writeJSON(w, http.StatusOK, resp)
}

type fileResponse struct {
	SubmissionID string `json:"submission_id"`
	URL          string `json:"url"`
	Status       string `json:"status"`
}

// HandleFile handles POST /submissions/file multipart requests.
func (h *SubmissionsHandler) HandleFile(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_file"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", WrapKind(op, ErrBadRequest, err))
		return
	}

	teamID := strings.TrimSpace(r.FormValue("team_id"))
	problemID := strings.TrimSpace(r.FormValue("problem_id"))
	actor := strings.TrimSpace(r.FormValue("actor"))
	if teamID == "" || problemID == "" || actor == "" {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST",
			NewKind(op, errors.New("missing team_id, problem_id or actor")))
		return
	}
	var studentID *string
	if v := strings.TrimSpace(r.FormValue("student_id")); v != "" {
		studentID = &v
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", WrapKind(op, ErrBadRequest, err))
		return
	}

	receipt, err := h.deps.SubmitFile(r.Context(), service.FileRequest{
		TeamID:    teamID,
		ProblemID: problemID,
		StudentID: studentID,
		Filename:  header.Filename,
		Data:      data,
		Actor:     actor,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, fileResponse{
		SubmissionID: receipt.SubmissionID,
		URL:          receipt.URL,
		Status:       "pending",
	})
}

// manualScoreRequest mirrors POST /submissions/{id}/score.
type manualScoreRequest struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
	JudgedBy string  `json:"judged_by"`
}

type downloadResponse struct {
	URL string `json:"url"`
}

// HandleSubmission dispatches /submissions/{id}/download and
// /submissions/{id}/score.
func (h *SubmissionsHandler) HandleSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "api.submission"

	rest := strings.TrimPrefix(r.URL.Path, "/submissions/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id, action := parts[0], parts[1]

	switch {
	case action == "download" && r.Method == http.MethodGet:
		url, err := h.deps.DownloadURL(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, downloadResponse{URL: url})

	case action == "score" && r.Method == http.MethodPost:
		var req manualScoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", WrapKind(op, ErrBadRequest, err))
			return
		}
		if strings.TrimSpace(req.JudgedBy) == "" {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST",
				NewKind(op, errors.New("missing judged_by")))
			return
		}
		if err := h.deps.SetManualScore(r.Context(), id, req.Score, req.Feedback, req.JudgedBy); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "finished"})

	default:
		http.NotFound(w, r)
	}
}
