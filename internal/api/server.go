package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"

	"conf-review/internal/assignment"
	"conf-review/internal/model"
	"conf-review/internal/review"
	"conf-review/internal/roster"
	"conf-review/internal/scoring"
	"conf-review/internal/weightage"
)

// AssignmentService 抽象分配接口。
type AssignmentService interface {
	RunAuto(ctx context.Context, conferenceID string) (assignment.RunResult, error)
	AssignManually(ctx context.Context, paperID, reviewerID, conferenceID string) (model.Assignment, error)
	ListByConference(ctx context.Context, conferenceID string) ([]model.Assignment, error)
	GroupByPaper(ctx context.Context, conferenceID string) ([]assignment.PaperAssignments, error)
	ListForReviewer(ctx context.Context, reviewerID string) ([]assignment.ReviewerPaper, error)
}

// WeightageService 抽象权重接口。
type WeightageService interface {
	Get(ctx context.Context, conferenceID string) (model.Weights, error)
	Set(ctx context.Context, conferenceID string, req weightage.Request) (model.Weights, error)
}

// ReviewService 抽象评审接口。
type ReviewService interface {
	Submit(ctx context.Context, req review.SubmitRequest) (model.Review, error)
	CheckIfAlreadyReviewed(ctx context.Context, paperID, reviewerID string) (bool, error)
	ListByPaper(ctx context.Context, paperID string) ([]model.Review, error)
	Summary(ctx context.Context, conferenceID string) ([]scoring.PaperSummary, error)
	UpdateDecision(ctx context.Context, paperID string, decision model.FinalDecision) (*model.Paper, error)
	MarkResubmitted(ctx context.Context, paperID string) (*model.Paper, error)
}

// RosterService 抽象评审名单接口。
type RosterService interface {
	Register(ctx context.Context, req roster.Request) (model.ConferenceReviewer, error)
	List(ctx context.Context, conferenceID string) ([]model.ConferenceReviewer, error)
}

// Services 汇总 HTTP 层依赖。
type Services struct {
	Assignments AssignmentService
	Weightage   WeightageService
	Reviews     ReviewService
	Roster      RosterService
	Logger      *log.Logger
}

// ManualAssignRequest 表示手动分配请求。
type ManualAssignRequest struct {
	PaperID      string `json:"paper_id"`
	ReviewerID   string `json:"reviewer_id"`
	ConferenceID string `json:"conference_id"`
}

// DecisionRequest 表示最终决定请求。
type DecisionRequest struct {
	Decision model.FinalDecision `json:"decision"`
}

// WeightageResponse 是会议权重的响应体。
type WeightageResponse struct {
	ConferenceID string `json:"conference_id"`
	model.Weights
}

// NewHandler 构造 HTTP 多路复用器。
func NewHandler(svc Services) http.Handler {
	logger := svc.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[api] ", log.LstdFlags)
	}
	fail := func(w http.ResponseWriter, r *http.Request, err error) {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			logger.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/conferences/{id}/auto-assign", func(w http.ResponseWriter, r *http.Request) {
		res, err := svc.Assignments.RunAuto(r.Context(), r.PathValue("id"))
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	mux.HandleFunc("POST /api/assignments", func(w http.ResponseWriter, r *http.Request) {
		var req ManualAssignRequest
		if !decode(w, r, &req) {
			return
		}
		a, err := svc.Assignments.AssignManually(r.Context(), req.PaperID, req.ReviewerID, req.ConferenceID)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	})

	mux.HandleFunc("GET /api/conferences/{id}/assignments", func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Assignments.ListByConference(r.Context(), r.PathValue("id"))
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	})

	mux.HandleFunc("GET /api/conferences/{id}/assignments/by-paper", func(w http.ResponseWriter, r *http.Request) {
		groups, err := svc.Assignments.GroupByPaper(r.Context(), r.PathValue("id"))
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(groups))
	})

	mux.HandleFunc("GET /api/reviewers/{id}/assignments", func(w http.ResponseWriter, r *http.Request) {
		papers, err := svc.Assignments.ListForReviewer(r.Context(), r.PathValue("id"))
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(papers))
	})

	mux.HandleFunc("GET /api/conferences/{id}/weightage", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		weights, err := svc.Weightage.Get(r.Context(), id)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, WeightageResponse{ConferenceID: id, Weights: weights})
	})

	mux.HandleFunc("PUT /api/conferences/{id}/weightage", func(w http.ResponseWriter, r *http.Request) {
		var req weightage.Request
		if !decode(w, r, &req) {
			return
		}
		id := r.PathValue("id")
		weights, err := svc.Weightage.Set(r.Context(), id, req)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, WeightageResponse{ConferenceID: id, Weights: weights})
	})

	mux.HandleFunc("POST /api/reviews", func(w http.ResponseWriter, r *http.Request) {
		var req review.SubmitRequest
		if !decode(w, r, &req) {
			return
		}
		rv, err := svc.Reviews.Submit(r.Context(), req)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, rv)
	})

	mux.HandleFunc("GET /api/papers/{id}/reviews", func(w http.ResponseWriter, r *http.Request) {
		reviews, err := svc.Reviews.ListByPaper(r.Context(), r.PathValue("id"))
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(reviews))
	})

	mux.HandleFunc("GET /api/papers/{id}/reviewed", func(w http.ResponseWriter, r *http.Request) {
		done, err := svc.Reviews.CheckIfAlreadyReviewed(r.Context(), r.PathValue("id"), r.URL.Query().Get("reviewer_id"))
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"already_reviewed": done})
	})

	mux.HandleFunc("GET /api/conferences/{id}/review-summary", func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Reviews.Summary(r.Context(), r.PathValue("id"))
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(summary))
	})

	mux.HandleFunc("POST /api/papers/{id}/decision", func(w http.ResponseWriter, r *http.Request) {
		var req DecisionRequest
		if !decode(w, r, &req) {
			return
		}
		paper, err := svc.Reviews.UpdateDecision(r.Context(), r.PathValue("id"), req.Decision)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, paper)
	})

	mux.HandleFunc("POST /api/papers/{id}/resubmit", func(w http.ResponseWriter, r *http.Request) {
		paper, err := svc.Reviews.MarkResubmitted(r.Context(), r.PathValue("id"))
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, paper)
	})

	mux.HandleFunc("POST /api/conferences/{id}/reviewers", func(w http.ResponseWriter, r *http.Request) {
		var req roster.Request
		if !decode(w, r, &req) {
			return
		}
		req.ConferenceID = r.PathValue("id")
		reviewer, err := svc.Roster.Register(r.Context(), req)
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, reviewer)
	})

	mux.HandleFunc("GET /api/conferences/{id}/reviewers", func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.Roster.List(r.Context(), r.PathValue("id"))
		if err != nil {
			fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(list))
	})

	return mux
}

// statusFor 将错误分类映射为 HTTP 状态码。
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateAssignment):
		return http.StatusConflict
	case errors.Is(err, model.ErrCapacity):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return false
	}
	return true
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
