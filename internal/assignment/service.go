package assignment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"conf-review/internal/model"

	"golang.org/x/sync/singleflight"
)

// Notifier 接收新建的分配记录。
type Notifier interface {
	Notify(ctx context.Context, assignments []model.Assignment) error
}

// Warning 表示未分满评审人的论文。
type Warning struct {
	PaperID           string `json:"paper_id"`
	Title             string `json:"title"`
	AssignedReviewers int    `json:"assigned_reviewers"`
	Message           string `json:"message"`
}

// RunResult 是一次自动分配的结果。
type RunResult struct {
	Assignments []model.Assignment `json:"assignments"`
	Warnings    []Warning          `json:"warnings"`
}

// PaperAssignments 按论文聚合的分配视图。
type PaperAssignments struct {
	PaperID       string            `json:"paper_id"`
	Title         string            `json:"title"`
	Status        model.PaperStatus `json:"status"`
	AssignedCount int               `json:"assigned_count"`
	ReviewerIDs   []string          `json:"reviewer_ids"`
}

// ReviewerPaper 是评审人视角下的一条分配。
type ReviewerPaper struct {
	AssignmentID string              `json:"assignment_id"`
	ConferenceID string              `json:"conference_id"`
	PaperID      string              `json:"paper_id"`
	Title        string              `json:"title"`
	Keywords     []string            `json:"keywords"`
	Status       model.PaperStatus   `json:"status"`
	Decision     model.FinalDecision `json:"decision"`
	AssignedAt   time.Time           `json:"assigned_at"`
}

// Service 负责自动分配、手动分配与分配查询。
type Service struct {
	store    Store
	cfg      Config
	notifier Notifier
	logger   *log.Logger
	locks    *conferenceLocks
	runs     singleflight.Group
}

// NewService 创建分配服务，notifier 可为空。
func NewService(store Store, cfg Config, notifier Notifier, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stdout, "[assignment] ", log.LstdFlags)
	}
	return &Service{
		store:    store,
		cfg:      cfg.withDefaults(),
		notifier: notifier,
		logger:   logger,
		locks:    newConferenceLocks(),
	}
}

// Config 返回生效的配置。
func (s *Service) Config() Config {
	return s.cfg
}

// RunAuto 为会议中所有 pending 论文分配评审人。同一会议的并发调用合并为一次运行。
func (s *Service) RunAuto(ctx context.Context, conferenceID string) (RunResult, error) {
	conferenceID = strings.TrimSpace(conferenceID)
	if conferenceID == "" {
		return RunResult{}, fmt.Errorf("%w: conference id required", model.ErrValidation)
	}

	v, err, _ := s.runs.Do(conferenceID, func() (any, error) {
		unlock := s.locks.lock(conferenceID)
		defer unlock()
		return s.runAuto(ctx, conferenceID)
	})
	if err != nil {
		return RunResult{}, err
	}
	return v.(RunResult), nil
}

func (s *Service) runAuto(ctx context.Context, conferenceID string) (RunResult, error) {
	if _, err := s.store.GetConference(ctx, conferenceID); err != nil {
		return RunResult{}, err
	}
	papers, err := s.store.ListPapers(ctx, conferenceID, model.PaperStatusPending)
	if err != nil {
		return RunResult{}, fmt.Errorf("list papers: %w", err)
	}
	if len(papers) == 0 {
		return RunResult{}, fmt.Errorf("%w: no pending papers in conference %s", model.ErrNotFound, conferenceID)
	}
	roster, err := s.store.ListReviewers(ctx, conferenceID)
	if err != nil {
		return RunResult{}, fmt.Errorf("list reviewers: %w", err)
	}
	if len(roster) == 0 {
		return RunResult{}, fmt.Errorf("%w: no reviewers in conference %s", model.ErrNotFound, conferenceID)
	}
	existing, err := s.store.ListAssignmentsByConference(ctx, conferenceID)
	if err != nil {
		return RunResult{}, fmt.Errorf("list assignments: %w", err)
	}

	m := newMatcher(s.cfg, roster, existing)
	result := RunResult{Assignments: []model.Assignment{}, Warnings: []Warning{}}
	for _, paper := range papers {
		picked := m.assign(paper)
		created := 0
		for _, reviewerID := range picked {
			a := model.Assignment{PaperID: paper.ID, ReviewerID: reviewerID, ConferenceID: conferenceID}
			if err := s.store.CreateAssignment(ctx, &a); err != nil {
				if errors.Is(err, model.ErrDuplicateAssignment) {
					s.logger.Printf("skip duplicate assignment paper=%s reviewer=%s", paper.ID, reviewerID)
					continue
				}
				return RunResult{}, fmt.Errorf("create assignment for paper %s: %w", paper.ID, err)
			}
			created++
			result.Assignments = append(result.Assignments, a)
		}
		if created == 0 {
			continue
		}
		if err := s.store.UpdatePaperStatus(ctx, paper.ID, model.PaperStatusAssigned); err != nil {
			return RunResult{}, fmt.Errorf("update paper %s status: %w", paper.ID, err)
		}
		if total := m.countFor(paper.ID); total < s.cfg.ReviewersPerPaper {
			result.Warnings = append(result.Warnings, Warning{
				PaperID:           paper.ID,
				Title:             paper.Title,
				AssignedReviewers: total,
				Message:           fmt.Sprintf("only %d of %d reviewers assigned", total, s.cfg.ReviewersPerPaper),
			})
		}
	}

	s.logger.Printf("auto-assign conference=%s papers=%d reviewers=%d assignments=%d warnings=%d",
		conferenceID, len(papers), len(roster), len(result.Assignments), len(result.Warnings))
	s.notify(ctx, result.Assignments)
	return result, nil
}

func (s *Service) notify(ctx context.Context, assignments []model.Assignment) {
	if s.notifier == nil || len(assignments) == 0 {
		return
	}
	if err := s.notifier.Notify(ctx, assignments); err != nil {
		s.logger.Printf("notify error: %v", err)
	}
}

// ListByConference 返回会议的全部分配记录。
func (s *Service) ListByConference(ctx context.Context, conferenceID string) ([]model.Assignment, error) {
	if _, err := s.store.GetConference(ctx, conferenceID); err != nil {
		return nil, err
	}
	return s.store.ListAssignmentsByConference(ctx, conferenceID)
}

// GroupByPaper 返回会议内每篇论文的分配情况，包括尚未分配的论文。
func (s *Service) GroupByPaper(ctx context.Context, conferenceID string) ([]PaperAssignments, error) {
	if _, err := s.store.GetConference(ctx, conferenceID); err != nil {
		return nil, err
	}
	papers, err := s.store.ListPapers(ctx, conferenceID, "")
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	assignments, err := s.store.ListAssignmentsByConference(ctx, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	byPaper := make(map[string][]string)
	for _, a := range assignments {
		byPaper[a.PaperID] = append(byPaper[a.PaperID], a.ReviewerID)
	}
	out := make([]PaperAssignments, 0, len(papers))
	for _, p := range papers {
		ids := byPaper[p.ID]
		if ids == nil {
			ids = []string{}
		}
		out = append(out, PaperAssignments{
			PaperID:       p.ID,
			Title:         p.Title,
			Status:        p.Status,
			AssignedCount: len(ids),
			ReviewerIDs:   ids,
		})
	}
	return out, nil
}

// ListForReviewer 返回评审人被分配的论文。
func (s *Service) ListForReviewer(ctx context.Context, reviewerID string) ([]ReviewerPaper, error) {
	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		return nil, fmt.Errorf("%w: reviewer id required", model.ErrValidation)
	}
	assignments, err := s.store.ListAssignmentsByReviewer(ctx, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	out := make([]ReviewerPaper, 0, len(assignments))
	for _, a := range assignments {
		paper, err := s.store.GetPaper(ctx, a.PaperID)
		if err != nil {
			return nil, err
		}
		out = append(out, ReviewerPaper{
			AssignmentID: a.ID,
			ConferenceID: a.ConferenceID,
			PaperID:      paper.ID,
			Title:        paper.Title,
			Keywords:     paper.Keywords,
			Status:       paper.Status,
			Decision:     paper.FinalDecision,
			AssignedAt:   a.AssignedAt,
		})
	}
	return out, nil
}
