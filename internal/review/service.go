package review

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"conf-review/internal/model"
	"conf-review/internal/scoring"
)

// Store 定义评审相关的持久化接口。
type Store interface {
	GetConference(ctx context.Context, id string) (*model.Conference, error)
	GetPaper(ctx context.Context, id string) (*model.Paper, error)
	ListPapers(ctx context.Context, conferenceID string, status model.PaperStatus) ([]model.Paper, error)
	UpdatePaperStatus(ctx context.Context, id string, status model.PaperStatus) error
	UpdateFinalDecision(ctx context.Context, id string, decision model.FinalDecision) (*model.Paper, error)
	ListReviewers(ctx context.Context, conferenceID string) ([]model.ConferenceReviewer, error)
	HasAssignment(ctx context.Context, paperID, reviewerID string) (bool, error)
	ListAssignmentsByConference(ctx context.Context, conferenceID string) ([]model.Assignment, error)
	HasReview(ctx context.Context, paperID, reviewerID string) (bool, error)
	CreateReview(ctx context.Context, review *model.Review) error
	ListReviewsByPaper(ctx context.Context, paperID string) ([]model.Review, error)
	ListReviewsByConference(ctx context.Context, conferenceID string) ([]model.Review, error)
}

// WeightSource 提供会议当前的评分权重。
type WeightSource interface {
	Get(ctx context.Context, conferenceID string) (model.Weights, error)
}

// SubmitRequest 表示一次评审提交。
type SubmitRequest struct {
	PaperID               string               `json:"paper_id"`
	ReviewerID            string               `json:"reviewer_id"`
	Scores                model.Scores         `json:"scores"`
	OverallRecommendation model.Recommendation `json:"overall_recommendation"`
	CommentsForAuthors    string               `json:"comments_for_authors"`
	CommentsForOrganizers string               `json:"comments_for_organizers"`
}

// Service 负责评审提交、评审汇总与最终决定。
type Service struct {
	store   Store
	weights WeightSource
	logger  *log.Logger
}

// NewService 创建评审服务。
func NewService(store Store, weights WeightSource, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(os.Stdout, "[review] ", log.LstdFlags)
	}
	return &Service{store: store, weights: weights, logger: logger}
}

// CheckIfAlreadyReviewed 判断评审人是否已提交该论文的评审。
func (s *Service) CheckIfAlreadyReviewed(ctx context.Context, paperID, reviewerID string) (bool, error) {
	paperID = strings.TrimSpace(paperID)
	reviewerID = strings.TrimSpace(reviewerID)
	if paperID == "" || reviewerID == "" {
		return false, fmt.Errorf("%w: paper_id and reviewer_id required", model.ErrValidation)
	}
	return s.store.HasReview(ctx, paperID, reviewerID)
}

// Submit 校验并保存评审，技术置信度按会议权重计算。
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (model.Review, error) {
	paperID := strings.TrimSpace(req.PaperID)
	reviewerID := strings.TrimSpace(req.ReviewerID)
	if paperID == "" || reviewerID == "" {
		return model.Review{}, fmt.Errorf("%w: paper_id and reviewer_id required", model.ErrValidation)
	}
	if err := req.Scores.Validate(); err != nil {
		return model.Review{}, err
	}
	if !req.OverallRecommendation.Valid() {
		return model.Review{}, fmt.Errorf("%w: invalid recommendation %q", model.ErrValidation, req.OverallRecommendation)
	}

	paper, err := s.store.GetPaper(ctx, paperID)
	if err != nil {
		return model.Review{}, err
	}
	assigned, err := s.store.HasAssignment(ctx, paperID, reviewerID)
	if err != nil {
		return model.Review{}, fmt.Errorf("check assignment: %w", err)
	}
	if !assigned {
		return model.Review{}, fmt.Errorf("%w: reviewer %s is not assigned to paper %s", model.ErrValidation, reviewerID, paperID)
	}
	reviewed, err := s.store.HasReview(ctx, paperID, reviewerID)
	if err != nil {
		return model.Review{}, fmt.Errorf("check review: %w", err)
	}
	if reviewed {
		return model.Review{}, model.ErrAlreadyReviewed
	}

	weights, err := s.weights.Get(ctx, paper.ConferenceID)
	if err != nil {
		return model.Review{}, fmt.Errorf("load weights: %w", err)
	}
	forAuthors, err := plainText(req.CommentsForAuthors)
	if err != nil {
		return model.Review{}, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}
	forOrganizers, err := plainText(req.CommentsForOrganizers)
	if err != nil {
		return model.Review{}, fmt.Errorf("%w: %v", model.ErrValidation, err)
	}

	rv := model.Review{
		PaperID:               paperID,
		ReviewerID:            reviewerID,
		Scores:                req.Scores,
		OverallRecommendation: req.OverallRecommendation,
		CommentsForAuthors:    forAuthors,
		CommentsForOrganizers: forOrganizers,
		TechnicalConfidence:   scoring.ComputeTechnicalConfidence(req.Scores, weights),
	}
	if err := s.store.CreateReview(ctx, &rv); err != nil {
		return model.Review{}, err
	}
	s.logger.Printf("review submitted paper=%s reviewer=%s confidence=%.4f", paperID, reviewerID, rv.TechnicalConfidence)
	return rv, nil
}

// ListByPaper 返回论文的全部评审。
func (s *Service) ListByPaper(ctx context.Context, paperID string) ([]model.Review, error) {
	if _, err := s.store.GetPaper(ctx, paperID); err != nil {
		return nil, err
	}
	return s.store.ListReviewsByPaper(ctx, paperID)
}

// Summary 汇总会议内每篇论文的评审进度。
func (s *Service) Summary(ctx context.Context, conferenceID string) ([]scoring.PaperSummary, error) {
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
	reviews, err := s.store.ListReviewsByConference(ctx, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	roster, err := s.store.ListReviewers(ctx, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("list reviewers: %w", err)
	}
	names := make(map[string]string, len(roster))
	for _, r := range roster {
		names[r.ReviewerID] = r.Name
	}
	return scoring.Summarize(papers, assignments, reviews, names), nil
}

// UpdateDecision 记录论文最终决定，Modification Required 会把论文退回 pending。
func (s *Service) UpdateDecision(ctx context.Context, paperID string, decision model.FinalDecision) (*model.Paper, error) {
	if !decision.Valid() {
		return nil, fmt.Errorf("%w: invalid decision %q", model.ErrValidation, decision)
	}
	paper, err := s.store.UpdateFinalDecision(ctx, paperID, decision)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("decision paper=%s decision=%s", paperID, decision)
	return paper, nil
}

// MarkResubmitted 标记作者已重新提交论文。
func (s *Service) MarkResubmitted(ctx context.Context, paperID string) (*model.Paper, error) {
	if err := s.store.UpdatePaperStatus(ctx, paperID, model.PaperStatusResubmitted); err != nil {
		return nil, err
	}
	return s.store.GetPaper(ctx, paperID)
}
