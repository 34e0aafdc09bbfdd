package roster

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"conf-review/internal/model"

	"gorm.io/datatypes"
)

// Store 定义评审名单的持久化接口。
type Store interface {
	GetConference(ctx context.Context, id string) (*model.Conference, error)
	UpsertReviewer(ctx context.Context, reviewer *model.ConferenceReviewer) error
	ListReviewers(ctx context.Context, conferenceID string) ([]model.ConferenceReviewer, error)
}

// Config 控制可选的专长领域。为空时接受任意专长。
type Config struct {
	ExpertiseCandidates []string `yaml:"expertise_candidates" json:"expertise_candidates"`
}

// Request 表示登记评审人的请求。
type Request struct {
	ConferenceID string   `json:"conference_id"`
	ReviewerID   string   `json:"reviewer_id"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Expertise    []string `json:"expertise"`
}

// Service 负责校验与登记会议评审人。
type Service struct {
	store     Store
	expertise map[string]struct{}
}

// NewService 创建名单服务。
func NewService(store Store, cfg Config) *Service {
	lookup := make(map[string]struct{})
	for _, e := range cfg.ExpertiseCandidates {
		if key := strings.ToLower(strings.TrimSpace(e)); key != "" {
			lookup[key] = struct{}{}
		}
	}
	return &Service{store: store, expertise: lookup}
}

// Register 校验请求并写入名单，重复登记会更新已有记录。
func (s *Service) Register(ctx context.Context, req Request) (model.ConferenceReviewer, error) {
	conferenceID := strings.TrimSpace(req.ConferenceID)
	reviewerID := strings.TrimSpace(req.ReviewerID)
	if conferenceID == "" || reviewerID == "" {
		return model.ConferenceReviewer{}, fmt.Errorf("%w: conference_id and reviewer_id required", model.ErrValidation)
	}

	email := strings.TrimSpace(req.Email)
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil {
			return model.ConferenceReviewer{}, fmt.Errorf("%w: invalid email: %v", model.ErrValidation, err)
		}
		email = addr.Address
	}

	seen := make(map[string]struct{})
	expertise := datatypes.JSONSlice[string]{}
	for _, e := range req.Expertise {
		key := strings.ToLower(strings.TrimSpace(e))
		if key == "" {
			continue
		}
		if len(s.expertise) > 0 {
			if _, ok := s.expertise[key]; !ok {
				return model.ConferenceReviewer{}, fmt.Errorf("%w: unknown expertise %s", model.ErrValidation, e)
			}
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		expertise = append(expertise, key)
	}
	if len(expertise) == 0 {
		return model.ConferenceReviewer{}, fmt.Errorf("%w: at least one expertise required", model.ErrValidation)
	}

	if _, err := s.store.GetConference(ctx, conferenceID); err != nil {
		return model.ConferenceReviewer{}, err
	}

	reviewer := model.ConferenceReviewer{
		ConferenceID: conferenceID,
		ReviewerID:   reviewerID,
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Expertise:    expertise,
	}
	if err := s.store.UpsertReviewer(ctx, &reviewer); err != nil {
		return model.ConferenceReviewer{}, err
	}
	return reviewer, nil
}

// List 返回会议的评审名单。
func (s *Service) List(ctx context.Context, conferenceID string) ([]model.ConferenceReviewer, error) {
	if _, err := s.store.GetConference(ctx, conferenceID); err != nil {
		return nil, err
	}
	return s.store.ListReviewers(ctx, conferenceID)
}
