package weightage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"conf-review/internal/model"
)

// Store 定义权重持久化接口。
type Store interface {
	GetWeightage(ctx context.Context, conferenceID string) (*model.TechnicalWeightage, error)
	UpsertWeightage(ctx context.Context, w *model.TechnicalWeightage) error
}

// Request 表示设置权重的请求，五项均为必填。
type Request struct {
	Originality      *float64 `json:"originality"`
	TechnicalQuality *float64 `json:"technical_quality"`
	Significance     *float64 `json:"significance"`
	Clarity          *float64 `json:"clarity"`
	Relevance        *float64 `json:"relevance"`
}

// Service 负责会议权重的读取与校验写入。
type Service struct {
	store Store
}

// NewService 创建权重服务。
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get 返回会议权重，未设置时返回默认值。
func (s *Service) Get(ctx context.Context, conferenceID string) (model.Weights, error) {
	w, err := s.store.GetWeightage(ctx, conferenceID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.DefaultWeights(), nil
		}
		return model.Weights{}, err
	}
	return w.Weights, nil
}

// Set 校验五项权重后覆盖写入。
func (s *Service) Set(ctx context.Context, conferenceID string, req Request) (model.Weights, error) {
	conferenceID = strings.TrimSpace(conferenceID)
	if conferenceID == "" {
		return model.Weights{}, fmt.Errorf("%w: conference id required", model.ErrValidation)
	}

	weights, err := req.weights()
	if err != nil {
		return model.Weights{}, err
	}
	if err := weights.Validate(); err != nil {
		return model.Weights{}, err
	}

	record := model.TechnicalWeightage{ConferenceID: conferenceID, Weights: weights}
	if err := s.store.UpsertWeightage(ctx, &record); err != nil {
		return model.Weights{}, err
	}
	return weights, nil
}

func (r Request) weights() (model.Weights, error) {
	fields := []struct {
		name  string
		value *float64
	}{
		{"originality", r.Originality},
		{"technical_quality", r.TechnicalQuality},
		{"significance", r.Significance},
		{"clarity", r.Clarity},
		{"relevance", r.Relevance},
	}
	var missing []string
	for _, f := range fields {
		if f.value == nil {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return model.Weights{}, fmt.Errorf("%w: missing weights: %s", model.ErrValidation, strings.Join(missing, ", "))
	}
	return model.Weights{
		Originality:      *r.Originality,
		TechnicalQuality: *r.TechnicalQuality,
		Significance:     *r.Significance,
		Clarity:          *r.Clarity,
		Relevance:        *r.Relevance,
	}, nil
}
