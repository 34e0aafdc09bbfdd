package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WeightTotal 五项权重之和必须等于该值。
const WeightTotal = 100.0

// Weights 五项评审指标的权重（百分比）。
type Weights struct {
	Originality      float64 `json:"originality"`
	TechnicalQuality float64 `json:"technical_quality"`
	Significance     float64 `json:"significance"`
	Clarity          float64 `json:"clarity"`
	Relevance        float64 `json:"relevance"`
}

// DefaultWeights 会议未设置权重时使用的默认值。
func DefaultWeights() Weights {
	return Weights{
		Originality:      30,
		TechnicalQuality: 25,
		Significance:     20,
		Clarity:          15,
		Relevance:        10,
	}
}

// Sum 返回五项权重之和。
func (w Weights) Sum() float64 {
	return w.Originality + w.TechnicalQuality + w.Significance + w.Clarity + w.Relevance
}

// Validate 校验权重非负且总和为 100。
func (w Weights) Validate() error {
	for _, f := range w.fields() {
		if f.value < 0 || math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s weight %v must be a non-negative number", ErrValidation, f.name, f.value)
		}
	}
	if math.Abs(w.Sum()-WeightTotal) > 1e-9 {
		return fmt.Errorf("%w: weights sum to %v, must be exactly %v", ErrValidation, w.Sum(), WeightTotal)
	}
	return nil
}

type namedWeight struct {
	name  string
	value float64
}

func (w Weights) fields() []namedWeight {
	return []namedWeight{
		{"originality", w.Originality},
		{"technical_quality", w.TechnicalQuality},
		{"significance", w.Significance},
		{"clarity", w.Clarity},
		{"relevance", w.Relevance},
	}
}

// TechnicalWeightage 每个会议一条的权重记录。
type TechnicalWeightage struct {
	ConferenceID string `gorm:"primaryKey" json:"conference_id"`
	Weights      `gorm:"embedded"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Recommendation 评审人的总体推荐意见。
type Recommendation string

const (
	RecommendAccept          Recommendation = "Accept"
	RecommendMinorCorrection Recommendation = "Accept with minor correction"
	RecommendReject          Recommendation = "Reject"
)

// Valid 判断推荐意见是否合法。
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendAccept, RecommendMinorCorrection, RecommendReject:
		return true
	}
	return false
}

// MinScore / MaxScore 单项评分范围。
const (
	MinScore = 1
	MaxScore = 10
)

// Scores 五项评审指标的打分，每项取值 [1,10]。
type Scores struct {
	Originality      int `json:"originality"`
	TechnicalQuality int `json:"technical_quality"`
	Significance     int `json:"significance"`
	Clarity          int `json:"clarity"`
	Relevance        int `json:"relevance"`
}

// Validate 返回所有越界项组成的错误。
func (s Scores) Validate() error {
	entries := []struct {
		name  string
		value int
	}{
		{"originality", s.Originality},
		{"technical_quality", s.TechnicalQuality},
		{"significance", s.Significance},
		{"clarity", s.Clarity},
		{"relevance", s.Relevance},
	}
	var violations []string
	for _, e := range entries {
		if e.value < MinScore || e.value > MaxScore {
			violations = append(violations, fmt.Sprintf("%s score %d out of range [%d, %d]", e.name, e.value, MinScore, MaxScore))
		}
	}
	if len(violations) > 0 {
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(violations, "; "))
	}
	return nil
}

// Review 评审表，TechnicalConfidence 在提交时计算并保持不变。
type Review struct {
	ID                    string         `gorm:"primaryKey" json:"id"`
	PaperID               string         `gorm:"not null;uniqueIndex:idx_review_pair,priority:1" json:"paper_id"`
	ReviewerID            string         `gorm:"not null;uniqueIndex:idx_review_pair,priority:2" json:"reviewer_id"`
	Scores                `gorm:"embedded"`
	OverallRecommendation Recommendation `gorm:"not null" json:"overall_recommendation"`
	CommentsForAuthors    string         `json:"comments_for_authors"`
	CommentsForOrganizers string         `json:"comments_for_organizers"`
	TechnicalConfidence   float64        `json:"technical_confidence"`
	CreatedAt             time.Time      `json:"created_at"`
}

// BeforeCreate 生成评审 ID。
func (r *Review) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
