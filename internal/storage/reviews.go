package storage

import (
	"context"
	"fmt"

	"conf-review/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetWeightage 获取会议权重，未设置时返回 model.ErrNotFound。
func (s *Store) GetWeightage(ctx context.Context, conferenceID string) (*model.TechnicalWeightage, error) {
	var w model.TechnicalWeightage
	if err := s.db.WithContext(ctx).First(&w, "conference_id = ?", conferenceID).Error; err != nil {
		if nf := notFound(err, "weightage for conference %s", conferenceID); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("get weightage: %w", err)
	}
	return &w, nil
}

// UpsertWeightage 创建或覆盖会议权重。
func (s *Store) UpsertWeightage(ctx context.Context, w *model.TechnicalWeightage) error {
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "conference_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"originality",
			"technical_quality",
			"significance",
			"clarity",
			"relevance",
			"updated_at",
		}),
	}).Create(w)
	if tx.Error != nil {
		return fmt.Errorf("upsert weightage: %w", tx.Error)
	}
	return nil
}

// HasReview 判断评审人是否已提交过该论文的评审。
func (s *Store) HasReview(ctx context.Context, paperID, reviewerID string) (bool, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Review{}).
		Where("paper_id = ? AND reviewer_id = ?", paperID, reviewerID).
		Count(&total).Error; err != nil {
		return false, fmt.Errorf("check review: %w", err)
	}
	return total > 0, nil
}

// CreateReview 在同一事务内写入评审表并将论文状态置为 reviewed。
func (s *Store) CreateReview(ctx context.Context, review *model.Review) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: paper %s reviewer %s", model.ErrAlreadyReviewed, review.PaperID, review.ReviewerID)
			}
			return fmt.Errorf("create review: %w", err)
		}
		res := tx.Model(&model.Paper{}).Where("id = ?", review.PaperID).Update("status", model.PaperStatusReviewed)
		if res.Error != nil {
			return fmt.Errorf("mark paper reviewed: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: paper %s", model.ErrNotFound, review.PaperID)
		}
		return nil
	})
	return err
}

// ListReviewsByPaper 返回论文的全部评审。
func (s *Store) ListReviewsByPaper(ctx context.Context, paperID string) ([]model.Review, error) {
	var out []model.Review
	if err := s.db.WithContext(ctx).
		Where("paper_id = ?", paperID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list reviews by paper: %w", err)
	}
	return out, nil
}

// ListReviewsByConference 返回会议下所有论文的评审。
func (s *Store) ListReviewsByConference(ctx context.Context, conferenceID string) ([]model.Review, error) {
	var out []model.Review
	if err := s.db.WithContext(ctx).
		Where("paper_id IN (?)", s.db.Model(&model.Paper{}).Select("id").Where("conference_id = ?", conferenceID)).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list reviews by conference: %w", err)
	}
	return out, nil
}
