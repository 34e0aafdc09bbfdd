package storage

import (
	"context"
	"fmt"

	"conf-review/internal/model"

	"gorm.io/gorm/clause"
)

// CreateConference 新增会议。
func (s *Store) CreateConference(ctx context.Context, conf *model.Conference) error {
	if err := s.db.WithContext(ctx).Create(conf).Error; err != nil {
		return fmt.Errorf("create conference: %w", err)
	}
	return nil
}

// GetConference 根据 ID 获取会议，不存在时返回 model.ErrNotFound。
func (s *Store) GetConference(ctx context.Context, id string) (*model.Conference, error) {
	var conf model.Conference
	if err := s.db.WithContext(ctx).First(&conf, "id = ?", id).Error; err != nil {
		if nf := notFound(err, "conference %s", id); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("get conference: %w", err)
	}
	return &conf, nil
}

// CreatePaper 写入论文，状态与决定为空时使用 pending。
func (s *Store) CreatePaper(ctx context.Context, paper *model.Paper) error {
	if paper.Status == "" {
		paper.Status = model.PaperStatusPending
	}
	if paper.FinalDecision == "" {
		paper.FinalDecision = model.DecisionPending
	}
	if err := s.db.WithContext(ctx).Create(paper).Error; err != nil {
		return fmt.Errorf("create paper: %w", err)
	}
	return nil
}

// GetPaper 根据 ID 获取论文。
func (s *Store) GetPaper(ctx context.Context, id string) (*model.Paper, error) {
	var paper model.Paper
	if err := s.db.WithContext(ctx).First(&paper, "id = ?", id).Error; err != nil {
		if nf := notFound(err, "paper %s", id); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}
	return &paper, nil
}

// ListPapers 返回会议下的论文，按提交时间升序；status 为空时不过滤。
func (s *Store) ListPapers(ctx context.Context, conferenceID string, status model.PaperStatus) ([]model.Paper, error) {
	var papers []model.Paper
	query := s.db.WithContext(ctx).Where("conference_id = ?", conferenceID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at ASC").Order("id ASC").Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	return papers, nil
}

// UpdatePaperStatus 更新论文状态。
func (s *Store) UpdatePaperStatus(ctx context.Context, id string, status model.PaperStatus) error {
	tx := s.db.WithContext(ctx).Model(&model.Paper{}).Where("id = ?", id).Update("status", status)
	if tx.Error != nil {
		return fmt.Errorf("update paper status: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("%w: paper %s", model.ErrNotFound, id)
	}
	return nil
}

// UpdateFinalDecision 写入最终决定；需要修改的论文回到 pending 以便重新分配。
func (s *Store) UpdateFinalDecision(ctx context.Context, id string, decision model.FinalDecision) (*model.Paper, error) {
	values := map[string]any{"final_decision": decision}
	if decision == model.DecisionModificationRequired {
		values["status"] = model.PaperStatusPending
	}
	tx := s.db.WithContext(ctx).Model(&model.Paper{}).Where("id = ?", id).Updates(values)
	if tx.Error != nil {
		return nil, fmt.Errorf("update final decision: %w", tx.Error)
	}
	if tx.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: paper %s", model.ErrNotFound, id)
	}
	return s.GetPaper(ctx, id)
}

// UpsertReviewer 写入评审名单，已存在则更新姓名、邮箱与专长。
func (s *Store) UpsertReviewer(ctx context.Context, reviewer *model.ConferenceReviewer) error {
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "conference_id"}, {Name: "reviewer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "expertise", "updated_at"}),
	}).Create(reviewer)
	if tx.Error != nil {
		return fmt.Errorf("upsert reviewer: %w", tx.Error)
	}
	return nil
}

// ListReviewers 返回会议评审名单，按评审人 ID 升序。
func (s *Store) ListReviewers(ctx context.Context, conferenceID string) ([]model.ConferenceReviewer, error) {
	var reviewers []model.ConferenceReviewer
	if err := s.db.WithContext(ctx).
		Where("conference_id = ?", conferenceID).
		Order("reviewer_id ASC").
		Find(&reviewers).Error; err != nil {
		return nil, fmt.Errorf("list reviewers: %w", err)
	}
	return reviewers, nil
}

// GetReviewer 查询会议名单中的评审人。
func (s *Store) GetReviewer(ctx context.Context, conferenceID, reviewerID string) (*model.ConferenceReviewer, error) {
	var reviewer model.ConferenceReviewer
	err := s.db.WithContext(ctx).
		First(&reviewer, "conference_id = ? AND reviewer_id = ?", conferenceID, reviewerID).Error
	if err != nil {
		if nf := notFound(err, "reviewer %s in conference %s", reviewerID, conferenceID); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("get reviewer: %w", err)
	}
	return &reviewer, nil
}
