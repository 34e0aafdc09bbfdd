package storage

import (
	"context"
	"fmt"

	"conf-review/internal/model"
)

// CreateAssignment 写入一条分配记录；唯一索引冲突转换为 model.ErrDuplicateAssignment。
func (s *Store) CreateAssignment(ctx context.Context, a *model.Assignment) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: paper %s already assigned to reviewer %s in conference %s",
				model.ErrDuplicateAssignment, a.PaperID, a.ReviewerID, a.ConferenceID)
		}
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// CountAssignmentsByPaper 返回论文已有的分配数量。
func (s *Store) CountAssignmentsByPaper(ctx context.Context, paperID string) (int, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("paper_id = ?", paperID).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count assignments by paper: %w", err)
	}
	return int(total), nil
}

// CountAssignmentsByReviewer 返回评审人在会议内的分配数量。
func (s *Store) CountAssignmentsByReviewer(ctx context.Context, conferenceID, reviewerID string) (int, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("conference_id = ? AND reviewer_id = ?", conferenceID, reviewerID).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count assignments by reviewer: %w", err)
	}
	return int(total), nil
}

// HasAssignment 判断评审人是否已分配到该论文。
func (s *Store) HasAssignment(ctx context.Context, paperID, reviewerID string) (bool, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("paper_id = ? AND reviewer_id = ?", paperID, reviewerID).
		Count(&total).Error; err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return total > 0, nil
}

// ListAssignmentsByConference 返回会议下全部分配。
func (s *Store) ListAssignmentsByConference(ctx context.Context, conferenceID string) ([]model.Assignment, error) {
	var out []model.Assignment
	if err := s.db.WithContext(ctx).
		Where("conference_id = ?", conferenceID).
		Order("assigned_at ASC").Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list assignments by conference: %w", err)
	}
	return out, nil
}

// ListAssignmentsByReviewer 返回评审人名下全部分配。
func (s *Store) ListAssignmentsByReviewer(ctx context.Context, reviewerID string) ([]model.Assignment, error) {
	var out []model.Assignment
	if err := s.db.WithContext(ctx).
		Where("reviewer_id = ?", reviewerID).
		Order("assigned_at ASC").Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list assignments by reviewer: %w", err)
	}
	return out, nil
}
