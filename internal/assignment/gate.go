package assignment

import (
	"context"
	"fmt"
	"strings"

	"conf-review/internal/model"
)

// AssignManually 校验并写入单条分配。与自动分配共用会议锁。
func (s *Service) AssignManually(ctx context.Context, paperID, reviewerID, conferenceID string) (model.Assignment, error) {
	paperID = strings.TrimSpace(paperID)
	reviewerID = strings.TrimSpace(reviewerID)
	conferenceID = strings.TrimSpace(conferenceID)
	var missing []string
	if paperID == "" {
		missing = append(missing, "paper_id")
	}
	if reviewerID == "" {
		missing = append(missing, "reviewer_id")
	}
	if conferenceID == "" {
		missing = append(missing, "conference_id")
	}
	if len(missing) > 0 {
		return model.Assignment{}, fmt.Errorf("%w: missing %s", model.ErrValidation, strings.Join(missing, ", "))
	}

	unlock := s.locks.lock(conferenceID)
	defer unlock()

	if _, err := s.store.GetReviewer(ctx, conferenceID, reviewerID); err != nil {
		return model.Assignment{}, err
	}
	paper, err := s.store.GetPaper(ctx, paperID)
	if err != nil {
		return model.Assignment{}, err
	}
	if paper.ConferenceID != conferenceID {
		return model.Assignment{}, fmt.Errorf("%w: paper %s not in conference %s", model.ErrNotFound, paperID, conferenceID)
	}

	count, err := s.store.CountAssignmentsByPaper(ctx, paperID)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("count paper assignments: %w", err)
	}
	if count >= s.cfg.ReviewersPerPaper {
		return model.Assignment{}, fmt.Errorf("%w: paper %s already has %d reviewers", model.ErrCapacity, paperID, count)
	}

	exists, err := s.store.HasAssignment(ctx, paperID, reviewerID)
	if err != nil {
		return model.Assignment{}, fmt.Errorf("check assignment: %w", err)
	}
	if exists {
		return model.Assignment{}, fmt.Errorf("%w: reviewer %s already assigned to paper %s", model.ErrDuplicateAssignment, reviewerID, paperID)
	}

	if !s.cfg.AllowManualOverCap {
		load, err := s.store.CountAssignmentsByReviewer(ctx, conferenceID, reviewerID)
		if err != nil {
			return model.Assignment{}, fmt.Errorf("count reviewer assignments: %w", err)
		}
		if load >= s.cfg.MaxPapersPerReviewer {
			return model.Assignment{}, fmt.Errorf("%w: reviewer %s already has %d papers", model.ErrCapacity, reviewerID, load)
		}
	}

	a := model.Assignment{PaperID: paperID, ReviewerID: reviewerID, ConferenceID: conferenceID}
	if err := s.store.CreateAssignment(ctx, &a); err != nil {
		return model.Assignment{}, err
	}
	if count == 0 {
		if err := s.store.UpdatePaperStatus(ctx, paperID, model.PaperStatusAssigned); err != nil {
			return model.Assignment{}, fmt.Errorf("update paper status: %w", err)
		}
	}

	s.logger.Printf("manual assign paper=%s reviewer=%s conference=%s", paperID, reviewerID, conferenceID)
	s.notify(ctx, []model.Assignment{a})
	return a, nil
}
