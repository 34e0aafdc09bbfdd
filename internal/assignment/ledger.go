package assignment

import (
	"context"
	"sync"

	"conf-review/internal/model"
)

// Ledger 分配记录的持久化接口，(paper, reviewer, conference) 唯一由存储层保证，
// 冲突时 CreateAssignment 返回 model.ErrDuplicateAssignment。
type Ledger interface {
	CreateAssignment(ctx context.Context, a *model.Assignment) error
	CountAssignmentsByPaper(ctx context.Context, paperID string) (int, error)
	CountAssignmentsByReviewer(ctx context.Context, conferenceID, reviewerID string) (int, error)
	HasAssignment(ctx context.Context, paperID, reviewerID string) (bool, error)
	ListAssignmentsByConference(ctx context.Context, conferenceID string) ([]model.Assignment, error)
	ListAssignmentsByReviewer(ctx context.Context, reviewerID string) ([]model.Assignment, error)
}

// Directory 提供会议、论文与评审名单的读取以及论文状态更新。
type Directory interface {
	GetConference(ctx context.Context, id string) (*model.Conference, error)
	GetPaper(ctx context.Context, id string) (*model.Paper, error)
	ListPapers(ctx context.Context, conferenceID string, status model.PaperStatus) ([]model.Paper, error)
	UpdatePaperStatus(ctx context.Context, id string, status model.PaperStatus) error
	ListReviewers(ctx context.Context, conferenceID string) ([]model.ConferenceReviewer, error)
	GetReviewer(ctx context.Context, conferenceID, reviewerID string) (*model.ConferenceReviewer, error)
}

// Store 组合分配服务所需的全部存储能力。
type Store interface {
	Ledger
	Directory
}

// conferenceLocks 按会议串行化自动分配与手动分配。
type conferenceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newConferenceLocks() *conferenceLocks {
	return &conferenceLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *conferenceLocks) lock(conferenceID string) func() {
	l.mu.Lock()
	m, ok := l.locks[conferenceID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[conferenceID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
