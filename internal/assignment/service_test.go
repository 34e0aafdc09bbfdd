package assignment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"testing"

	"conf-review/internal/model"
)

func newTestService(store *memStore, cfg Config) (*Service, *stubNotifier) {
	n := &stubNotifier{}
	return NewService(store, cfg, n, log.New(io.Discard, "", 0)), n
}

func TestRunAutoTwoPapersFourReviewers(t *testing.T) {
	t.Parallel()

	store := newMemStore("c1")
	store.addPaper(paper("p1", "nlp"))
	store.addPaper(paper("p2", "vision"))
	store.addReviewer(reviewer("rev-a", "nlp"))
	store.addReviewer(reviewer("rev-b", "vision"))
	store.addReviewer(reviewer("rev-c", "vision"))
	store.addReviewer(reviewer("rev-d", "vision"))
	svc, n := newTestService(store, Config{})

	res, err := svc.RunAuto(context.Background(), "c1")
	if err != nil {
		t.Fatalf("RunAuto error: %v", err)
	}
	if len(res.Assignments) != 6 {
		t.Fatalf("expected 6 assignments, got %d", len(res.Assignments))
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %+v", res.Warnings)
	}
	if first := res.Assignments[0]; first.PaperID != "p1" || first.ReviewerID != "rev-a" {
		t.Fatalf("expected nlp expert first on p1, got %+v", first)
	}
	for _, id := range []string{"p1", "p2"} {
		if got := store.countPaper(id); got != 3 {
			t.Fatalf("expected 3 assignments for %s, got %d", id, got)
		}
		if store.papers[id].Status != model.PaperStatusAssigned {
			t.Fatalf("expected %s assigned, got %s", id, store.papers[id].Status)
		}
	}
	if n.calls != 1 || len(n.last) != 6 {
		t.Fatalf("expected one notification with 6 assignments, got calls=%d len=%d", n.calls, len(n.last))
	}
}

func TestRunAutoWarnsWhenRosterShort(t *testing.T) {
	t.Parallel()

	store := newMemStore("c1")
	store.addPaper(paper("p1", "graphs"))
	store.addReviewer(reviewer("r1"))
	store.addReviewer(reviewer("r2"))
	svc, _ := newTestService(store, Config{})

	res, err := svc.RunAuto(context.Background(), "c1")
	if err != nil {
		t.Fatalf("RunAuto error: %v", err)
	}
	if len(res.Assignments) != 2 {
		t.Fatalf("expected 2 assignments, got %d", len(res.Assignments))
	}
	if len(res.Warnings) != 1 || res.Warnings[0].PaperID != "p1" || res.Warnings[0].AssignedReviewers != 2 {
		t.Fatalf("unexpected warnings: %+v", res.Warnings)
	}
	if store.papers["p1"].Status != model.PaperStatusAssigned {
		t.Fatalf("expected p1 assigned, got %s", store.papers["p1"].Status)
	}
}

func TestRunAutoLeavesUnservedPaperPending(t *testing.T) {
	t.Parallel()

	store := newMemStore("c1")
	for i := 1; i <= 6; i++ {
		store.addPaper(paper(fmt.Sprintf("p%d", i)))
	}
	store.addReviewer(reviewer("r1"))
	store.addReviewer(reviewer("r2"))
	store.addReviewer(reviewer("r3"))
	svc, _ := newTestService(store, Config{})

	res, err := svc.RunAuto(context.Background(), "c1")
	if err != nil {
		t.Fatalf("RunAuto error: %v", err)
	}
	if len(res.Assignments) != 15 || len(res.Warnings) != 0 {
		t.Fatalf("expected 15 assignments and no warnings, got %d / %+v", len(res.Assignments), res.Warnings)
	}
	if store.papers["p6"].Status != model.PaperStatusPending {
		t.Fatalf("expected p6 to stay pending, got %s", store.papers["p6"].Status)
	}
	for _, r := range []string{"r1", "r2", "r3"} {
		if got := store.countReviewer(r); got != DefaultMaxPapersPerReviewer {
			t.Fatalf("expected %s at cap, got %d", r, got)
		}
	}
}

func TestRunAutoNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	svc, _ := newTestService(newMemStore("c1"), Config{})
	if _, err := svc.RunAuto(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found for unknown conference, got %v", err)
	}

	noPapers := newMemStore("c1")
	noPapers.addReviewer(reviewer("r1"))
	svc, _ = newTestService(noPapers, Config{})
	if _, err := svc.RunAuto(ctx, "c1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found without papers, got %v", err)
	}

	noReviewers := newMemStore("c1")
	noReviewers.addPaper(paper("p1"))
	svc, _ = newTestService(noReviewers, Config{})
	if _, err := svc.RunAuto(ctx, "c1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found without reviewers, got %v", err)
	}

	if _, err := svc.RunAuto(ctx, " "); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error for blank id, got %v", err)
	}
}

func TestRunAutoPropagatesStoreError(t *testing.T) {
	t.Parallel()

	store := newMemStore("c1")
	store.addPaper(paper("p1"))
	store.addReviewer(reviewer("r1"))
	store.createErr = errors.New("disk full")
	svc, n := newTestService(store, Config{})

	if _, err := svc.RunAuto(context.Background(), "c1"); err == nil || errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if n.calls != 0 {
		t.Fatalf("expected no notification on failure")
	}
}

func TestRunAutoIgnoresNotifierFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore("c1")
	store.addPaper(paper("p1"))
	store.addReviewer(reviewer("r1"))
	n := &stubNotifier{err: errors.New("smtp down")}
	svc := NewService(store, Config{}, n, log.New(io.Discard, "", 0))

	if _, err := svc.RunAuto(context.Background(), "c1"); err != nil {
		t.Fatalf("expected notifier failure to be ignored, got %v", err)
	}
	if n.calls != 1 {
		t.Fatalf("expected notifier to be called")
	}
}

func TestAssignManually(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore("c1")
	store.addPaper(paper("p1"))
	for _, id := range []string{"r1", "r2", "r3", "r4"} {
		store.addReviewer(reviewer(id))
	}
	svc, n := newTestService(store, Config{})

	a, err := svc.AssignManually(ctx, "p1", "r1", "c1")
	if err != nil {
		t.Fatalf("AssignManually error: %v", err)
	}
	if a.ID == "" || a.ReviewerID != "r1" {
		t.Fatalf("unexpected assignment: %+v", a)
	}
	if store.papers["p1"].Status != model.PaperStatusAssigned {
		t.Fatalf("expected first assignment to mark paper assigned")
	}
	if n.calls != 1 {
		t.Fatalf("expected notification for manual assignment")
	}

	if _, err := svc.AssignManually(ctx, "p1", "r1", "c1"); !errors.Is(err, model.ErrDuplicateAssignment) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if _, err := svc.AssignManually(ctx, "p1", "ghost", "c1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found for unknown reviewer, got %v", err)
	}
	if _, err := svc.AssignManually(ctx, "nope", "r2", "c1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found for unknown paper, got %v", err)
	}
	if _, err := svc.AssignManually(ctx, "p1", "", "c1"); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	for _, id := range []string{"r2", "r3"} {
		if _, err := svc.AssignManually(ctx, "p1", id, "c1"); err != nil {
			t.Fatalf("AssignManually %s error: %v", id, err)
		}
	}
	if _, err := svc.AssignManually(ctx, "p1", "r4", "c1"); !errors.Is(err, model.ErrCapacity) {
		t.Fatalf("expected capacity error at 3 reviewers, got %v", err)
	}
	if got := store.countPaper("p1"); got != 3 {
		t.Fatalf("expected 3 assignments, got %d", got)
	}
}

func TestAssignManuallyReviewerCap(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore("c1")
	store.addReviewer(reviewer("r1"))
	for i := 1; i <= 6; i++ {
		store.addPaper(paper(fmt.Sprintf("p%d", i)))
	}

	svc, _ := newTestService(store, Config{})
	for i := 1; i <= 5; i++ {
		if _, err := svc.AssignManually(ctx, fmt.Sprintf("p%d", i), "r1", "c1"); err != nil {
			t.Fatalf("AssignManually p%d error: %v", i, err)
		}
	}
	if _, err := svc.AssignManually(ctx, "p6", "r1", "c1"); !errors.Is(err, model.ErrCapacity) {
		t.Fatalf("expected reviewer capacity error, got %v", err)
	}

	lenient, _ := newTestService(store, Config{AllowManualOverCap: true})
	if _, err := lenient.AssignManually(ctx, "p6", "r1", "c1"); err != nil {
		t.Fatalf("expected over-cap assignment to pass when allowed, got %v", err)
	}
}

func TestAssignThenAutoFillsRemainingSlots(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore("c1")
	store.addPaper(paper("p1", "ml"))
	store.addReviewer(reviewer("r1", "ml"))
	store.addReviewer(reviewer("r2", "ml"))
	store.addReviewer(reviewer("r3"))
	svc, _ := newTestService(store, Config{})

	if _, err := svc.AssignManually(ctx, "p1", "r2", "c1"); err != nil {
		t.Fatalf("AssignManually error: %v", err)
	}
	// 手动分配后论文已是 assigned，自动分配没有 pending 论文
	if _, err := svc.RunAuto(ctx, "c1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	store.papers["p1"].Status = model.PaperStatusPending
	res, err := svc.RunAuto(ctx, "c1")
	if err != nil {
		t.Fatalf("RunAuto error: %v", err)
	}
	var got []string
	for _, a := range res.Assignments {
		got = append(got, a.ReviewerID)
	}
	if fmt.Sprint(got) != "[r1 r3]" {
		t.Fatalf("expected r1 and r3 to fill p1, got %v", got)
	}
	if store.countPaper("p1") != 3 {
		t.Fatalf("expected p1 full")
	}
}

func TestGroupByPaperAndListForReviewer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newMemStore("c1")
	store.addPaper(paper("p1", "nlp"))
	store.addPaper(paper("p2"))
	store.addReviewer(reviewer("r1"))
	svc, _ := newTestService(store, Config{})

	if _, err := svc.AssignManually(ctx, "p1", "r1", "c1"); err != nil {
		t.Fatalf("AssignManually error: %v", err)
	}

	groups, err := svc.GroupByPaper(ctx, "c1")
	if err != nil {
		t.Fatalf("GroupByPaper error: %v", err)
	}
	if len(groups) != 2 || groups[0].AssignedCount != 1 || groups[1].AssignedCount != 0 {
		t.Fatalf("unexpected groups: %+v", groups)
	}
	if groups[1].ReviewerIDs == nil {
		t.Fatalf("expected empty reviewer list, not nil")
	}

	papers, err := svc.ListForReviewer(ctx, "r1")
	if err != nil {
		t.Fatalf("ListForReviewer error: %v", err)
	}
	if len(papers) != 1 || papers[0].PaperID != "p1" || papers[0].Title != "Paper p1" {
		t.Fatalf("unexpected reviewer papers: %+v", papers)
	}

	if _, err := svc.GroupByPaper(ctx, "c9"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found for unknown conference, got %v", err)
	}
}

// --- stubs ---

type stubNotifier struct {
	mu    sync.Mutex
	calls int
	last  []model.Assignment
	err   error
}

func (n *stubNotifier) Notify(ctx context.Context, assignments []model.Assignment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	n.last = assignments
	return n.err
}

type memStore struct {
	mu          sync.Mutex
	conferences map[string]bool
	papers      map[string]*model.Paper
	order       []string
	reviewers   []model.ConferenceReviewer
	assignments []model.Assignment
	createErr   error
	seq         int
}

func newMemStore(conferenceIDs ...string) *memStore {
	s := &memStore{conferences: map[string]bool{}, papers: map[string]*model.Paper{}}
	for _, id := range conferenceIDs {
		s.conferences[id] = true
	}
	return s
}

func (s *memStore) addPaper(p model.Paper) {
	s.papers[p.ID] = &p
	s.order = append(s.order, p.ID)
}

func (s *memStore) addReviewer(r model.ConferenceReviewer) {
	s.reviewers = append(s.reviewers, r)
}

func (s *memStore) countPaper(id string) int {
	n, _ := s.CountAssignmentsByPaper(context.Background(), id)
	return n
}

func (s *memStore) countReviewer(id string) int {
	n, _ := s.CountAssignmentsByReviewer(context.Background(), "c1", id)
	return n
}

func (s *memStore) CreateAssignment(ctx context.Context, a *model.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	for _, existing := range s.assignments {
		if existing.PaperID == a.PaperID && existing.ReviewerID == a.ReviewerID && existing.ConferenceID == a.ConferenceID {
			return model.ErrDuplicateAssignment
		}
	}
	s.seq++
	a.ID = fmt.Sprintf("a%d", s.seq)
	s.assignments = append(s.assignments, *a)
	return nil
}

func (s *memStore) CountAssignmentsByPaper(ctx context.Context, paperID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.assignments {
		if a.PaperID == paperID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountAssignmentsByReviewer(ctx context.Context, conferenceID, reviewerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.assignments {
		if a.ConferenceID == conferenceID && a.ReviewerID == reviewerID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) HasAssignment(ctx context.Context, paperID, reviewerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.PaperID == paperID && a.ReviewerID == reviewerID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ListAssignmentsByConference(ctx context.Context, conferenceID string) ([]model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Assignment
	for _, a := range s.assignments {
		if a.ConferenceID == conferenceID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) ListAssignmentsByReviewer(ctx context.Context, reviewerID string) ([]model.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Assignment
	for _, a := range s.assignments {
		if a.ReviewerID == reviewerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) GetConference(ctx context.Context, id string) (*model.Conference, error) {
	if !s.conferences[id] {
		return nil, fmt.Errorf("%w: conference %s", model.ErrNotFound, id)
	}
	return &model.Conference{ID: id}, nil
}

func (s *memStore) GetPaper(ctx context.Context, id string) (*model.Paper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.papers[id]
	if !ok {
		return nil, fmt.Errorf("%w: paper %s", model.ErrNotFound, id)
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) ListPapers(ctx context.Context, conferenceID string, status model.PaperStatus) ([]model.Paper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Paper
	for _, id := range s.order {
		p := s.papers[id]
		if p.ConferenceID != conferenceID || (status != "" && p.Status != status) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (s *memStore) UpdatePaperStatus(ctx context.Context, id string, status model.PaperStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.papers[id]
	if !ok {
		return fmt.Errorf("%w: paper %s", model.ErrNotFound, id)
	}
	p.Status = status
	return nil
}

func (s *memStore) ListReviewers(ctx context.Context, conferenceID string) ([]model.ConferenceReviewer, error) {
	var out []model.ConferenceReviewer
	for _, r := range s.reviewers {
		if r.ConferenceID == conferenceID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReviewerID < out[j].ReviewerID })
	return out, nil
}

func (s *memStore) GetReviewer(ctx context.Context, conferenceID, reviewerID string) (*model.ConferenceReviewer, error) {
	for _, r := range s.reviewers {
		if r.ConferenceID == conferenceID && r.ReviewerID == reviewerID {
			cp := r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: reviewer %s", model.ErrNotFound, reviewerID)
}
