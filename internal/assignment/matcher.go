package assignment

import (
	"sort"
	"strings"

	"conf-review/internal/model"
)

// matcher 保存一次自动分配运行内的全部状态：评审人负载计数与每篇论文已分配的评审人。
// 状态只在单次运行内有效，不跨请求共享。
type matcher struct {
	cfg       Config
	reviewers []candidate
	load      map[string]int
	assigned  map[string]map[string]struct{}
}

type candidate struct {
	id        string
	expertise map[string]struct{}
}

// newMatcher 按评审人 ID 排序名单，并用会议内已有分配初始化计数。
func newMatcher(cfg Config, roster []model.ConferenceReviewer, existing []model.Assignment) *matcher {
	m := &matcher{
		cfg:       cfg,
		reviewers: make([]candidate, 0, len(roster)),
		load:      make(map[string]int, len(roster)),
		assigned:  make(map[string]map[string]struct{}),
	}

	sorted := make([]model.ConferenceReviewer, len(roster))
	copy(sorted, roster)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ReviewerID < sorted[j].ReviewerID })

	for _, r := range sorted {
		if _, dup := m.load[r.ReviewerID]; dup {
			continue
		}
		m.reviewers = append(m.reviewers, candidate{id: r.ReviewerID, expertise: normalizeSet(r.Expertise)})
		m.load[r.ReviewerID] = 0
	}

	for _, a := range existing {
		m.load[a.ReviewerID]++
		m.markAssigned(a.PaperID, a.ReviewerID)
	}
	return m
}

// assign 为论文选出新的评审人并更新计数：先按专长匹配，无匹配时按名单顺序轮转补位，
// 两者都没有可用评审人时提前结束。返回本次新增的评审人 ID。
func (m *matcher) assign(paper model.Paper) []string {
	keywords := normalizeSet(paper.Keywords)
	var picked []string
	for m.countFor(paper.ID) < m.cfg.ReviewersPerPaper {
		id, ok := m.pick(paper.ID, keywords, true)
		if !ok {
			id, ok = m.pick(paper.ID, keywords, false)
		}
		if !ok {
			break
		}
		m.load[id]++
		m.markAssigned(paper.ID, id)
		picked = append(picked, id)
	}
	return picked
}

func (m *matcher) pick(paperID string, keywords map[string]struct{}, needExpertise bool) (string, bool) {
	taken := m.assigned[paperID]
	for _, r := range m.reviewers {
		if m.load[r.id] >= m.cfg.MaxPapersPerReviewer {
			continue
		}
		if _, ok := taken[r.id]; ok {
			continue
		}
		if needExpertise && !intersects(r.expertise, keywords) {
			continue
		}
		return r.id, true
	}
	return "", false
}

func (m *matcher) countFor(paperID string) int {
	return len(m.assigned[paperID])
}

func (m *matcher) markAssigned(paperID, reviewerID string) {
	set, ok := m.assigned[paperID]
	if !ok {
		set = make(map[string]struct{})
		m.assigned[paperID] = set
	}
	set[reviewerID] = struct{}{}
}

func normalizeSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if key := strings.ToLower(strings.TrimSpace(v)); key != "" {
			out[key] = struct{}{}
		}
	}
	return out
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
