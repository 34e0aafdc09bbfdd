package scoring

import (
	"math"

	"conf-review/internal/model"
)

// 评审人行状态与论文整体状态。
const (
	ReviewerStatusReviewed = "reviewed"
	ReviewerStatusPending  = "pending"

	OverallConsensus  = "Consensus"
	OverallInProgress = "In Progress"
)

// ReviewerRow 表示某篇论文下一位已分配评审人的进度。
type ReviewerRow struct {
	ReviewerID          string  `json:"reviewer_id"`
	Name                string  `json:"name"`
	Status              string  `json:"status"`
	Recommendation      string  `json:"recommendation"`
	TechnicalConfidence float64 `json:"technical_confidence"`
}

// PaperSummary 汇总一篇论文的评审进度与平均技术置信度。
type PaperSummary struct {
	PaperID                string              `json:"paper_id"`
	Title                  string              `json:"title"`
	Status                 model.PaperStatus   `json:"status"`
	Decision               model.FinalDecision `json:"decision"`
	Reviewers              []ReviewerRow       `json:"reviewers"`
	AvgTechnicalConfidence *float64            `json:"avg_technical_confidence"`
	OverallStatus          string              `json:"overall_status"`
}

// Summarize 按论文汇总分配与评审。未提交评审的评审人按 0 计入平均值；
// 没有评审人的论文平均值为空，整体状态为 In Progress。
func Summarize(papers []model.Paper, assignments []model.Assignment, reviews []model.Review, names map[string]string) []PaperSummary {
	byPaper := make(map[string][]model.Assignment)
	for _, a := range assignments {
		byPaper[a.PaperID] = append(byPaper[a.PaperID], a)
	}
	reviewOf := make(map[[2]string]model.Review, len(reviews))
	for _, r := range reviews {
		reviewOf[[2]string{r.PaperID, r.ReviewerID}] = r
	}

	out := make([]PaperSummary, 0, len(papers))
	for _, p := range papers {
		sum := PaperSummary{
			PaperID:   p.ID,
			Title:     p.Title,
			Status:    p.Status,
			Decision:  p.FinalDecision,
			Reviewers: make([]ReviewerRow, 0, len(byPaper[p.ID])),
		}

		var total float64
		allReviewed := true
		for _, a := range byPaper[p.ID] {
			row := ReviewerRow{
				ReviewerID:     a.ReviewerID,
				Name:           names[a.ReviewerID],
				Status:         ReviewerStatusPending,
				Recommendation: "-",
			}
			if r, ok := reviewOf[[2]string{p.ID, a.ReviewerID}]; ok {
				row.Status = ReviewerStatusReviewed
				row.Recommendation = string(r.OverallRecommendation)
				row.TechnicalConfidence = round(r.TechnicalConfidence, 4)
			} else {
				allReviewed = false
			}
			total += row.TechnicalConfidence
			sum.Reviewers = append(sum.Reviewers, row)
		}

		sum.OverallStatus = OverallInProgress
		if n := len(sum.Reviewers); n > 0 {
			avg := round(total/float64(n), 2)
			sum.AvgTechnicalConfidence = &avg
			if allReviewed {
				sum.OverallStatus = OverallConsensus
			}
		}
		out = append(out, sum)
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
