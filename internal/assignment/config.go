package assignment

// 默认容量上限。
const (
	DefaultMaxPapersPerReviewer = 5
	DefaultReviewersPerPaper    = 3
)

// Config 控制分配容量。零值表示使用默认值；AllowManualOverCap 为 true 时手动分配不检查评审人上限。
type Config struct {
	MaxPapersPerReviewer int  `yaml:"max_papers_per_reviewer" json:"max_papers_per_reviewer"`
	ReviewersPerPaper    int  `yaml:"reviewers_per_paper" json:"reviewers_per_paper"`
	AllowManualOverCap   bool `yaml:"allow_manual_over_cap" json:"allow_manual_over_cap"`
}

func (c Config) withDefaults() Config {
	if c.MaxPapersPerReviewer <= 0 {
		c.MaxPapersPerReviewer = DefaultMaxPapersPerReviewer
	}
	if c.ReviewersPerPaper <= 0 {
		c.ReviewersPerPaper = DefaultReviewersPerPaper
	}
	return c
}
