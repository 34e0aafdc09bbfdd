package model

import (
	"time"

	"gorm.io/datatypes"
)

// PaperStatus 表示论文在评审流程中的状态。
type PaperStatus string

const (
	PaperStatusPending     PaperStatus = "pending"
	PaperStatusAssigned    PaperStatus = "assigned"
	PaperStatusReviewed    PaperStatus = "reviewed"
	PaperStatusResubmitted PaperStatus = "resubmitted"
)

// FinalDecision 表示组织者对论文的最终决定。
type FinalDecision string

const (
	DecisionPending              FinalDecision = "pending"
	DecisionAccepted             FinalDecision = "Accepted"
	DecisionRejected             FinalDecision = "Rejected"
	DecisionModificationRequired FinalDecision = "Modification Required"
)

// Valid 判断是否为组织者可设置的决定（不含 pending）。
func (d FinalDecision) Valid() bool {
	switch d {
	case DecisionAccepted, DecisionRejected, DecisionModificationRequired:
		return true
	}
	return false
}

// Conference 会议记录，仅保留评审流程需要的字段。
type Conference struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Acronym   string    `json:"acronym"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Paper 投稿论文
// - Keywords: 作者填写的关键词，用于匹配评审人专长
// - Status: 仅由分配、评审提交与重新提交流程修改
// - FinalDecision: 组织者最终决定
type Paper struct {
	ID            string                      `gorm:"primaryKey" json:"id"`
	ConferenceID  string                      `gorm:"index;not null" json:"conference_id"`
	Title         string                      `json:"title"`
	Keywords      datatypes.JSONSlice[string] `json:"keywords"`
	Status        PaperStatus                 `gorm:"index;not null;default:pending" json:"status"`
	FinalDecision FinalDecision               `gorm:"not null;default:pending" json:"final_decision"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}
