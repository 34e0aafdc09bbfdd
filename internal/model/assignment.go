package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ConferenceReviewer 会议评审名单中的一条记录，每个评审人在一个会议下只有一条。
type ConferenceReviewer struct {
	ConferenceID string                      `gorm:"primaryKey" json:"conference_id"`
	ReviewerID   string                      `gorm:"primaryKey" json:"reviewer_id"`
	Name         string                      `json:"name"`
	Email        string                      `json:"email"`
	Expertise    datatypes.JSONSlice[string] `json:"expertise"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// Assignment 表示评审人被授权评审某篇论文。
// (PaperID, ReviewerID, ConferenceID) 由唯一索引保证不重复；记录创建后不再修改。
type Assignment struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	PaperID      string    `gorm:"not null;uniqueIndex:idx_assignment_tuple,priority:1" json:"paper_id"`
	ReviewerID   string    `gorm:"not null;uniqueIndex:idx_assignment_tuple,priority:2;index" json:"reviewer_id"`
	ConferenceID string    `gorm:"not null;uniqueIndex:idx_assignment_tuple,priority:3;index" json:"conference_id"`
	AssignedAt   time.Time `json:"assigned_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeCreate 生成 ID 与分配时间。
func (a *Assignment) BeforeCreate(*gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AssignedAt.IsZero() {
		a.AssignedAt = time.Now().UTC()
	}
	return nil
}
