package domain

import "time"

type Scholarship struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Description         string    `json:"description"`
	Deadline            time.Time `json:"deadline"`
	EssayPrompts        []string  `json:"essayPrompts"`
	RecommendationCount int32     `json:"recommendationCount"`
	DocumentsRequired   int32     `json:"documentsRequired"`
	CreatedAt           time.Time `json:"createdAt"`
	Version             int32     `json:"-"`
}

// EssayCount 即作文题目的数量
func (s *Scholarship) EssayCount() int32 {
	return int32(len(s.EssayPrompts))
}
