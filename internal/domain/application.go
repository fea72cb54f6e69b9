package domain

import (
	"slices"
	"time"
)

type ApplicationStatus string

const (
	ApplicationStatusNotStarted ApplicationStatus = "not_started"
	ApplicationStatusInProgress ApplicationStatus = "in_progress"
	ApplicationStatusSubmitted  ApplicationStatus = "submitted"
	ApplicationStatusWithdrawn  ApplicationStatus = "withdrawn"
	ApplicationStatusDecided    ApplicationStatus = "decided"
)

// TerminalApplicationStatuses 中的申请不再参与工作量统计
var TerminalApplicationStatuses = []ApplicationStatus{
	ApplicationStatusSubmitted,
	ApplicationStatusWithdrawn,
	ApplicationStatusDecided,
}

func (s ApplicationStatus) IsTerminal() bool {
	return slices.Contains(TerminalApplicationStatuses, s)
}

const (
	PriorityTierHigh   int32 = 1
	PriorityTierMedium int32 = 2
	PriorityTierLow    int32 = 3
)

// ApplicationProgress 是申请的实时进度计数
type ApplicationProgress struct {
	EssaysCompleted         int32 `json:"essaysCompleted"`
	EssaysRequired          int32 `json:"essaysRequired"`
	DocumentsUploaded       int32 `json:"documentsUploaded"`
	DocumentsRequired       int32 `json:"documentsRequired"`
	RecommendationsReceived int32 `json:"recommendationsReceived"`
	RecommendationsRequired int32 `json:"recommendationsRequired"`
}

type Application struct {
	ID                  int64               `json:"id"`
	StudentID           int64               `json:"studentID"`
	ScholarshipID       int64               `json:"scholarshipID"`
	ScholarshipName     string              `json:"scholarshipName"`
	Deadline            time.Time           `json:"deadline"`
	EssayCount          int32               `json:"essayCount"`
	RecommendationCount int32               `json:"recommendationCount"`
	Status              ApplicationStatus   `json:"status"`
	PriorityTier        int32               `json:"priorityTier"`
	Progress            ApplicationProgress `json:"progress"`
	CreatedAt           time.Time           `json:"createdAt"`
	Version             int32               `json:"-"`
}
