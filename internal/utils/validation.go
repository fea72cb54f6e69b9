package utils

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
)

// ValidateEssayPrompts 作文题目不能为空白，也不能重复
func ValidateEssayPrompts(prompts []string) error {
	seen := make(map[string]bool, len(prompts))
	for i, prompt := range prompts {
		trimmed := strings.TrimSpace(prompt)
		if trimmed == "" {
			return fmt.Errorf("第 %d 个作文题目为空", i+1)
		}
		if seen[trimmed] {
			return fmt.Errorf("第 %d 个作文题目重复", i+1)
		}
		seen[trimmed] = true
	}
	return nil
}

// ValidateProgress 检查进度计数没有超过奖学金要求的数量
func ValidateProgress(progress domain.ApplicationProgress) error {
	if progress.EssaysCompleted < 0 || progress.DocumentsUploaded < 0 || progress.RecommendationsReceived < 0 {
		return errors.New("进度不能为负数")
	}
	if progress.EssaysCompleted > progress.EssaysRequired {
		return fmt.Errorf("已完成的作文数量不能超过 %d", progress.EssaysRequired)
	}
	if progress.DocumentsUploaded > progress.DocumentsRequired {
		return fmt.Errorf("已上传的材料数量不能超过 %d", progress.DocumentsRequired)
	}
	if progress.RecommendationsReceived > progress.RecommendationsRequired {
		return fmt.Errorf("已收到的推荐信数量不能超过 %d", progress.RecommendationsRequired)
	}
	return nil
}

// 申请状态只能向前推进，已撤回和已出结果的申请不能再修改状态
var allowedStatusTransitions = map[domain.ApplicationStatus][]domain.ApplicationStatus{
	domain.ApplicationStatusNotStarted: {
		domain.ApplicationStatusInProgress,
		domain.ApplicationStatusSubmitted,
		domain.ApplicationStatusWithdrawn,
	},
	domain.ApplicationStatusInProgress: {
		domain.ApplicationStatusSubmitted,
		domain.ApplicationStatusWithdrawn,
	},
	domain.ApplicationStatusSubmitted: {
		domain.ApplicationStatusDecided,
		domain.ApplicationStatusWithdrawn,
	},
}

func ValidateStatusTransition(from, to domain.ApplicationStatus) error {
	if from == to {
		return nil
	}
	if !slices.Contains(allowedStatusTransitions[from], to) {
		return fmt.Errorf("申请状态不能从 %s 变为 %s", from, to)
	}
	return nil
}
