package seed

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/utils"
)

// 作文题目之间使用竖线分隔
const promptSeparator = "|"

var requiredHeaders = []string{"名称", "描述", "截止日期", "推荐信数量", "材料数量", "作文题目"}

type ScholarshipCreator interface {
	CreateScholarship(scholarship *domain.Scholarship) error
}

// ParseScholarships 解析奖学金 CSV，表头必须包含 requiredHeaders 中的所有列
func ParseScholarships(r io.Reader) ([]*domain.Scholarship, error) {
	reader := csv.NewReader(r)

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}
	for _, header := range requiredHeaders {
		if !slices.Contains(headers, header) {
			return nil, fmt.Errorf("没有找到列 %s", header)
		}
	}

	scholarships := make([]*domain.Scholarship, 0)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取第 %d 行失败: %w", line, err)
		}

		record := make(map[string]string, len(headers))
		for i, value := range row {
			record[headers[i]] = strings.TrimSpace(value)
		}

		scholarship, err := parseRecord(record)
		if err != nil {
			return nil, fmt.Errorf("第 %d 行: %w", line, err)
		}
		scholarships = append(scholarships, scholarship)
	}

	return scholarships, nil
}

func parseRecord(record map[string]string) (*domain.Scholarship, error) {
	if record["名称"] == "" {
		return nil, fmt.Errorf("名称为空")
	}

	deadline, err := time.Parse("2006-01-02", record["截止日期"])
	if err != nil {
		return nil, fmt.Errorf("截止日期格式错误: %s", record["截止日期"])
	}

	recommendations, err := strconv.Atoi(record["推荐信数量"])
	if err != nil || recommendations < 0 {
		return nil, fmt.Errorf("推荐信数量非法: %s", record["推荐信数量"])
	}

	documents, err := strconv.Atoi(record["材料数量"])
	if err != nil || documents < 0 {
		return nil, fmt.Errorf("材料数量非法: %s", record["材料数量"])
	}

	prompts := make([]string, 0)
	for _, prompt := range strings.Split(record["作文题目"], promptSeparator) {
		if prompt = strings.TrimSpace(prompt); prompt != "" {
			prompts = append(prompts, prompt)
		}
	}
	if err := utils.ValidateEssayPrompts(prompts); err != nil {
		return nil, err
	}

	return &domain.Scholarship{
		Name:                record["名称"],
		Description:         record["描述"],
		Deadline:            deadline,
		EssayPrompts:        prompts,
		RecommendationCount: int32(recommendations),
		DocumentsRequired:   int32(documents),
	}, nil
}

// ImportScholarships 导入 CSV 中的奖学金，截止日期不晚于 now 的行会被跳过
func ImportScholarships(repo ScholarshipCreator, r io.Reader, now time.Time) (int, error) {
	scholarships, err := ParseScholarships(r)
	if err != nil {
		return 0, err
	}

	cnt := 0
	for _, scholarship := range scholarships {
		if !scholarship.Deadline.After(now) {
			slog.Warn("截止日期已过，跳过", "name", scholarship.Name, "deadline", scholarship.Deadline.Format("2006-01-02"))
			continue
		}
		if err := repo.CreateScholarship(scholarship); err != nil {
			slog.Error("插入奖学金失败", "name", scholarship.Name, "error", err)
			continue
		}
		cnt++
	}

	return cnt, nil
}
