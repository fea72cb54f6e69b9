package utils

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "霞", "飞", "玲", "超",
	"华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌", "欣",
}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	name := ""
	for i, n := 0, rand.Intn(2)+1; i < n; i++ {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

const digits = "0123456789"

// GenerateUsernameFromChineseName 取每个字拼音的随机前缀，再拼上 1 到 3 位数字
func GenerateUsernameFromChineseName(chineseName string) string {
	username := ""
	for _, py := range pinyin.LazyConvert(chineseName, nil) {
		username += py[:rand.Intn(len(py))+1]
	}

	for i, n := 0, rand.Intn(3)+1; i < n; i++ {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

// GenerateRandomStudent 生成一个学生账号，密码统一为 password
func GenerateRandomStudent(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         domain.RoleStudent,
	}, nil
}

func GenerateRandomOTP() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	password := make([]rune, length)
	for i := range password {
		password[i] = letters[rand.Intn(len(letters))]
	}
	return string(password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	id := make([]rune, letterLength+digitLength)
	for i := range id {
		if i < letterLength {
			id[i] = letters[rand.Intn(52)] // 只取字母
		} else {
			id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(id)
}

var scholarshipSponsors = []string{"逸仙", "南粤", "光华", "国家", "宝钢", "唐立新", "曾宪梓", "华为"}

var essayPromptPool = []string{
	"请介绍一段你克服困难的经历",
	"你为什么选择现在的专业",
	"描述一次你帮助他人的经历",
	"你未来五年的学习计划是什么",
	"谈谈一本对你影响最大的书",
	"请介绍你参与过的一个科研或实践项目",
}

// GenerateRandomScholarship 生成截止日期在 now 之后 2 到 16 周的奖学金
func GenerateRandomScholarship(now time.Time) *domain.Scholarship {
	y, m, d := now.AddDate(0, 0, 14+rand.Intn(98)).Date()

	prompts := make([]string, 0)
	for _, i := range rand.Perm(len(essayPromptPool))[:rand.Intn(4)] {
		prompts = append(prompts, essayPromptPool[i])
	}

	return &domain.Scholarship{
		Name:                scholarshipSponsors[rand.Intn(len(scholarshipSponsors))] + "奖学金" + GenerateRandomID(2, 3),
		Description:         "奖学金描述" + GenerateRandomID(20, 10),
		Deadline:            time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		EssayPrompts:        prompts,
		RecommendationCount: int32(rand.Intn(4)),
		DocumentsRequired:   int32(rand.Intn(4) + 1),
	}
}

// GenerateRandomApplication 生成一个尚未开始的申请，排期由调用者生成
func GenerateRandomApplication(student *domain.User, scholarship *domain.Scholarship) *domain.Application {
	return &domain.Application{
		StudentID:           student.ID,
		ScholarshipID:       scholarship.ID,
		ScholarshipName:     scholarship.Name,
		Deadline:            scholarship.Deadline,
		EssayCount:          scholarship.EssayCount(),
		RecommendationCount: scholarship.RecommendationCount,
		Status:              domain.ApplicationStatusNotStarted,
		PriorityTier:        int32(rand.Intn(3) + 1),
		Progress: domain.ApplicationProgress{
			EssaysRequired:          scholarship.EssayCount(),
			DocumentsRequired:       scholarship.DocumentsRequired,
			RecommendationsRequired: scholarship.RecommendationCount,
		},
	}
}
