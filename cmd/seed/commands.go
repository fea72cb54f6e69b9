package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/planner"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/seed"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/utils"
)

var (
	count      int
	csvFile    string
	perStudent int
)

var errInvalidCount = errors.New("请输入合法的记录数量")

var studentsCmd = &cobra.Command{
	Use:   "students",
	Short: "插入随机学生",
	RunE:  runStudents,
}

var scholarshipsCmd = &cobra.Command{
	Use:   "scholarships",
	Short: "插入随机奖学金",
	RunE:  runScholarships,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "从 CSV 文件导入奖学金",
	RunE:  runImport,
}

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "为每个学生随机申请奖学金并生成排期",
	RunE:  runApplications,
}

func init() {
	studentsCmd.Flags().IntVarP(&count, "count", "n", 5, "要插入的学生数量")
	scholarshipsCmd.Flags().IntVarP(&count, "count", "n", 5, "要插入的奖学金数量")
	importCmd.Flags().StringVarP(&csvFile, "file", "f", "internal/seed/data/scholarships.csv", "奖学金 CSV 文件")
	applicationsCmd.Flags().IntVar(&perStudent, "per-student", 3, "每个学生申请的奖学金数量")

	rootCmd.AddCommand(studentsCmd, scholarshipsCmd, importCmd, applicationsCmd)
}

func runStudents(cmd *cobra.Command, args []string) error {
	if count <= 0 {
		return errInvalidCount
	}

	cfg, repo, closeDB, err := openRepository()
	if err != nil {
		return err
	}
	defer closeDB()

	cnt := 0
	for i := 0; i < count; i++ {
		student, err := utils.GenerateRandomStudent(cfg.Seed.User.Password, cfg.Email.UserDomain)
		if err != nil {
			slog.Error("无法生成随机学生", "error", err)
			continue
		}
		if err := repo.CreateUser(student); err != nil {
			slog.Error("无法插入学生", "username", student.Username, "error", err)
			continue
		}
		cnt++
	}

	slog.Info("插入学生完成", "count", cnt)
	return nil
}

func runScholarships(cmd *cobra.Command, args []string) error {
	if count <= 0 {
		return errInvalidCount
	}

	_, repo, closeDB, err := openRepository()
	if err != nil {
		return err
	}
	defer closeDB()

	cnt := 0
	now := time.Now()
	for i := 0; i < count; i++ {
		scholarship := utils.GenerateRandomScholarship(now)
		if err := repo.CreateScholarship(scholarship); err != nil {
			slog.Error("无法插入奖学金", "name", scholarship.Name, "error", err)
			continue
		}
		cnt++
	}

	slog.Info("插入奖学金完成", "count", cnt)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(csvFile)
	if err != nil {
		return fmt.Errorf("无法打开文件: %w", err)
	}
	defer f.Close()

	_, repo, closeDB, err := openRepository()
	if err != nil {
		return err
	}
	defer closeDB()

	cnt, err := seed.ImportScholarships(repo, f, time.Now())
	if err != nil {
		return err
	}

	slog.Info("导入奖学金完成", "count", cnt)
	return nil
}

// runApplications 每个学生从尚未截止的奖学金中随机挑选若干个申请
func runApplications(cmd *cobra.Command, args []string) error {
	if perStudent <= 0 {
		return errInvalidCount
	}

	cfg, repo, closeDB, err := openRepository()
	if err != nil {
		return err
	}
	defer closeDB()

	p := planner.New(planner.ParametersFromConfig(cfg))
	now := time.Now()

	students, err := repo.GetUsers(domain.RoleStudent)
	if err != nil {
		return err
	}
	scholarships, err := repo.GetAllScholarships()
	if err != nil {
		return err
	}

	open := make([]*domain.Scholarship, 0, len(scholarships))
	for _, s := range scholarships {
		if p.ValidateDeadline(s.Deadline, now) == nil {
			open = append(open, s)
		}
	}
	if len(open) == 0 {
		return errors.New("没有尚未截止的奖学金")
	}

	cnt := 0
	for _, student := range students {
		for _, i := range rand.Perm(len(open))[:min(perStudent, len(open))] {
			app := utils.GenerateRandomApplication(student, open[i])
			if err := repo.CreateApplicationWithSchedule(app, p.NewSchedule(app)); err != nil {
				slog.Error("无法插入申请", "student", student.Username, "scholarship", open[i].Name, "error", err)
				continue
			}
			cnt++
		}
	}

	slog.Info("插入申请完成", "count", cnt)
	return nil
}
