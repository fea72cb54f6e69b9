package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/scholarship-planner/backend/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var rootCmd = &cobra.Command{
	Use:          "seed",
	Short:        "向数据库中插入测试数据",
	SilenceUsage: true,
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openRepository 读取配置并连接数据库，返回的 close 函数负责关闭连接池
func openRepository() (*config.Config, *repository.Repository, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("无法读取配置文件: %w", err)
	}

	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("无法创建数据库连接池: %w", err)
	}

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		dbpool.Close()
		return nil, nil, nil, fmt.Errorf("无法连接到数据库: %w", err)
	}

	return cfg, repository.NewRepository(cfg, dbpool), func() { dbpool.Close() }, nil
}
