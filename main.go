// @title 情景训练评分 API
// @version 1.0
// @description 分支情景关卡的评分、最佳成绩保留与掌握度统计服务。

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"flag"
	"log"

	"training_backend/internal/app"
	"training_backend/internal/config"
)

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	importFile := flag.String("import", "", "从 YAML 文件导入培训、关卡与学员，完成后退出")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志，导入前也需要表结构
	cfg.ForceMigrate = *migrate || *migrateOnly || *importFile != ""
	cfg.MigrateOnly = *migrateOnly
	cfg.ImportFile = *importFile

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	// 迁移或导入完成后直接退出
	if cfg.MigrateOnly || cfg.ImportFile != "" {
		application.Close(context.Background())
		log.Println("任务完成，退出程序")
		return
	}

	application.Run()
}
