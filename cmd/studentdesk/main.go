package main

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/noah-isme/studentdesk/internal/repository"
	"github.com/noah-isme/studentdesk/internal/service"
	"github.com/noah-isme/studentdesk/internal/shell"
	"github.com/noah-isme/studentdesk/pkg/config"
	"github.com/noah-isme/studentdesk/pkg/database"
	"github.com/noah-isme/studentdesk/pkg/export"
	"github.com/noah-isme/studentdesk/pkg/logger"
	"github.com/noah-isme/studentdesk/pkg/storage"
)

func main() {
	cmd := &cobra.Command{
		Use:          "studentdesk",
		Short:        "Single-user student record manager",
		Long:         "Records, browses and reports on student records backed by a local SQLite database.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to open database", "path", cfg.Database.Path, "error", err)
	}
	defer db.Close() //nolint:errcheck

	exportStore, err := storage.NewLocalStorage(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export directory", "dir", cfg.Export.Dir, "error", err)
	}

	students := repository.NewStudentRepository(db)
	audits := repository.NewAuditRepository(db)
	users := repository.NewUserRepository(db)

	validate := service.NewValidator()
	csvOut := export.NewCSVExporter()
	xlsxOut := export.NewExcelExporter()
	pdfOut := export.NewPDFExporter()

	authSvc := service.NewAuthService(users, audits, logr)
	studentSvc := service.NewStudentService(students, audits, validate, logr, cfg.Roster.PageSize)
	transferSvc := service.NewTransferService(students, audits, validate, exportStore, csvOut, xlsxOut, pdfOut, logr)
	backupSvc := service.NewBackupService(cfg.Database.Path, cfg.Backup.Dir, audits, logr)
	reportSvc := service.NewReportService(students, audits, pdfOut, exportStore, logr)
	auditSvc := service.NewAuditService(audits, cfg.Audit.ViewLimit)

	logr.Sugar().Infow("studentdesk starting", "db", cfg.Database.Path, "env", cfg.Env)

	sh := shell.New(authSvc, studentSvc, transferSvc, backupSvc, reportSvc, auditSvc, os.Stdin, os.Stdout)
	return sh.Run(ctx)
}
