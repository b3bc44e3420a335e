// import_nfe importa de una vez todos los XML de NF-e de un directorio (cargas históricas).
//
// Uso: go run ./cmd/import_nfe [-report lote.xlsx] <directorio>
// Usa la misma configuración que la API (DATABASE_URL, IMPORT_*, ARCHIVE_*).
// Termina con código 1 si algún archivo falló.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ingest"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/nfexml"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/postgres"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/report"
	"github.com/jhoicas/fiscal-ingest-api/pkg/config"
	"github.com/jhoicas/fiscal-ingest-api/pkg/logger"
)

func main() {
	reportPath := flag.String("report", "", "ruta del reporte (.xlsx o .pdf)")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "uso: import_nfe [-report lote.xlsx] <directorio>")
		os.Exit(2)
	}
	dir := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "import_nfe"})

	files, err := readDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer directorio: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("No hay archivos XML en", dir)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()
	if cfg.DB.RunMigrations {
		if err := postgres.RunMigrations(ctx, pool, log); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	detector := ingest.NewDuplicateDetector(postgres.NewPayableRepository(pool), cfg.Import.DescriptionLabel)
	resolver := ingest.NewVendorResolver(postgres.NewVendorRepository(pool))
	committer := ingest.NewCommitter(postgres.NewTxRunner(pool), ingest.CommitConfig{
		DescriptionLabel:  cfg.Import.DescriptionLabel,
		DefaultCategoryID: cfg.Import.DefaultCategoryID,
		DefaultBranchID:   cfg.Import.DefaultBranchID,
	})
	orchestrator := ingest.NewOrchestrator(nfexml.NewExtractor(log), detector, resolver, committer, nil, cfg.Import.Pause, log)

	summary := orchestrator.Run(ctx, files, func(p ingest.Progress) {
		fmt.Printf("[%3d%%] %s: %s\n", p.Percent, p.File, p.Outcome)
	})

	fmt.Printf("\nTotal: %d  Importados: %d  Duplicados: %d  Con error: %d\n",
		summary.Total, summary.Committed, summary.Duplicates, summary.Failed)
	for _, r := range summary.Files {
		if r.Outcome == entity.OutcomeFailed {
			fmt.Printf("  %s [%s] %s\n", r.FileName, r.Kind, r.Message)
		}
	}

	if *reportPath != "" {
		if err := writeReport(*reportPath, summary); err != nil {
			fmt.Fprintf(os.Stderr, "Escribir reporte: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Reporte:", *reportPath)
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}

func readDir(dir string) ([]entity.ImportFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	files := make([]entity.ImportFile, 0, len(names))
	for _, n := range names {
		content, err := os.ReadFile(filepath.Join(dir, n))
		if err != nil {
			return nil, err
		}
		files = append(files, entity.ImportFile{Name: n, Content: content})
	}
	return files, nil
}

func writeReport(path string, s *entity.BatchSummary) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		data, err = report.BatchXLSX(s)
	case ".pdf":
		data, err = report.BatchPDF(s)
	default:
		return fmt.Errorf("extensión no soportada: %s (.xlsx o .pdf)", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
