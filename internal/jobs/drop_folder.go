package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ingest"
	"github.com/jhoicas/fiscal-ingest-api/internal/domain/entity"
	"github.com/jhoicas/fiscal-ingest-api/internal/infrastructure/report"
	"github.com/jhoicas/fiscal-ingest-api/pkg/logger"
)

// Subcarpetas de la carpeta de entrada.
const (
	ProcessedDir  = "processed"
	DuplicatesDir = "duplicates"
	FailedDir     = "failed"
	ReportsDir    = "reports"
)

// BatchRunner importa un lote; lo cumple *ingest.Orchestrator.
type BatchRunner interface {
	Run(ctx context.Context, files []entity.ImportFile, progress ingest.ProgressFunc) *entity.BatchSummary
}

// DropFolderConfig configuración del job.
type DropFolderConfig struct {
	Dir      string
	Schedule string // expresión cron de 5 campos
	TimeZone string
	MaxBytes int64 // archivos más grandes se mueven a failed/ sin procesar
}

// DropFolderJob importa periódicamente los XML dejados en una carpeta y los mueve
// según el resultado: processed/, duplicates/ o failed/. Deja un reporte XLSX por lote.
type DropFolderJob struct {
	cfg    DropFolderConfig
	runner BatchRunner
	log    *logger.Logger
}

// NewDropFolderJob construye el job.
func NewDropFolderJob(cfg DropFolderConfig, runner BatchRunner, log *logger.Logger) *DropFolderJob {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "*/15 * * * *"
	}
	return &DropFolderJob{cfg: cfg, runner: runner, log: log}
}

// Start programa el job y arranca el scheduler. Una ejecución que se superpone con la
// anterior se omite. El llamador detiene el cron con Stop().
func (j *DropFolderJob) Start(ctx context.Context) (*cron.Cron, error) {
	if j.cfg.Dir == "" {
		return nil, errors.New("jobs: IMPORT_DROP_DIR vacío")
	}
	loc, err := time.LoadLocation(j.cfg.TimeZone)
	if err != nil {
		j.log.Warn().Err(err).Str("tz", j.cfg.TimeZone).Msg("[DROP] zona horaria inválida, se usa UTC")
		loc = time.UTC
	}
	cl := cronLogger{log: j.log}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	_, err = c.AddFunc(j.cfg.Schedule, func() {
		if _, err := j.RunOnce(ctx); err != nil {
			j.log.Error().Err(err).Msg("[DROP] ejecución fallida")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("jobs: programar carpeta de entrada: %w", err)
	}
	c.Start()
	j.log.Info().Str("dir", j.cfg.Dir).Str("schedule", j.cfg.Schedule).Str("tz", loc.String()).Msg("[DROP] scheduler iniciado")
	return c, nil
}

// RunOnce procesa los XML presentes en la carpeta. Devuelve nil si no había archivos.
func (j *DropFolderJob) RunOnce(ctx context.Context) (*entity.BatchSummary, error) {
	paths, err := j.pending()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, nil
	}

	files := make([]entity.ImportFile, 0, len(paths))
	byName := make(map[string]string, len(paths))
	for _, p := range paths {
		name := filepath.Base(p)
		if j.cfg.MaxBytes > 0 {
			if st, err := os.Stat(p); err == nil && st.Size() > j.cfg.MaxBytes {
				j.log.Warn().Str("file", name).Int64("bytes", st.Size()).Msg("[DROP] archivo excede el tamaño máximo")
				j.move(p, FailedDir)
				continue
			}
		}
		content, err := os.ReadFile(p)
		if err != nil {
			j.log.Warn().Err(err).Str("file", name).Msg("[DROP] no se pudo leer el archivo")
			continue
		}
		files = append(files, entity.ImportFile{Name: name, Content: content})
		byName[name] = p
	}
	if len(files) == 0 {
		return nil, nil
	}

	summary := j.runner.Run(ctx, files, func(p ingest.Progress) {
		j.log.Debug().Int("percent", p.Percent).Str("file", p.File).Msg("[DROP] progreso")
	})

	for _, r := range summary.Files {
		src, ok := byName[r.FileName]
		if !ok {
			continue
		}
		switch {
		case r.Outcome == entity.OutcomeCommitted:
			j.move(src, ProcessedDir)
		case r.Outcome == entity.OutcomeDuplicate:
			j.move(src, DuplicatesDir)
		case r.State == entity.StatePending:
			// cancelado antes de procesarse: queda para la próxima corrida
		default:
			j.move(src, FailedDir)
		}
	}
	j.writeReport(summary)
	return summary, nil
}

// pending lista los .xml del nivel superior en orden alfabético.
func (j *DropFolderJob) pending() ([]string, error) {
	entries, err := os.ReadDir(j.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("jobs: leer %s: %w", j.cfg.Dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".xml") {
			continue
		}
		out = append(out, filepath.Join(j.cfg.Dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

func (j *DropFolderJob) move(src, sub string) {
	dstDir := filepath.Join(j.cfg.Dir, sub)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		j.log.Error().Err(err).Str("dir", dstDir).Msg("[DROP] no se pudo crear la carpeta")
		return
	}
	dst := filepath.Join(dstDir, filepath.Base(src))
	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(dst)
		dst = strings.TrimSuffix(dst, ext) + "." + time.Now().Format("20060102150405") + ext
	}
	if err := os.Rename(src, dst); err != nil {
		j.log.Error().Err(err).Str("file", src).Msg("[DROP] no se pudo mover el archivo")
	}
}

func (j *DropFolderJob) writeReport(s *entity.BatchSummary) {
	data, err := report.BatchXLSX(s)
	if err != nil {
		j.log.Warn().Err(err).Msg("[DROP] no se pudo generar el reporte")
		return
	}
	dir := filepath.Join(j.cfg.Dir, ReportsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		j.log.Warn().Err(err).Msg("[DROP] no se pudo crear la carpeta de reportes")
		return
	}
	name := s.StartedAt.Format("20060102-150405") + "-" + s.BatchID + ".xlsx"
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		j.log.Warn().Err(err).Msg("[DROP] no se pudo escribir el reporte")
	}
}

// cronLogger adapta el logger de la app a cron.Logger.
type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug().Fields(keysAndValues).Msg("[CRON] " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error().Err(err).Fields(keysAndValues).Msg("[CRON] " + msg)
}
