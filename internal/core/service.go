package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/fileconverter/internal/codec"
	"github.com/JonMunkholm/fileconverter/internal/history"
	"github.com/JonMunkholm/fileconverter/internal/logging"
	"github.com/JonMunkholm/fileconverter/internal/metrics"
	"github.com/JonMunkholm/fileconverter/internal/pipeline"
	"github.com/JonMunkholm/fileconverter/internal/table"
)

// Config holds the service limits. Zero values fall back to defaults.
type Config struct {
	MaxFileSize        int64
	FileTTL            time.Duration
	MaxFilesPerSession int
	MaxConcurrent      int
	MaxWait            time.Duration
	PreviewRows        int
	ChartMaxRows       int
}

// Defaults for Config fields left at zero.
const (
	DefaultMaxFileSize = 50 << 20
	DefaultFileTTL     = 30 * time.Minute
)

// Service stores uploaded files and runs the cleaning pipeline over them.
type Service struct {
	cfg      Config
	store    *fileStore
	limiter  *ConvertLimiter
	pipeline *pipeline.Pipeline
	history  history.Recorder
}

// NewService creates a Service. rec may be nil, in which case an in-memory
// history is used.
func NewService(cfg Config, rec history.Recorder) *Service {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.FileTTL <= 0 {
		cfg.FileTTL = DefaultFileTTL
	}
	if rec == nil {
		rec = history.NewMemory(0)
	}

	return &Service{
		cfg:      cfg,
		store:    newFileStore(cfg.FileTTL, cfg.MaxFilesPerSession),
		limiter:  NewConvertLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		pipeline: pipeline.New(cfg.PreviewRows, cfg.ChartMaxRows),
		history:  rec,
	}
}

// MaxFileSize returns the per-file upload limit in bytes.
func (s *Service) MaxFileSize() int64 {
	return s.cfg.MaxFileSize
}

// AddFile reads an upload, parses it once to validate and describe it, and
// stores the raw bytes for the session in ctx. A failure affects only this
// file.
func (s *Service) AddFile(ctx context.Context, name string, r io.Reader) (FileInfo, error) {
	name = baseName(name)

	format, err := codec.FormatFromFilename(name)
	if err != nil {
		metrics.FilesParsed.WithLabelValues("unknown", metrics.ResultError).Inc()
		return FileInfo{}, err
	}

	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxFileSize+1))
	if err != nil {
		return FileInfo{}, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > s.cfg.MaxFileSize {
		metrics.FilesParsed.WithLabelValues(string(format), metrics.ResultError).Inc()
		return FileInfo{}, fmt.Errorf("%s: %w (limit %d MB)", name, ErrFileTooLarge, s.cfg.MaxFileSize>>20)
	}

	tbl, _, err := codec.Parse(name, bytes.NewReader(data))
	metrics.FilesParsed.WithLabelValues(string(format), metrics.Outcome(err)).Inc()
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: %w", name, err)
	}

	info, err := s.store.put(SessionFromContext(ctx), describe(name, format, tbl), data)
	if err != nil {
		return FileInfo{}, err
	}

	logging.WithFields(ctx, "file_id", info.ID, "file", name).Info("file stored",
		"format", format,
		"rows", info.Rows,
		"columns", len(info.Columns),
		"bytes", info.Size,
	)
	return info, nil
}

// Describe returns the stored file's info.
func (s *Service) Describe(ctx context.Context, id string) (FileInfo, error) {
	info, _, err := s.store.get(SessionFromContext(ctx), id)
	return info, err
}

// List returns the session's files, oldest first.
func (s *Service) List(ctx context.Context) []FileInfo {
	return s.store.list(SessionFromContext(ctx))
}

// Remove deletes a stored file.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.remove(SessionFromContext(ctx), id); err != nil {
		return err
	}
	logging.WithFields(ctx, "file_id", id).Info("file removed")
	return nil
}

// Process re-parses a stored file and runs the pipeline with opts. It is
// used for previews and does not record history.
func (s *Service) Process(ctx context.Context, id string, opts pipeline.Options) (*pipeline.Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	info, data, err := s.store.get(SessionFromContext(ctx), id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := s.run(info.Name, data, opts)
	metrics.Conversions.WithLabelValues(string(opts.OutputFormat), metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	metrics.ConversionDuration.WithLabelValues(string(opts.OutputFormat)).Observe(time.Since(start).Seconds())
	metrics.RowsProcessed.Add(float64(res.Report.RowsIn))
	return res, nil
}

func (s *Service) run(name string, data []byte, opts pipeline.Options) (*pipeline.Result, error) {
	tbl, _, err := codec.Parse(name, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return s.pipeline.Run(tbl, name, opts)
}

// Convert is Process followed by a history record. Use it when the
// artifact is handed to the user.
func (s *Service) Convert(ctx context.Context, id string, opts pipeline.Options) (*pipeline.Result, error) {
	res, err := s.Process(ctx, id, opts)
	if err != nil {
		return nil, err
	}

	metrics.ArtifactBytes.WithLabelValues(string(opts.OutputFormat)).Observe(float64(len(res.Artifact.Data)))
	s.record(ctx, res)
	return res, nil
}

// record writes a history entry. Failures are logged and never returned.
func (s *Service) record(ctx context.Context, res *pipeline.Result) {
	entry := history.Entry{
		SourceName:       res.SourceName,
		OutputName:       res.Artifact.Name,
		Format:           string(res.Options.OutputFormat),
		RowsIn:           res.Report.RowsIn,
		RowsOut:          res.Report.RowsOut,
		Columns:          res.Report.ColumnsOut,
		RemoveDuplicates: res.Options.RemoveDuplicates,
		FillMissing:      res.Options.FillMissingWithMean,
		ClientIP:         GetIPAddressFromContext(ctx),
	}

	// Detached so a client disconnect does not lose the record.
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.history.Record(recCtx, entry); err != nil {
		logging.WithFields(ctx, "file", res.SourceName, "output", res.Artifact.Name).
			Error("history record failed", "error", err)
	}
}

// History returns recent conversions, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]history.Entry, error) {
	return s.history.Recent(ctx, limit)
}

// Status is a snapshot for the status endpoint.
type Status struct {
	Limiter     LimiterStatus `json:"limiter"`
	StoredFiles int           `json:"storedFiles"`
}

// Status reports limiter and store state.
func (s *Service) Status() Status {
	return Status{
		Limiter:     s.limiter.Status(),
		StoredFiles: s.store.count(),
	}
}

// Shutdown waits for in-flight pipeline runs to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	if err := s.limiter.WaitForDrain(ctx); err != nil {
		return fmt.Errorf("wait for conversions: %w", err)
	}
	return nil
}

func describe(name string, format codec.Format, t *table.Table) FileInfo {
	cols := make([]ColumnInfo, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = ColumnInfo{Name: c.Name, Kind: c.Kind.String(), Missing: c.MissingCount()}
	}
	return FileInfo{
		Name:    name,
		Format:  format,
		Rows:    t.NumRows(),
		Columns: cols,
	}
}

// baseName strips any client-supplied directory, including Windows paths
// sent by older browsers.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}
	return name
}

// IsClientError reports whether err was caused by the request rather than
// the server.
func IsClientError(err error) bool {
	var pe *codec.ParseError
	switch {
	case errors.As(err, &pe),
		errors.Is(err, codec.ErrUnsupportedFormat),
		errors.Is(err, table.ErrUnknownColumn),
		errors.Is(err, pipeline.ErrInvalidOptions),
		errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrTooManyFiles),
		errors.Is(err, ErrNoFile):
		return true
	}
	return false
}
