package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"xlink-ingest/config"
	"xlink-ingest/models"
	"xlink-ingest/parser"
	"xlink-ingest/peaklist"
	"xlink-ingest/storage"
)

// IngestService runs identification-file ingestions. A single document is
// always parsed by one goroutine; different uploads run concurrently up to
// the configured limit, each with its own Writer.
type IngestService struct {
	Cfg    *config.Config
	DB     *gorm.DB
	Logger *zap.Logger

	unimod *parser.UnimodTable
	sem    chan struct{}
}

// IngestRequest describes one ingestion. CSVVariant is only consulted for
// .csv files; FastaPath only for the full CSV variant.
type IngestRequest struct {
	Path             string
	UserID           string
	ProjectAccession string
	CSVVariant       string
	FastaPath        string
}

// IngestResult is what one finished ingestion reports back. Matches and
// Warnings count persisted match rows and terminal-state warnings, including
// partial results of a failed parse.
type IngestResult struct {
	UploadID uuid.UUID
	Matches  int
	Warnings int
	Err      error
}

func NewIngestService(cfg *config.Config, db *gorm.DB, log *zap.Logger) *IngestService {
	s := &IngestService{
		Cfg:    cfg,
		DB:     db,
		Logger: log,
		sem:    make(chan struct{}, cfg.MaxConcurrentUploads),
	}
	unimod, err := parser.LoadUnimod(cfg.UnimodPath)
	if err != nil {
		log.Warn("unimod table not loaded, accession-only modification masses stay unresolved",
			zap.String("path", cfg.UnimodPath), zap.Error(err))
	} else {
		s.unimod = unimod
	}
	return s
}

// Ingest parses one identification file synchronously and returns the upload
// id, which is valid even when the parse failed partway.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) IngestResult {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return IngestResult{Err: ctx.Err()}
	}

	writer := storage.NewWriter(s.DB, s.Logger)
	err := s.parseWith(writer, req)
	return IngestResult{
		UploadID: writer.UploadID(),
		Matches:  writer.MatchesWritten(),
		Warnings: writer.WarningCount(),
		Err:      err,
	}
}

// IngestAsync fires an ingestion in the background, bounded by the same
// concurrency limit as the staging sweep.
func (s *IngestService) IngestAsync(req IngestRequest, done func(IngestResult)) {
	go func() {
		res := s.Ingest(context.Background(), req)
		if done != nil {
			done(res)
		}
	}()
}

func (s *IngestService) parseWith(writer *storage.Writer, req IngestRequest) error {
	peakListDir := s.Cfg.PeakListDir
	if peakListDir == "" {
		peakListDir = filepath.Dir(req.Path)
	}
	readers := s.readerProvider(peakListDir)

	name := strings.ToLower(filepath.Base(req.Path))
	switch {
	case strings.HasSuffix(name, ".mzid") || strings.HasSuffix(name, ".mzid.gz"):
		p := &parser.MzIdParser{
			Store:            writer,
			Readers:          readers,
			Unimod:           s.unimod,
			BatchSize:        s.Cfg.BatchSize,
			UserID:           req.UserID,
			ProjectAccession: req.ProjectAccession,
			Log:              s.Logger,
		}
		return p.Parse(req.Path)
	case strings.HasSuffix(name, ".csv"):
		variant, err := csvVariant(req.CSVVariant)
		if err != nil {
			return err
		}
		var fasta *parser.FastaIndex
		if req.FastaPath != "" {
			fasta, err = parser.LoadFasta(req.FastaPath)
			if err != nil {
				return fmt.Errorf("loading fasta %s: %w", req.FastaPath, err)
			}
		}
		p := &parser.CSVParser{
			Store:            writer,
			Readers:          readers,
			Fasta:            fasta,
			Unimod:           s.unimod,
			Variant:          variant,
			BatchSize:        s.Cfg.BatchSize,
			UserID:           req.UserID,
			ProjectAccession: req.ProjectAccession,
			Log:              s.Logger,
		}
		return p.Parse(req.Path)
	default:
		return fmt.Errorf("unsupported identification file %q", filepath.Base(req.Path))
	}
}

func csvVariant(raw string) (parser.CSVVariant, error) {
	switch raw {
	case "", "full":
		return parser.CSVFull, nil
	case "no-peak-list":
		return parser.CSVNoPeakList, nil
	case "links-only":
		return parser.CSVLinksOnly, nil
	}
	return 0, fmt.Errorf("unknown csv variant %q", raw)
}

// readerProvider opens peak lists relative to dir, falling back to a .gz
// sibling when the referenced name is absent. Zip archives are expanded into
// the temp dir once and served from there.
func (s *IngestService) readerProvider(dir string) parser.ReaderProvider {
	return func(peakListFileName, fileFormat, idFormat string) (peaklist.Reader, error) {
		path, err := s.locatePeakList(dir, peakListFileName)
		if err != nil {
			return nil, err
		}
		return peaklist.Open(path, fileFormat, idFormat)
	}
}

func (s *IngestService) locatePeakList(dir, name string) (string, error) {
	candidates := []string{
		filepath.Join(dir, name),
		filepath.Join(dir, name+".gz"),
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	// A zip archive next to the identification file may hold the peak list.
	if zips, _ := filepath.Glob(filepath.Join(dir, "*.zip")); len(zips) > 0 {
		if err := os.MkdirAll(s.Cfg.TempDir, 0o755); err != nil {
			return "", err
		}
		for _, z := range zips {
			extracted, err := peaklist.ExtractZip(z, s.Cfg.TempDir)
			if err != nil {
				s.Logger.Warn("zip extraction failed", zap.String("archive", z), zap.Error(err))
				continue
			}
			for _, e := range extracted {
				if filepath.Base(e) == name {
					return e, nil
				}
			}
		}
	}
	return "", &peaklist.ParseError{File: name, Msg: "peak list file not found"}
}

// SweepStaging ingests identification files from the staging directory that
// have no upload row yet. Called by the cron schedule. The done callback, when
// set, receives the result of every attempted upload.
func (s *IngestService) SweepStaging(ctx context.Context, done func(IngestResult)) (int, error) {
	entries, err := os.ReadDir(s.Cfg.StagingDir)
	if err != nil {
		return 0, err
	}

	started := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if !strings.HasSuffix(name, ".mzid") && !strings.HasSuffix(name, ".mzid.gz") &&
			!strings.HasSuffix(name, ".csv") {
			continue
		}

		var count int64
		if err := s.DB.Model(&models.Upload{}).
			Where("identification_file_name = ?", entry.Name()).
			Count(&count).Error; err != nil {
			return started, err
		}
		if count > 0 {
			continue
		}

		path := filepath.Join(s.Cfg.StagingDir, entry.Name())
		s.Logger.Info("staging sweep picked up file", zap.String("file", entry.Name()))
		res := s.Ingest(ctx, IngestRequest{Path: path})
		if done != nil {
			done(res)
		}
		if res.Err != nil {
			s.Logger.Error("staged ingestion failed",
				zap.String("file", entry.Name()), zap.Error(res.Err))
			continue
		}
		started++
	}
	return started, nil
}
