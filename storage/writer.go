package storage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"xlink-ingest/models"
	"xlink-ingest/parser"
)

// Writer persists parser output for one upload. One Writer per upload, one
// database session, no state shared across uploads.
type Writer struct {
	db       *gorm.DB
	log      *zap.Logger
	uploadID uuid.UUID

	batchesWritten int
	rowsWritten    int
	matchesWritten int
	warningCount   int
}

func NewWriter(db *gorm.DB, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{db: db, log: log}
}

// UploadID returns the id generated by NewUpload. Zero before that call.
func (w *Writer) UploadID() uuid.UUID { return w.uploadID }

// MatchesWritten returns the number of match rows persisted so far.
func (w *Writer) MatchesWritten() int { return w.matchesWritten }

// WarningCount returns the number of warnings recorded at terminal state.
func (w *Writer) WarningCount() int { return w.warningCount }

func (w *Writer) NewUpload(fileName, userID, projectAccession string) (uuid.UUID, error) {
	upload := models.Upload{
		ID:                     uuid.New(),
		CreatedAt:              time.Now().UTC(),
		UserID:                 userID,
		ProjectAccession:       projectAccession,
		IdentificationFileName: fileName,
	}
	if err := w.db.Create(&upload).Error; err != nil {
		return uuid.Nil, err
	}
	w.uploadID = upload.ID
	w.log = w.log.With(zap.String("upload_id", upload.ID.String()))
	return upload.ID, nil
}

func (w *Writer) UpdateUploadMetadata(meta parser.UploadMetadata) error {
	updates := map[string]any{}
	if b := marshal(meta.Provider); b != nil {
		updates["provider"] = b
	}
	if b := marshal(meta.Audits); b != nil {
		updates["audits"] = b
	}
	if b := marshal(meta.Samples); b != nil {
		updates["samples"] = b
	}
	if b := marshal(meta.Bib); b != nil {
		updates["bib"] = b
	}
	if b := marshal(meta.SpectraFormats); b != nil {
		updates["spectra_formats"] = b
	}
	if len(updates) == 0 {
		return nil
	}
	return w.db.Model(&models.Upload{}).Where("id = ?", w.uploadID).Updates(updates).Error
}

// create runs one batch insert and reports the outcome. A failed batch is
// logged with its size and position and folded into the upload's warnings by
// the caller; it never aborts the parse.
func (w *Writer) create(table string, rows any, count int) parser.BatchOutcome {
	outcome := parser.BatchOutcome{Table: table, Rows: count}
	if count == 0 {
		return outcome
	}
	if err := w.db.Create(rows).Error; err != nil {
		w.log.Error("batch write failed",
			zap.String("table", table),
			zap.Int("rows", count),
			zap.Int("batch_position", w.batchesWritten),
			zap.Error(err))
		outcome.Err = err
		return outcome
	}
	w.batchesWritten++
	w.rowsWritten += count
	w.log.Debug("batch written", zap.String("table", table), zap.Int("rows", count))
	return outcome
}

func (w *Writer) WriteDBSequences(rows []models.DBSequence) parser.BatchOutcome {
	return w.create("dbsequence", rows, len(rows))
}

func (w *Writer) WritePeptides(rows []models.ModifiedPeptide) parser.BatchOutcome {
	return w.create("modifiedpeptide", rows, len(rows))
}

func (w *Writer) WritePeptideEvidences(rows []models.PeptideEvidence) parser.BatchOutcome {
	return w.create("peptideevidence", rows, len(rows))
}

func (w *Writer) WriteSpectra(rows []models.Spectrum) parser.BatchOutcome {
	return w.create("spectrum", rows, len(rows))
}

func (w *Writer) WriteMatches(rows []models.SpectrumIdentification) parser.BatchOutcome {
	outcome := w.create("spectrumidentification", rows, len(rows))
	if outcome.Written() {
		w.matchesWritten += len(rows)
	}
	return outcome
}

func (w *Writer) WriteProtocols(rows []models.SpectrumIdentificationProtocol) parser.BatchOutcome {
	return w.create("spectrumidentificationprotocol", rows, len(rows))
}

func (w *Writer) WriteEnzymes(rows []models.Enzyme) parser.BatchOutcome {
	return w.create("enzyme", rows, len(rows))
}

func (w *Writer) WriteSearchModifications(rows []models.SearchModification) parser.BatchOutcome {
	return w.create("searchmodification", rows, len(rows))
}

func (w *Writer) WriteAnalysisCollections(rows []models.AnalysisCollection) parser.BatchOutcome {
	return w.create("analysiscollection", rows, len(rows))
}

// WriteCompletion records the upload's terminal state. A batch failure along
// the way marks the upload as failed while keeping the partially ingested
// rows visible.
func (w *Writer) WriteCompletion(containsCrosslinks bool, warnings []parser.Warning, failed bool) error {
	w.warningCount = len(warnings)
	updates := map[string]any{
		"contains_crosslinks": containsCrosslinks,
	}
	if len(warnings) > 0 {
		updates["upload_warnings"] = marshal(warnings)
	}
	if failed {
		updates["error_type"] = parser.WarnDBError
		updates["upload_error"] = "one or more batch writes failed, data is incomplete"
	}
	w.log.Info("upload complete",
		zap.Int("batches", w.batchesWritten),
		zap.Int("rows", w.rowsWritten),
		zap.Bool("failed", failed))
	return w.db.Model(&models.Upload{}).Where("id = ?", w.uploadID).Updates(updates).Error
}

// FailUpload records a fatal document-level failure.
func (w *Writer) FailUpload(errType string, parseErr error, warnings []parser.Warning) error {
	w.warningCount = len(warnings)
	updates := map[string]any{
		"error_type":   errType,
		"upload_error": parseErr.Error(),
	}
	if len(warnings) > 0 {
		updates["upload_warnings"] = marshal(warnings)
	}
	w.log.Error("upload failed", zap.String("error_type", errType), zap.Error(parseErr))
	return w.db.Model(&models.Upload{}).Where("id = ?", w.uploadID).Updates(updates).Error
}

func marshal(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
