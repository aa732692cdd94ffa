package parser

import (
	"fmt"

	"github.com/google/uuid"

	"xlink-ingest/models"
)

// BatchOutcome is the explicit result of one batched write. A failed batch
// never aborts the parse; it becomes a dbError warning instead.
type BatchOutcome struct {
	Table string
	Rows  int
	Err   error
}

func (o BatchOutcome) Written() bool { return o.Err == nil }

// UploadMetadata carries the document-level blobs lifted from an
// identification file before any record parsing starts.
type UploadMetadata struct {
	Provider       any
	Audits         any
	Samples        any
	Bib            any
	SpectraFormats any
}

// Store is the persistence boundary the parsers emit through. The production
// implementation lives in the storage package; tests use an in-memory sink.
type Store interface {
	NewUpload(fileName, userID, projectAccession string) (uuid.UUID, error)
	UpdateUploadMetadata(meta UploadMetadata) error

	WriteDBSequences(rows []models.DBSequence) BatchOutcome
	WritePeptides(rows []models.ModifiedPeptide) BatchOutcome
	WritePeptideEvidences(rows []models.PeptideEvidence) BatchOutcome
	WriteSpectra(rows []models.Spectrum) BatchOutcome
	WriteMatches(rows []models.SpectrumIdentification) BatchOutcome
	WriteProtocols(rows []models.SpectrumIdentificationProtocol) BatchOutcome
	WriteEnzymes(rows []models.Enzyme) BatchOutcome
	WriteSearchModifications(rows []models.SearchModification) BatchOutcome
	WriteAnalysisCollections(rows []models.AnalysisCollection) BatchOutcome

	WriteCompletion(containsCrosslinks bool, warnings []Warning, failed bool) error
	FailUpload(errType string, err error, warnings []Warning) error
}

// batcher accumulates rows per table and flushes them through the Store once
// the batch threshold is reached. Failed batches are folded into the warning
// list and parsing continues.
type batcher struct {
	store     Store
	batchSize int

	dbSequences   []models.DBSequence
	peptides      []models.ModifiedPeptide
	evidences     []models.PeptideEvidence
	spectra       []models.Spectrum
	matches       []models.SpectrumIdentification
	warnings      []Warning
	anyBatchError bool
}

func newBatcher(store Store, batchSize int) *batcher {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &batcher{store: store, batchSize: batchSize}
}

func (b *batcher) warn(w Warning) { b.warnings = append(b.warnings, w) }

func (b *batcher) fold(o BatchOutcome) {
	if o.Written() {
		return
	}
	b.anyBatchError = true
	b.warn(Warning{
		Type:    WarnDBError,
		Message: fmt.Sprintf("batch write to %s failed (%d rows): %v", o.Table, o.Rows, o.Err),
	})
}

func (b *batcher) addDBSequence(row models.DBSequence) {
	b.dbSequences = append(b.dbSequences, row)
	if len(b.dbSequences) >= b.batchSize {
		b.fold(b.store.WriteDBSequences(b.dbSequences))
		b.dbSequences = b.dbSequences[:0]
	}
}

func (b *batcher) addPeptide(row models.ModifiedPeptide) {
	b.peptides = append(b.peptides, row)
	if len(b.peptides) >= b.batchSize {
		b.fold(b.store.WritePeptides(b.peptides))
		b.peptides = b.peptides[:0]
	}
}

func (b *batcher) addEvidence(row models.PeptideEvidence) {
	b.evidences = append(b.evidences, row)
	if len(b.evidences) >= b.batchSize {
		b.fold(b.store.WritePeptideEvidences(b.evidences))
		b.evidences = b.evidences[:0]
	}
}

func (b *batcher) addSpectrum(row models.Spectrum) {
	b.spectra = append(b.spectra, row)
	if len(b.spectra) >= b.batchSize {
		b.fold(b.store.WriteSpectra(b.spectra))
		b.spectra = b.spectra[:0]
	}
}

func (b *batcher) addMatch(row models.SpectrumIdentification) {
	b.matches = append(b.matches, row)
	if len(b.matches) >= b.batchSize {
		b.fold(b.store.WriteMatches(b.matches))
		b.matches = b.matches[:0]
	}
}

// flush writes out all remaining rows in foreign key dependency order.
func (b *batcher) flush() {
	if len(b.dbSequences) > 0 {
		b.fold(b.store.WriteDBSequences(b.dbSequences))
		b.dbSequences = nil
	}
	if len(b.peptides) > 0 {
		b.fold(b.store.WritePeptides(b.peptides))
		b.peptides = nil
	}
	if len(b.evidences) > 0 {
		b.fold(b.store.WritePeptideEvidences(b.evidences))
		b.evidences = nil
	}
	if len(b.spectra) > 0 {
		b.fold(b.store.WriteSpectra(b.spectra))
		b.spectra = nil
	}
	if len(b.matches) > 0 {
		b.fold(b.store.WriteMatches(b.matches))
		b.matches = nil
	}
}
