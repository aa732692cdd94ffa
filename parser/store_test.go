package parser

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"xlink-ingest/models"
)

// memStore records everything the parsers emit. failTables simulates batch
// write failures for the named tables.
type memStore struct {
	uploadID         uuid.UUID
	fileName         string
	userID           string
	projectAccession string
	meta             UploadMetadata

	dbSequences         []models.DBSequence
	peptides            []models.ModifiedPeptide
	evidences           []models.PeptideEvidence
	spectra             []models.Spectrum
	matches             []models.SpectrumIdentification
	protocols           []models.SpectrumIdentificationProtocol
	enzymes             []models.Enzyme
	searchModifications []models.SearchModification
	analysisCollections []models.AnalysisCollection

	failTables map[string]bool

	completed          bool
	containsCrosslinks bool
	warnings           []Warning
	failedBatches      bool

	failedType string
	failedErr  error
}

func newMemStore() *memStore {
	return &memStore{uploadID: uuid.New(), failTables: map[string]bool{}}
}

func (m *memStore) NewUpload(fileName, userID, projectAccession string) (uuid.UUID, error) {
	m.fileName = fileName
	m.userID = userID
	m.projectAccession = projectAccession
	return m.uploadID, nil
}

func (m *memStore) UpdateUploadMetadata(meta UploadMetadata) error {
	m.meta = meta
	return nil
}

func (m *memStore) outcome(table string, rows int) BatchOutcome {
	if m.failTables[table] {
		return BatchOutcome{Table: table, Rows: rows, Err: errors.New("simulated write failure")}
	}
	return BatchOutcome{Table: table, Rows: rows}
}

func (m *memStore) WriteDBSequences(rows []models.DBSequence) BatchOutcome {
	if !m.failTables["dbsequence"] {
		m.dbSequences = append(m.dbSequences, rows...)
	}
	return m.outcome("dbsequence", len(rows))
}

func (m *memStore) WritePeptides(rows []models.ModifiedPeptide) BatchOutcome {
	if !m.failTables["modifiedpeptide"] {
		m.peptides = append(m.peptides, rows...)
	}
	return m.outcome("modifiedpeptide", len(rows))
}

func (m *memStore) WritePeptideEvidences(rows []models.PeptideEvidence) BatchOutcome {
	if !m.failTables["peptideevidence"] {
		m.evidences = append(m.evidences, rows...)
	}
	return m.outcome("peptideevidence", len(rows))
}

func (m *memStore) WriteSpectra(rows []models.Spectrum) BatchOutcome {
	if !m.failTables["spectrum"] {
		m.spectra = append(m.spectra, rows...)
	}
	return m.outcome("spectrum", len(rows))
}

func (m *memStore) WriteMatches(rows []models.SpectrumIdentification) BatchOutcome {
	if !m.failTables["spectrumidentification"] {
		m.matches = append(m.matches, rows...)
	}
	return m.outcome("spectrumidentification", len(rows))
}

func (m *memStore) WriteProtocols(rows []models.SpectrumIdentificationProtocol) BatchOutcome {
	m.protocols = append(m.protocols, rows...)
	return m.outcome("spectrumidentificationprotocol", len(rows))
}

func (m *memStore) WriteEnzymes(rows []models.Enzyme) BatchOutcome {
	m.enzymes = append(m.enzymes, rows...)
	return m.outcome("enzyme", len(rows))
}

func (m *memStore) WriteSearchModifications(rows []models.SearchModification) BatchOutcome {
	m.searchModifications = append(m.searchModifications, rows...)
	return m.outcome("searchmodification", len(rows))
}

func (m *memStore) WriteAnalysisCollections(rows []models.AnalysisCollection) BatchOutcome {
	m.analysisCollections = append(m.analysisCollections, rows...)
	return m.outcome("analysiscollection", len(rows))
}

func (m *memStore) WriteCompletion(containsCrosslinks bool, warnings []Warning, failed bool) error {
	m.completed = true
	m.containsCrosslinks = containsCrosslinks
	m.warnings = warnings
	m.failedBatches = failed
	return nil
}

func (m *memStore) FailUpload(errType string, err error, warnings []Warning) error {
	m.failedType = errType
	m.failedErr = err
	m.warnings = warnings
	return nil
}

func warningsOfType(warnings []Warning, warnType string) []Warning {
	var out []Warning
	for _, w := range warnings {
		if w.Type == warnType {
			out = append(out, w)
		}
	}
	return out
}

func TestBatcherFlushThreshold(t *testing.T) {
	store := newMemStore()
	b := newBatcher(store, 2)

	for i := 0; i < 5; i++ {
		b.addPeptide(models.ModifiedPeptide{ID: string(rune('a' + i)), UploadID: store.uploadID})
	}
	if len(store.peptides) != 4 {
		t.Fatalf("expected 4 peptides written before flush, got %d", len(store.peptides))
	}
	b.flush()
	if len(store.peptides) != 5 {
		t.Fatalf("expected 5 peptides after flush, got %d", len(store.peptides))
	}
	if b.anyBatchError {
		t.Error("no batch should have failed")
	}
}

func TestBatcherFoldsFailures(t *testing.T) {
	store := newMemStore()
	store.failTables["modifiedpeptide"] = true
	b := newBatcher(store, 2)

	b.addPeptide(models.ModifiedPeptide{ID: "p1"})
	b.addPeptide(models.ModifiedPeptide{ID: "p2"})
	b.flush()

	if !b.anyBatchError {
		t.Fatal("batch error not recorded")
	}
	dbWarnings := warningsOfType(b.warnings, WarnDBError)
	if len(dbWarnings) != 1 {
		t.Fatalf("expected 1 dbError warning, got %d", len(dbWarnings))
	}
}
