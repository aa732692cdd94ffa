package models

import "github.com/google/uuid"

// PeptideEvidence maps a ModifiedPeptide occurrence to a start position within
// a DBSequence. A peptide may map to several proteins or positions, so the
// full tuple is the primary key.
type PeptideEvidence struct {
	PeptideRef    string    `json:"peptide_ref" gorm:"primaryKey"`
	DBSequenceRef string    `json:"dbsequence_ref" gorm:"primaryKey"`
	UploadID      uuid.UUID `json:"upload_id" gorm:"type:uuid;primaryKey;index"`
	PepStart      int       `json:"pep_start" gorm:"primaryKey"`
	IsDecoy       *bool     `json:"is_decoy,omitempty"`
}

func (PeptideEvidence) TableName() string { return "peptideevidence" }
