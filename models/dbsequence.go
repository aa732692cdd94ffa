package models

import "github.com/google/uuid"

// DBSequence is a protein record referenced by peptide evidence.
// Immutable once written.
type DBSequence struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	UploadID    uuid.UUID `json:"upload_id" gorm:"type:uuid;primaryKey;index"`
	Accession   string    `json:"accession" gorm:"not null"`
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Sequence    string    `json:"sequence,omitempty" gorm:"type:text"`
}

func (DBSequence) TableName() string { return "dbsequence" }
