package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Upload represents one identification-file ingestion attempt. Every other
// table carries the owning upload id in its primary key, so uploads never
// leak into each other.
type Upload struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID           string `json:"user_id,omitempty" gorm:"index"`
	ProjectAccession string `json:"project_accession,omitempty" gorm:"index"`

	IdentificationFileName string `json:"identification_file_name" gorm:"not null"`

	// Document-level metadata lifted verbatim from the identification file.
	Provider       datatypes.JSON `json:"provider,omitempty" gorm:"type:jsonb"`
	Audits         datatypes.JSON `json:"audits,omitempty" gorm:"type:jsonb"`
	Samples        datatypes.JSON `json:"samples,omitempty" gorm:"type:jsonb"`
	Bib            datatypes.JSON `json:"bib,omitempty" gorm:"type:jsonb"`
	SpectraFormats datatypes.JSON `json:"spectra_formats,omitempty" gorm:"type:jsonb"`

	ContainsCrosslinks bool `json:"contains_crosslinks"`

	// Terminal state. A set UploadError signals a failed ingestion; warnings
	// without an error signal a usable-but-imperfect one.
	UploadError    *string        `json:"upload_error,omitempty" gorm:"type:text"`
	ErrorType      *string        `json:"error_type,omitempty"`
	UploadWarnings datatypes.JSON `json:"upload_warnings,omitempty" gorm:"type:jsonb"`
}

func (Upload) TableName() string { return "upload" }
