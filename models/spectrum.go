package models

import "github.com/google/uuid"

// Spectrum holds the raw peak data for one spectrum reference. The m/z and
// intensity columns are little-endian float64 arrays sorted ascending by m/z;
// downstream binary search relies on that order.
type Spectrum struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	SpectraDataRef   string    `json:"spectra_data_ref" gorm:"primaryKey"`
	UploadID         uuid.UUID `json:"upload_id" gorm:"type:uuid;primaryKey;index"`
	PeakListFileName string    `json:"peak_list_file_name" gorm:"not null"`
	PrecursorMZ      float64   `json:"precursor_mz" gorm:"not null"`
	PrecursorCharge  *int      `json:"precursor_charge,omitempty"`
	MZ               []byte    `json:"-" gorm:"not null"`
	Intensity        []byte    `json:"-" gorm:"not null"`
	RetentionTime    *float64  `json:"retention_time,omitempty"`
}

func (Spectrum) TableName() string { return "spectrum" }
