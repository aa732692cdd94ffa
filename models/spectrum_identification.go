package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SpectrumIdentification is one peptide-spectrum match. Pep1ID is always set;
// Pep2ID only for cross-links, in which case both referenced peptides share a
// crosslinker pair id and carry a link site.
type SpectrumIdentification struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	UploadID       uuid.UUID `json:"upload_id" gorm:"type:uuid;primaryKey;index"`
	SpectrumID     string    `json:"spectrum_id" gorm:"not null"`
	SpectraDataRef string    `json:"spectra_data_ref"`

	Pep1ID string  `json:"pep1_id" gorm:"not null;index"`
	Pep2ID *string `json:"pep2_id,omitempty" gorm:"index"`

	ChargeState   int            `json:"charge_state"`
	PassThreshold bool           `json:"pass_threshold"`
	Rank          int            `json:"rank"`
	Scores        datatypes.JSON `json:"scores,omitempty" gorm:"type:jsonb"`
	ExpMZ         float64        `json:"exp_mz"`
	CalcMZ        *float64       `json:"calc_mz,omitempty"`
}

func (SpectrumIdentification) TableName() string { return "spectrumidentification" }
