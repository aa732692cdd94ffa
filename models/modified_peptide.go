package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ModifiedPeptide is one peptide occurrence with its resolved modifications.
// For cross-linked peptides the link site uses the document convention:
// 0 = N-terminus, len(sequence)+1 = C-terminus, everything else 1-based.
type ModifiedPeptide struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	UploadID     uuid.UUID `json:"upload_id" gorm:"type:uuid;primaryKey;index"`
	BaseSequence string    `json:"base_sequence" gorm:"not null"`

	// Parallel arrays: catalog accession/name, position and monoisotopic mass
	// per modification on this peptide.
	ModAccessions datatypes.JSON `json:"mod_accessions,omitempty" gorm:"type:jsonb"`
	ModPositions  datatypes.JSON `json:"mod_positions,omitempty" gorm:"type:jsonb"`
	ModMasses     datatypes.JSON `json:"mod_masses,omitempty" gorm:"type:jsonb"`

	// Set only when the peptide participates in a cross-link. Both partners
	// of a pair share CrosslinkerPairID.
	LinkSite           *int     `json:"link_site,omitempty"`
	CrosslinkerPairID  *string  `json:"crosslinker_pair_id,omitempty" gorm:"index"`
	CrosslinkerModMass *float64 `json:"crosslinker_modmass,omitempty"`
}

func (ModifiedPeptide) TableName() string { return "modifiedpeptide" }
