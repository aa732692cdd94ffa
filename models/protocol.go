package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SpectrumIdentificationProtocol captures the search settings a group of
// matches was produced under, most importantly the fragment ion series used
// when annotating spectra.
type SpectrumIdentificationProtocol struct {
	ID       string    `json:"id" gorm:"primaryKey"`
	UploadID uuid.UUID `json:"upload_id" gorm:"type:uuid;primaryKey;index"`

	FragTolerance     *float64       `json:"frag_tolerance,omitempty"`
	FragToleranceUnit string         `json:"frag_tolerance_unit,omitempty"`
	Ions              datatypes.JSON `json:"ions,omitempty" gorm:"type:jsonb"`
	SearchParams      datatypes.JSON `json:"search_params,omitempty" gorm:"type:jsonb"`
	AnalysisSoftware  datatypes.JSON `json:"analysis_software,omitempty" gorm:"type:jsonb"`
	Threshold         datatypes.JSON `json:"threshold,omitempty" gorm:"type:jsonb"`
}

func (SpectrumIdentificationProtocol) TableName() string {
	return "spectrumidentificationprotocol"
}

// Enzyme is one cleavage agent declared by a protocol.
type Enzyme struct {
	ID              string    `json:"id" gorm:"primaryKey"`
	UploadID        uuid.UUID `json:"upload_id" gorm:"type:uuid;primaryKey;index"`
	ProtocolRef     string    `json:"protocol_ref" gorm:"index"`
	Name            string    `json:"name,omitempty"`
	Accession       string    `json:"accession,omitempty"`
	CleavageSite    string    `json:"cleavage_site,omitempty"`
	CTermGain       string    `json:"c_term_gain,omitempty"`
	NTermGain       string    `json:"n_term_gain,omitempty"`
	MinDistance     *int      `json:"min_distance,omitempty"`
	MissedCleavages *int      `json:"missed_cleavages,omitempty"`
	SemiSpecific    *bool     `json:"semi_specific,omitempty"`
}

func (Enzyme) TableName() string { return "enzyme" }

// SearchModification is one modification declared in the search settings,
// after catalog resolution and cross-upload deduplication by name and mass.
type SearchModification struct {
	ID       int       `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UploadID uuid.UUID `json:"upload_id" gorm:"type:uuid;primaryKey;index"`

	ProtocolRef      string         `json:"protocol_ref" gorm:"index"`
	Name             string         `json:"name" gorm:"not null"`
	Mass             float64        `json:"mass"`
	Residues         string         `json:"residues,omitempty"`
	SpecificityRules datatypes.JSON `json:"specificity_rules,omitempty" gorm:"type:jsonb"`
	FixedMod         bool           `json:"fixed_mod"`
	Accession        string         `json:"accession,omitempty"`
	CrosslinkerID    *string        `json:"crosslinker_id,omitempty"`
}

func (SearchModification) TableName() string { return "searchmodification" }
