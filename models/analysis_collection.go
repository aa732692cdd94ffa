package models

import "github.com/google/uuid"

// AnalysisCollection links a spectrum identification list to the protocol it
// was produced under and the input spectra/search databases it consumed.
type AnalysisCollection struct {
	UploadID                 uuid.UUID `json:"upload_id" gorm:"type:uuid;primaryKey;index"`
	SpectrumIdentListRef     string    `json:"spectrum_ident_list_ref" gorm:"primaryKey"`
	ProtocolRef              string    `json:"protocol_ref" gorm:"primaryKey"`
	SpectraDataRefs          string    `json:"spectra_data_refs,omitempty" gorm:"type:text"`
	SearchDatabaseRefs       string    `json:"search_database_refs,omitempty" gorm:"type:text"`
	SpectrumIdentificationID string    `json:"spectrum_identification_id,omitempty"`
}

func (AnalysisCollection) TableName() string { return "analysiscollection" }
