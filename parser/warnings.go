package parser

import (
	"errors"

	"xlink-ingest/peaklist"
)

// Warning types form a closed set shared with the query service reading the
// upload_warnings column.
const (
	WarnMzidParse        = "mzidParseError"
	WarnCSVParse         = "csvParseError"
	WarnPeakListParse    = "PeakListParseError"
	WarnSpectrumIDFormat = "SpectrumIdFormatError"
	WarnIonParsing       = "IonParsing"
	WarnDBError          = "dbError"
)

// Warning is one structured entry of an upload's warning list. ID names the
// offending record when known.
type Warning struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// warnFromPeakListErr classifies a peak list error into the matching warning
// type. Anything unrecognized counts as a parse error.
func warnFromPeakListErr(err error, recordID string) Warning {
	var idfErr *peaklist.IDFormatError
	if errors.As(err, &idfErr) {
		return Warning{Type: WarnSpectrumIDFormat, Message: err.Error(), ID: recordID}
	}
	return Warning{Type: WarnPeakListParse, Message: err.Error(), ID: recordID}
}
