// Package peaklist reads spectra from MGF, mzML and MS2 peak list files and
// resolves spectrum references according to the identifier format the
// identification file declares for each peak list.
package peaklist

import (
	"fmt"
	"strconv"
	"strings"
)

// PSI-MS accessions for peak list file formats.
const (
	FormatMGF  = "MS:1001062" // Mascot MGF format
	FormatMzML = "MS:1000584" // mzML format
	FormatMS2  = "MS:1001466" // MS2 format
)

// PSI-MS accessions for spectrum identifier formats.
const (
	IDFormatScanNumber = "MS:1000774" // multiple peak list nativeID, zero-based "index=N"
	IDFormatSingle     = "MS:1000775" // single peak list nativeID, file holds one spectrum
	IDFormatMzMLNative = "MS:1001530" // mzML unique identifier
)

// Reader resolves spectrum identifiers to decoded spectra. Implementations
// load the whole peak list up front, so Get never touches the file system.
type Reader interface {
	// Get returns the spectrum the identifier refers to under the reader's
	// configured identifier format.
	Get(spectrumID string) (*Spectrum, error)
	// Count returns the number of spectra in the peak list.
	Count() int
}

// FragmentationSource is implemented by readers that can report the
// fragmentation method accessions observed in the peak list. Only mzML
// carries that metadata.
type FragmentationSource interface {
	FragmentationAccessions() []string
}

// ParseError reports a malformed peak list or an identifier that cannot be
// resolved in an otherwise well-formed one. It is a record-level error;
// callers turn it into a warning and move on.
type ParseError struct {
	File string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("peak list %s: %s", e.File, e.Msg)
}

// IDFormatError reports a spectrum identifier format the given file format
// does not support. It is raised at open time, before any identifier lookup.
type IDFormatError struct {
	FileFormat string
	IDFormat   string
}

func (e *IDFormatError) Error() string {
	return fmt.Sprintf("spectrum id format %s is not supported for file format %s",
		e.IDFormat, e.FileFormat)
}

// Open reads the peak list at path and returns a Reader for the declared
// file format and spectrum identifier format combination. Gzip-compressed
// files are decompressed transparently.
func Open(path, fileFormat, idFormat string) (Reader, error) {
	switch fileFormat {
	case FormatMGF:
		if idFormat != IDFormatScanNumber && idFormat != IDFormatSingle {
			return nil, &IDFormatError{FileFormat: fileFormat, IDFormat: idFormat}
		}
		return openMGF(path, idFormat)
	case FormatMS2:
		if idFormat != IDFormatScanNumber && idFormat != IDFormatSingle {
			return nil, &IDFormatError{FileFormat: fileFormat, IDFormat: idFormat}
		}
		return openMS2(path, idFormat)
	case FormatMzML:
		if idFormat != IDFormatMzMLNative && idFormat != IDFormatScanNumber {
			return nil, &IDFormatError{FileFormat: fileFormat, IDFormat: idFormat}
		}
		return openMzML(path, idFormat)
	default:
		return nil, &IDFormatError{FileFormat: fileFormat, IDFormat: idFormat}
	}
}

// scanIndex extracts the zero-based index from a spectrum identifier in the
// multiple-peak-list convention: either "index=N" or a bare integer.
func scanIndex(file, spectrumID string) (int, error) {
	raw := spectrumID
	if strings.HasPrefix(raw, "index=") {
		raw = strings.TrimPrefix(raw, "index=")
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ParseError{File: file, Msg: fmt.Sprintf("malformed spectrum id %q", spectrumID)}
	}
	return idx, nil
}
