package peaklist

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"

	"golang.org/x/net/html/charset"
)

// mzmlReader holds all spectra of one mzML file, addressable by native id
// or by zero-based index.
type mzmlReader struct {
	file     string
	idFormat string
	spectra  []*Spectrum
	byID     map[string]*Spectrum

	fragAccessions []string
	fragSeen       map[string]bool
}

type mzmlCVParam struct {
	Accession     string `xml:"accession,attr"`
	Name          string `xml:"name,attr"`
	Value         string `xml:"value,attr"`
	UnitAccession string `xml:"unitAccession,attr"`
}

type mzmlBinaryDataArray struct {
	CvParams []mzmlCVParam `xml:"cvParam"`
	Binary   string        `xml:"binary"`
}

type mzmlScan struct {
	CvParams []mzmlCVParam `xml:"cvParam"`
}

type mzmlSelectedIon struct {
	CvParams []mzmlCVParam `xml:"cvParam"`
}

type mzmlPrecursor struct {
	SelectedIons []mzmlSelectedIon `xml:"selectedIonList>selectedIon"`
	Activation   struct {
		CvParams []mzmlCVParam `xml:"cvParam"`
	} `xml:"activation"`
}

type mzmlSpectrum struct {
	Index            int                   `xml:"index,attr"`
	ID               string                `xml:"id,attr"`
	CvParams         []mzmlCVParam         `xml:"cvParam"`
	Scans            []mzmlScan            `xml:"scanList>scan"`
	Precursors       []mzmlPrecursor       `xml:"precursorList>precursor"`
	BinaryDataArrays []mzmlBinaryDataArray `xml:"binaryDataArrayList>binaryDataArray"`
}

type mzmlContent struct {
	XMLName xml.Name       `xml:"mzML"`
	Spectra []mzmlSpectrum `xml:"run>spectrumList>spectrum"`
}

func openMzML(path, idFormat string) (*mzmlReader, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := &mzmlReader{
		file:     filepath.Base(path),
		idFormat: idFormat,
		byID:     map[string]*Spectrum{},
		fragSeen: map[string]bool{},
	}

	var content mzmlContent
	d := xml.NewDecoder(rc)
	d.CharsetReader = charset.NewReaderLabel
	// Indexed mzML wraps the mzML element, so walk tokens until it shows up.
	for {
		t, tokenErr := d.Token()
		if tokenErr != nil {
			if tokenErr == io.EOF {
				break
			}
			return nil, &ParseError{File: r.file, Msg: tokenErr.Error()}
		}
		if se, ok := t.(xml.StartElement); ok && se.Name.Local == "mzML" {
			if err := d.DecodeElement(&content, &se); err != nil {
				return nil, &ParseError{File: r.file, Msg: err.Error()}
			}
		}
	}

	for i := range content.Spectra {
		s, err := r.decodeSpectrum(&content.Spectra[i])
		if err != nil {
			return nil, err
		}
		r.spectra = append(r.spectra, s)
		r.byID[s.ID] = s
	}
	return r, nil
}

func (r *mzmlReader) decodeSpectrum(xs *mzmlSpectrum) (*Spectrum, error) {
	if len(xs.Scans) > 1 {
		return nil, &ParseError{File: r.file,
			Msg: fmt.Sprintf("spectrum %s combines %d scans, merged scans are not supported", xs.ID, len(xs.Scans))}
	}
	if len(xs.Precursors) > 1 {
		return nil, &ParseError{File: r.file,
			Msg: fmt.Sprintf("spectrum %s has %d precursors, multiple precursors are not supported", xs.ID, len(xs.Precursors))}
	}

	s := &Spectrum{ID: xs.ID}

	if len(xs.Scans) == 1 {
		for _, cv := range xs.Scans[0].CvParams {
			if cv.Accession == "MS:1000016" { // scan start time
				rt, err := strconv.ParseFloat(cv.Value, 64)
				if err != nil {
					return nil, &ParseError{File: r.file, Msg: fmt.Sprintf("spectrum %s: malformed retention time %q", xs.ID, cv.Value)}
				}
				if cv.UnitAccession == "UO:0000031" || cv.UnitAccession == "MS:1000038" {
					rt *= 60 // minutes
				}
				s.RetentionTime = &rt
			}
		}
	}

	if len(xs.Precursors) == 1 {
		for _, cv := range xs.Precursors[0].Activation.CvParams {
			if !r.fragSeen[cv.Accession] {
				r.fragSeen[cv.Accession] = true
				r.fragAccessions = append(r.fragAccessions, cv.Accession)
			}
		}
	}

	if len(xs.Precursors) == 1 && len(xs.Precursors[0].SelectedIons) > 0 {
		for _, cv := range xs.Precursors[0].SelectedIons[0].CvParams {
			switch cv.Accession {
			case "MS:1000744": // selected ion m/z
				mz, err := strconv.ParseFloat(cv.Value, 64)
				if err != nil {
					return nil, &ParseError{File: r.file, Msg: fmt.Sprintf("spectrum %s: malformed precursor m/z %q", xs.ID, cv.Value)}
				}
				s.PrecursorMZ = mz
			case "MS:1000041": // charge state
				if charge, err := strconv.Atoi(cv.Value); err == nil {
					s.PrecursorCharge = &charge
				}
			case "MS:1000042": // peak intensity
				if intens, err := strconv.ParseFloat(cv.Value, 64); err == nil {
					s.PrecursorIntensity = &intens
				}
			}
		}
	}

	for i := range xs.BinaryDataArrays {
		if err := r.fillPeaks(s, &xs.BinaryDataArrays[i]); err != nil {
			return nil, err
		}
	}
	if len(s.MZ) != len(s.Intensity) {
		return nil, &ParseError{File: r.file,
			Msg: fmt.Sprintf("spectrum %s: m/z and intensity arrays differ in length", xs.ID)}
	}
	s.sortPeaks()
	return s, nil
}

// fillPeaks decodes one binaryDataArray into the m/z or intensity slice.
//
// CV terms handled:
// MS:1000574 zlib compression
// MS:1000514 m/z array
// MS:1000515 intensity array
// MS:1000521 32-bit float
// MS:1000523 64-bit float
func (r *mzmlReader) fillPeaks(s *Spectrum, bda *mzmlBinaryDataArray) error {
	var zlibCompression, bits64, mzArray, intensityArray bool
	for _, cv := range bda.CvParams {
		switch cv.Accession {
		case "MS:1000574":
			zlibCompression = true
		case "MS:1000514":
			mzArray = true
		case "MS:1000515":
			intensityArray = true
		case "MS:1000523":
			bits64 = true
		}
	}
	if !mzArray && !intensityArray {
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(bda.Binary)
	if err != nil {
		return &ParseError{File: r.file, Msg: fmt.Sprintf("spectrum %s: %v", s.ID, err)}
	}
	if zlibCompression {
		z, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return &ParseError{File: r.file, Msg: fmt.Sprintf("spectrum %s: %v", s.ID, err)}
		}
		defer z.Close()
		if data, err = io.ReadAll(z); err != nil {
			return &ParseError{File: r.file, Msg: fmt.Sprintf("spectrum %s: %v", s.ID, err)}
		}
	}

	var values []float64
	if bits64 {
		values = make([]float64, len(data)/8)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
		}
	} else {
		values = make([]float64, len(data)/4)
		for i := range values {
			values[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
		}
	}
	if mzArray {
		s.MZ = values
	} else {
		s.Intensity = values
	}
	return nil
}

func (r *mzmlReader) Count() int { return len(r.spectra) }

// FragmentationAccessions reports the activation method CV accessions seen
// across the file's precursors, in first-seen order.
func (r *mzmlReader) FragmentationAccessions() []string { return r.fragAccessions }

func (r *mzmlReader) Get(spectrumID string) (*Spectrum, error) {
	if r.idFormat == IDFormatMzMLNative {
		s, ok := r.byID[spectrumID]
		if !ok {
			return nil, &ParseError{File: r.file, Msg: fmt.Sprintf("no spectrum with native id %q", spectrumID)}
		}
		return s, nil
	}
	return getByIndex(r.file, r.idFormat, r.spectra, spectrumID)
}
