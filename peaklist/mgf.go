package peaklist

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// mgfReader holds all spectra of one MGF file in document order.
type mgfReader struct {
	file     string
	idFormat string
	spectra  []*Spectrum
}

func openMGF(path, idFormat string) (*mgfReader, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := &mgfReader{file: filepath.Base(path), idFormat: idFormat}

	var cur *Spectrum
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
		case line == "BEGIN IONS":
			cur = &Spectrum{ID: strconv.Itoa(len(r.spectra))}
		case line == "END IONS":
			if cur == nil {
				return nil, &ParseError{File: r.file, Msg: fmt.Sprintf("line %d: END IONS without BEGIN IONS", lineNo)}
			}
			cur.sortPeaks()
			r.spectra = append(r.spectra, cur)
			cur = nil
		case cur == nil:
			// Header lines before the first BEGIN IONS are ignored.
		case strings.Contains(line, "="):
			if err := cur.applyMGFParam(line); err != nil {
				return nil, &ParseError{File: r.file, Msg: fmt.Sprintf("line %d: %v", lineNo, err)}
			}
		default:
			mz, intens, err := parsePeakLine(line)
			if err != nil {
				return nil, &ParseError{File: r.file, Msg: fmt.Sprintf("line %d: %v", lineNo, err)}
			}
			cur.MZ = append(cur.MZ, mz)
			cur.Intensity = append(cur.Intensity, intens)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{File: r.file, Msg: err.Error()}
	}
	if cur != nil {
		return nil, &ParseError{File: r.file, Msg: "unterminated BEGIN IONS block"}
	}
	return r, nil
}

func (s *Spectrum) applyMGFParam(line string) error {
	key, value, _ := strings.Cut(line, "=")
	switch key {
	case "PEPMASS":
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return fmt.Errorf("empty PEPMASS")
		}
		mz, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return fmt.Errorf("malformed PEPMASS %q", value)
		}
		s.PrecursorMZ = mz
		if len(fields) > 1 {
			if intens, err := strconv.ParseFloat(fields[1], 64); err == nil {
				s.PrecursorIntensity = &intens
			}
		}
	case "CHARGE":
		charge, err := parseMGFCharge(value)
		if err != nil {
			return err
		}
		s.PrecursorCharge = &charge
	case "RTINSECONDS":
		rt, err := strconv.ParseFloat(strings.Fields(value)[0], 64)
		if err != nil {
			return fmt.Errorf("malformed RTINSECONDS %q", value)
		}
		s.RetentionTime = &rt
	case "TITLE":
		// Kept only as a debugging aid, identifiers are positional.
	}
	return nil
}

// parseMGFCharge handles the MGF charge notation: "2+", "3-" or a plain
// integer. Multi-charge lists ("2+ and 3+") take the first entry.
func parseMGFCharge(value string) (int, error) {
	first := strings.Fields(value)
	if len(first) == 0 {
		return 0, fmt.Errorf("empty CHARGE")
	}
	raw := first[0]
	sign := 1
	if strings.HasSuffix(raw, "+") {
		raw = strings.TrimSuffix(raw, "+")
	} else if strings.HasSuffix(raw, "-") {
		raw = strings.TrimSuffix(raw, "-")
		sign = -1
	}
	charge, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("malformed CHARGE %q", value)
	}
	return sign * charge, nil
}

func parsePeakLine(line string) (float64, float64, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("malformed peak line %q", line)
	}
	mz, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed m/z %q", fields[0])
	}
	intens, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed intensity %q", fields[1])
	}
	return mz, intens, nil
}

func (r *mgfReader) Count() int { return len(r.spectra) }

func (r *mgfReader) Get(spectrumID string) (*Spectrum, error) {
	return getByIndex(r.file, r.idFormat, r.spectra, spectrumID)
}

// getByIndex resolves the identifier conventions shared by MGF and MS2: a
// zero-based index for the multiple-peak-list format, or the sole spectrum
// for the single-peak-list format.
func getByIndex(file, idFormat string, spectra []*Spectrum, spectrumID string) (*Spectrum, error) {
	switch idFormat {
	case IDFormatSingle:
		if len(spectra) != 1 {
			return nil, &ParseError{File: file,
				Msg: fmt.Sprintf("single spectrum id format but file holds %d spectra", len(spectra))}
		}
		return spectra[0], nil
	default:
		idx, err := scanIndex(file, spectrumID)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(spectra) {
			return nil, &ParseError{File: file,
				Msg: fmt.Sprintf("spectrum index %d out of range (%d spectra)", idx, len(spectra))}
		}
		return spectra[idx], nil
	}
}
