package peaklist

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ms2Reader holds all spectra of one MS2 file in document order.
type ms2Reader struct {
	file     string
	idFormat string
	spectra  []*Spectrum
}

func openMS2(path, idFormat string) (*ms2Reader, error) {
	rc, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := &ms2Reader{file: filepath.Base(path), idFormat: idFormat}

	var cur *Spectrum
	flush := func() {
		if cur != nil {
			cur.sortPeaks()
			r.spectra = append(r.spectra, cur)
		}
	}
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "H":
			// File-level header, nothing to keep.
		case "S":
			if len(fields) < 4 {
				return nil, &ParseError{File: r.file, Msg: fmt.Sprintf("line %d: malformed S line %q", lineNo, line)}
			}
			mz, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, &ParseError{File: r.file, Msg: fmt.Sprintf("line %d: malformed precursor m/z %q", lineNo, fields[3])}
			}
			flush()
			cur = &Spectrum{ID: fields[1], PrecursorMZ: mz}
		case "Z":
			if cur == nil || len(fields) < 2 {
				return nil, &ParseError{File: r.file, Msg: fmt.Sprintf("line %d: misplaced Z line", lineNo)}
			}
			charge, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, &ParseError{File: r.file, Msg: fmt.Sprintf("line %d: malformed charge %q", lineNo, fields[1])}
			}
			// Keep only the first charge state of multiply listed ones.
			if cur.PrecursorCharge == nil {
				cur.PrecursorCharge = &charge
			}
		case "I", "D":
			if cur != nil && len(fields) >= 3 && fields[1] == "RTime" {
				if rt, err := strconv.ParseFloat(fields[2], 64); err == nil {
					rtSec := rt * 60 // MS2 reports minutes
					cur.RetentionTime = &rtSec
				}
			}
		default:
			if cur == nil {
				return nil, &ParseError{File: r.file, Msg: fmt.Sprintf("line %d: peak data before first S line", lineNo)}
			}
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
	flush()
	return r, nil
}

func (r *ms2Reader) Count() int { return len(r.spectra) }

func (r *ms2Reader) Get(spectrumID string) (*Spectrum, error) {
	return getByIndex(r.file, r.idFormat, r.spectra, spectrumID)
}
