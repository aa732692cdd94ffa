package peaklist

import (
	"errors"
	"testing"
)

const sampleMS2 = `H	CreationDate	2024-01-10
H	Extractor	converter
S	000002	000002	521.25
Z	2	1041.49
I	RTime	1.5
115.2 12.0
230.4 40.5
S	000005	000005	633.1
Z	3	1897.28
Z	2	1265.19
310.7 8.8
`

func TestMS2Reader(t *testing.T) {
	path := writeTempFile(t, "run.ms2", sampleMS2)
	r, err := Open(path, FormatMS2, IDFormatScanNumber)
	if err != nil {
		t.Fatal(err)
	}
	if r.Count() != 2 {
		t.Fatalf("expected 2 spectra, got %d", r.Count())
	}

	s, err := r.Get("0")
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != "000002" {
		t.Errorf("expected id 000002, got %s", s.ID)
	}
	if s.PrecursorMZ != 521.25 {
		t.Errorf("expected precursor 521.25, got %v", s.PrecursorMZ)
	}
	if s.PrecursorCharge == nil || *s.PrecursorCharge != 2 {
		t.Errorf("expected charge 2, got %v", s.PrecursorCharge)
	}
	// RTime is reported in minutes.
	if s.RetentionTime == nil || *s.RetentionTime != 90 {
		t.Errorf("expected retention time 90s, got %v", s.RetentionTime)
	}
	if len(s.MZ) != 2 || s.MZ[0] != 115.2 || s.Intensity[1] != 40.5 {
		t.Errorf("unexpected peaks: %v / %v", s.MZ, s.Intensity)
	}

	// Multiple Z lines keep the first charge only.
	s, err = r.Get("1")
	if err != nil {
		t.Fatal(err)
	}
	if s.PrecursorCharge == nil || *s.PrecursorCharge != 3 {
		t.Errorf("expected charge 3, got %v", s.PrecursorCharge)
	}
}

func TestMS2IndexOutOfRange(t *testing.T) {
	path := writeTempFile(t, "run.ms2", sampleMS2)
	r, err := Open(path, FormatMS2, IDFormatScanNumber)
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Get("7")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for out-of-range index, got %v", err)
	}
}

func TestMS2SingleRequiresOneSpectrum(t *testing.T) {
	path := writeTempFile(t, "run.ms2", sampleMS2)
	r, err := Open(path, FormatMS2, IDFormatSingle)
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Get("anything")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for single-id format over 2 spectra, got %v", err)
	}
}
