package peaklist

import (
	"compress/gzip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mgfBlock(pepmass float64, peaks string) string {
	return fmt.Sprintf("BEGIN IONS\nTITLE=spec\nPEPMASS=%f\nCHARGE=2+\n%s\nEND IONS\n", pepmass, peaks)
}

func multiSpectrumMGF() string {
	out := ""
	for i := 0; i < 5; i++ {
		out += mgfBlock(float64(100+i), "110.0 1.0\n120.0 2.0")
	}
	return out
}

func TestMGFIndexResolution(t *testing.T) {
	path := writeTempFile(t, "run.mgf", multiSpectrumMGF())
	r, err := Open(path, FormatMGF, IDFormatScanNumber)
	if err != nil {
		t.Fatal(err)
	}
	if r.Count() != 5 {
		t.Fatalf("expected 5 spectra, got %d", r.Count())
	}

	// "index=3" addresses the 4th physical spectrum, zero-based.
	s, err := r.Get("index=3")
	if err != nil {
		t.Fatal(err)
	}
	if s.PrecursorMZ != 103 {
		t.Errorf("expected precursor 103, got %v", s.PrecursorMZ)
	}

	// A bare integer works the same way.
	s, err = r.Get("1")
	if err != nil {
		t.Fatal(err)
	}
	if s.PrecursorMZ != 101 {
		t.Errorf("expected precursor 101, got %v", s.PrecursorMZ)
	}
}

func TestMGFSingleSpectrumFormat(t *testing.T) {
	path := writeTempFile(t, "single.mgf", mgfBlock(450.5, "110.0 1.0"))
	r, err := Open(path, FormatMGF, IDFormatSingle)
	if err != nil {
		t.Fatal(err)
	}
	// Any identifier resolves to the sole spectrum.
	s, err := r.Get("whatever")
	if err != nil {
		t.Fatal(err)
	}
	if s.PrecursorMZ != 450.5 {
		t.Errorf("expected precursor 450.5, got %v", s.PrecursorMZ)
	}
}

func TestMGFSortInvariant(t *testing.T) {
	path := writeTempFile(t, "unsorted.mgf",
		mgfBlock(500, "300.0 3.0\n100.0 1.0\n200.0 2.0"))
	r, err := Open(path, FormatMGF, IDFormatScanNumber)
	if err != nil {
		t.Fatal(err)
	}
	s, err := r.Get("0")
	if err != nil {
		t.Fatal(err)
	}
	if !sort.Float64sAreSorted(s.MZ) {
		t.Fatalf("m/z not sorted: %v", s.MZ)
	}
	// Intensities must be permuted identically to the m/z values.
	for i, mz := range s.MZ {
		if s.Intensity[i] != mz/100 {
			t.Errorf("intensity pairing broken at %d: mz=%v intensity=%v", i, mz, s.Intensity[i])
		}
	}
}

func TestMGFMalformedIdentifier(t *testing.T) {
	path := writeTempFile(t, "run.mgf", multiSpectrumMGF())
	r, err := Open(path, FormatMGF, IDFormatScanNumber)
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Get("scan=abc")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestUnsupportedFormatCombination(t *testing.T) {
	path := writeTempFile(t, "run.mgf", multiSpectrumMGF())
	_, err := Open(path, FormatMGF, IDFormatMzMLNative)
	var idfErr *IDFormatError
	if !errors.As(err, &idfErr) {
		t.Fatalf("expected IDFormatError, got %v", err)
	}
}

func TestMGFChargeAndUnknownDefaults(t *testing.T) {
	content := "BEGIN IONS\nPEPMASS=400.2 12345.6\nCHARGE=3+\n100.0 1.0\nEND IONS\n" +
		"BEGIN IONS\nPEPMASS=500.1\n100.0 1.0\nEND IONS\n"
	path := writeTempFile(t, "charges.mgf", content)
	r, err := Open(path, FormatMGF, IDFormatScanNumber)
	if err != nil {
		t.Fatal(err)
	}

	s, _ := r.Get("0")
	if s.PrecursorCharge == nil || *s.PrecursorCharge != 3 {
		t.Errorf("expected charge 3, got %v", s.PrecursorCharge)
	}
	if s.PrecursorIntensity == nil || *s.PrecursorIntensity != 12345.6 {
		t.Errorf("expected precursor intensity 12345.6, got %v", s.PrecursorIntensity)
	}

	// Absent charge and intensity stay unknown, not zero.
	s, _ = r.Get("1")
	if s.PrecursorCharge != nil {
		t.Errorf("expected unknown charge, got %v", *s.PrecursorCharge)
	}
	if s.PrecursorIntensity != nil {
		t.Errorf("expected unknown intensity, got %v", *s.PrecursorIntensity)
	}
}

func TestMGFGzipAutoDetection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.mgf.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	gw := gzip.NewWriter(f)
	gw.Write([]byte(multiSpectrumMGF()))
	gw.Close()
	f.Close()

	r, err := Open(path, FormatMGF, IDFormatScanNumber)
	if err != nil {
		t.Fatal(err)
	}
	if r.Count() != 5 {
		t.Fatalf("expected 5 spectra from gzipped file, got %d", r.Count())
	}
}
