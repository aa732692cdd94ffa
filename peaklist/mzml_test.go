package peaklist

import (
	"errors"
	"fmt"
	"testing"
)

// Binary payloads below encode, little-endian:
//   m/z float64  [100.25, 200.5, 300.75]
//   int float64  [11.0, 22.0, 33.0]
//   int float32  [11.0, 22.0, 33.0]
// mzB64Zlib is the float64 m/z payload zlib-compressed.
const (
	mzB64     = "AAAAAAAQWUAAAAAAABBpQAAAAAAAzHJA"
	intB64    = "AAAAAAAAJkAAAAAAAAA2QAAAAAAAgEBA"
	mzB64Zlib = "eJxjYAACgUgHBjCdCaHPFDkAABZcAuE="
	intB6432  = "AAAwQQAAsEEAAARC"
)

func binaryArray(cvParams, b64 string) string {
	return fmt.Sprintf(`<binaryDataArray encodedLength="%d">%s<binary>%s</binary></binaryDataArray>`,
		len(b64), cvParams, b64)
}

func cv(accession, name, value string) string {
	return fmt.Sprintf(`<cvParam cvRef="MS" accession="%s" name="%s" value="%s"/>`, accession, name, value)
}

func mzmlSpectrumXML(index int, id, scanCVs, precursorXML, arrays string) string {
	return fmt.Sprintf(`<spectrum index="%d" id="%s" defaultArrayLength="3">
  <scanList count="1"><scan>%s</scan></scanList>
  %s
  <binaryDataArrayList count="2">%s</binaryDataArrayList>
</spectrum>`, index, id, scanCVs, precursorXML, arrays)
}

func mzmlDoc(spectra string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<indexedmzML xmlns="http://psi.hupo.org/ms/mzml">
 <mzML version="1.1.0">
  <run id="run1">
   <spectrumList count="1">%s</spectrumList>
  </run>
 </mzML>
 <indexList count="1"><index name="spectrum"/></indexList>
</indexedmzML>`, spectra)
}

func defaultPrecursor(activationAccession string) string {
	return fmt.Sprintf(`<precursorList count="1"><precursor>
  <selectedIonList count="1"><selectedIon>%s%s%s</selectedIon></selectedIonList>
  <activation>%s</activation>
</precursor></precursorList>`,
		cv("MS:1000744", "selected ion m/z", "445.34"),
		cv("MS:1000041", "charge state", "2"),
		cv("MS:1000042", "peak intensity", "9876.5"),
		cv(activationAccession, "activation", ""))
}

func TestMzMLReader(t *testing.T) {
	arrays := binaryArray(cv("MS:1000523", "64-bit float", "")+cv("MS:1000514", "m/z array", ""), mzB64) +
		binaryArray(cv("MS:1000523", "64-bit float", "")+cv("MS:1000515", "intensity array", ""), intB64)
	scan := cv("MS:1000016", "scan start time", "2.5") // minutes
	doc := mzmlDoc(mzmlSpectrumXML(0, "controllerType=0 controllerNumber=1 scan=1150",
		scan, defaultPrecursor("MS:1000422"), arrays))

	path := writeTempFile(t, "run.mzML", doc)
	r, err := Open(path, FormatMzML, IDFormatMzMLNative)
	if err != nil {
		t.Fatal(err)
	}
	if r.Count() != 1 {
		t.Fatalf("expected 1 spectrum, got %d", r.Count())
	}

	s, err := r.Get("controllerType=0 controllerNumber=1 scan=1150")
	if err != nil {
		t.Fatal(err)
	}
	if s.PrecursorMZ != 445.34 {
		t.Errorf("expected precursor 445.34, got %v", s.PrecursorMZ)
	}
	if s.PrecursorCharge == nil || *s.PrecursorCharge != 2 {
		t.Errorf("expected charge 2, got %v", s.PrecursorCharge)
	}
	if s.PrecursorIntensity == nil || *s.PrecursorIntensity != 9876.5 {
		t.Errorf("expected precursor intensity 9876.5, got %v", s.PrecursorIntensity)
	}
	// Scan start time in minutes is converted to seconds.
	if s.RetentionTime == nil || *s.RetentionTime != 150 {
		t.Errorf("expected retention time 150s, got %v", s.RetentionTime)
	}

	wantMZ := []float64{100.25, 200.5, 300.75}
	wantInt := []float64{11, 22, 33}
	for i := range wantMZ {
		if s.MZ[i] != wantMZ[i] || s.Intensity[i] != wantInt[i] {
			t.Errorf("peak %d: got (%v, %v)", i, s.MZ[i], s.Intensity[i])
		}
	}

	fs, ok := Reader(r).(FragmentationSource)
	if !ok {
		t.Fatal("mzML reader should expose fragmentation accessions")
	}
	if accs := fs.FragmentationAccessions(); len(accs) != 1 || accs[0] != "MS:1000422" {
		t.Errorf("expected [MS:1000422], got %v", accs)
	}
}

func TestMzMLZlibAnd32Bit(t *testing.T) {
	arrays := binaryArray(cv("MS:1000523", "64-bit float", "")+cv("MS:1000574", "zlib compression", "")+cv("MS:1000514", "m/z array", ""), mzB64Zlib) +
		binaryArray(cv("MS:1000521", "32-bit float", "")+cv("MS:1000515", "intensity array", ""), intB6432)
	doc := mzmlDoc(mzmlSpectrumXML(0, "scan=1", "", defaultPrecursor("MS:1000133"), arrays))

	path := writeTempFile(t, "run.mzML", doc)
	r, err := Open(path, FormatMzML, IDFormatMzMLNative)
	if err != nil {
		t.Fatal(err)
	}
	s, err := r.Get("scan=1")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.MZ) != 3 || s.MZ[2] != 300.75 {
		t.Errorf("zlib m/z decode failed: %v", s.MZ)
	}
	if len(s.Intensity) != 3 || s.Intensity[0] != 11 {
		t.Errorf("32-bit intensity decode failed: %v", s.Intensity)
	}
}

func TestMzMLIndexAddressing(t *testing.T) {
	arrays := binaryArray(cv("MS:1000523", "64-bit float", "")+cv("MS:1000514", "m/z array", ""), mzB64) +
		binaryArray(cv("MS:1000523", "64-bit float", "")+cv("MS:1000515", "intensity array", ""), intB64)
	doc := mzmlDoc(mzmlSpectrumXML(0, "scan=9", "", defaultPrecursor("MS:1000422"), arrays))

	path := writeTempFile(t, "run.mzML", doc)
	r, err := Open(path, FormatMzML, IDFormatScanNumber)
	if err != nil {
		t.Fatal(err)
	}
	s, err := r.Get("index=0")
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != "scan=9" {
		t.Errorf("expected spectrum scan=9, got %s", s.ID)
	}
}

func TestMzMLRejectsMergedScans(t *testing.T) {
	arrays := binaryArray(cv("MS:1000523", "64-bit float", "")+cv("MS:1000514", "m/z array", ""), mzB64) +
		binaryArray(cv("MS:1000523", "64-bit float", "")+cv("MS:1000515", "intensity array", ""), intB64)
	spectrum := fmt.Sprintf(`<spectrum index="0" id="scan=1" defaultArrayLength="3">
  <scanList count="2"><scan/><scan/></scanList>
  %s
  <binaryDataArrayList count="2">%s</binaryDataArrayList>
</spectrum>`, defaultPrecursor("MS:1000422"), arrays)

	path := writeTempFile(t, "run.mzML", mzmlDoc(spectrum))
	_, err := Open(path, FormatMzML, IDFormatMzMLNative)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for merged scans, got %v", err)
	}
}

func TestMzMLUnknownNativeID(t *testing.T) {
	arrays := binaryArray(cv("MS:1000523", "64-bit float", "")+cv("MS:1000514", "m/z array", ""), mzB64) +
		binaryArray(cv("MS:1000523", "64-bit float", "")+cv("MS:1000515", "intensity array", ""), intB64)
	doc := mzmlDoc(mzmlSpectrumXML(0, "scan=1", "", defaultPrecursor("MS:1000422"), arrays))

	path := writeTempFile(t, "run.mzML", doc)
	r, err := Open(path, FormatMzML, IDFormatMzMLNative)
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Get("scan=404")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for unknown native id, got %v", err)
	}
}
