package parser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"xlink-ingest/models"
	"xlink-ingest/peaklist"
)

const csvFullFixture = `scanid,charge,pepseq1,linkpos1,pepseq2,linkpos2,crosslinkermodmass,protein1,peppos1,protein2,peppos2,peaklistfilename,score
0,3,KQTAcmLVELVK,,,,,P0001,2,,,run1.mgf,33.81
1,4,MLEKFVGK,5,KFDEAGHK,1,158.0037644600003,P0001,1,P0002;P0003,11;4,run1.mgf,12.5
`

func csvTestReaders(t *testing.T) ReaderProvider {
	t.Helper()
	dir := t.TempDir()
	mgf := "BEGIN IONS\nPEPMASS=400.5\nCHARGE=3+\n110.0 1.0\nEND IONS\n" +
		"BEGIN IONS\nPEPMASS=654.3\nCHARGE=4+\n120.0 2.0\nEND IONS\n"
	if err := os.WriteFile(filepath.Join(dir, "run1.mgf"), []byte(mgf), 0o644); err != nil {
		t.Fatal(err)
	}
	return func(name, fileFormat, idFormat string) (peaklist.Reader, error) {
		return peaklist.Open(filepath.Join(dir, name), fileFormat, idFormat)
	}
}

func TestCSVFullVariant(t *testing.T) {
	store := newMemStore()
	fasta := &FastaIndex{sequences: map[string]string{"P0001": "MKWVTFISLL"}}
	p := &CSVParser{
		Store:   store,
		Readers: csvTestReaders(t),
		Fasta:   fasta,
		Variant: CSVFull,
	}

	if err := p.Parse(writeTempFile(t, "links.csv", csvFullFixture)); err != nil {
		t.Fatal(err)
	}
	if !store.completed {
		t.Fatal("completion was never written")
	}
	if !store.containsCrosslinks {
		t.Error("row 2 is a cross-link, flag not set")
	}

	// Row 1 is linear with one embedded modification.
	peptides := map[string]models.ModifiedPeptide{}
	for _, pep := range store.peptides {
		peptides[pep.ID] = pep
	}
	pep1 := peptides["1_p1"]
	if pep1.BaseSequence != "KQTALVELVK" {
		t.Errorf("embedded mod not stripped: %q", pep1.BaseSequence)
	}
	var names []string
	var positions []int
	if err := json.Unmarshal(pep1.ModAccessions, &names); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(pep1.ModPositions, &positions); err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "cm" || positions[0] != 4 {
		t.Errorf("embedded mod: got %v at %v, want cm at 4", names, positions)
	}
	if pep1.CrosslinkerPairID != nil {
		t.Error("linear peptide must not carry a pair id")
	}

	// Row 2 pairs its two peptides under the row number.
	p1, p2 := peptides["2_p1"], peptides["2_p2"]
	if p1.CrosslinkerPairID == nil || *p1.CrosslinkerPairID != "2" ||
		p2.CrosslinkerPairID == nil || *p2.CrosslinkerPairID != "2" {
		t.Error("cross-linked peptides must share the row number as pair id")
	}
	if p1.LinkSite == nil || *p1.LinkSite != 5 || p2.LinkSite == nil || *p2.LinkSite != 1 {
		t.Errorf("link sites: got %v / %v, want 5 / 1", p1.LinkSite, p2.LinkSite)
	}
	if p1.CrosslinkerModMass == nil || *p1.CrosslinkerModMass != 158.0037644600003 {
		t.Errorf("first peptide carries the crosslinker mass, got %v", p1.CrosslinkerModMass)
	}
	if p2.CrosslinkerModMass == nil || *p2.CrosslinkerModMass != 0 {
		t.Errorf("second peptide carries zero, got %v", p2.CrosslinkerModMass)
	}

	if len(store.matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(store.matches))
	}
	matches := map[string]models.SpectrumIdentification{}
	for _, m := range store.matches {
		matches[m.ID] = m
	}
	m1, m2 := matches["1"], matches["2"]
	if m1.Pep2ID != nil {
		t.Error("linear match must not reference a second peptide")
	}
	if m1.ChargeState != 3 || m1.Rank != 1 || !m1.PassThreshold {
		t.Errorf("match defaults wrong: %+v", m1)
	}
	var scores map[string]any
	if err := json.Unmarshal(m1.Scores, &scores); err != nil {
		t.Fatal(err)
	}
	if scores["score"] != 33.81 {
		t.Errorf("score column not stored: %v", scores)
	}
	if m2.Pep2ID == nil || *m2.Pep2ID != "2_p2" {
		t.Errorf("cross-link match pairing wrong: %v", m2.Pep2ID)
	}

	// Proteins appear once each, with the FASTA sequence when indexed.
	seqs := map[string]string{}
	for _, dbs := range store.dbSequences {
		seqs[dbs.Accession] = dbs.Sequence
	}
	if len(seqs) != 3 {
		t.Fatalf("expected 3 distinct proteins, got %d", len(seqs))
	}
	if seqs["P0001"] != "MKWVTFISLL" {
		t.Errorf("P0001 sequence not taken from fasta: %q", seqs["P0001"])
	}
	if seqs["P0002"] != "" {
		t.Errorf("unindexed protein must have no sequence: %q", seqs["P0002"])
	}

	// Evidence start positions follow the semicolon-split peppos columns.
	starts := map[string]int{}
	for _, ev := range store.evidences {
		starts[ev.PeptideRef+"/"+ev.DBSequenceRef] = ev.PepStart
	}
	if starts["2_p2/P0002"] != 11 || starts["2_p2/P0003"] != 4 {
		t.Errorf("evidence positions wrong: %v", starts)
	}

	// One spectrum per scan id, resolved from the peak list.
	if len(store.spectra) != 2 {
		t.Fatalf("expected 2 spectra, got %d", len(store.spectra))
	}
	spectra := map[string]models.Spectrum{}
	for _, s := range store.spectra {
		spectra[s.ID] = s
	}
	if spectra["0"].PrecursorMZ != 400.5 || spectra["1"].PrecursorMZ != 654.3 {
		t.Errorf("spectrum precursors wrong: %v / %v", spectra["0"].PrecursorMZ, spectra["1"].PrecursorMZ)
	}
}

func TestCSVMissingRequiredHeaderFailsWholeFile(t *testing.T) {
	store := newMemStore()
	p := &CSVParser{Store: store, Variant: CSVFull}

	content := "scanid,pepseq1,protein1,peaklistfilename\n0,PEPTIDEK,P0001,run1.mgf\n"
	err := p.Parse(writeTempFile(t, "links.csv", content))
	if err == nil {
		t.Fatal("missing charge column must fail the file")
	}
	if store.failedType != WarnCSVParse {
		t.Errorf("upload must be failed as %s, got %q", WarnCSVParse, store.failedType)
	}
	if store.completed || len(store.matches) != 0 {
		t.Error("nothing may be written for a rejected file")
	}
}

func TestCSVMalformedRowContainment(t *testing.T) {
	store := newMemStore()
	p := &CSVParser{Store: store, Variant: CSVNoPeakList}

	content := "scanid,charge,pepseq1,protein1\n" +
		"0,2,PEPTIDEK,P0001\n" +
		"1,notanumber,ELVISK,P0001\n" +
		"2,3,LIVESK,P0001\n"
	if err := p.Parse(writeTempFile(t, "links.csv", content)); err != nil {
		t.Fatal(err)
	}

	if len(store.matches) != 2 {
		t.Fatalf("malformed charge skips its row only, got %d matches", len(store.matches))
	}
	warnings := warningsOfType(store.warnings, WarnCSVParse)
	if len(warnings) != 1 || warnings[0].ID != "2" {
		t.Errorf("expected one warning naming row 2, got %v", warnings)
	}
	if !store.completed {
		t.Error("contained failures still complete the upload")
	}
}

func TestCSVLinksOnlyVariant(t *testing.T) {
	store := newMemStore()
	p := &CSVParser{Store: store, Variant: CSVLinksOnly}

	content := "pepseq1,peppos1,linkpos1,protein1,pepseq2,peppos2,linkpos2,protein2,crosslinkermodmass\n" +
		"MLEKFVGK,1,5,P0001,KFDEAGHK,11,1,P0001,158.0038\n"
	if err := p.Parse(writeTempFile(t, "links.csv", content)); err != nil {
		t.Fatal(err)
	}

	if len(store.spectra) != 0 {
		t.Error("links-only input carries no spectra")
	}
	if len(store.matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(store.matches))
	}
	match := store.matches[0]
	if match.Pep2ID == nil || !match.PassThreshold || match.Rank != 1 {
		t.Errorf("links-only match defaults wrong: %+v", match)
	}
	if !store.containsCrosslinks {
		t.Error("cross-link flag not set")
	}
}

func TestSplitSeqMods(t *testing.T) {
	cases := []struct {
		in   string
		base string
		mods []seqMod
	}{
		{"KQTAcmLVELVK", "KQTALVELVK", []seqMod{{"cm", 4}}},
		{"acPEPTIDEK", "PEPTIDEK", []seqMod{{"ac", 0}}},
		{"PEPTIDEK", "PEPTIDEK", nil},
		{"MoxLEK", "MLEK", []seqMod{{"ox", 1}}},
	}
	for _, tc := range cases {
		base, mods := splitSeqMods(tc.in)
		if base != tc.base {
			t.Errorf("%s: base %q, want %q", tc.in, base, tc.base)
			continue
		}
		if len(mods) != len(tc.mods) {
			t.Errorf("%s: got %v, want %v", tc.in, mods, tc.mods)
			continue
		}
		for i := range mods {
			if mods[i] != tc.mods[i] {
				t.Errorf("%s: mod %d is %v, want %v", tc.in, i, mods[i], tc.mods[i])
			}
		}
	}
}
