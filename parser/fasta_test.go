package parser

import "testing"

const fastaSnippet = `>sp|P02768|ALBU_HUMAN Serum albumin OS=Homo sapiens
MKWVTFISLL
FLFSSAYSRG
>tr|Q00001|SHORT_TEST Short test protein
PEPTIDEK
`

func TestLoadFasta(t *testing.T) {
	path := writeTempFile(t, "db.fasta", fastaSnippet)
	idx, err := LoadFasta(path)
	if err != nil {
		t.Fatal(err)
	}

	// The full token and every pipe segment resolve to the same sequence.
	for _, key := range []string{"sp|P02768|ALBU_HUMAN", "P02768", "ALBU_HUMAN", "sp"} {
		seq, ok := idx.Lookup(key)
		if !ok {
			t.Errorf("key %q not indexed", key)
			continue
		}
		if seq != "MKWVTFISLLFLFSSAYSRG" {
			t.Errorf("key %q: wrapped sequence not joined, got %q", key, seq)
		}
	}

	seq, ok := idx.Lookup("Q00001")
	if !ok || seq != "PEPTIDEK" {
		t.Errorf("second record: got (%q, %v)", seq, ok)
	}

	if _, ok := idx.Lookup("P99999"); ok {
		t.Error("unknown accession must not resolve")
	}
}

func TestFastaNilSafety(t *testing.T) {
	var idx *FastaIndex
	if _, ok := idx.Lookup("P02768"); ok {
		t.Error("nil index must resolve nothing")
	}
}
