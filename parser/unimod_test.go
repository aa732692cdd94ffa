package parser

import "testing"

const unimodSnippet = `format-version: 1.2
default-namespace: unimod

[Term]
id: UNIMOD:1
name: Acetyl
xref: delta_mono_mass "42.010565"

[Term]
id: UNIMOD:4
name: Carbamidomethyl
xref: delta_mono_mass "57.021464"

[Term]
id: UNIMOD:9999
name: NoMass
`

func TestLoadUnimod(t *testing.T) {
	path := writeTempFile(t, "unimod.obo", unimodSnippet)
	table, err := LoadUnimod(path)
	if err != nil {
		t.Fatal(err)
	}

	mass, ok := table.Mass("UNIMOD:4")
	if !ok || mass != 57.021464 {
		t.Errorf("UNIMOD:4: got (%v, %v)", mass, ok)
	}
	mass, ok = table.Mass("UNIMOD:1")
	if !ok || mass != 42.010565 {
		t.Errorf("UNIMOD:1: got (%v, %v)", mass, ok)
	}
	if _, ok := table.Mass("UNIMOD:9999"); ok {
		t.Error("terms without a mass xref must not resolve")
	}
}

func TestUnimodNilSafety(t *testing.T) {
	var table *UnimodTable
	if _, ok := table.Mass("UNIMOD:1"); ok {
		t.Error("nil table must resolve nothing")
	}
}
