package parser

import (
	"bufio"
	"strconv"
	"strings"

	"xlink-ingest/peaklist"
)

// UnimodTable maps modification catalog accessions (UNIMOD:35 style) to
// monoisotopic mass deltas. It backs modification entries that declare an
// accession but no literal mass.
type UnimodTable struct {
	masses map[string]float64
}

// LoadUnimod parses the obo-style catalog file. Only the term id and the
// delta_mono_mass xref are read; everything else is skipped.
func LoadUnimod(path string) (*UnimodTable, error) {
	rc, err := peaklist.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t := &UnimodTable{masses: map[string]float64{}}
	var curID string
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "id: "):
			curID = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "xref: delta_mono_mass "):
			if curID == "" {
				continue
			}
			raw := strings.TrimPrefix(line, "xref: delta_mono_mass ")
			raw = strings.Trim(raw, `"`)
			if mass, err := strconv.ParseFloat(raw, 64); err == nil {
				t.masses[curID] = mass
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Mass returns the monoisotopic mass delta for an accession.
func (t *UnimodTable) Mass(accession string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	m, ok := t.masses[accession]
	return m, ok
}
