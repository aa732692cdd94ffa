package parser

import (
	"bufio"
	"strings"

	"xlink-ingest/peaklist"
)

// FastaIndex maps protein accessions to sequences. Headers are indexed by
// their first whitespace-delimited token and additionally by each segment of
// a pipe-delimited token ("sp|P02768|ALBU_HUMAN" resolves under all three).
type FastaIndex struct {
	sequences map[string]string
}

// LoadFasta reads a FASTA file, gzip-compressed or plain.
func LoadFasta(path string) (*FastaIndex, error) {
	rc, err := peaklist.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	idx := &FastaIndex{sequences: map[string]string{}}
	var keys []string
	var seq strings.Builder
	flush := func() {
		if len(keys) == 0 {
			return
		}
		s := seq.String()
		for _, k := range keys {
			if _, exists := idx.sequences[k]; !exists {
				idx.sequences[k] = s
			}
		}
		keys = nil
		seq.Reset()
	}

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			flush()
			keys = headerKeys(line[1:])
			continue
		}
		seq.WriteString(line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return idx, nil
}

func headerKeys(header string) []string {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return nil
	}
	token := fields[0]
	keys := []string{token}
	for _, part := range strings.Split(token, "|") {
		if part != "" && part != token {
			keys = append(keys, part)
		}
	}
	return keys
}

// Lookup returns the sequence for an accession.
func (f *FastaIndex) Lookup(accession string) (string, bool) {
	if f == nil {
		return "", false
	}
	s, ok := f.sequences[accession]
	return s, ok
}
