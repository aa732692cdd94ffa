package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"xlink-ingest/models"
	"xlink-ingest/peaklist"
)

// CSVVariant selects which of the three CSV dialects a file is parsed as.
type CSVVariant int

const (
	// CSVFull expects peak lists and a FASTA database and fills every table.
	CSVFull CSVVariant = iota
	// CSVNoPeakList behaves like CSVFull minus the spectrum table.
	CSVNoPeakList
	// CSVLinksOnly carries no spectra at all, only evidence and match rows.
	CSVLinksOnly
)

func (v CSVVariant) String() string {
	switch v {
	case CSVFull:
		return "full"
	case CSVNoPeakList:
		return "no-peak-list"
	case CSVLinksOnly:
		return "links-only"
	}
	return "unknown"
}

// csvRequiredHeaders is checked up front; CSV input is homogeneous, so a
// missing required column fails the whole file rather than row by row.
var csvRequiredHeaders = map[CSVVariant][]string{
	CSVFull:       {"scanid", "charge", "pepseq1", "protein1", "peaklistfilename"},
	CSVNoPeakList: {"scanid", "charge", "pepseq1", "protein1"},
	CSVLinksOnly:  {"pepseq1", "peppos1", "linkpos1", "protein1"},
}

// CSVParser ingests one CSV identification file. Like the mzIdentML parser
// it is stateful across the document and never shared between parses.
type CSVParser struct {
	Store            Store
	Readers          ReaderProvider
	Fasta            *FastaIndex
	Unimod           *UnimodTable
	Variant          CSVVariant
	BatchSize        int
	UserID           string
	ProjectAccession string
	Log              *zap.Logger

	uploadUUID uuid.UUID
	batch      *batcher
	resolver   *ModResolver

	cols map[string]int

	readerCache map[string]peaklist.Reader
	readerErr   map[string]bool

	seenProteins map[string]bool
	seenSpectra  map[string]bool

	containsCrosslinks bool
}

// Parse runs the whole file. Missing required headers are fatal; malformed
// rows become warnings and the parse continues.
func (p *CSVParser) Parse(path string) error {
	if p.Log == nil {
		p.Log = zap.NewNop()
	}

	uploadID, err := p.Store.NewUpload(filepath.Base(path), p.UserID, p.ProjectAccession)
	if err != nil {
		return err
	}
	p.uploadUUID = uploadID
	log := p.Log.With(
		zap.String("upload_id", uploadID.String()),
		zap.String("file", filepath.Base(path)),
		zap.String("variant", p.Variant.String()))

	rc, err := peaklist.OpenFile(path)
	if err != nil {
		return p.fatal(WarnCSVParse, err)
	}
	defer rc.Close()

	cr := csv.NewReader(rc)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return p.fatal(WarnCSVParse, fmt.Errorf("reading header: %w", err))
	}
	p.cols = map[string]int{}
	for i, col := range header {
		p.cols[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range csvRequiredHeaders[p.Variant] {
		if _, ok := p.cols[required]; !ok {
			return p.fatal(WarnCSVParse,
				fmt.Errorf("%s variant requires column %q", p.Variant, required))
		}
	}

	p.batch = newBatcher(p.Store, p.BatchSize)
	p.resolver = NewModResolver(p.Unimod)
	p.readerCache = map[string]peaklist.Reader{}
	p.readerErr = map[string]bool{}
	p.seenProteins = map[string]bool{}
	p.seenSpectra = map[string]bool{}

	rowNum := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			p.batch.warn(Warning{Type: WarnCSVParse, Message: err.Error(), ID: strconv.Itoa(rowNum)})
			continue
		}
		p.emitRow(rowNum, rec)
	}

	p.writeSearchModifications()
	p.batch.flush()

	log.Info("parse finished",
		zap.Int("rows", rowNum),
		zap.Bool("contains_crosslinks", p.containsCrosslinks),
		zap.Int("warnings", len(p.batch.warnings)))
	return p.Store.WriteCompletion(p.containsCrosslinks, p.batch.warnings, p.batch.anyBatchError)
}

func (p *CSVParser) fatal(errType string, err error) error {
	var warnings []Warning
	if p.batch != nil {
		warnings = p.batch.warnings
	}
	if failErr := p.Store.FailUpload(errType, err, warnings); failErr != nil {
		return failErr
	}
	return err
}

func (p *CSVParser) field(rec []string, col string) string {
	idx, ok := p.cols[col]
	if !ok || idx >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[idx])
}

// emitRow turns one CSV record into peptide, evidence, spectrum and match
// rows. Row numbers double as match ids and cross-link pair ids, which keeps
// them unique within the upload.
func (p *CSVParser) emitRow(rowNum int, rec []string) {
	rowID := strconv.Itoa(rowNum)

	pepSeq1 := p.field(rec, "pepseq1")
	if pepSeq1 == "" {
		p.batch.warn(Warning{Type: WarnCSVParse, Message: "row without pepseq1", ID: rowID})
		return
	}
	pepSeq2 := p.field(rec, "pepseq2")
	crosslinked := pepSeq2 != ""

	var pairID *string
	var modMass float64
	if crosslinked {
		pairID = &rowID
		if raw := p.field(rec, "crosslinkermodmass"); raw != "" {
			m, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				p.batch.warn(Warning{Type: WarnCSVParse,
					Message: fmt.Sprintf("malformed crosslinkermodmass %q", raw), ID: rowID})
				return
			}
			modMass = m
		}
	}

	pep1, ok := p.emitPeptide(rowID+"_p1", pepSeq1, p.field(rec, "linkpos1"), pairID, &modMass, rowID)
	if !ok {
		return
	}
	var pep2 *models.ModifiedPeptide
	if crosslinked {
		zero := 0.0
		pep2, ok = p.emitPeptide(rowID+"_p2", pepSeq2, p.field(rec, "linkpos2"), pairID, &zero, rowID)
		if !ok {
			return
		}
		p.containsCrosslinks = true
	}

	p.emitEvidence(pep1.ID, p.field(rec, "protein1"), p.field(rec, "peppos1"), p.field(rec, "decoy1"), rowID)
	if pep2 != nil {
		p.emitEvidence(pep2.ID, p.field(rec, "protein2"), p.field(rec, "peppos2"), p.field(rec, "decoy2"), rowID)
	}

	scanID := p.field(rec, "scanid")
	peakListFile := p.field(rec, "peaklistfilename")
	if p.Variant == CSVFull && peakListFile != "" && scanID != "" {
		p.emitSpectrum(peakListFile, scanID, rowID)
	}

	row := models.SpectrumIdentification{
		ID:             rowID,
		UploadID:       p.uploadUUID,
		SpectrumID:     scanID,
		SpectraDataRef: peakListFile,
		Pep1ID:         pep1.ID,
		PassThreshold:  true,
		Rank:           1,
	}
	if pep2 != nil {
		pep2ID := pep2.ID
		row.Pep2ID = &pep2ID
	}
	if raw := p.field(rec, "charge"); raw != "" {
		charge, err := strconv.Atoi(raw)
		if err != nil {
			p.batch.warn(Warning{Type: WarnCSVParse, Message: fmt.Sprintf("malformed charge %q", raw), ID: rowID})
			return
		}
		row.ChargeState = charge
	}
	if raw := p.field(rec, "rank"); raw != "" {
		if rank, err := strconv.Atoi(raw); err == nil {
			row.Rank = rank
		}
	}
	if raw := p.field(rec, "passthreshold"); raw != "" {
		row.PassThreshold = parseCSVBool(raw)
	}
	if raw := p.field(rec, "expmz"); raw != "" {
		if mz, err := strconv.ParseFloat(raw, 64); err == nil {
			row.ExpMZ = mz
		}
	}
	if raw := p.field(rec, "calcmz"); raw != "" {
		if mz, err := strconv.ParseFloat(raw, 64); err == nil {
			row.CalcMZ = &mz
		}
	}
	if raw := p.field(rec, "score"); raw != "" {
		if score, err := strconv.ParseFloat(raw, 64); err == nil {
			row.Scores = toJSON(map[string]any{"score": score})
		}
	}
	p.batch.addMatch(row)
}

// emitPeptide parses an embedded-modification sequence ("KQTAcmLVELVK") and
// writes the peptide row. Lowercase runs name the modification on the
// residue they follow; a leading run is an N-terminal modification.
func (p *CSVParser) emitPeptide(id, seq, linkPosRaw string, pairID *string, modMass *float64, rowID string) (*models.ModifiedPeptide, bool) {
	base, mods := splitSeqMods(seq)
	if base == "" {
		p.batch.warn(Warning{Type: WarnCSVParse, Message: fmt.Sprintf("peptide %q has no residues", seq), ID: rowID})
		return nil, false
	}

	row := models.ModifiedPeptide{
		ID:           id,
		UploadID:     p.uploadUUID,
		BaseSequence: base,
	}

	if pairID != nil {
		if linkPosRaw == "" {
			p.batch.warn(Warning{Type: WarnCSVParse, Message: "cross-linked peptide without link position", ID: rowID})
			return nil, false
		}
		site, err := strconv.Atoi(linkPosRaw)
		if err != nil {
			p.batch.warn(Warning{Type: WarnCSVParse, Message: fmt.Sprintf("malformed link position %q", linkPosRaw), ID: rowID})
			return nil, false
		}
		row.LinkSite = &site
		row.CrosslinkerPairID = pairID
		row.CrosslinkerModMass = modMass
	}

	if len(mods) > 0 {
		var names []string
		var positions []int
		var masses []float64
		for _, m := range mods {
			residue := ""
			if m.pos >= 1 && m.pos <= len(base) {
				residue = string(base[m.pos-1])
			}
			raw := RawMod{Name: m.name}
			if residue != "" {
				raw.Residues = []string{residue}
			}
			entry, warnings := p.resolver.Resolve(raw)
			for _, w := range warnings {
				w.ID = rowID
				p.batch.warn(w)
			}
			names = append(names, entry.Name)
			positions = append(positions, m.pos)
			masses = append(masses, entry.Mass)
		}
		row.ModAccessions = toJSON(names)
		row.ModPositions = toJSON(positions)
		row.ModMasses = toJSON(masses)
	}

	p.batch.addPeptide(row)
	return &row, true
}

// emitEvidence writes evidence rows for a semicolon-separated accession
// list, creating protein rows on first sight.
func (p *CSVParser) emitEvidence(pepID, proteins, positions, decoy, rowID string) {
	if proteins == "" {
		return
	}
	accessions := strings.Split(proteins, ";")
	starts := strings.Split(positions, ";")

	var isDecoy *bool
	if decoy != "" {
		d := parseCSVBool(decoy)
		isDecoy = &d
	}

	for i, accession := range accessions {
		accession = strings.TrimSpace(accession)
		if accession == "" {
			continue
		}
		if !p.seenProteins[accession] {
			p.seenProteins[accession] = true
			seq, _ := p.Fasta.Lookup(accession)
			p.batch.addDBSequence(models.DBSequence{
				ID:        accession,
				UploadID:  p.uploadUUID,
				Accession: accession,
				Sequence:  seq,
			})
		}
		start := 0
		posRaw := ""
		if i < len(starts) {
			posRaw = strings.TrimSpace(starts[i])
		} else if len(starts) > 0 {
			posRaw = strings.TrimSpace(starts[0])
		}
		if posRaw != "" {
			if s, err := strconv.Atoi(posRaw); err == nil {
				start = s
			} else {
				p.batch.warn(Warning{Type: WarnCSVParse,
					Message: fmt.Sprintf("malformed peptide position %q", posRaw), ID: rowID})
			}
		}
		p.batch.addEvidence(models.PeptideEvidence{
			PeptideRef:    pepID,
			DBSequenceRef: accession,
			UploadID:      p.uploadUUID,
			PepStart:      start,
			IsDecoy:       isDecoy,
		})
	}
}

// emitSpectrum resolves one (peak list file, scan id) pair, at most once.
func (p *CSVParser) emitSpectrum(peakListFile, scanID, rowID string) {
	key := peakListFile + "\x00" + scanID
	if p.seenSpectra[key] {
		return
	}
	p.seenSpectra[key] = true

	reader := p.readerFor(peakListFile, scanID, rowID)
	if reader == nil {
		return
	}
	spectrum, err := reader.Get(scanID)
	if err != nil {
		p.batch.warn(warnFromPeakListErr(err, rowID))
		return
	}
	p.batch.addSpectrum(models.Spectrum{
		ID:               scanID,
		SpectraDataRef:   peakListFile,
		UploadID:         p.uploadUUID,
		PeakListFileName: peakListFile,
		PrecursorMZ:      spectrum.PrecursorMZ,
		PrecursorCharge:  spectrum.PrecursorCharge,
		MZ:               peaklist.EncodeFloats(spectrum.MZ),
		Intensity:        peaklist.EncodeFloats(spectrum.Intensity),
		RetentionTime:    spectrum.RetentionTime,
	})
}

func (p *CSVParser) readerFor(peakListFile, sampleScanID, rowID string) peaklist.Reader {
	if reader, ok := p.readerCache[peakListFile]; ok {
		return reader
	}
	if p.readerErr[peakListFile] {
		return nil
	}
	fileFormat, idFormat := formatsForFile(peakListFile, sampleScanID)
	if fileFormat == "" {
		p.readerErr[peakListFile] = true
		p.batch.warn(Warning{Type: WarnSpectrumIDFormat,
			Message: fmt.Sprintf("cannot determine peak list format of %q", peakListFile), ID: rowID})
		return nil
	}
	reader, err := p.Readers(peakListFile, fileFormat, idFormat)
	if err != nil {
		p.readerErr[peakListFile] = true
		p.batch.warn(warnFromPeakListErr(err, rowID))
		return nil
	}
	p.readerCache[peakListFile] = reader
	return reader
}

// formatsForFile infers file and identifier formats from the file extension.
// CSV input declares neither, unlike mzIdentML. mzML files addressed by a
// plain integer use the index convention instead of native ids.
func formatsForFile(name, sampleScanID string) (string, string) {
	base := strings.ToLower(strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".zip"))
	switch {
	case strings.HasSuffix(base, ".mgf"):
		return peaklist.FormatMGF, peaklist.IDFormatScanNumber
	case strings.HasSuffix(base, ".ms2"):
		return peaklist.FormatMS2, peaklist.IDFormatScanNumber
	case strings.HasSuffix(base, ".mzml"):
		if _, err := strconv.Atoi(sampleScanID); err == nil {
			return peaklist.FormatMzML, peaklist.IDFormatScanNumber
		}
		return peaklist.FormatMzML, peaklist.IDFormatMzMLNative
	}
	return "", ""
}

type seqMod struct {
	name string
	pos  int // 1-based residue the modification sits on, 0 for N-terminal
}

// splitSeqMods separates an embedded-modification peptide string into its
// base sequence and modification list.
func splitSeqMods(seq string) (string, []seqMod) {
	var base strings.Builder
	var mods []seqMod
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			mods = append(mods, seqMod{name: cur.String(), pos: base.Len()})
			cur.Reset()
		}
	}
	for _, r := range seq {
		if unicode.IsUpper(r) {
			flush()
			base.WriteRune(r)
		} else if unicode.IsLower(r) {
			cur.WriteRune(r)
		}
	}
	flush()
	return base.String(), mods
}

func parseCSVBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "t", "1", "yes", "y":
		return true
	}
	return false
}

func (p *CSVParser) writeSearchModifications() {
	var mods []models.SearchModification
	for _, entry := range p.resolver.Entries() {
		mods = append(mods, models.SearchModification{
			ID:       entry.ID,
			UploadID: p.uploadUUID,
			Name:     entry.Name,
			Mass:     entry.Mass,
			Residues: entry.ResidueString(),
		})
	}
	if len(mods) > 0 {
		p.batch.fold(p.Store.WriteSearchModifications(mods))
	}
}
