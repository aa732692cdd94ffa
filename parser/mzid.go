package parser

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"gorm.io/datatypes"

	"xlink-ingest/models"
	"xlink-ingest/peaklist"
)

// Cross-link cvParam accessions in mzIdentML.
const (
	accXLDonor    = "MS:1002509" // cross-link donor
	accXLAcceptor = "MS:1002510" // cross-link acceptor
	accXLItem     = "MS:1002511" // cross-link spectrum identification item
)

// DefaultIons is the fallback fragment ion series when neither the document
// nor the peak list declares one: b and y ions.
var DefaultIons = []string{"MS:1001118", "MS:1001262"}

// ionAccessions are the fragment ion series terms accepted from
// AdditionalSearchParams (the "param: X ion" family).
var ionAccessions = map[string]bool{
	"MS:1001108": true, // a ion
	"MS:1001118": true, // b ion
	"MS:1001119": true, // c ion
	"MS:1001261": true, // x ion
	"MS:1001262": true, // y ion
	"MS:1001263": true, // z ion
}

// fragMethodIons maps activation method accessions from mzML scan headers to
// the ion series they produce.
var fragMethodIons = map[string][]string{
	"MS:1000133": {"MS:1001118", "MS:1001262"}, // CID -> b, y
	"MS:1000422": {"MS:1001118", "MS:1001262"}, // HCD -> b, y
	"MS:1000598": {"MS:1001119", "MS:1001263"}, // ETD -> c, z
	"MS:1000250": {"MS:1001119", "MS:1001263"}, // ECD -> c, z
}

// scorePatterns is the allow-list deciding which item cvParams count as
// scores. Compiled once; matching is on the cvParam name.
var scorePatterns = regexp.MustCompile(`(?i)(score|pvalue|evalue)`)

// ReaderProvider resolves a peak list file name and its declared file and
// spectrum id formats to a reader. The ingest service binds this to the
// upload's peak list directory.
type ReaderProvider func(peakListFileName, fileFormat, idFormat string) (peaklist.Reader, error)

// MzIdParser ingests one mzIdentML document. It is stateful across the
// document (protocol map, pairing keys, modification catalog) and must not
// be shared between parses.
type MzIdParser struct {
	Store            Store
	Readers          ReaderProvider
	Unimod           *UnimodTable
	BatchSize        int
	UserID           string
	ProjectAccession string
	Log              *zap.Logger

	doc        *mzIdentMLDoc
	uploadUUID uuid.UUID

	batch    *batcher
	resolver *ModResolver

	peptides    map[string]*parsedPeptide
	spectraData map[string]*spectraDataXML
	sdProtocol  map[string]string // spectraData ref -> protocol ref

	readerCache map[string]peaklist.Reader
	readerErr   map[string]bool

	syntheticKey       int
	containsCrosslinks bool
}

type parsedPeptide struct {
	row models.ModifiedPeptide
	ok  bool
}

// Parse runs the whole document. Fatal errors are recorded on the Upload row
// and returned; record-level problems become warnings and the parse
// continues.
func (p *MzIdParser) Parse(path string) error {
	if p.Log == nil {
		p.Log = zap.NewNop()
	}

	uploadID, err := p.Store.NewUpload(filepath.Base(path), p.UserID, p.ProjectAccession)
	if err != nil {
		return err
	}
	p.uploadUUID = uploadID
	log := p.Log.With(zap.String("upload_id", uploadID.String()), zap.String("file", filepath.Base(path)))

	rc, err := peaklist.OpenFile(path)
	if err != nil {
		return p.fatal(WarnMzidParse, err)
	}
	defer rc.Close()

	doc, err := decodeMzIdentML(rc)
	if err != nil {
		return p.fatal(WarnMzidParse, err)
	}
	p.doc = doc

	if err := p.Store.UpdateUploadMetadata(p.metadata()); err != nil {
		log.Warn("upload metadata update failed", zap.Error(err))
	}

	p.batch = newBatcher(p.Store, p.BatchSize)
	p.resolver = NewModResolver(p.Unimod)
	p.readerCache = map[string]peaklist.Reader{}
	p.readerErr = map[string]bool{}

	p.indexSpectraData()
	p.emitSequenceCollection()
	p.processResults(log)
	p.writeProtocols()
	p.writeAnalysisCollections()
	p.batch.flush()

	log.Info("parse finished",
		zap.Bool("contains_crosslinks", p.containsCrosslinks),
		zap.Int("warnings", len(p.batch.warnings)),
		zap.Bool("batch_errors", p.batch.anyBatchError))
	return p.Store.WriteCompletion(p.containsCrosslinks, p.batch.warnings, p.batch.anyBatchError)
}

func (p *MzIdParser) fatal(errType string, err error) error {
	var warnings []Warning
	if p.batch != nil {
		warnings = p.batch.warnings
	}
	if failErr := p.Store.FailUpload(errType, err, warnings); failErr != nil {
		return failErr
	}
	return err
}

func decodeMzIdentML(r io.Reader) (*mzIdentMLDoc, error) {
	var doc mzIdentMLDoc
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	if err := d.Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return buf
}

func (p *MzIdParser) metadata() UploadMetadata {
	var formats []map[string]string
	for _, sd := range p.doc.SpectraData {
		entry := map[string]string{"id": sd.ID, "location": sd.Location}
		if sd.FileFormat != nil {
			entry["file_format"] = sd.FileFormat.Name
		}
		if sd.SpectrumIDFormat != nil {
			entry["spectrum_id_format"] = sd.SpectrumIDFormat.Name
		}
		formats = append(formats, entry)
	}
	return UploadMetadata{
		Provider:       p.doc.Provider,
		Audits:         p.doc.AuditCollection,
		Samples:        p.doc.Samples,
		Bib:            p.doc.BibRefs,
		SpectraFormats: formats,
	}
}

// indexSpectraData builds the spectra-data and protocol lookup maps once up
// front, from the AnalysisCollection linkage.
func (p *MzIdParser) indexSpectraData() {
	p.spectraData = map[string]*spectraDataXML{}
	for i := range p.doc.SpectraData {
		sd := &p.doc.SpectraData[i]
		p.spectraData[sd.ID] = sd
	}
	p.sdProtocol = map[string]string{}
	for _, si := range p.doc.SpectrumIdentifications {
		for _, in := range si.InputSpectra {
			p.sdProtocol[in.SpectraDataRef] = si.ProtocolRef
		}
	}
}

// emitSequenceCollection writes DBSequences, resolved peptides and peptide
// evidences. Peptides without a sequence are remembered as broken so that
// matches referencing them can be skipped with a warning.
func (p *MzIdParser) emitSequenceCollection() {
	uploadUUID := p.uploadUUID

	for _, dbs := range p.doc.DBSequences {
		description := ""
		for _, cv := range dbs.CvParams {
			if cv.Accession == "MS:1001088" { // protein description
				description = cv.Value
			}
		}
		p.batch.addDBSequence(models.DBSequence{
			ID:          dbs.ID,
			UploadID:    uploadUUID,
			Accession:   dbs.Accession,
			Name:        dbs.Name,
			Description: description,
			Sequence:    strings.TrimSpace(dbs.Seq),
		})
	}

	p.peptides = map[string]*parsedPeptide{}
	for i := range p.doc.Peptides {
		pep := &p.doc.Peptides[i]
		parsed := p.parsePeptide(pep)
		p.peptides[pep.ID] = parsed
		if parsed.ok {
			p.batch.addPeptide(parsed.row)
		}
	}

	for _, ev := range p.doc.PeptideEvidences {
		start := 0
		if ev.Start != nil {
			start = *ev.Start
		}
		p.batch.addEvidence(models.PeptideEvidence{
			PeptideRef:    ev.PeptideRef,
			DBSequenceRef: ev.DBSequenceRef,
			UploadID:      uploadUUID,
			PepStart:      start,
			IsDecoy:       ev.IsDecoy,
		})
	}
}

// parsePeptide resolves a peptide's modifications and its cross-link role.
// The link site is the Modification location as declared: 0 is the
// N-terminus, len(sequence)+1 the C-terminus, all else 1-based.
func (p *MzIdParser) parsePeptide(pep *peptideXML) *parsedPeptide {
	row := models.ModifiedPeptide{
		ID:           pep.ID,
		UploadID:     p.uploadUUID,
		BaseSequence: strings.TrimSpace(pep.PeptideSequence),
	}
	if row.BaseSequence == "" {
		p.batch.warn(Warning{Type: WarnMzidParse, Message: "peptide without sequence", ID: pep.ID})
		return &parsedPeptide{row: row}
	}

	var accessions []string
	var positions []int
	var masses []float64

	for i := range pep.Modifications {
		mod := &pep.Modifications[i]
		pairID, isCrosslink := crosslinkRole(mod)
		if isCrosslink {
			site := 0
			if mod.Location != nil {
				site = *mod.Location
			}
			mass := 0.0
			if mod.MonoMass != nil {
				mass = *mod.MonoMass
			}
			row.LinkSite = &site
			row.CrosslinkerPairID = &pairID
			row.CrosslinkerModMass = &mass
			continue
		}

		raw := rawModFromXML(mod)
		entry, warnings := p.resolver.Resolve(raw)
		for _, w := range warnings {
			w.ID = pep.ID
			p.batch.warn(w)
		}
		label := entry.Accession
		if label == "" {
			label = entry.Name
		}
		accessions = append(accessions, label)
		pos := 0
		if mod.Location != nil {
			pos = *mod.Location
		}
		positions = append(positions, pos)
		masses = append(masses, entry.Mass)
	}

	if len(accessions) > 0 {
		row.ModAccessions = toJSON(accessions)
		row.ModPositions = toJSON(positions)
		row.ModMasses = toJSON(masses)
	}
	return &parsedPeptide{row: row, ok: true}
}

// crosslinkRole reports whether a modification carries the cross-link donor
// or acceptor term and returns the shared pair id.
func crosslinkRole(mod *modificationXML) (string, bool) {
	for _, cv := range mod.CvParams {
		if cv.Accession == accXLDonor || cv.Accession == accXLAcceptor {
			return cv.Value, true
		}
	}
	return "", false
}

func rawModFromXML(mod *modificationXML) RawMod {
	raw := RawMod{Mass: mod.MonoMass}
	for _, res := range strings.Fields(mod.Residues) {
		raw.Residues = append(raw.Residues, res)
	}
	for _, cv := range mod.CvParams {
		if strings.HasPrefix(cv.Accession, "UNIMOD:") || strings.HasPrefix(cv.Accession, "MOD:") {
			raw.Accession = cv.Accession
			raw.Name = cv.Name
		} else if cv.Accession == "MS:1001460" { // unknown modification
			raw.Name = ""
		} else if raw.Name == "" && cv.Name != "" {
			raw.Name = cv.Name
		}
	}
	return raw
}

// processResults walks every SpectrumIdentificationResult, pairs its items
// and emits spectrum and match rows.
func (p *MzIdParser) processResults(log *zap.Logger) {
	uploadUUID := p.uploadUUID

	for _, sil := range p.doc.IdentLists {
		for i := range sil.Results {
			sir := &sil.Results[i]

			spectrum := p.resolveSpectrum(sir)
			if spectrum != nil {
				charge := spectrum.PrecursorCharge
				row := models.Spectrum{
					ID:              sir.SpectrumID,
					SpectraDataRef:  sir.SpectraDataRef,
					UploadID:        uploadUUID,
					PrecursorMZ:     spectrum.PrecursorMZ,
					PrecursorCharge: charge,
					MZ:              peaklist.EncodeFloats(spectrum.MZ),
					Intensity:       peaklist.EncodeFloats(spectrum.Intensity),
					RetentionTime:   spectrum.RetentionTime,
				}
				if sd, ok := p.spectraData[sir.SpectraDataRef]; ok {
					row.PeakListFileName = peakListFileName(sd)
				}
				p.batch.addSpectrum(row)
			}

			for _, group := range p.groupItems(sir) {
				p.emitMatch(sir, group)
			}
		}
	}
}

// groupItems partitions a result's items by cross-link grouping key. Items
// without the cross-link term get unique synthetic negative keys so they are
// never paired with one another.
func (p *MzIdParser) groupItems(sir *sirXML) [][]*siiXML {
	var order []string
	groups := map[string][]*siiXML{}
	for i := range sir.Items {
		item := &sir.Items[i]
		key := ""
		for _, cv := range item.CvParams {
			if cv.Accession == accXLItem {
				key = cv.Value
			}
		}
		if key == "" {
			p.syntheticKey--
			key = strconv.Itoa(p.syntheticKey)
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], item)
	}
	out := make([][]*siiXML, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key])
	}
	return out
}

// emitMatch writes one SpectrumIdentification row for a pairing group: one
// item is a linear match, two items a cross-link, anything else malformed.
func (p *MzIdParser) emitMatch(sir *sirXML, group []*siiXML) {
	if len(group) > 2 {
		p.batch.warn(Warning{
			Type:    WarnMzidParse,
			Message: fmt.Sprintf("cross-link group of %d items, expected 1 or 2", len(group)),
			ID:      sir.ID,
		})
		return
	}

	first := group[0]
	pep1, ok := p.lookupPeptide(first.PeptideRef, first.ID)
	if !ok {
		return
	}

	row := models.SpectrumIdentification{
		ID:             first.ID,
		UploadID:       p.uploadUUID,
		SpectrumID:     sir.SpectrumID,
		SpectraDataRef: sir.SpectraDataRef,
		Pep1ID:         pep1.row.ID,
		ChargeState:    first.ChargeState,
		PassThreshold:  first.PassThreshold,
		Rank:           first.Rank,
		ExpMZ:          first.ExpMZ,
		CalcMZ:         first.CalcMZ,
	}

	if len(group) == 2 {
		second := group[1]
		pep2, ok := p.lookupPeptide(second.PeptideRef, second.ID)
		if !ok {
			return
		}
		pep2ID := pep2.row.ID
		row.Pep2ID = &pep2ID
		p.containsCrosslinks = true

		if pep1.row.CrosslinkerPairID == nil || pep2.row.CrosslinkerPairID == nil ||
			*pep1.row.CrosslinkerPairID != *pep2.row.CrosslinkerPairID {
			p.batch.warn(Warning{
				Type:    WarnMzidParse,
				Message: "paired items reference peptides with mismatched cross-link pair ids",
				ID:      sir.ID,
			})
			return
		}
	}

	// Both items of a pair may carry scores; first occurrence of a name wins.
	scores := map[string]any{}
	for _, item := range group {
		for _, cv := range item.CvParams {
			if !scorePatterns.MatchString(cv.Name) {
				continue
			}
			if _, seen := scores[cv.Name]; seen {
				continue
			}
			if f, err := strconv.ParseFloat(cv.Value, 64); err == nil {
				scores[cv.Name] = f
			} else {
				scores[cv.Name] = cv.Value
			}
		}
	}
	if len(scores) > 0 {
		row.Scores = toJSON(scores)
	}

	p.batch.addMatch(row)
}

func (p *MzIdParser) lookupPeptide(ref, itemID string) (*parsedPeptide, bool) {
	pep, ok := p.peptides[ref]
	if !ok {
		p.batch.warn(Warning{
			Type:    WarnMzidParse,
			Message: fmt.Sprintf("item references unknown peptide %q", ref),
			ID:      itemID,
		})
		return nil, false
	}
	if !pep.ok {
		p.batch.warn(Warning{
			Type:    WarnMzidParse,
			Message: fmt.Sprintf("item references unusable peptide %q", ref),
			ID:      itemID,
		})
		return nil, false
	}
	return pep, true
}

// resolveSpectrum fetches peak data for a result. Failures are warnings, the
// match rows are still written without spectrum data.
func (p *MzIdParser) resolveSpectrum(sir *sirXML) *peaklist.Spectrum {
	if p.Readers == nil {
		return nil
	}
	reader := p.readerFor(sir.SpectraDataRef)
	if reader == nil {
		return nil
	}
	spectrum, err := reader.Get(sir.SpectrumID)
	if err != nil {
		p.batch.warn(warnFromPeakListErr(err, sir.ID))
		return nil
	}
	return spectrum
}

// readerFor opens the peak list for a spectra-data ref once and caches it.
// An open failure is warned once per ref, not once per result.
func (p *MzIdParser) readerFor(sdRef string) peaklist.Reader {
	if reader, ok := p.readerCache[sdRef]; ok {
		return reader
	}
	if p.readerErr[sdRef] {
		return nil
	}
	sd, ok := p.spectraData[sdRef]
	if !ok {
		p.readerErr[sdRef] = true
		p.batch.warn(Warning{Type: WarnMzidParse, Message: fmt.Sprintf("unknown spectra data ref %q", sdRef)})
		return nil
	}
	fileFormat, idFormat := "", ""
	if sd.FileFormat != nil {
		fileFormat = sd.FileFormat.Accession
	}
	if sd.SpectrumIDFormat != nil {
		idFormat = sd.SpectrumIDFormat.Accession
	}
	reader, err := p.Readers(peakListFileName(sd), fileFormat, idFormat)
	if err != nil {
		p.readerErr[sdRef] = true
		p.batch.warn(warnFromPeakListErr(err, sd.ID))
		return nil
	}
	p.readerCache[sdRef] = reader
	return reader
}

func peakListFileName(sd *spectraDataXML) string {
	loc := strings.ReplaceAll(sd.Location, `\`, `/`)
	name := filepath.Base(loc)
	if name == "." || name == "/" || name == "" {
		return sd.Name
	}
	return name
}

// writeProtocols emits protocol, enzyme and search modification rows after
// the result loop, so the ion fallback can consult any opened mzML readers.
func (p *MzIdParser) writeProtocols() {
	uploadUUID := p.uploadUUID
	software := map[string]*analysisSoftwareXML{}
	for i := range p.doc.AnalysisSoftwareList {
		sw := &p.doc.AnalysisSoftwareList[i]
		software[sw.ID] = sw
	}

	var protocols []models.SpectrumIdentificationProtocol
	var enzymes []models.Enzyme
	for i := range p.doc.Protocols {
		proto := &p.doc.Protocols[i]

		row := models.SpectrumIdentificationProtocol{
			ID:           proto.ID,
			UploadID:     uploadUUID,
			SearchParams: toJSON(proto.AdditionalSearchParams),
			Threshold:    toJSON(proto.Threshold),
		}
		row.FragTolerance, row.FragToleranceUnit = p.fragmentTolerance(proto)
		row.Ions = toJSON(p.protocolIons(proto))
		if sw, ok := software[proto.SoftwareRef]; ok {
			row.AnalysisSoftware = toJSON(sw)
		}
		protocols = append(protocols, row)

		for j := range proto.Enzymes {
			enz := &proto.Enzymes[j]
			name, accession := "", ""
			if len(enz.EnzymeName) > 0 {
				name = enz.EnzymeName[0].Name
				accession = enz.EnzymeName[0].Accession
			}
			enzymes = append(enzymes, models.Enzyme{
				ID:              enz.ID,
				UploadID:        uploadUUID,
				ProtocolRef:     proto.ID,
				Name:            name,
				Accession:       accession,
				CleavageSite:    strings.TrimSpace(enz.SiteRegexp),
				CTermGain:       enz.CTermGain,
				NTermGain:       enz.NTermGain,
				MinDistance:     enz.MinDistance,
				MissedCleavages: enz.MissedCleavages,
				SemiSpecific:    enz.SemiSpecific,
			})
		}

		for j := range proto.ModificationParams {
			p.resolveSearchModification(proto.ID, &proto.ModificationParams[j])
		}
	}

	if len(protocols) > 0 {
		p.batch.fold(p.Store.WriteProtocols(protocols))
	}
	if len(enzymes) > 0 {
		p.batch.fold(p.Store.WriteEnzymes(enzymes))
	}

	var mods []models.SearchModification
	for _, entry := range p.resolver.Entries() {
		mods = append(mods, models.SearchModification{
			ID:               entry.ID,
			UploadID:         uploadUUID,
			ProtocolRef:      entry.ProtocolRef,
			Name:             entry.Name,
			Mass:             entry.Mass,
			Residues:         entry.ResidueString(),
			SpecificityRules: toJSON(entry.Specificity),
			FixedMod:         entry.Fixed,
			Accession:        entry.Accession,
			CrosslinkerID:    entry.CrosslinkerID,
		})
	}
	if len(mods) > 0 {
		p.batch.fold(p.Store.WriteSearchModifications(mods))
	}
}

func (p *MzIdParser) resolveSearchModification(protocolRef string, sm *searchModificationXML) {
	raw := RawMod{
		Mass:        sm.MassDelta,
		Fixed:       sm.FixedMod,
		ProtocolRef: protocolRef,
	}
	for _, res := range strings.Fields(sm.Residues) {
		raw.Residues = append(raw.Residues, res)
	}
	for _, cv := range sm.SpecificityRules {
		raw.Specificity = append(raw.Specificity, cv.Name)
	}
	for _, cv := range sm.CvParams {
		switch {
		case cv.Accession == accXLDonor || cv.Accession == accXLAcceptor:
			// The term value names the crosslinker this modification
			// belongs to; it never contributes a modification name.
			id := cv.Value
			raw.CrosslinkerID = &id
		case strings.HasPrefix(cv.Accession, "UNIMOD:") || strings.HasPrefix(cv.Accession, "MOD:"):
			raw.Accession = cv.Accession
			raw.Name = cv.Name
		case cv.Accession == "MS:1001460":
			raw.Name = ""
		case raw.Name == "" && cv.Name != "":
			raw.Name = cv.Name
		}
	}
	_, warnings := p.resolver.Resolve(raw)
	for _, w := range warnings {
		p.batch.warn(w)
	}
}

// fragmentTolerance reads the plus/minus search tolerance pair. A mismatch
// keeps the plus value with a warning; a missing tolerance defaults to
// 10 ppm with a warning.
func (p *MzIdParser) fragmentTolerance(proto *protocolXML) (*float64, string) {
	var plus, minus *float64
	unit := ""
	for _, cv := range proto.FragmentTolerance {
		v, err := strconv.ParseFloat(cv.Value, 64)
		if err != nil {
			continue
		}
		switch cv.Accession {
		case "MS:1001412": // search tolerance plus value
			plus = &v
			unit = cv.UnitName
		case "MS:1001413": // search tolerance minus value
			minus = &v
		}
	}
	if plus == nil && minus == nil {
		def := 10.0
		p.batch.warn(Warning{
			Type:    WarnMzidParse,
			Message: "no fragment tolerance declared, assuming 10 ppm",
			ID:      proto.ID,
		})
		return &def, "ppm"
	}
	if plus == nil {
		return minus, unit
	}
	if minus != nil && *minus != *plus {
		p.batch.warn(Warning{
			Type:    WarnMzidParse,
			Message: fmt.Sprintf("asymmetric fragment tolerance (+%v/-%v), using plus value", *plus, *minus),
			ID:      proto.ID,
		})
	}
	return plus, unit
}

// protocolIons determines the fragment ion series for a protocol: declared
// terms first, then the fragmentation method of an associated mzML peak
// list, then the b/y default with an IonParsing warning.
func (p *MzIdParser) protocolIons(proto *protocolXML) []string {
	var ions []string
	for _, cv := range proto.AdditionalSearchParams.CvParams {
		if ionAccessions[cv.Accession] {
			ions = append(ions, cv.Accession)
		}
	}
	if len(ions) > 0 {
		return ions
	}

	for sdRef, protoRef := range p.sdProtocol {
		if protoRef != proto.ID {
			continue
		}
		reader, ok := p.readerCache[sdRef]
		if !ok {
			continue
		}
		frag, ok := reader.(peaklist.FragmentationSource)
		if !ok {
			continue
		}
		seen := map[string]bool{}
		for _, acc := range frag.FragmentationAccessions() {
			for _, ion := range fragMethodIons[acc] {
				if !seen[ion] {
					seen[ion] = true
					ions = append(ions, ion)
				}
			}
		}
		if len(ions) > 0 {
			return ions
		}
	}

	p.batch.warn(Warning{
		Type:    WarnIonParsing,
		Message: "no fragment ion series declared, defaulting to b and y ions",
		ID:      proto.ID,
	})
	return append([]string(nil), DefaultIons...)
}

func (p *MzIdParser) writeAnalysisCollections() {
	uploadUUID := p.uploadUUID
	var rows []models.AnalysisCollection
	for _, si := range p.doc.SpectrumIdentifications {
		var sdRefs, dbRefs []string
		for _, in := range si.InputSpectra {
			sdRefs = append(sdRefs, in.SpectraDataRef)
		}
		for _, db := range si.SearchDatabaseRefs {
			dbRefs = append(dbRefs, db.SearchDatabaseRef)
		}
		rows = append(rows, models.AnalysisCollection{
			UploadID:                 uploadUUID,
			SpectrumIdentListRef:     si.ListRef,
			ProtocolRef:              si.ProtocolRef,
			SpectraDataRefs:          strings.Join(sdRefs, " "),
			SearchDatabaseRefs:       strings.Join(dbRefs, " "),
			SpectrumIdentificationID: si.ID,
		})
	}
	if len(rows) > 0 {
		p.batch.fold(p.Store.WriteAnalysisCollections(rows))
	}
}
