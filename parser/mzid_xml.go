package parser

import "encoding/xml"

// XML mapping for the subset of mzIdentML this pipeline reads. Field names
// follow the element/attribute names of the format.

type cvParam struct {
	Accession     string `xml:"accession,attr"`
	Name          string `xml:"name,attr"`
	Value         string `xml:"value,attr"`
	UnitAccession string `xml:"unitAccession,attr"`
	UnitName      string `xml:"unitName,attr"`
}

type userParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type paramList struct {
	CvParams   []cvParam   `xml:"cvParam"`
	UserParams []userParam `xml:"userParam"`
}

type analysisSoftwareXML struct {
	ID           string   `xml:"id,attr"`
	Name         string   `xml:"name,attr"`
	Version      string   `xml:"version,attr"`
	SoftwareName *cvParam `xml:"SoftwareName>cvParam"`
}

type contactRoleXML struct {
	ContactRef string    `xml:"contact_ref,attr"`
	Roles      []cvParam `xml:"Role>cvParam"`
}

type providerXML struct {
	ID          string          `xml:"id,attr"`
	ContactRole *contactRoleXML `xml:"ContactRole"`
}

type personXML struct {
	ID        string `xml:"id,attr"`
	FirstName string `xml:"firstName,attr"`
	LastName  string `xml:"lastName,attr"`
}

type organizationXML struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr"`
}

type auditCollectionXML struct {
	Persons       []personXML       `xml:"Person"`
	Organizations []organizationXML `xml:"Organization"`
}

type sampleXML struct {
	ID       string    `xml:"id,attr"`
	Name     string    `xml:"name,attr"`
	CvParams []cvParam `xml:"cvParam"`
}

type bibRefXML struct {
	ID          string `xml:"id,attr"`
	Title       string `xml:"title,attr"`
	Authors     string `xml:"authors,attr"`
	Publication string `xml:"publication,attr"`
	Year        int    `xml:"year,attr"`
	DOI         string `xml:"doi,attr"`
}

type dbSequenceXML struct {
	ID                string    `xml:"id,attr"`
	Accession         string    `xml:"accession,attr"`
	Name              string    `xml:"name,attr"`
	SearchDatabaseRef string    `xml:"searchDatabase_ref,attr"`
	Seq               string    `xml:"Seq"`
	CvParams          []cvParam `xml:"cvParam"`
}

type modificationXML struct {
	Location *int      `xml:"location,attr"`
	Residues string    `xml:"residues,attr"`
	MonoMass *float64  `xml:"monoisotopicMassDelta,attr"`
	CvParams []cvParam `xml:"cvParam"`
}

type peptideXML struct {
	ID              string            `xml:"id,attr"`
	PeptideSequence string            `xml:"PeptideSequence"`
	Modifications   []modificationXML `xml:"Modification"`
}

type peptideEvidenceXML struct {
	ID            string `xml:"id,attr"`
	PeptideRef    string `xml:"peptide_ref,attr"`
	DBSequenceRef string `xml:"dBSequence_ref,attr"`
	Start         *int   `xml:"start,attr"`
	IsDecoy       *bool  `xml:"isDecoy,attr"`
}

type inputSpectraXML struct {
	SpectraDataRef string `xml:"spectraData_ref,attr"`
}

type searchDatabaseRefXML struct {
	SearchDatabaseRef string `xml:"searchDatabase_ref,attr"`
}

type spectrumIdentificationXML struct {
	ID                 string                 `xml:"id,attr"`
	ProtocolRef        string                 `xml:"spectrumIdentificationProtocol_ref,attr"`
	ListRef            string                 `xml:"spectrumIdentificationList_ref,attr"`
	InputSpectra       []inputSpectraXML      `xml:"InputSpectra"`
	SearchDatabaseRefs []searchDatabaseRefXML `xml:"SearchDatabaseRef"`
}

type searchModificationXML struct {
	FixedMod         bool      `xml:"fixedMod,attr"`
	MassDelta        *float64  `xml:"massDelta,attr"`
	Residues         string    `xml:"residues,attr"`
	SpecificityRules []cvParam `xml:"SpecificityRules>cvParam"`
	CvParams         []cvParam `xml:"cvParam"`
}

type enzymeXML struct {
	ID              string    `xml:"id,attr"`
	CTermGain       string    `xml:"cTermGain,attr"`
	NTermGain       string    `xml:"nTermGain,attr"`
	MinDistance     *int      `xml:"minDistance,attr"`
	MissedCleavages *int      `xml:"missedCleavages,attr"`
	SemiSpecific    *bool     `xml:"semiSpecific,attr"`
	SiteRegexp      string    `xml:"SiteRegexp"`
	EnzymeName      []cvParam `xml:"EnzymeName>cvParam"`
}

type protocolXML struct {
	ID                     string                  `xml:"id,attr"`
	SoftwareRef            string                  `xml:"analysisSoftware_ref,attr"`
	AdditionalSearchParams paramList               `xml:"AdditionalSearchParams"`
	ModificationParams     []searchModificationXML `xml:"ModificationParams>SearchModification"`
	Enzymes                []enzymeXML             `xml:"Enzymes>Enzyme"`
	FragmentTolerance      []cvParam               `xml:"FragmentTolerance>cvParam"`
	Threshold              paramList               `xml:"Threshold"`
}

type spectraDataXML struct {
	ID               string   `xml:"id,attr"`
	Location         string   `xml:"location,attr"`
	Name             string   `xml:"name,attr"`
	FileFormat       *cvParam `xml:"FileFormat>cvParam"`
	SpectrumIDFormat *cvParam `xml:"SpectrumIDFormat>cvParam"`
}

type searchDatabaseXML struct {
	ID       string `xml:"id,attr"`
	Location string `xml:"location,attr"`
	Name     string `xml:"name,attr"`
}

type peptideEvidenceRefXML struct {
	Ref string `xml:"peptideEvidence_ref,attr"`
}

type siiXML struct {
	ID                  string                  `xml:"id,attr"`
	PeptideRef          string                  `xml:"peptide_ref,attr"`
	ChargeState         int                     `xml:"chargeState,attr"`
	ExpMZ               float64                 `xml:"experimentalMassToCharge,attr"`
	CalcMZ              *float64                `xml:"calculatedMassToCharge,attr"`
	Rank                int                     `xml:"rank,attr"`
	PassThreshold       bool                    `xml:"passThreshold,attr"`
	PeptideEvidenceRefs []peptideEvidenceRefXML `xml:"PeptideEvidenceRef"`
	CvParams            []cvParam               `xml:"cvParam"`
}

type sirXML struct {
	ID             string    `xml:"id,attr"`
	SpectrumID     string    `xml:"spectrumID,attr"`
	SpectraDataRef string    `xml:"spectraData_ref,attr"`
	Items          []siiXML  `xml:"SpectrumIdentificationItem"`
	CvParams       []cvParam `xml:"cvParam"`
}

type silXML struct {
	ID      string   `xml:"id,attr"`
	Results []sirXML `xml:"SpectrumIdentificationResult"`
}

type mzIdentMLDoc struct {
	XMLName xml.Name `xml:"MzIdentML"`

	AnalysisSoftwareList []analysisSoftwareXML `xml:"AnalysisSoftwareList>AnalysisSoftware"`
	Provider             *providerXML          `xml:"Provider"`
	AuditCollection      *auditCollectionXML   `xml:"AuditCollection"`
	Samples              []sampleXML           `xml:"AnalysisSampleCollection>Sample"`
	BibRefs              []bibRefXML           `xml:"BibliographicReference"`

	DBSequences      []dbSequenceXML      `xml:"SequenceCollection>DBSequence"`
	Peptides         []peptideXML         `xml:"SequenceCollection>Peptide"`
	PeptideEvidences []peptideEvidenceXML `xml:"SequenceCollection>PeptideEvidence"`

	SpectrumIdentifications []spectrumIdentificationXML `xml:"AnalysisCollection>SpectrumIdentification"`
	Protocols               []protocolXML               `xml:"AnalysisProtocolCollection>SpectrumIdentificationProtocol"`

	SpectraData     []spectraDataXML    `xml:"DataCollection>Inputs>SpectraData"`
	SearchDatabases []searchDatabaseXML `xml:"DataCollection>Inputs>SearchDatabase"`
	IdentLists      []silXML            `xml:"DataCollection>AnalysisData>SpectrumIdentificationList"`
}
