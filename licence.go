// Copyright 2026 Open Targets.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package otgraph

// Licence is the licence tag attached to records derived from a data source.
type Licence string

// Licences of the Open Targets data sources.
const (
	LicenceApache20     Licence = "Apache 2.0"
	LicenceCC010        Licence = "CC0 1.0"
	LicenceCCBY40       Licence = "CC BY 4.0"
	LicenceCCBYSA30     Licence = "CC BY-SA 3.0"
	LicenceCCBYNC40     Licence = "CC BY-NC 4.0"
	LicenceEMBLEBITerms Licence = "EMBL-EBI terms of use"
	LicenceMIT          Licence = "MIT"
	LicenceCommercialOT Licence = "Commercial use for Open Targets"
	LicenceNotAvailable Licence = "Not available"
	LicenceUnknown      Licence = "Unknown"
)

func (l Licence) String() string { return string(l) }

var datasourceLicences = map[string]Licence{
	"progeny": LicenceApache20,

	"intogen": LicenceCC010,
	"clingen": LicenceCC010,

	"expression_atlas":   LicenceCCBY40,
	"orphanet":           LicenceCCBY40,
	"reactome":           LicenceCCBY40,
	"uniprot_variants":   LicenceCCBY40,
	"uniprot_literature": LicenceCCBY40,

	"chembl": LicenceCCBYSA30,

	"europepmc": LicenceCCBYNC40,

	"eva":                LicenceEMBLEBITerms,
	"eva_somatic":        LicenceEMBLEBITerms,
	"gene2phenotype":     LicenceEMBLEBITerms,
	"ot_genetics_portal": LicenceEMBLEBITerms,

	"slapenrich": LicenceMIT,

	"cancer_gene_census": LicenceCommercialOT,
	"genomics_england":   LicenceCommercialOT,

	"cancer_biomarkers": LicenceNotAvailable,
	"crispr":            LicenceNotAvailable,
	"gene_burden":       LicenceNotAvailable,
	"impc":              LicenceNotAvailable,
	"sysbio":            LicenceNotAvailable,
}

// LicenceFor returns the licence of a data source, LicenceUnknown if the
// source is not listed.
func LicenceFor(datasourceID string) Licence {
	if l, ok := datasourceLicences[datasourceID]; ok {
		return l
	}
	return LicenceUnknown
}
