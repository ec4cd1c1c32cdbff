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

import (
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// CurieSeparators are tried in this order when splitting identifiers. The
// first one present in the string wins.
var CurieSeparators = []string{":", "_", "/"}

// Registry normalises CURIE prefixes and references. The false return means
// the input was not recognised.
type Registry interface {
	NormalizePrefix(prefix string) (string, bool)
	NormalizeCurie(curie, sep string) (string, bool)
	NormalizeParsedCurie(prefix, reference string) (string, string, bool)
}

// PrefixMap is an in-memory Registry mapping prefix synonyms to canonical
// lower case prefixes. References are kept as they are. It is safe for
// concurrent use.
type PrefixMap struct {
	mu       sync.RWMutex
	synonyms map[string]string
}

// NewPrefixMap builds a PrefixMap from canonical prefix -> synonyms. The
// canonical prefix is always a synonym of itself.
func NewPrefixMap(entries map[string][]string) *PrefixMap {
	p := &PrefixMap{synonyms: make(map[string]string)}
	p.Add(entries)
	return p
}

// Add registers more prefixes, overriding synonyms already present.
func (p *PrefixMap) Add(entries map[string][]string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for canonical, syns := range entries {
		c := strings.ToLower(canonical)
		p.synonyms[c] = c
		for _, s := range syns {
			p.synonyms[strings.ToLower(s)] = c
		}
	}
}

// LoadPrefixMap reads a YAML document of the form
//
//	go: [GO, gene_ontology]
//	orphanet: [ORDO, Orphanet]
//
// on top of the default prefixes.
func LoadPrefixMap(r io.Reader) (*PrefixMap, error) {
	entries := make(map[string][]string)
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding prefix map")
	}
	p := DefaultPrefixMap()
	p.Add(entries)
	return p, nil
}

// NormalizePrefix implements Registry.
func (p *PrefixMap) NormalizePrefix(prefix string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.synonyms[strings.ToLower(strings.TrimSpace(prefix))]
	return c, ok
}

// NormalizeParsedCurie implements Registry.
func (p *PrefixMap) NormalizeParsedCurie(prefix, reference string) (string, string, bool) {
	c, ok := p.NormalizePrefix(prefix)
	if !ok || reference == "" {
		return "", "", false
	}
	return c, reference, true
}

// NormalizeCurie implements Registry by splitting curie on the first
// occurrence of sep.
func (p *PrefixMap) NormalizeCurie(curie, sep string) (string, bool) {
	i := strings.Index(curie, sep)
	if i < 0 {
		return "", false
	}
	prefix, ref, ok := p.NormalizeParsedCurie(curie[:i], curie[i+len(sep):])
	if !ok {
		return "", false
	}
	return prefix + ":" + ref, true
}

// DefaultPrefixMap returns the prefixes found across the Open Targets
// Platform datasets.
func DefaultPrefixMap() *PrefixMap {
	return NewPrefixMap(map[string][]string{
		"go":              {"gene_ontology"},
		"efo":             {},
		"mondo":           {},
		"hp":              {"hpo"},
		"orphanet":        {"ordo"},
		"doid":            {"do"},
		"mp":              {},
		"uberon":          {},
		"cl":              {},
		"chebi":           {},
		"chembl.compound": {"chembl", "chembl_id"},
		"chembl.target":   {},
		"ensembl":         {"ensg", "ensembl_gene"},
		"uniprot":         {"uniprotkb", "swissprot"},
		"hgnc":            {},
		"ncbigene":        {"entrez", "entrezgene"},
		"ncbitaxon":       {"taxon"},
		"mesh":            {"msh"},
		"omim":            {"mim"},
		"reactome":        {},
		"pubmed":          {"pmid"},
		"pmc":             {"pmcid"},
		"icd10":           {"icd10cm"},
		"icd9":            {"icd9cm"},
		"umls":            {"umls_cui"},
		"snomedct":        {"snomed", "sctid"},
		"ncit":            {"nci", "ncit_thesaurus"},
		"ogms":            {},
		"otar":            {},
		"oba":             {},
		"medgen":          {},
		"decipher":        {},
		"dbsnp":           {"rs"},
		"clinvar":         {},
		"pdb":             {},
		"interpro":        {},
		"pfam":            {},
		"so":              {"sequence_ontology"},
	})
}
