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

package generate

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/opentargets/otgraph"
	"github.com/pkg/errors"
)

// SchemaMain prints the field trees of the datasets in a schema directory,
// which is handy when writing definitions.
type SchemaMain struct {
	Schemas string `help:"Directory of Spark JSON schemas named <dataset>.json."`
	Dataset string `help:"Only print this dataset."`

	stdout io.Writer
}

// NewSchemaMain gets a new SchemaMain with default values.
func NewSchemaMain() *SchemaMain {
	return &SchemaMain{stdout: os.Stdout}
}

// SetOutput redirects the printed trees.
func (m *SchemaMain) SetOutput(stdout io.Writer) { m.stdout = stdout }

// Run prints the trees.
func (m *SchemaMain) Run() error {
	datasets, err := LoadSchemas(m.Schemas)
	if err != nil {
		return errors.Wrap(err, "loading schemas")
	}
	found := false
	for _, d := range datasets {
		if m.Dataset != "" && d.Name() != m.Dataset {
			continue
		}
		found = true
		if err := PrintDataset(m.stdout, d); err != nil {
			return err
		}
	}
	if !found {
		return errors.Errorf("no dataset %s in %s", m.Dataset, m.Schemas)
	}
	return nil
}

// PrintDataset writes d as an indented tree, one field per line:
//
//	targets
//	  id: string
//	  synonyms: sequence
//	    element: string (nullable)
func PrintDataset(w io.Writer, d *otgraph.Dataset) error {
	if _, err := fmt.Fprintln(w, d.Name()); err != nil {
		return errors.Wrap(err, "writing dataset")
	}
	for _, f := range d.Fields() {
		if err := printField(w, f, f.Name(), 1); err != nil {
			return err
		}
	}
	return nil
}

func printField(w io.Writer, f *otgraph.Field, name string, depth int) error {
	desc := string(f.DataType())
	if f.Kind() != otgraph.KindScalar {
		desc = f.Kind().String()
	}
	if f.Nullable() {
		desc += " (nullable)"
	}
	if _, err := fmt.Fprintf(w, "%s%s: %s\n", strings.Repeat("  ", depth), name, desc); err != nil {
		return errors.Wrap(err, "writing field")
	}
	switch f.Kind() {
	case otgraph.KindStruct:
		for _, c := range f.Fields() {
			if err := printField(w, c, c.Name(), depth+1); err != nil {
				return err
			}
		}
	case otgraph.KindSequence:
		return printField(w, f.Element(), "element", depth+1)
	case otgraph.KindMap:
		if err := printField(w, f.Key(), "key", depth+1); err != nil {
			return err
		}
		return printField(w, f.Value(), "value", depth+1)
	}
	return nil
}
