// Copyright 2017 Pilosa Corp.
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

// Package otgraph turns tabular, nested datasets into property graph records.
// It contains the core types and documentation; sources, sinks and
// persistent translators which rely on other software are in sub-packages.
//
// Generation is a pipeline of four stages.
//
// 1. Schema
//
//    A Dataset is a named tree of Fields: scalars, structs, sequences and
//    maps. Datasets are declared once, in code or from a Spark schema with
//    LoadSparkSchema, and Fields are compared by identity afterwards.
//
// 2. RowSource
//
//    A RowSource hands out the raw rows of a dataset, projected onto the
//    top-level columns that are actually needed. Sub-packages read JSON
//    lines from local files or S3, Avro container files, and SQLite tables.
//    It is not the job of the source to interpret nested values; it returns
//    them as plain maps and slices.
//
// 3. Scan and View
//
//    A ScanOperation decides how rows become items. A RowScan yields one
//    View per row; an ExplodingScan yields one View per element of a
//    sequence field, with every other field still visible. Views resolve
//    Fields at any depth.
//
// 4. Definition
//
//    NodeDefinitions and EdgeDefinitions hold Expressions for ids, labels
//    and properties. Expressions are compiled once into closures and
//    evaluated per item. A failure that only concerns one item is a
//    RowError: the item is logged, counted and skipped.
//
// The Context ties definitions to a RowSource, and the Ingester runs every
// definition into a Sink, optionally dropping duplicate ids with a
// Translator.
package otgraph
