// Copyright 2015-2017 Piprate Limited
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package canon

// Quad is an RDF quad: (subject, predicate, object, graph). Graph is nil for
// the default graph.
type Quad struct {
	Subject   Node
	Predicate Node
	Object    Node
	Graph     Node
}

// NewQuad creates a new Quad. graph == nil places the quad in the default
// graph.
func NewQuad(subject, predicate, object, graph Node) *Quad {
	return &Quad{Subject: subject, Predicate: predicate, Object: object, Graph: graph}
}

// Equal returns true if this quad is equal to o as a 4-tuple.
func (q *Quad) Equal(o *Quad) bool {
	if o == nil {
		return false
	}
	if (q.Graph == nil) != (o.Graph == nil) {
		return false
	}
	if q.Graph != nil && !q.Graph.Equal(o.Graph) {
		return false
	}
	return q.Subject.Equal(o.Subject) && q.Predicate.Equal(o.Predicate) && q.Object.Equal(o.Object)
}

// Valid reports whether every populated position holds a non-nil node whose
// value is non-empty — the minimal check the core performs before trusting a
// term; anything deeper (IRI well-formedness, language-tag syntax) is the
// parser layer's job per spec §1/§7 (InvalidInput is for the parser layer to
// raise, not for the core to derive).
func (q *Quad) Valid() bool {
	if q.Subject == nil || q.Predicate == nil || q.Object == nil {
		return false
	}
	if !IsIRI(q.Predicate) {
		return false
	}
	for _, n := range []Node{q.Subject, q.Predicate, q.Object, q.Graph} {
		if n != nil && n.GetValue() == "" {
			return false
		}
	}
	return true
}

// Dataset is a deduplicated set of quads: the input materialization the
// core operates on (spec §1 — "the full dataset is materialized"). The zero
// value is an empty dataset.
type Dataset struct {
	quads []*Quad
}

// NewDataset creates an empty Dataset.
func NewDataset() *Dataset {
	return &Dataset{}
}

// AddQuad appends q to the dataset unless an equal quad is already present
// (spec §3 — "Duplicate quads are eliminated on entry").
func (ds *Dataset) AddQuad(q *Quad) {
	for _, existing := range ds.quads {
		if existing.Equal(q) {
			return
		}
	}
	ds.quads = append(ds.quads, q)
}

// Quads returns the deduplicated quads in insertion order.
func (ds *Dataset) Quads() []*Quad {
	return ds.quads
}

// Len returns the number of quads in the dataset.
func (ds *Dataset) Len() int {
	return len(ds.quads)
}
