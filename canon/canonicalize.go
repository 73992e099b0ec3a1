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

import (
	"regexp"
	"sort"

	"github.com/go-logr/logr"
)

var positions = [3]string{"s", "o", "g"}

// canonicalPrefixPattern matches the shape the canonical issuer itself
// allocates (spec §4.2's "prefix + next-counter", default prefix "c14n").
// An input blank node already using this shape would be indistinguishable
// from one the issuer assigns once relabeling runs (spec §7
// BlankNodeIdCollisionWithCanonicalPrefix, spec §9 "blank-node identifier
// hygiene").
var canonicalPrefixPattern = regexp.MustCompile(`^c14n\d+$`)

// engine carries the state of one canonicalization run: the materialized
// quads, the blank-node-to-quads index, the H1DQ cache, the canonical
// issuer, and the HNDQ call counter. One engine is created per CA call and
// discarded at the end of it (spec §3 "Lifecycle").
type engine struct {
	opts *Options
	log  logr.Logger

	quads []*Quad
	b2q   map[string][]*Quad

	h1dqCache map[string]string

	canonicalIssuer *idIssuer
	hndqCalls       int
}

func newEngine(quads []*Quad, opts *Options) *engine {
	opts = opts.withDefaults()
	e := &engine{
		opts:            opts,
		log:             opts.Logger,
		quads:           quads,
		b2q:             make(map[string][]*Quad),
		h1dqCache:       make(map[string]string),
		canonicalIssuer: newIdIssuer("c14n"),
	}
	e.buildB2Q()
	return e
}

// buildB2Q populates the blank-node-to-quads index (spec §3 "B2Q").
func (e *engine) buildB2Q() {
	for _, q := range e.quads {
		for _, n := range []Node{q.Subject, q.Object, q.Graph} {
			if n == nil {
				continue
			}
			if bn, ok := n.(*BlankNode); ok {
				e.b2q[bn.Attribute] = append(e.b2q[bn.Attribute], q)
			}
		}
	}
}

// hashFirstDegreeQuads implements H1DQ (spec §4.3): a fingerprint of bnid
// derived solely from its own quads, with bnid substituted by "_:a" and
// every other blank node by "_:z", invariant under permutation of bnid's
// neighbors.
func (e *engine) hashFirstDegreeQuads(bnid string) (string, error) {
	if h, ok := e.h1dqCache[bnid]; ok {
		return h, nil
	}

	subst := func(id string) string {
		if id == bnid {
			return "a"
		}
		return "z"
	}

	lines := make([]string, len(e.b2q[bnid]))
	for i, q := range e.b2q[bnid] {
		lines[i] = serializeQuad(q, subst)
	}
	sort.Strings(lines)

	var joined []byte
	for _, line := range lines {
		joined = append(joined, line...)
	}

	h, err := hashBytes(e.opts.HashAlgorithm, joined)
	if err != nil {
		return "", err
	}
	e.h1dqCache[bnid] = h
	e.log.V(2).Info("hash first degree quads", "bnid", bnid, "hash", h)
	return h, nil
}

// hashRelatedBlankNode implements HRBN (spec §4.4): a position-tagged
// fingerprint linking related to the quad it shares with the blank node
// currently being processed.
func (e *engine) hashRelatedBlankNode(related string, quad *Quad, issuer *idIssuer, position string) (string, error) {
	var id string
	if label, ok := e.canonicalIssuer.label(related); ok {
		id = label
	} else if label, ok := issuer.label(related); ok {
		id = label
	} else {
		h, err := e.hashFirstDegreeQuads(related)
		if err != nil {
			return "", err
		}
		id = h
	}

	data := position
	if position != "g" {
		data += "<" + quad.Predicate.GetValue() + ">"
	}
	data += id

	return hashBytes(e.opts.HashAlgorithm, []byte(data))
}

// relatedBuckets groups the blank nodes related to id (every other blank
// node sharing one of id's quads) by their HRBN hash, per spec §4.5 step 1.
// Each bucket is deduplicated and returned in ascending BnId order, ready
// for permutation.
func (e *engine) relatedBuckets(id string, issuer *idIssuer) (map[string][]string, error) {
	buckets := make(map[string][]string)
	seen := make(map[string]map[string]bool)

	for _, q := range e.b2q[id] {
		nodes := [3]Node{q.Subject, q.Object, q.Graph}
		for i, n := range nodes {
			bn, ok := n.(*BlankNode)
			if !ok || bn.Attribute == id {
				continue
			}
			related := bn.Attribute
			hash, err := e.hashRelatedBlankNode(related, q, issuer, positions[i])
			if err != nil {
				return nil, err
			}
			if seen[hash] == nil {
				seen[hash] = make(map[string]bool)
			}
			if seen[hash][related] {
				continue
			}
			seen[hash][related] = true
			buckets[hash] = append(buckets[hash], related)
		}
	}

	for _, bucket := range buckets {
		sort.Strings(bucket)
	}
	return buckets, nil
}

// hashNDegreeQuads implements HNDQ (spec §4.5): the recursive permutation
// search that resolves blank nodes sharing a first-degree hash. It returns
// a copy of issuer extended with labels for every blank node reachable from
// id, in a deterministic order (issuer itself is left unchanged), and a
// hash invariant under any order-consistent relabeling of that reachable
// set.
func (e *engine) hashNDegreeQuads(id string, issuer *idIssuer) (string, *idIssuer, error) {
	buckets, err := e.relatedBuckets(id, issuer)
	if err != nil {
		return "", nil, err
	}

	hashes := make([]string, 0, len(buckets))
	for h := range buckets {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	var dataToHash []byte
	for _, hash := range hashes {
		dataToHash = append(dataToHash, hash...)

		var chosenPath string
		var chosenIssuer *idIssuer
		var haveChosen bool

		permutation := append([]string(nil), buckets[hash]...)
		sort.Strings(permutation)

		for {
			e.hndqCalls++
			if e.opts.HndqCallLimit != Unlimited && e.hndqCalls > e.opts.HndqCallLimit {
				return "", nil, NewError(HndqCallLimitExceeded, e.opts.HndqCallLimit)
			}

			issuerCopy := issuer.clone()
			path := ""
			var recursionList []string
			skip := false

			for _, related := range permutation {
				if label, ok := e.canonicalIssuer.label(related); ok {
					path += "_:" + label
				} else {
					if !issuerCopy.issued(related) {
						recursionList = append(recursionList, related)
					}
					path += "_:" + issuerCopy.issue(related)
				}
				if haveChosen && len(path) >= len(chosenPath) && path > chosenPath {
					skip = true
					break
				}
			}

			if !skip {
				for _, related := range recursionList {
					resultHash, updatedIssuer, err := e.hashNDegreeQuads(related, issuerCopy)
					if err != nil {
						return "", nil, err
					}
					issuerCopy = updatedIssuer
					path += "_:" + issuerCopy.issue(related) + "<" + resultHash + ">"
					if haveChosen && len(path) >= len(chosenPath) && path > chosenPath {
						skip = true
						break
					}
				}
			}

			if !skip && (!haveChosen || path < chosenPath) {
				chosenPath = path
				chosenIssuer = issuerCopy
				haveChosen = true
			}

			if !nextPermutation(permutation) {
				break
			}
		}

		dataToHash = append(dataToHash, chosenPath...)
		issuer = chosenIssuer
	}

	h, err := hashBytes(e.opts.HashAlgorithm, dataToHash)
	if err != nil {
		return "", nil, err
	}
	e.log.V(2).Info("hash n-degree quads", "bnid", id, "hash", h, "hndqCalls", e.hndqCalls)
	return h, issuer, nil
}

// nextPermutation advances a to the lexicographically next permutation of
// its elements, in place, and reports whether one existed. Starting from a
// sorted slice and repeatedly calling nextPermutation visits every
// permutation in ascending lexicographic order without ever materializing
// more than one at a time — required so the HNDQ call limit bounds actual
// work rather than just the work done after an up-front factorial
// enumeration (spec §4.5 "Ordering rules", §9 poison-dataset guarantee).
func nextPermutation(a []string) bool {
	n := len(a)
	i := n - 2
	for i >= 0 && a[i] >= a[i+1] {
		i--
	}
	if i < 0 {
		return false
	}
	j := n - 1
	for a[j] <= a[i] {
		j--
	}
	a[i], a[j] = a[j], a[i]
	for l, r := i+1, n-1; l < r; l, r = l+1, r-1 {
		a[l], a[r] = a[r], a[l]
	}
	return true
}

// run executes the six-step CA driver (spec §4.6) and returns the
// populated canonical issuer.
func (e *engine) run() (*idIssuer, error) {
	e.log.V(1).Info("canonicalization started", "quads", len(e.quads))

	// Step 1: B2Q was built in newEngine. Reject any input blank node whose
	// identifier already has the canonical issuer's shape, per spec §7 —
	// simpler and safer than the alternative (internal fresh-prefix
	// shadowing) spec §9 also allows.
	for bnid := range e.b2q {
		if canonicalPrefixPattern.MatchString(bnid) {
			return nil, NewError(BlankNodeIdCollisionWithCanonicalPrefix, bnid)
		}
	}

	// Step 2: first-degree hash every blank node, populate H2B.
	h2b := make(map[string][]string)
	for bnid := range e.b2q {
		h, err := e.hashFirstDegreeQuads(bnid)
		if err != nil {
			return nil, err
		}
		h2b[h] = append(h2b[h], bnid)
	}

	hashes := make([]string, 0, len(h2b))
	for h := range h2b {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	// Step 3: unique-hash buckets issue immediately.
	var collisions []string
	for _, hash := range hashes {
		bucket := h2b[hash]
		if len(bucket) == 1 {
			e.canonicalIssuer.issue(bucket[0])
		} else {
			collisions = append(collisions, hash)
		}
	}
	e.log.V(1).Info("first degree hashing complete", "unique", len(e.b2q)-sumLens(h2b, collisions), "collisions", len(collisions))

	// Step 4: collision buckets resolved via HNDQ.
	for _, hash := range collisions {
		bucket := append([]string(nil), h2b[hash]...)
		sort.Strings(bucket)

		type record struct {
			hash   string
			issuer *idIssuer
		}
		var records []record

		for _, bnid := range bucket {
			if e.canonicalIssuer.issued(bnid) {
				continue
			}
			tmp := newIdIssuer("b")
			tmp.issue(bnid)

			e.log.V(1).Info("hndq entry", "bnid", bnid)
			resultHash, updated, err := e.hashNDegreeQuads(bnid, tmp)
			if err != nil {
				return nil, err
			}
			e.log.V(1).Info("hndq exit", "bnid", bnid, "hash", resultHash)
			records = append(records, record{hash: resultHash, issuer: updated})
		}

		sort.Slice(records, func(i, j int) bool { return records[i].hash < records[j].hash })

		for _, rec := range records {
			for _, bnid := range rec.issuer.existingOrder {
				if !e.canonicalIssuer.issued(bnid) {
					e.canonicalIssuer.issue(bnid)
				}
			}
		}
	}

	e.log.V(1).Info("canonicalization complete", "labels", len(e.canonicalIssuer.existing))

	return e.canonicalIssuer, nil
}

func sumLens(h2b map[string][]string, exclude []string) int {
	excluded := make(map[string]bool, len(exclude))
	for _, h := range exclude {
		excluded[h] = true
	}
	n := 0
	for h, bucket := range h2b {
		if !excluded[h] {
			n += len(bucket)
		}
	}
	return n
}

// relabel returns a copy of quads with every blank node replaced by its
// canonical label, per spec §4.6 step 5.
func relabel(quads []*Quad, issuer *idIssuer) []*Quad {
	subst := func(bnid string) string {
		if label, ok := issuer.label(bnid); ok {
			return label
		}
		return bnid
	}
	out := make([]*Quad, len(quads))
	for i, q := range quads {
		out[i] = &Quad{
			Subject:   relabelNode(q.Subject, subst),
			Predicate: q.Predicate,
			Object:    relabelNode(q.Object, subst),
			Graph:     relabelNode(q.Graph, subst),
		}
	}
	return out
}

func relabelNode(n Node, subst Substitution) Node {
	bn, ok := n.(*BlankNode)
	if !ok {
		return n
	}
	return &BlankNode{Attribute: subst(bn.Attribute)}
}

// Canonicalize runs the CA driver over dataset and returns its canonical
// N-Quads serialization (spec §6 "canonicalize").
func Canonicalize(dataset *Dataset, options *Options) (string, error) {
	e := newEngine(dataset.Quads(), options)
	issuer, err := e.run()
	if err != nil {
		return "", err
	}
	return SerializeDataset(relabel(e.quads, issuer), nil), nil
}

// CanonicalizeGraph treats graph as the default graph of a singleton
// dataset and returns canonical N-Triples: the same serializer, with every
// quad's graph position left at the default graph (spec §6
// "canonicalize_graph").
func CanonicalizeGraph(graph []*Quad, options *Options) (string, error) {
	triples := make([]*Quad, len(graph))
	for i, q := range graph {
		triples[i] = &Quad{Subject: q.Subject, Predicate: q.Predicate, Object: q.Object}
	}
	ds := NewDataset()
	for _, q := range triples {
		ds.AddQuad(q)
	}
	return Canonicalize(ds, options)
}

// Issue runs the CA driver over dataset and returns only the
// issued-identifiers map: original blank node identifier to canonical
// label (spec §6 "issue").
func Issue(dataset *Dataset, options *Options) (map[string]string, error) {
	e := newEngine(dataset.Quads(), options)
	issuer, err := e.run()
	if err != nil {
		return nil, err
	}
	return issuer.toMap(), nil
}

// Serialize applies the canonical N-Quads serializer (spec §4.1) to a
// dataset whose blank nodes already carry their final labels — e.g. the
// result of relabeling a dataset with an Issue map. It performs no
// canonicalization of its own.
func Serialize(datasetWithCanonicalLabels []*Quad) string {
	return SerializeDataset(datasetWithCanonicalLabels, nil)
}
