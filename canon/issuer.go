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

import "fmt"

// idIssuer allocates fresh labels from a fixed prefix in deterministic
// (insertion) order (spec §4.2). Two instances exist per CA run: a single
// canonical issuer whose allocations flow into the final result, and
// transient temporary issuers forked for each HNDQ permutation trial.
type idIssuer struct {
	prefix        string
	counter       int
	existing      map[string]string
	existingOrder []string
}

// newIdIssuer creates an issuer that allocates labels prefix+"0",
// prefix+"1", ...
func newIdIssuer(prefix string) *idIssuer {
	return &idIssuer{
		prefix:   prefix,
		existing: make(map[string]string),
	}
}

// clone returns a deep copy, so that abandoned HNDQ trial branches cannot
// leak state into a sibling trial or the chosen branch (spec §5, §9).
func (ii *idIssuer) clone() *idIssuer {
	cp := &idIssuer{
		prefix:        ii.prefix,
		counter:       ii.counter,
		existing:      make(map[string]string, len(ii.existing)),
		existingOrder: make([]string, len(ii.existingOrder)),
	}
	copy(cp.existingOrder, ii.existingOrder)
	for k, v := range ii.existing {
		cp.existing[k] = v
	}
	return cp
}

// issue returns the label for bnid, allocating a fresh one if bnid has not
// been issued yet.
func (ii *idIssuer) issue(bnid string) string {
	if label, ok := ii.existing[bnid]; ok {
		return label
	}
	label := fmt.Sprintf("%s%d", ii.prefix, ii.counter)
	ii.counter++
	ii.existing[bnid] = label
	ii.existingOrder = append(ii.existingOrder, bnid)
	return label
}

// issued reports whether bnid already has a label.
func (ii *idIssuer) issued(bnid string) bool {
	_, ok := ii.existing[bnid]
	return ok
}

// label returns the previously issued label for bnid, or "" if none.
func (ii *idIssuer) label(bnid string) (string, bool) {
	l, ok := ii.existing[bnid]
	return l, ok
}

// toMap returns the issued-identifiers map (original id to label) as a
// plain Go map, which carries no order. The issuance order is kept in
// existingOrder and is also given by each label's counter suffix.
func (ii *idIssuer) toMap() map[string]string {
	m := make(map[string]string, len(ii.existing))
	for k, v := range ii.existing {
		m[k] = v
	}
	return m
}
