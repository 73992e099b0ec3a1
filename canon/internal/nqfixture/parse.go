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

// Package nqfixture parses plain N-Quads text into test fixtures. It is not
// a conformant N-Quads parser — no IRI validation, no PN_CHARS blank node
// grammar — just enough regex-based extraction to turn literal test-file
// text into quads, mirroring the shape of a production parser without its
// edge-case handling. Tests only; never imported by the canon package
// itself.
package nqfixture

import (
	"bufio"
	"fmt"
	"strings"

	"regexp"

	"github.com/zkp-ld/rdf-canon/canon"
)

const (
	wso = `[ \t]*`
	ws  = `[ \t]+`

	subjIRI   = `<(?P<subjIRI>[^>]*)>`
	subjBNode = `(?P<subjBNode>_:[A-Za-z0-9][A-Za-z0-9_.-]*)`
	predIRI   = `<(?P<predIRI>[^>]*)>`
	objIRI    = `<(?P<objIRI>[^>]*)>`
	objBNode  = `(?P<objBNode>_:[A-Za-z0-9][A-Za-z0-9_.-]*)`
	litValue  = `"(?P<litValue>[^"\\]*(?:\\.[^"\\]*)*)"`
	litDT     = `(?:\^\^<(?P<litDatatype>[^>]*)>)`
	litLang   = `(?:@(?P<litLang>[a-zA-Z]+(?:-[a-zA-Z0-9]+)*))`
	graphIRI  = `<(?P<graphIRI>[^>]*)>`
	graphBN   = `(?P<graphBNode>_:[A-Za-z0-9][A-Za-z0-9_.-]*)`
)

var lineRe = regexp.MustCompile(
	`^` + wso +
		`(?:` + subjIRI + `|` + subjBNode + `)` + ws +
		predIRI + ws +
		`(?:` + objIRI + `|` + objBNode + `|(?:` + litValue + `(?:` + litDT + `|` + litLang + `)?)` + `)` + wso +
		`(?:(?:` + graphIRI + `|` + graphBN + `)` + wso + `)?` +
		`\.` + wso + `$`,
)

var groupIndex = func() map[string]int {
	idx := make(map[string]int)
	for i, name := range lineRe.SubexpNames() {
		if name != "" {
			idx[name] = i
		}
	}
	return idx
}()

func group(m []string, name string) string {
	return m[groupIndex[name]]
}

// Parse turns N-Quads text into quads, one per non-blank line. Comment
// lines ("#...") and blank lines are skipped.
func Parse(text string) ([]*canon.Quad, error) {
	var quads []*canon.Quad
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("nqfixture: cannot parse line %q", line)
		}

		subj := termFromGroups(group(m, "subjIRI"), group(m, "subjBNode"), "", "", "")
		pred := canon.NewIRI(group(m, "predIRI"))
		obj := termFromGroups(group(m, "objIRI"), group(m, "objBNode"), group(m, "litValue"), group(m, "litDatatype"), group(m, "litLang"))

		var graph canon.Node
		if g := group(m, "graphIRI"); g != "" {
			graph = canon.NewIRI(g)
		} else if g := group(m, "graphBNode"); g != "" {
			graph = canon.NewBlankNode(strings.TrimPrefix(g, "_:"))
		}

		quads = append(quads, canon.NewQuad(subj, pred, obj, graph))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return quads, nil
}

func termFromGroups(iriVal, bnodeVal, litVal, litDatatype, litLang string) canon.Node {
	switch {
	case iriVal != "":
		return canon.NewIRI(iriVal)
	case bnodeVal != "":
		return canon.NewBlankNode(strings.TrimPrefix(bnodeVal, "_:"))
	default:
		datatype := litDatatype
		if litLang != "" {
			datatype = canon.RDFLangString
		}
		return canon.NewLiteral(unescape(litVal), datatype, litLang)
	}
}

func unescape(s string) string {
	r := strings.NewReplacer(
		`\"`, `"`,
		`\\`, `\`,
		`\n`, "\n",
		`\r`, "\r",
		`\t`, "\t",
	)
	return r.Replace(s)
}
