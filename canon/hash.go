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
	"crypto/sha256"
	"crypto/sha512"
	hashPkg "hash"
)

// digest is the capability set a hash algorithm must provide: update with
// bytes, finalize to lowercase hex. Concrete algorithms are injected at call
// time per Options.HashAlgorithm (spec §2.3, §4.7).
type digest interface {
	hashPkg.Hash
}

func newDigest(algorithm string) (digest, error) {
	switch algorithm {
	case SHA256, "":
		return sha256.New(), nil
	case SHA384:
		return sha512.New384(), nil
	default:
		return nil, NewError(HashAlgorithmUnsupported, algorithm)
	}
}

const hexDigits = "0123456789abcdef"

// encodeHex returns the lowercase hex encoding of data, per spec §4.3's
// "digest abstraction returning lowercase hex".
func encodeHex(data []byte) string {
	buf := make([]byte, 0, len(data)*2)
	for _, b := range data {
		buf = append(buf, hexDigits[b>>4], hexDigits[b&0xf])
	}
	return string(buf)
}

// hashBytes runs b through a freshly created digest for algorithm and
// returns the lowercase hex result.
func hashBytes(algorithm string, b []byte) (string, error) {
	d, err := newDigest(algorithm)
	if err != nil {
		return "", err
	}
	d.Write(b)
	return encodeHex(d.Sum(nil)), nil
}
