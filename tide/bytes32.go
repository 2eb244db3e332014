// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tide

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Bytes32 array of 32 bytes, used for record keys.
type Bytes32 [32]byte

// String implements stringer.
func (b Bytes32) String() string {
	return "0x" + hex.EncodeToString(b[:])
}

// Bytes returns byte slice form of Bytes32.
func (b Bytes32) Bytes() []byte {
	return b[:]
}

// IsZero returns if Bytes32 has all zero bytes.
func (b Bytes32) IsZero() bool {
	return b == Bytes32{}
}

// ParseBytes32 convert string presented into Bytes32 type.
func ParseBytes32(s string) (Bytes32, error) {
	if len(s) == 32*2 {
	} else if len(s) == 32*2+2 {
		if strings.ToLower(s[:2]) != "0x" {
			return Bytes32{}, errors.New("invalid prefix")
		}
		s = s[2:]
	} else {
		return Bytes32{}, errors.New("invalid length")
	}

	var b Bytes32
	if _, err := hex.Decode(b[:], []byte(s)); err != nil {
		return Bytes32{}, err
	}
	return b, nil
}

// BytesToBytes32 converts bytes slice into Bytes32.
// If b is larger than 32 bytes, b will be cropped (from the left).
// If b is smaller, b will be extended (from the left).
func BytesToBytes32(b []byte) Bytes32 {
	var b32 Bytes32
	if len(b) > len(b32) {
		b = b[len(b)-len(b32):]
	}
	copy(b32[len(b32)-len(b):], b)
	return b32
}

// Keccak computes the keccak256 hash of the concatenation of data.
func Keccak(data ...[]byte) Bytes32 {
	return Bytes32(crypto.Keccak256Hash(data...))
}
