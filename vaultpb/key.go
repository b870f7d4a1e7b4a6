// Package vaultpb defines the wire-level data model shared by every vault
// persona: keys, data-name variants, account values, replicated actions and
// the message envelope that carries them between personas.
package vaultpb

import "bytes"

// IdentitySize is the width, in bytes, of a content identity (512 bits).
const IdentitySize = 64

// Identity is a 512-bit content identity. Keys are totally ordered by it.
type Identity [IdentitySize]byte

// Compare returns -1, 0 or 1 as id orders before, equal to, or after other.
func (id Identity) Compare(other Identity) int {
	return bytes.Compare(id[:], other[:])
}

func (id Identity) String() string {
	const hex = "0123456789abcdef"
	var buf [2 * 8]byte // Short-form: leading 8 bytes only, for logging.
	for i := 0; i < 8; i++ {
		buf[2*i] = hex[id[i]>>4]
		buf[2*i+1] = hex[id[i]&0xf]
	}
	return string(buf)
}

// DataTag partitions Keys by domain type. It is the discriminator of a
// DataName tagged union.
type DataTag int32

const (
	// TagImmutableChunk identifies a content-addressed, immutable chunk.
	TagImmutableChunk DataTag = iota
	// TagMutableData identifies a mutable, owner-authorised data block.
	TagMutableData
	// TagDirectory identifies a directory listing entry.
	TagDirectory
	// TagStructuredData identifies application-defined structured data.
	TagStructuredData
	// TagVersionedData identifies a key whose value is a version pointer,
	// serviced by the version handler persona.
	TagVersionedData
)

func (t DataTag) String() string {
	switch t {
	case TagImmutableChunk:
		return "ImmutableChunk"
	case TagMutableData:
		return "MutableData"
	case TagDirectory:
		return "Directory"
	case TagStructuredData:
		return "StructuredData"
	case TagVersionedData:
		return "VersionedData"
	default:
		return "UnknownTag"
	}
}

// Key is a (data-type-tag, content-identity) pair. Keys are totally ordered
// by Name, with Tag as a tie-break, so that a KeyedDb can maintain them in
// a single ordered map regardless of domain type.
type Key struct {
	Tag  DataTag
	Name Identity
}

// Compare orders k before, equal to, or after other.
func (k Key) Compare(other Key) int {
	if c := k.Name.Compare(other.Name); c != 0 {
		return c
	}
	if k.Tag < other.Tag {
		return -1
	} else if k.Tag > other.Tag {
		return 1
	}
	return 0
}

// Bytes renders Key as a sortable byte string, suitable as a KeyedDb
// on-disk ordered-map key.
func (k Key) Bytes() []byte {
	var b = make([]byte, IdentitySize+4)
	copy(b, k.Name[:])
	b[IdentitySize] = byte(k.Tag >> 24)
	b[IdentitySize+1] = byte(k.Tag >> 16)
	b[IdentitySize+2] = byte(k.Tag >> 8)
	b[IdentitySize+3] = byte(k.Tag)
	return b
}

// ParseKey inverts Bytes.
func ParseKey(b []byte) (k Key, ok bool) {
	if len(b) != IdentitySize+4 {
		return Key{}, false
	}
	copy(k.Name[:], b[:IdentitySize])
	k.Tag = DataTag(int32(b[IdentitySize])<<24 | int32(b[IdentitySize+1])<<16 |
		int32(b[IdentitySize+2])<<8 | int32(b[IdentitySize+3]))
	return k, true
}

func (k Key) String() string { return k.Tag.String() + "/" + k.Name.String() }

// NodeID identifies a vault process (a Pmid holder, or any other persona
// member) within a close group.
type NodeID Identity

func (n NodeID) String() string { return Identity(n).String() }

// Compare orders NodeID the same way Identity does.
func (n NodeID) Compare(other NodeID) int { return Identity(n).Compare(Identity(other)) }
