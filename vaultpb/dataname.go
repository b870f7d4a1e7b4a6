package vaultpb

// DataName is a tagged union over every domain key type a vault persona may
// be asked to operate on. Operations polymorphic in the variant are
// dispatched through a VariantTable, a static dispatch table indexed by
// Key.Tag, rather than through dynamic (interface-based) subtype
// polymorphism: this preserves exhaustiveness checking, per the
// visitor-dispatch re-architecture in spec.md §9.
type DataName struct {
	Key Key
}

// Variant reports the discriminator of this DataName.
func (d DataName) Variant() DataTag { return d.Key.Tag }

// FromName converts an inbound payload's name to a DataName. Every inbound
// payload must carry a name convertible to exactly one variant; FromName
// never fails for a well-formed Key.
func FromName(k Key) DataName { return DataName{Key: k} }

// VariantTable is a dispatch table mapping a DataTag to the handler
// instantiated for that variant. Callers populate one entry per DataTag
// they support; Dispatch reports an unregistered tag through its ok
// result rather than panicking.
type VariantTable[T any] map[DataTag]T

// Dispatch looks up the handler registered for name's variant. ok is false
// if the variant was never registered, which callers should treat as a
// parsing/validation error on the inbound message, not a panic.
func (t VariantTable[T]) Dispatch(name DataName) (handler T, ok bool) {
	handler, ok = t[name.Variant()]
	return handler, ok
}

// AllTags enumerates the closed set of DataTag variants known to this
// package, for exhaustiveness checks in tests and registration helpers.
func AllTags() []DataTag {
	return []DataTag{
		TagImmutableChunk,
		TagMutableData,
		TagDirectory,
		TagStructuredData,
		TagVersionedData,
	}
}
