package hash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the dump serialization format.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones breaks
// every cached unit keyed by an earlier hash.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing cache keys.
const HashVersion byte = 2

// Value tags. Each tag identifies one kind of dump field in the serialized
// byte stream.
const (
	TagReservedZero byte = 0x00 // version prefix / reserved

	TagList   byte = 0x01
	TagSymbol byte = 0x02
	TagString byte = 0x03
	TagInt    byte = 0x04
	TagBool   byte = 0x05
	TagNil    byte = 0x06

	// Reserved 0x07-0x0F

	// Cache key framing
	TagSignature byte = 0x10
	TagKind      byte = 0x11
	TagName      byte = 0x12
	TagFile      byte = 0x13
	TagLines     byte = 0x14
)

// allTags lists every assigned tag, for uniqueness checks in tests.
var allTags = []byte{
	TagList, TagSymbol, TagString, TagInt, TagBool, TagNil,
	TagSignature, TagKind, TagName, TagFile, TagLines,
}
