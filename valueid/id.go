// Package valueid implements ValueId: the 64-bit tagged word that is the
// atomic unit of every IdTable cell. Grounded on the original source's
// global/Id.h bit-packing scheme (4-bit datatype tag plus a 60-bit payload)
// as referenced throughout JoinAlgorithms.h and AddCombinedRowToTable.h;
// the exact mantissa-truncation tradeoff for Double is an Open Question
// decision recorded in DESIGN.md.
package valueid

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Kind tags the payload of a ValueId.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindInt
	KindDouble
	KindVocabIndex
	KindTextIndex
	KindLocalVocabIndex
	KindDate
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "Undefined"
	case KindInt:
		return "Int"
	case KindDouble:
		return "Double"
	case KindVocabIndex:
		return "VocabIndex"
	case KindTextIndex:
		return "TextIndex"
	case KindLocalVocabIndex:
		return "LocalVocabIndex"
	case KindDate:
		return "Date"
	case KindBool:
		return "Bool"
	default:
		return "Unknown"
	}
}

const (
	kindBits    = 4
	payloadBits = 64 - kindBits
	kindShift   = payloadBits
	payloadMask = (uint64(1) << payloadBits) - 1
	signBit     = uint64(1) << (payloadBits - 1)
)

// Id is a 64-bit tagged value: the top kindBits bits hold the Kind, the
// remaining payloadBits hold the payload. Id is comparable with == and has
// value semantics: bitwise equality defines ID equality, and every UNDEF
// value (regardless of which operation produced it) compares equal to
// every other UNDEF value.
type Id uint64

// Undefined is the distinguished UNDEF value. KindUndefined is tag 0 with a
// zero payload, so Undefined is also the zero value of Id -- a freshly
// zero-initialized column (e.g. after Resize) is therefore all-UNDEF, which
// is the convenient default for OPTIONAL/MINUS result columns.
var Undefined Id = makeKind(KindUndefined, 0)

func makeKind(kind Kind, payload uint64) Id {
	return Id(uint64(kind)<<kindShift | (payload & payloadMask))
}

func (id Id) Kind() Kind {
	return Kind(uint64(id) >> kindShift)
}

func (id Id) payload() uint64 {
	return uint64(id) & payloadMask
}

// IsUndefined is a constant-time predicate.
func (id Id) IsUndefined() bool {
	return id.Kind() == KindUndefined
}

// MakeInt packs a signed integer. Values outside +/-2^58 are out of range
// for this packing and are clamped to the representable extremes; callers
// needing the full int64 range should use the Double kind instead (the
// original source's Id.h has the same 60-bit-minus-tag limitation for its
// integer subtype).
func MakeInt(v int64) Id {
	const limit = int64(1) << (payloadBits - 2)
	if v > limit-1 {
		v = limit - 1
	}
	if v < -limit {
		v = -limit
	}
	return makeKind(KindInt, uint64(v)&payloadMask)
}

// Int unpacks an integer ValueId, sign-extending the payload.
func (id Id) Int() int64 {
	p := id.payload()
	if p&signBit != 0 {
		p |= ^payloadMask
	}
	return int64(p)
}

// MakeDouble packs a float64. Order-preserving monotonic transform (flip
// the sign bit for positive numbers, flip all bits for negative numbers, a
// standard float<->uint order-preserving trick) followed by truncation of
// the low kindBits mantissa bits to fit the payload. This loses at most
// kindBits bits of mantissa precision -- acceptable for join-key comparison
// and display, and matches the original source's willingness to shrink
// Double's payload to fit alongside the datatype tag.
func MakeDouble(v float64) Id {
	bits := math.Float64bits(v)
	var ordered uint64
	if bits&(1<<63) != 0 {
		ordered = ^bits
	} else {
		ordered = bits | (1 << 63)
	}
	return makeKind(KindDouble, ordered>>kindBits)
}

// Double unpacks a Double ValueId back into an (approximate) float64. The
// kindBits low mantissa bits dropped by MakeDouble come back as zero bits,
// for negative and positive values alike, so a value whose low mantissa
// bits are zero (such as 3.5 or -1) round-trips exactly.
func (id Id) Double() float64 {
	ordered := id.payload() << kindBits
	var bits uint64
	if ordered&(1<<63) != 0 {
		bits = ordered &^ (1 << 63)
	} else {
		bits = ^(ordered | (1<<kindBits - 1))
	}
	return math.Float64frombits(bits)
}

// MakeBool packs a boolean.
func MakeBool(v bool) Id {
	if v {
		return makeKind(KindBool, 1)
	}
	return makeKind(KindBool, 0)
}

// Bool unpacks a Bool ValueId.
func (id Id) Bool() bool {
	return id.payload() != 0
}

// MakeVocabIndex packs an index into the global dictionary.
func MakeVocabIndex(idx uint64) Id { return makeKind(KindVocabIndex, idx) }

// VocabIndex unpacks a vocabulary index.
func (id Id) VocabIndex() uint64 { return id.payload() }

// MakeTextIndex packs an index into the text index.
func MakeTextIndex(idx uint64) Id { return makeKind(KindTextIndex, idx) }

// TextIndex unpacks a text index.
func (id Id) TextIndex() uint64 { return id.payload() }

// MakeLocalVocabIndex packs an index into a LocalVocab (see package
// localvocab). The index is only meaningful together with the LocalVocab it
// was produced by.
func MakeLocalVocabIndex(idx uint64) Id { return makeKind(KindLocalVocabIndex, idx) }

// LocalVocabIndex unpacks a local-vocab index.
func (id Id) LocalVocabIndex() uint64 { return id.payload() }

// MakeDate packs a date, represented as a signed day count since the Unix
// epoch (the original source uses a bespoke DateYearOrDuration encoding;
// days-since-epoch is a faithful simplification that preserves a total
// order over dates).
func MakeDate(daysSinceEpoch int64) Id {
	return makeKind(KindDate, uint64(daysSinceEpoch)&payloadMask)
}

// Date unpacks a date ValueId as days since the Unix epoch.
func (id Id) Date() int64 {
	p := id.payload()
	if p&signBit != 0 {
		p |= ^payloadMask
	}
	return int64(p)
}

// Less defines the total order over ValueId used for sorting join columns.
// Ordering is first by Kind, then by payload, mirroring the original
// source's "group by datatype, then compare payload" ordering so that e.g.
// all Ints sort together and all Doubles sort together. Undefined sorts
// lowest, matching the convention that the smallest element in a sorted
// join column is UNDEF (the zipper join's scan for compatible smaller rows
// relies on this).
func Less(a, b Id) bool {
	ka, kb := a.Kind(), b.Kind()
	if ka != kb {
		return ka < kb
	}
	switch ka {
	case KindInt:
		return a.Int() < b.Int()
	case KindDouble:
		return a.Double() < b.Double()
	case KindDate:
		return a.Date() < b.Date()
	default:
		return a.payload() < b.payload()
	}
}

// Compatible reports whether a and b are compatible under SPARQL OPTIONAL
// semantics: equal, or at least one of them is UNDEF.
func Compatible(a, b Id) bool {
	return a == b || a.IsUndefined() || b.IsUndefined()
}

// Defined returns the non-UNDEF value of a compatible pair: the result
// takes the defined value column-wise when exactly one side is UNDEF.
// Callers must ensure Compatible(a, b) holds; if both are defined (and
// hence equal), either may be returned.
func Defined(a, b Id) Id {
	if a.IsUndefined() {
		return b
	}
	return a
}

func (id Id) String() string {
	switch id.Kind() {
	case KindUndefined:
		return "UNDEF"
	case KindInt:
		return fmt.Sprintf("%d", id.Int())
	case KindDouble:
		return formatDouble(id.Double())
	case KindBool:
		return fmt.Sprintf("%t", id.Bool())
	case KindVocabIndex:
		return fmt.Sprintf("V:%d", id.VocabIndex())
	case KindTextIndex:
		return fmt.Sprintf("T:%d", id.TextIndex())
	case KindLocalVocabIndex:
		return fmt.Sprintf("L:%d", id.LocalVocabIndex())
	case KindDate:
		return fmt.Sprintf("D:%d", id.Date())
	default:
		return fmt.Sprintf("Id(%d,%d)", id.Kind(), id.payload())
	}
}

// formatDouble renders a Double's payload the way a SPARQL result
// serializer would: a fixed-point decimal with no scientific notation and
// no trailing zeros, using shopspring/decimal rather than fmt's "%g" (which
// switches to scientific notation past a magnitude threshold). NaN and the
// infinities have no decimal representation and fall back to "%g".
func formatDouble(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("%g", v)
	}
	return decimal.NewFromFloat(v).String()
}
