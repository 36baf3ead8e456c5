package valueid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUndefinedIsZeroValue(t *testing.T) {
	var id Id
	require.True(t, id.IsUndefined())
	require.Equal(t, Undefined, id)
}

func TestIntRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 12345, -12345, 1 << 40, -(1 << 40)} {
		id := MakeInt(v)
		require.False(t, id.IsUndefined())
		require.Equal(t, v, id.Int())
	}
}

func TestDoubleRoundTripApprox(t *testing.T) {
	for _, v := range []float64{0, 1.5, -1.5, 3.14159, -3.14159, 1e10, -1e10} {
		id := MakeDouble(v)
		require.InDelta(t, v, id.Double(), 1e-6)
	}
}

func TestDoubleOrdering(t *testing.T) {
	a := MakeDouble(-5.0)
	b := MakeDouble(0.0)
	c := MakeDouble(5.0)
	require.True(t, Less(a, b))
	require.True(t, Less(b, c))
	require.True(t, Less(a, c))
}

func TestDoubleStringUsesFixedPointNotation(t *testing.T) {
	require.Equal(t, "3.5", MakeDouble(3.5).String())
	require.Equal(t, "-1", MakeDouble(-1.0).String())
}

func TestDoubleStringFallsBackForNonFinite(t *testing.T) {
	require.Equal(t, "NaN", MakeDouble(math.NaN()).String())
	require.Equal(t, "+Inf", MakeDouble(math.Inf(1)).String())
}

func TestBoolRoundTrip(t *testing.T) {
	require.True(t, MakeBool(true).Bool())
	require.False(t, MakeBool(false).Bool())
}

func TestCompatible(t *testing.T) {
	five := MakeInt(5)
	six := MakeInt(6)
	require.True(t, Compatible(five, five))
	require.True(t, Compatible(Undefined, five))
	require.True(t, Compatible(five, Undefined))
	require.True(t, Compatible(Undefined, Undefined))
	require.False(t, Compatible(five, six))
}

func TestDefined(t *testing.T) {
	five := MakeInt(5)
	require.Equal(t, five, Defined(Undefined, five))
	require.Equal(t, five, Defined(five, Undefined))
	require.Equal(t, five, Defined(five, five))
}

func TestKindOrderingGroupsByKind(t *testing.T) {
	require.True(t, Less(Undefined, MakeInt(-1000000)))
	require.True(t, Less(MakeInt(1000000), MakeDouble(-1000000)))
}
