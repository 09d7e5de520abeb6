package bench

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Acathla-fr/MutCapTouch/internal/capture"
)

func released() capture.Outputs {
	return capture.Outputs{}
}

func drivenLow(lines int) capture.Outputs {
	return capture.Outputs{LinesOE: capture.FullMask(lines)}
}

func TestNetwork_ReleasedLinesCrossAfterDelay(t *testing.T) {
	n := NewNetwork(3)
	require.NoError(t, n.SetDelays([]int{0, 2, Never}))

	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, n.Sample(released()).Bits(3))
	}

	// Line 0 is the rightmost bit.
	assert.Equal(t, []string{"001", "001", "011", "011"}, got)
}

func TestNetwork_DrivenLinesResetCharge(t *testing.T) {
	n := NewNetwork(1)
	require.NoError(t, n.SetDelays([]int{1}))

	assert.Equal(t, capture.Mask(0), n.Sample(released()))
	assert.Equal(t, capture.MaskOf(0), n.Sample(released()))

	assert.Equal(t, capture.Mask(0), n.Sample(drivenLow(1)), "driven line follows driven level")
	assert.Equal(t, capture.Mask(0), n.Sample(released()), "charge restarts after release")
	assert.Equal(t, capture.MaskOf(0), n.Sample(released()))
}

func TestNetwork_DrivenHigh(t *testing.T) {
	n := NewNetwork(2)
	out := capture.Outputs{LinesOE: capture.MaskOf(0, 1), LinesO: capture.MaskOf(1)}
	assert.Equal(t, capture.MaskOf(1), n.Sample(out))
}

func TestNetwork_SetDelaysErrors(t *testing.T) {
	n := NewNetwork(2)

	err := n.SetDelays([]int{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 values for 2 lines")

	err = n.SetDelays([]int{1, -5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	assert.Equal(t, []int{Never, Never}, n.Delays(), "failed set leaves delays untouched")
}

func TestParseDelays(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []int
		wantErr bool
	}{
		{name: "plain", in: "3,7,10,9", want: []int{3, 7, 10, 9}},
		{name: "never dash", in: "3,7,-,9", want: []int{3, 7, Never, 9}},
		{name: "never word and spaces", in: " 1 , never ", want: []int{1, Never}},
		{name: "negative", in: "1,-2", wantErr: true},
		{name: "garbage", in: "1,x", wantErr: true},
		{name: "empty field", in: "1,,2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDelays(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDelays(t *testing.T) {
	assert.Equal(t, "3,7,-,9", FormatDelays([]int{3, 7, Never, 9}))

	round, err := ParseDelays(FormatDelays([]int{0, Never}))
	require.NoError(t, err)
	assert.Equal(t, []int{0, Never}, round)
}

func TestSynchronizer(t *testing.T) {
	t.Run("zero stages is a wire", func(t *testing.T) {
		s := NewSynchronizer(0)
		assert.Equal(t, capture.MaskOf(2), s.Shift(capture.MaskOf(2)))
	})

	t.Run("two stages delay by two", func(t *testing.T) {
		s := NewSynchronizer(2)
		in := []capture.Mask{capture.MaskOf(0), capture.MaskOf(1), 0, 0}
		var out []capture.Mask
		for _, m := range in {
			out = append(out, s.Shift(m))
		}
		assert.Equal(t, []capture.Mask{0, 0, capture.MaskOf(0), capture.MaskOf(1)}, out)
	})
}

func TestRandomDelays(t *testing.T) {
	a := RandomDelays(rand.New(rand.NewSource(42)), 16, 5, 20)
	b := RandomDelays(rand.New(rand.NewSource(42)), 16, 5, 20)

	require.Len(t, a, 16)
	assert.Equal(t, a, b, "same seed gives same delays")
	for i, d := range a {
		assert.GreaterOrEqual(t, d, 5, "line %d", i)
		assert.Less(t, d, 20, "line %d", i)
	}
}
