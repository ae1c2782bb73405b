package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormCDF(t *testing.T) {
	assert.Equal(t, 0.5, NormCDF(0))

	for _, x := range []float64{-5, -1, 0, 1, 5} {
		assert.InDelta(t, 1.0, NormCDF(x)+NormCDF(-x), 1e-9, "x=%v", x)
	}

	cases := []struct {
		x    float64
		want float64
	}{
		{1, 0.8413447460685429},
		{-1, 0.15865525393145707},
		{1.96, 0.9750021048517795},
		{-3, 0.0013498980316301},
		{0.234, 0.5925075106684191},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, NormCDF(c.x), 1e-9, "x=%v", c.x)
	}
}

func TestNormCDF_Monotonic(t *testing.T) {
	prev := 0.0
	for x := -10.0; x <= 10.0; x += 0.25 {
		v := NormCDF(x)
		assert.GreaterOrEqual(t, v, prev, "x=%v", x)
		assert.False(t, math.IsNaN(v))
		prev = v
	}
	assert.InDelta(t, 1.0, NormCDF(10), 1e-12)
	assert.InDelta(t, 0.0, NormCDF(-10), 1e-12)
}
