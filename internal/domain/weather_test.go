package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompassFrom(t *testing.T) {
	tests := map[int]string{
		0:   "N",
		11:  "N",
		12:  "NNE",
		45:  "NE",
		90:  "E",
		135: "SE",
		180: "S",
		202: "SSW",
		270: "W",
		348: "NNW",
		349: "N",
		360: "N",
		-90: "W",
		720: "N",
	}
	for deg, want := range tests {
		assert.Equal(t, want, CompassFrom(deg), "deg %d", deg)
	}
}
