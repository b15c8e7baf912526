package strat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMirrorYIdentityForRed(t *testing.T) {
	for y := 0.0; y <= TableWidth; y += 50 {
		assert.Equal(t, y, MirrorY(y, ColorRed))
	}
}

func TestMirrorYInvolutionForBlue(t *testing.T) {
	for y := 0.0; y <= TableWidth; y += 50 {
		assert.Equal(t, y, MirrorY(MirrorY(y, ColorBlue), ColorBlue))
	}
}

func TestMirrorYBlueGiftTarget(t *testing.T) {
	// The calibrated start line at 2000-213 maps onto 213 for blue.
	assert.Equal(t, 213.0, MirrorY(1787, ColorBlue))
}

func TestMirrorAngle(t *testing.T) {
	assert.Equal(t, 90.0, MirrorAngle(90, ColorRed))
	assert.Equal(t, -90.0, MirrorAngle(90, ColorBlue))
	for _, a := range []float64{-180, -90, -0.5, 0, 0.5, 90, 180} {
		assert.Equal(t, a, MirrorAngle(MirrorAngle(a, ColorBlue), ColorBlue))
	}
}

func TestMirrorPoint(t *testing.T) {
	p := Point{X: 600, Y: 213}
	assert.Equal(t, p, MirrorPoint(p, ColorRed))
	assert.Equal(t, Point{X: 600, Y: 1787}, MirrorPoint(p, ColorBlue))
}
