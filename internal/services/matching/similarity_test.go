package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	t.Run("identical strings", func(t *testing.T) {
		assert.Equal(t, 1.0, Ratio("factura 12345", "factura 12345"))
	})

	t.Run("both empty", func(t *testing.T) {
		assert.Equal(t, 1.0, Ratio("", ""))
	})

	t.Run("one empty", func(t *testing.T) {
		assert.Equal(t, 0.0, Ratio("algo", ""))
		assert.Equal(t, 0.0, Ratio("", "algo"))
	})

	t.Run("no overlap", func(t *testing.T) {
		assert.Equal(t, 0.0, Ratio("abc", "xyz"))
	})

	t.Run("partial overlap", func(t *testing.T) {
		// longest block "bcd" of length 3, 2*3/(4+4)
		assert.InDelta(t, 0.75, Ratio("abcd", "bcde"), 1e-9)
	})

	t.Run("symmetric enough for ordering", func(t *testing.T) {
		a, b := "pago factura electronica 8001", "pago fact electronica 8001"
		assert.Greater(t, Ratio(a, b), 0.8)
	})

	t.Run("multibyte runes", func(t *testing.T) {
		assert.Equal(t, 1.0, Ratio("año", "año"))
		assert.Greater(t, Ratio("compañía de energía", "compania de energia"), 0.5)
	})
}
