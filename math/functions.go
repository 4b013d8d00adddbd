// SPDX-License-Identifier: GPL-2.0-or-later

package math

import (
	"github.com/chewxy/math32"
)

// Lerp returns a + frac*(b-a)
func Lerp(a, b, frac float32) float32 {
	return a + frac*(b-a)
}

// Finite reports whether x is neither NaN nor an infinity
func Finite(x float32) bool {
	return !math32.IsNaN(x) && !math32.IsInf(x, 0)
}
