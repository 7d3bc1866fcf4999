// SPDX-License-Identifier: MIT
package analysis

// RelativeMaxima returns the indices of local maxima in data: points
// strictly greater than every neighbor within order positions on both
// sides. Comparisons past the ends are clipped to the boundary samples,
// which means the endpoints themselves never qualify. The minimum
// separation between reported peaks is therefore order samples.
func RelativeMaxima(data []float64, order int) []int {
	if order < 1 {
		order = 1
	}

	var peaks []int
	n := len(data)
	for i := 0; i < n; i++ {
		isPeak := true
		for k := 1; k <= order; k++ {
			left := i - k
			if left < 0 {
				left = 0
			}
			right := i + k
			if right > n-1 {
				right = n - 1
			}
			if left != i && data[i] <= data[left] {
				isPeak = false
				break
			}
			if right != i && data[i] <= data[right] {
				isPeak = false
				break
			}
		}
		// A point comparing only against itself (n == 1) is not a peak.
		if isPeak && n > 1 && i > 0 && i < n-1 {
			peaks = append(peaks, i)
		}
	}
	return peaks
}
