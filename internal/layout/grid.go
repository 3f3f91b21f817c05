package layout

import "math"

// Rect is a placement in page units, origin at the top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// Grid returns the rows and columns used to hold n items on a w×h page.
// Tall pages get the extra rows, wide pages the extra columns.
func Grid(n int, w, h float64) (rows, cols int) {
	if n < 1 {
		return 0, 0
	}
	major := int(math.Ceil(math.Sqrt(float64(n))))
	minor := (n + major - 1) / major
	if h >= w {
		return major, minor
	}
	return minor, major
}

// Cell is the rectangle for item index out of n on a w×h page, inset by
// margin on every side and between cells. Items fill rows left to right.
func Cell(n, index int, w, h, margin float64) Rect {
	rows, cols := Grid(n, w, h)
	if rows == 0 || index < 0 || index >= n {
		return Rect{}
	}

	cw := (w - margin*float64(cols+1)) / float64(cols)
	ch := (h - margin*float64(rows+1)) / float64(rows)
	if cw < 0 {
		cw = 0
	}
	if ch < 0 {
		ch = 0
	}

	row, col := index/cols, index%cols
	return Rect{
		X: margin + float64(col)*(cw+margin),
		Y: margin + float64(row)*(ch+margin),
		W: cw,
		H: ch,
	}
}

// Split divides r into n equal horizontal bands, top to bottom.
func Split(r Rect, n int) []Rect {
	if n < 1 {
		return nil
	}
	bands := make([]Rect, n)
	bh := r.H / float64(n)
	for i := range bands {
		bands[i] = Rect{X: r.X, Y: r.Y + float64(i)*bh, W: r.W, H: bh}
	}
	return bands
}

// Fit scales an imgW×imgH image to fit inside r keeping its aspect ratio,
// centered.
func Fit(r Rect, imgW, imgH int) Rect {
	if imgW <= 0 || imgH <= 0 || r.W <= 0 || r.H <= 0 {
		return Rect{X: r.X, Y: r.Y}
	}
	scale := math.Min(r.W/float64(imgW), r.H/float64(imgH))
	w, h := float64(imgW)*scale, float64(imgH)*scale
	return Rect{
		X: r.X + (r.W-w)/2,
		Y: r.Y + (r.H-h)/2,
		W: w,
		H: h,
	}
}
