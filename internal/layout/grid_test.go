package layout

import (
	"math"
	"testing"
)

func TestGrid(t *testing.T) {
	tests := []struct {
		n          int
		w, h       float64
		rows, cols int
	}{
		{1, 595, 842, 1, 1},
		{2, 595, 842, 2, 1},
		{2, 842, 595, 1, 2},
		{3, 595, 842, 2, 2},
		{4, 595, 842, 2, 2},
		{6, 595, 842, 3, 2},
		{6, 842, 595, 2, 3},
		{0, 595, 842, 0, 0},
	}

	for _, tt := range tests {
		rows, cols := Grid(tt.n, tt.w, tt.h)
		if rows != tt.rows || cols != tt.cols {
			t.Errorf("Grid(%d, %v, %v) = %dx%d, want %dx%d", tt.n, tt.w, tt.h, rows, cols, tt.rows, tt.cols)
		}
	}
}

func TestCell_TwoOnPortrait(t *testing.T) {
	top := Cell(2, 0, 600, 800, 10)
	bottom := Cell(2, 1, 600, 800, 10)

	if top != (Rect{X: 10, Y: 10, W: 580, H: 385}) {
		t.Errorf("Cell(2, 0) = %+v", top)
	}
	if bottom != (Rect{X: 10, Y: 405, W: 580, H: 385}) {
		t.Errorf("Cell(2, 1) = %+v", bottom)
	}
}

func TestCell_Deterministic(t *testing.T) {
	for i := 0; i < 4; i++ {
		if Cell(4, i, 595, 842, 12) != Cell(4, i, 595, 842, 12) {
			t.Fatalf("Cell(4, %d) not deterministic", i)
		}
	}
	if (Cell(4, 4, 595, 842, 12) != Rect{}) {
		t.Error("Cell() out of range should be empty")
	}
}

func TestFit_PreservesAspectRatio(t *testing.T) {
	r := Rect{X: 0, Y: 0, W: 100, H: 100}

	got := Fit(r, 200, 100)
	if got != (Rect{X: 0, Y: 25, W: 100, H: 50}) {
		t.Errorf("Fit(wide) = %+v", got)
	}

	got = Fit(r, 50, 100)
	if got != (Rect{X: 25, Y: 0, W: 50, H: 100}) {
		t.Errorf("Fit(tall) = %+v", got)
	}

	got = Fit(Rect{X: 5, Y: 5, W: 300, H: 200}, 1500, 1000)
	if math.Abs(got.W/got.H-1.5) > 1e-9 {
		t.Errorf("Fit() ratio = %v, want 1.5", got.W/got.H)
	}
}

func TestSplit(t *testing.T) {
	bands := Split(Rect{X: 0, Y: 0, W: 100, H: 90}, 3)
	if len(bands) != 3 {
		t.Fatalf("Split() returned %d bands", len(bands))
	}
	for i, b := range bands {
		if b.Y != float64(i)*30 || b.H != 30 || b.W != 100 {
			t.Errorf("band %d = %+v", i, b)
		}
	}
}
