package world

import (
	"errors"
	"testing"
)

func TestGrid_CoordToRegionIndex(t *testing.T) {
	g, err := NewGrid(DefaultBounds(), DefaultShiftBy)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}

	tests := []struct {
		name           string
		x, y           int32
		wantRX, wantRY int32
	}{
		{
			name:   "origin (0,0)",
			x:      0,
			y:      0,
			wantRX: 64,  // -(-131072 >> 11)
			wantRY: 128, // -(-262144 >> 11)
		},
		{
			name:   "min boundaries",
			x:      -131072,
			y:      -262144,
			wantRX: 0,
			wantRY: 0,
		},
		{
			name:   "max boundaries",
			x:      196608,
			y:      229376,
			wantRX: 160, // (196608 >> 11) + 64
			wantRY: 240, // (229376 >> 11) + 128
		},
		{
			name:   "Talking Island spawn (17000, 170000)",
			x:      17000,
			y:      170000,
			wantRX: 72,  // (17000 >> 11) + 64 = 8 + 64 = 72
			wantRY: 211, // (170000 >> 11) + 128 = 83 + 128 = 211
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rx, ry := g.CoordToRegionIndex(tt.x, tt.y)
			if rx != tt.wantRX || ry != tt.wantRY {
				t.Errorf("CoordToRegionIndex(%d, %d) = (%d, %d), want (%d, %d)",
					tt.x, tt.y, rx, ry, tt.wantRX, tt.wantRY)
			}
			if !g.IsValidRegionIndex(rx, ry) {
				t.Errorf("region (%d, %d) outside grid", rx, ry)
			}
		})
	}
}

func TestGrid_Size(t *testing.T) {
	g, err := NewGrid(DefaultBounds(), DefaultShiftBy)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}

	sx, sy := g.Size()
	if sx != 161 || sy != 241 {
		t.Errorf("Size() = (%d, %d), want (161, 241)", sx, sy)
	}
	if g.RegionSize() != 2048 {
		t.Errorf("RegionSize() = %d, want 2048", g.RegionSize())
	}
}

func TestGrid_ClampedRegionIndex(t *testing.T) {
	g, err := NewGrid(Bounds{MinX: 0, MinY: 0, MaxX: 4095, MaxY: 4095}, 10)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}

	rx, ry := g.ClampedRegionIndex(-50000, 90000)
	if rx != 0 || ry != 3 {
		t.Errorf("ClampedRegionIndex = (%d, %d), want (0, 3)", rx, ry)
	}
}

func TestGrid_IsValidRegionIndex(t *testing.T) {
	g, err := NewGrid(DefaultBounds(), DefaultShiftBy)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}

	tests := []struct {
		name   string
		rx, ry int32
		want   bool
	}{
		{"valid min", 0, 0, true},
		{"valid max", 160, 240, true},
		{"negative x", -1, 0, false},
		{"x past end", 161, 0, false},
		{"y past end", 0, 241, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.IsValidRegionIndex(tt.rx, tt.ry); got != tt.want {
				t.Errorf("IsValidRegionIndex(%d, %d) = %v, want %v", tt.rx, tt.ry, got, tt.want)
			}
		})
	}
}

func TestNewGrid_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		bounds Bounds
		shift  uint
	}{
		{"inverted x", Bounds{MinX: 10, MaxX: 0, MinY: 0, MaxY: 10}, 4},
		{"empty y", Bounds{MinX: 0, MaxX: 10, MinY: 5, MaxY: 5}, 4},
		{"zero shift", Bounds{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10}, 0},
		{"huge shift", Bounds{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10}, 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGrid(tt.bounds, tt.shift); !errors.Is(err, ErrInvalidBounds) {
				t.Errorf("NewGrid() error = %v, want ErrInvalidBounds", err)
			}
		})
	}
}
