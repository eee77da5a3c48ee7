package cropper

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/menta2k/photocrop/pkg/geometry"
	"github.com/menta2k/photocrop/pkg/types"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestNewRegionDefaults(t *testing.T) {
	tests := []struct {
		name       string
		bounds     types.ImageBounds
		constraint AspectConstraint
		want       geometry.Rect
	}{
		{"square image square crop", types.ImageBounds{Width: 1000, Height: 1000}, Square.Constraint(), geometry.R(100, 100, 900, 900)},
		{"wide image free crop", types.ImageBounds{Width: 2000, Height: 1000}, Free, geometry.R(600, 100, 1400, 900)},
		{"widescreen", types.ImageBounds{Width: 1000, Height: 1000}, Fixed(16, 9), geometry.R(100, 275, 900, 725)},
		{"portrait on tall image", types.ImageBounds{Width: 1000, Height: 2000}, Portrait.Constraint(), geometry.R(200, 600, 800, 1400)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region := NewRegion(tt.bounds, tt.constraint)
			if diff := cmp.Diff(tt.want, region.CropRect(), approx); diff != "" {
				t.Errorf("unexpected default rect (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewRegionContained(t *testing.T) {
	constraints := []AspectConstraint{Free, Fixed(1, 1), Fixed(16, 9), Fixed(9, 16), Fixed(1, 5), Fixed(7.5, 2)}
	for _, w := range []int{1, 3, 25, 640, 1001, 4000} {
		for _, h := range []int{1, 7, 480, 999, 3000} {
			for _, c := range constraints {
				bounds := types.ImageBounds{Width: w, Height: h}
				region := NewRegion(bounds, c)
				if !region.CropRect().In(region.ImageRect()) {
					t.Errorf("%v %v: default rect %v escapes image", bounds, c, region.CropRect())
				}
				if c.IsFixed() {
					got := region.CropRect().Width() / region.CropRect().Height()
					if math.Abs(got-c.Ratio()) > 1e-9 {
						t.Errorf("%v %v: expected ratio %f, got %f", bounds, c, c.Ratio(), got)
					}
				}
			}
		}
	}
}

func TestNewRegionPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"zero width", func() { NewRegion(types.ImageBounds{Width: 0, Height: 10}, Free) }},
		{"negative height", func() { NewRegion(types.ImageBounds{Width: 10, Height: -1}, Free) }},
		{"zero aspect term", func() { NewRegion(types.ImageBounds{Width: 10, Height: 10}, AspectConstraint{X: 1}) }},
		{"negative aspect term", func() { NewRegion(types.ImageBounds{Width: 10, Height: 10}, AspectConstraint{X: -1, Y: 2}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("Expected a panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestHitTest(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 1000, Height: 1000}, Free)

	tests := []struct {
		name string
		x, y float64
		want Edge
	}{
		{"left edge", 100, 500, EdgeLeft},
		{"left edge within tolerance", 85, 500, EdgeLeft},
		{"right edge", 905, 500, EdgeRight},
		{"top edge", 500, 100, EdgeTop},
		{"bottom edge", 500, 910, EdgeBottom},
		{"top left corner", 100, 100, EdgeLeft | EdgeTop},
		{"bottom right corner", 899, 899, EdgeRight | EdgeBottom},
		{"inside", 500, 500, Move},
		{"outside", 50, 500, EdgeNone},
		{"beyond edge span", 100, 50, EdgeNone},
		{"far away", 2000, 2000, EdgeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := region.HitTest(tt.x, tt.y); got != tt.want {
				t.Errorf("HitTest(%v, %v) = %v, expected %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestHitTestUsesTransform(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 1000, Height: 1000}, Free)
	region.SetTransform(geometry.Scale(0.5, 0.5).Then(geometry.Translate(10, 20)))

	if got := region.ScreenRect(); got != image.Rect(60, 70, 460, 470) {
		t.Fatalf("Expected screen rect (60,70)-(460,470), got %v", got)
	}
	if got := region.HitTest(60, 270); got != EdgeLeft {
		t.Errorf("Expected left edge, got %v", got)
	}
	if got := region.HitTest(100, 300); got != Move {
		// x=100 is the left edge in image space but not on screen.
		t.Errorf("Expected move, got %v", got)
	}
}

func TestSetTransformPanicsOnSingular(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 100, Height: 100}, Free)
	defer func() {
		if recover() == nil {
			t.Error("Expected a panic for a singular transform")
		}
	}()
	region.SetTransform(geometry.Scale(0, 1))
}

func TestMoveBy(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 1000, Height: 1000}, Free)
	region.SetTransform(geometry.Scale(2, 2))

	region.MoveBy(20, -40)
	if diff := cmp.Diff(geometry.R(110, 80, 910, 880), region.CropRect(), approx); diff != "" {
		t.Errorf("unexpected rect after move (-want +got):\n%s", diff)
	}

	region.MoveBy(-10000, 10000)
	if diff := cmp.Diff(geometry.R(0, 200, 800, 1000), region.CropRect(), approx); diff != "" {
		t.Errorf("unexpected rect after clamped move (-want +got):\n%s", diff)
	}
}

func TestMoveByStaysInside(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	region := NewRegion(types.ImageBounds{Width: 1200, Height: 800}, Fixed(3, 2))
	w, h := region.CropRect().Width(), region.CropRect().Height()

	for i := 0; i < 1000; i++ {
		region.MoveBy(rng.Float64()*2000-1000, rng.Float64()*2000-1000)
		rect := region.CropRect()
		if !rect.In(region.ImageRect()) {
			t.Fatalf("step %d: rect %v escapes image", i, rect)
		}
		if math.Abs(rect.Width()-w) > 1e-6 || math.Abs(rect.Height()-h) > 1e-6 {
			t.Fatalf("step %d: move changed size to %vx%v", i, rect.Width(), rect.Height())
		}
	}
}

func TestHandleMotionStaysInside(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	constraints := []AspectConstraint{Free, Square.Constraint(), Fixed(3, 2), Fixed(16, 9), Fixed(9, 16)}
	edges := []Edge{
		EdgeLeft, EdgeRight, EdgeTop, EdgeBottom,
		EdgeLeft | EdgeTop, EdgeRight | EdgeBottom, EdgeLeft | EdgeBottom, EdgeRight | EdgeTop,
		Move,
	}

	for session := 0; session < 200; session++ {
		bounds := types.ImageBounds{Width: 50 + rng.Intn(3000), Height: 50 + rng.Intn(3000)}
		region := NewRegion(bounds, constraints[rng.Intn(len(constraints))])

		for step := 0; step < 200; step++ {
			scale := 50.0
			if rng.Intn(4) == 0 {
				scale = 5000
			}
			region.HandleMotion(edges[rng.Intn(len(edges))], (rng.Float64()*2-1)*scale, (rng.Float64()*2-1)*scale)

			rect := region.CropRect()
			if !rect.In(region.ImageRect()) {
				t.Fatalf("bounds %dx%d step %d: rect %v escapes image", bounds.Width, bounds.Height, step, rect)
			}

			restored := *region
			if err := restored.SetCropRect(rect); err != nil {
				t.Fatalf("bounds %dx%d step %d: SetCropRect(CropRect()) = %v", bounds.Width, bounds.Height, step, err)
			}
			if diff := cmp.Diff(rect, restored.CropRect(), cmpopts.EquateApprox(0, 1e-6)); diff != "" {
				t.Fatalf("bounds %dx%d step %d: restored rect differs (-want +got):\n%s", bounds.Width, bounds.Height, step, diff)
			}
		}
	}
}

func TestGrowToFullImageStaysInside(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 2082, Height: 1888}, Fixed(3, 2))
	for i := 0; i < 50; i++ {
		region.HandleMotion(EdgeRight|EdgeBottom, 1000, 1000)
	}

	rect := region.CropRect()
	if !rect.In(region.ImageRect()) {
		t.Fatalf("rect %v escapes image %v", rect, region.ImageRect())
	}
	if math.Abs(rect.Width()-2082) > 1e-6 {
		t.Errorf("width = %v, want the full image width", rect.Width())
	}
	if err := region.SetCropRect(rect); err != nil {
		t.Errorf("SetCropRect(CropRect()) = %v", err)
	}
}

func TestSetCropRectClampsFloatError(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 100, Height: 100}, Free)
	if err := region.SetCropRect(geometry.R(-1e-12, 0, 100+1e-12, 50)); err != nil {
		t.Fatalf("SetCropRect failed: %v", err)
	}
	if got := region.CropRect(); got != geometry.R(0, 0, 100, 50) {
		t.Errorf("Expected (0,0)-(100,50), got %v", got)
	}
}

func TestGrowByCapsGrowth(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 1000, Height: 1000}, Free)

	region.GrowBy(500, 0)
	if diff := cmp.Diff(geometry.R(0, 100, 1000, 900), region.CropRect(), approx); diff != "" {
		t.Errorf("unexpected rect after capped grow (-want +got):\n%s", diff)
	}
}

func TestGrowByFloor(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 1000, Height: 1000}, Free)

	for i := 0; i < 10; i++ {
		region.GrowBy(-1000, -1000)
		if diff := cmp.Diff(geometry.R(487.5, 487.5, 512.5, 512.5), region.CropRect(), approx); diff != "" {
			t.Fatalf("step %d: unexpected rect (-want +got):\n%s", i, diff)
		}
	}
}

func TestGrowByFloorFixed(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 1000, Height: 1000}, Fixed(2, 1))

	region.GrowBy(-10000, 0)
	rect := region.CropRect()
	if math.Abs(rect.Width()-MinCropSize) > 1e-9 {
		t.Errorf("Expected width %v, got %v", MinCropSize, rect.Width())
	}
	if math.Abs(rect.Height()-MinCropSize/2) > 1e-9 {
		t.Errorf("Expected height %v, got %v", MinCropSize/2, rect.Height())
	}
}

func TestGrowByKeepsFixedRatio(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, c := range []AspectConstraint{Fixed(1, 1), Fixed(16, 9), Fixed(9, 16), Fixed(4, 5)} {
		region := NewRegion(types.ImageBounds{Width: 1600, Height: 900}, c)
		want := c.Ratio()

		for i := 0; i < 500; i++ {
			dx, dy := 0.0, 0.0
			switch i % 3 {
			case 0:
				dx = rng.Float64()*400 - 200
			case 1:
				dy = rng.Float64()*400 - 200
			default:
				dx, dy = rng.Float64()*400-200, rng.Float64()*400-200
			}
			region.GrowBy(dx, dy)

			rect := region.CropRect()
			if got := rect.Width() / rect.Height(); math.Abs(got-want) > 1e-6 {
				t.Fatalf("%v step %d: ratio drifted to %f", c, i, got)
			}
			if !rect.In(region.ImageRect()) {
				t.Fatalf("%v step %d: rect %v escapes image", c, i, rect)
			}
			if rect.Width() < MinCropSize-1e-9 {
				t.Fatalf("%v step %d: width %v below floor", c, i, rect.Width())
			}
		}
	}
}

func TestZeroDeltaIsIdempotent(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 640, Height: 480}, Fixed(16, 9))
	before := region.CropRect()

	region.MoveBy(0, 0)
	region.GrowBy(0, 0)
	region.HandleMotion(EdgeLeft|EdgeTop, 0, 0)

	if region.CropRect() != before {
		t.Errorf("Expected %v to be unchanged, got %v", before, region.CropRect())
	}
}

func TestSmallRegionIsNotForcedToFloor(t *testing.T) {
	// 4/5 of 100 is 80; a 1:5 box is then 16 wide, already under the floor.
	region := NewRegion(types.ImageBounds{Width: 1000, Height: 100}, Fixed(1, 5))
	before := region.CropRect()

	region.GrowBy(0, 0)
	if region.CropRect() != before {
		t.Errorf("Expected %v to be unchanged, got %v", before, region.CropRect())
	}
	region.GrowBy(-5, 0)
	if diff := cmp.Diff(before, region.CropRect(), approx); diff != "" {
		t.Errorf("shrink below an undersized rect (-want +got):\n%s", diff)
	}
}

func TestHandleMotion(t *testing.T) {
	tests := []struct {
		name   string
		edge   Edge
		dx, dy float64
		want   geometry.Rect
	}{
		{"drag left edge outward", EdgeLeft, -10, 0, geometry.R(590, 100, 1410, 900)},
		{"drag right edge inward", EdgeRight, -10, 0, geometry.R(610, 100, 1390, 900)},
		{"drag top edge ignores dx", EdgeTop, 50, -10, geometry.R(600, 90, 1400, 910)},
		{"drag bottom right corner", EdgeRight | EdgeBottom, 10, 20, geometry.R(590, 80, 1410, 920)},
		{"move", Move, 15, -5, geometry.R(615, 95, 1415, 895)},
		{"none", EdgeNone, 15, -5, geometry.R(600, 100, 1400, 900)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region := NewRegion(types.ImageBounds{Width: 2000, Height: 1000}, Free)
			region.HandleMotion(tt.edge, tt.dx, tt.dy)
			if diff := cmp.Diff(tt.want, region.CropRect(), approx); diff != "" {
				t.Errorf("unexpected rect (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHandleMotionScalesToImageSpace(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 2000, Height: 1000}, Free)
	region.SetTransform(geometry.Scale(0.25, 0.25))

	region.HandleMotion(EdgeLeft, -10, 0)
	if diff := cmp.Diff(geometry.R(560, 100, 1440, 900), region.CropRect(), approx); diff != "" {
		t.Errorf("unexpected rect (-want +got):\n%s", diff)
	}
}

func TestNormalizedAndScaled(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 2000, Height: 1000}, Free)

	want := types.Box{X: 0.3, Y: 0.1, W: 0.4, H: 0.8}
	if diff := cmp.Diff(want, region.Normalized(), approx); diff != "" {
		t.Errorf("unexpected normalized box (-want +got):\n%s", diff)
	}
	if got := region.ScaledCropRect(0.5); got != image.Rect(300, 50, 700, 450) {
		t.Errorf("Expected (300,50)-(700,450), got %v", got)
	}
}

func TestSetCropRect(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 1000, Height: 1000}, Free)
	if err := region.SetCropRect(geometry.R(10, 20, 310, 220)); err != nil {
		t.Fatalf("SetCropRect failed: %v", err)
	}
	if got := region.CropRect(); got != geometry.R(10, 20, 310, 220) {
		t.Errorf("Expected rect to be stored, got %v", got)
	}

	if err := region.SetCropRect(geometry.R(900, 900, 1100, 1000)); err == nil {
		t.Error("Expected error for a rect outside the image")
	}

	square := NewRegion(types.ImageBounds{Width: 1000, Height: 1000}, Square.Constraint())
	if err := square.SetCropRect(geometry.R(100, 100, 300, 500)); err != nil {
		t.Fatalf("SetCropRect failed: %v", err)
	}
	if diff := cmp.Diff(geometry.R(100, 200, 300, 400), square.CropRect(), approx); diff != "" {
		t.Errorf("fixed aspect not applied (-want +got):\n%s", diff)
	}
}

func TestFocus(t *testing.T) {
	region := NewRegion(types.ImageBounds{Width: 10, Height: 10}, Free)
	if region.Focused() {
		t.Error("Expected a new region to be unfocused")
	}
	region.SetFocus(true)
	if !region.Focused() {
		t.Error("Expected region to be focused")
	}
}
