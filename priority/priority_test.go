package priority

import "testing"

func TestRoundTrip(t *testing.T) {
	for r := 0; r <= 255; r++ {
		p := FromRank(uint8(r))
		if int(p.Rank()) != r {
			t.Fatalf("FromRank(%d).Rank() = %d, want %d", r, p.Rank(), r)
		}
	}
}

func TestFromBandMapping(t *testing.T) {
	tests := []struct {
		band Band
		want Priority
	}{
		{BandUnimportant, Unimportant},
		{BandLow, Low},
		{BandMedium, Medium},
		{BandHigh, High},
		{BandCritical, Critical},
	}
	for _, tt := range tests {
		if got := FromBand(tt.band); got != tt.want {
			t.Errorf("FromBand(%v) = %d, want %d", tt.band, got, tt.want)
		}
		if band := tt.want.Band(); band != tt.band {
			t.Errorf("%v.Band() = %v, want %v", tt.want, band, tt.band)
		}
	}
}

func TestIncreaseSaturates(t *testing.T) {
	p := Critical
	next, changed := p.Increase()
	if changed {
		t.Errorf("Increase() on Critical changed = true, want false")
	}
	if next != Critical {
		t.Errorf("Increase() on Critical = %d, want unchanged", next)
	}

	// 250 sits just below Critical(255), the last band boundary: Increase()
	// still walks it up to Critical. 255 is uint8's max, so there is no rank
	// strictly above Critical left to exercise an "already saturated" case
	// distinct from the one above.
	p2 := Priority(250)
	next2, changed2 := p2.Increase()
	if !changed2 || next2 != Critical {
		t.Errorf("Increase() on 250 = (%d, %v), want (%d, true)", next2, changed2, Critical)
	}
}

func TestDecreaseSaturates(t *testing.T) {
	p := Unimportant
	next, changed := p.Decrease()
	if changed {
		t.Errorf("Decrease() on Unimportant changed = true, want false")
	}
	if next != Unimportant {
		t.Errorf("Decrease() on Unimportant = %d, want unchanged", next)
	}
}

func TestIncreaseDecreaseBands(t *testing.T) {
	next, changed := Low.Increase()
	if !changed || next != Medium {
		t.Errorf("Low.Increase() = (%d, %v), want (%d, true)", next, changed, Medium)
	}

	next, changed = Medium.Decrease()
	if !changed || next != Low {
		t.Errorf("Medium.Decrease() = (%d, %v), want (%d, true)", next, changed, Low)
	}

	// A custom rank increases to the next band boundary above it, not a fixed step.
	next, changed = Priority(100).Increase()
	if !changed || next != Medium {
		t.Errorf("Priority(100).Increase() = (%d, %v), want (%d, true)", next, changed, Medium)
	}

	next, changed = Priority(100).Decrease()
	if !changed || next != Low {
		t.Errorf("Priority(100).Decrease() = (%d, %v), want (%d, true)", next, changed, Low)
	}
}

func TestIncreaseThenDecreaseNeverExceedsOriginalBand(t *testing.T) {
	for _, p := range []Priority{Unimportant, Low, Medium, High, Critical} {
		up, _ := p.Increase()
		down, _ := up.Decrease()
		if down > p {
			t.Errorf("increase-then-decrease of %d landed above original at %d", p, down)
		}
	}
}
