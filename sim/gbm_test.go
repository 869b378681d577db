package sim

import "testing"

func TestSamplePathZeroStepsReturnsOnlyStart(t *testing.T) {
	g := NewGBM(100, 0, 0.2, 42)
	path := g.SamplePath(1.0, 0)
	if len(path) != 1 || path[0] != 100 {
		t.Fatalf("have: %+v, want: [100]", path)
	}
}

func TestSamplePathLengthMatchesSteps(t *testing.T) {
	g := NewGBM(100, 0.05, 0.2, 7)
	path := g.SamplePath(1.0, 10)
	if len(path) != 11 {
		t.Fatalf("have: %d, want: 11", len(path))
	}
	if path[0] != 100 {
		t.Fatalf("path[0]: have %v, want 100", path[0])
	}
	for _, s := range path {
		if s <= 0 {
			t.Fatalf("GBM path must stay positive, got %v", s)
		}
	}
}

func TestSampleTerminalBatchLength(t *testing.T) {
	g := NewGBM(100, 0.0, 0.3, 11)
	out := g.SampleTerminalBatch(50, 0.5)
	if len(out) != 50 {
		t.Fatalf("have: %d, want: 50", len(out))
	}
}
