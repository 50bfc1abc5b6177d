package logging

import "testing"

func TestNewProgressSamplerDefaults(t *testing.T) {
	for _, size := range []int{0, -3, 250} {
		if got := NewProgressSampler(size).bucketSize; got != 5 {
			t.Errorf("NewProgressSampler(%d).bucketSize = %d, want 5", size, got)
		}
	}
	if got := NewProgressSampler(10).bucketSize; got != 10 {
		t.Errorf("bucketSize = %d, want 10", got)
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(1, 2) {
		t.Error("nil sampler should always log")
	}
	s.Reset()
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(10)

	var logged []int
	for done := 1; done <= 200; done++ {
		if s.ShouldLog(done, 200) {
			logged = append(logged, done)
		}
	}
	want := []int{1, 20, 40, 60, 80, 100, 120, 140, 160, 180, 200}
	if len(logged) != len(want) {
		t.Fatalf("logged %v, want %v", logged, want)
	}
	for i := range want {
		if logged[i] != want[i] {
			t.Fatalf("logged %v, want %v", logged, want)
		}
	}
	if s.ShouldLog(200, 200) {
		t.Error("repeated completion should not log")
	}
}

func TestProgressSamplerCompletionAlwaysLogs(t *testing.T) {
	s := NewProgressSampler(50)
	var logged []int
	for done := 1; done <= 10; done++ {
		if s.ShouldLog(done, 10) {
			logged = append(logged, done)
		}
	}
	if len(logged) != 3 || logged[0] != 1 || logged[1] != 5 || logged[2] != 10 {
		t.Fatalf("logged %v, want [1 5 10]", logged)
	}
}

func TestProgressSamplerNewTotalRestarts(t *testing.T) {
	s := NewProgressSampler(10)
	if !s.ShouldLog(5, 5) {
		t.Fatal("completion should log")
	}
	if !s.ShouldLog(1, 40) {
		t.Error("a new total should restart bucketing")
	}
	s.Reset()
	if !s.ShouldLog(1, 40) {
		t.Error("reset should allow logging again")
	}
	if s.ShouldLog(0, 0) {
		t.Error("empty runs have nothing to report")
	}
}
