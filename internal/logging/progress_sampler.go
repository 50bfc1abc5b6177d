package logging

// ProgressSampler thins per-task progress into one log line per percentage
// bucket. The final task of a run always emits.
type ProgressSampler struct {
	bucketSize int
	lastBucket int
	lastTotal  int
}

// NewProgressSampler constructs a sampler that emits when completion crosses
// a bucket boundary (default 5%).
func NewProgressSampler(bucketSize int) *ProgressSampler {
	if bucketSize <= 0 || bucketSize > 100 {
		bucketSize = 5
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether done of total completed tasks is worth a log
// line. A change in total starts a new run.
func (s *ProgressSampler) ShouldLog(done, total int) bool {
	if s == nil {
		return true
	}
	if total <= 0 {
		return false
	}
	if total != s.lastTotal {
		s.lastTotal = total
		s.lastBucket = -1
	}
	done = min(max(done, 0), total)
	bucket := done * 100 / total / s.bucketSize
	if done == total {
		bucket = 100/s.bucketSize + 1
	}
	if bucket <= s.lastBucket {
		return false
	}
	s.lastBucket = bucket
	return true
}

// Reset clears the sampler state.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastBucket = -1
	s.lastTotal = 0
}
