package ptp

import "testing"

func TestServoLockSequence(t *testing.T) {
	t.Parallel()
	s := NewServo()

	samples := []float64{50_000_000, 20_000_000, 5_000_000, 500_000} // ns: 50ms,20ms,5ms,500us
	wantStates := []ServoState{Stepping, Stepping, Stepping, Locked}

	for i, d := range samples {
		s.Sample(d)
		if s.State() != wantStates[i] {
			t.Fatalf("sample %d: state = %v, want %v", i, s.State(), wantStates[i])
		}
	}
}

func TestServoFirstSampleAlwaysSteps(t *testing.T) {
	t.Parallel()
	s := NewServo()
	correction := s.Sample(100) // tiny drift, but first sample
	if s.State() != Stepping {
		t.Fatalf("state = %v, want Stepping on first sample", s.State())
	}
	if correction != 100 {
		t.Fatalf("correction = %v, want 100 (raw step)", correction)
	}
}

func TestServoIntegralClamped(t *testing.T) {
	t.Parallel()
	s := NewServo()
	s.Sample(1_000_000) // establish Stepping baseline
	for i := 0; i < 1000; i++ {
		s.Sample(50_000_000) // large repeated drift, within step threshold
	}
	clamp := 10 * s.StepThresholdNs
	if s.integral > clamp || s.integral < -clamp {
		t.Fatalf("integral = %v, want within +/-%v", s.integral, clamp)
	}
}
