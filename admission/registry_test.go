package admission

import (
	"errors"
	"sync"
	"testing"
)

func TestTryAdmitRespectsLimit(t *testing.T) {
	r := NewRegistry()

	first, err := r.TryAdmit("conv-1", 2)
	if err != nil {
		t.Fatalf("first TryAdmit() error = %v", err)
	}
	if _, err := r.TryAdmit("conv-1", 2); err != nil {
		t.Fatalf("second TryAdmit() error = %v", err)
	}

	_, err = r.TryAdmit("conv-1", 2)
	var limitErr *ErrConcurrentJobs
	if !errors.As(err, &limitErr) {
		t.Fatalf("third TryAdmit() error = %v, want ErrConcurrentJobs", err)
	}
	if limitErr.Limit != 2 {
		t.Errorf("Limit = %d, want 2", limitErr.Limit)
	}
	// Rejection must not record a job.
	if got := r.ConversationPending("conv-1"); got != 2 {
		t.Errorf("ConversationPending = %d, want 2", got)
	}

	// Releasing one slot readmits.
	r.Release("conv-1", first)
	if _, err := r.TryAdmit("conv-1", 2); err != nil {
		t.Errorf("TryAdmit() after release error = %v", err)
	}
}

func TestTryAdmitZeroLimitIsUnbounded(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 50; i++ {
		if _, err := r.TryAdmit("conv-1", 0); err != nil {
			t.Fatalf("TryAdmit() #%d error = %v", i, err)
		}
	}
	if got := r.ConversationPending("conv-1"); got != 50 {
		t.Errorf("ConversationPending = %d, want 50", got)
	}
}

func TestLimitIsPerConversation(t *testing.T) {
	r := NewRegistry()

	if _, err := r.TryAdmit("conv-1", 1); err != nil {
		t.Fatalf("TryAdmit(conv-1) error = %v", err)
	}
	if _, err := r.TryAdmit("conv-2", 1); err != nil {
		t.Errorf("TryAdmit(conv-2) error = %v, other conversations must not block", err)
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	r := NewRegistry()

	id, err := r.TryAdmit("conv-1", 1)
	if err != nil {
		t.Fatalf("TryAdmit() error = %v", err)
	}

	r.Release("conv-1", id)
	r.Release("conv-1", id)                // duplicate release
	r.Release("conv-1", JobID("unknown"))  // unknown id
	r.Release("conv-none", JobID("other")) // unknown conversation

	if got := r.GlobalPending(); got != 0 {
		t.Errorf("GlobalPending = %d, want 0", got)
	}
	if got := r.ConversationPending("conv-1"); got != 0 {
		t.Errorf("ConversationPending = %d, want 0", got)
	}
}

func TestGlobalPendingCountsAllConversations(t *testing.T) {
	r := NewRegistry()

	if got := r.GlobalPending(); got != 0 {
		t.Fatalf("GlobalPending = %d on empty registry, want 0", got)
	}

	a, _ := r.TryAdmit("conv-1", 0)
	b, _ := r.TryAdmit("conv-2", 0)
	if got := r.GlobalPending(); got != 2 {
		t.Errorf("GlobalPending = %d, want 2", got)
	}

	r.Release("conv-1", a)
	r.Release("conv-2", b)
	if got := r.GlobalPending(); got != 0 {
		t.Errorf("GlobalPending after release = %d, want 0", got)
	}
}

func TestConcurrentAdmitAndRelease(t *testing.T) {
	r := NewRegistry()

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id, err := r.TryAdmit("conv-shared", 0)
				if err != nil {
					t.Errorf("TryAdmit() error = %v", err)
					return
				}
				r.Release("conv-shared", id)
			}
		}()
	}
	wg.Wait()

	if got := r.GlobalPending(); got != 0 {
		t.Errorf("GlobalPending = %d after all releases, want 0", got)
	}
}
