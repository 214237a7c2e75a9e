// Package admission enforces per-conversation and global concurrency
// ceilings before a generation request is dispatched.
//
// The Registry is the only shared mutable state in the pipeline. Every
// operation is one mutex-guarded set mutation, so an admitted job is visible
// in both the conversation set and the global set before the caller's
// network call begins.
package admission

import (
	"sync"

	"github.com/google/uuid"
)

// JobID is an opaque token identifying one in-flight generation request.
// It is used only as a set member; no ordering survives a restart.
type JobID string

// ErrConcurrentJobs reports that the conversation already has the maximum
// number of in-flight jobs. No job is recorded when this is returned.
type ErrConcurrentJobs struct {
	ConversationID string
	Limit          int
}

func (e *ErrConcurrentJobs) Error() string {
	return "admission: concurrency limit reached"
}

// LocaleKey returns the message key for the command boundary.
func (e *ErrConcurrentJobs) LocaleKey() string { return "concurrent-jobs" }

// Registry tracks in-flight job identifiers per conversation and globally.
//
// Invariant: a JobID present in the global set is also present in its
// conversation's set; both are removed under the same lock on release.
type Registry struct {
	mu             sync.Mutex
	perConversation map[string]map[JobID]struct{}
	global          map[JobID]struct{}
}

// NewRegistry creates an empty Registry. The registry lives for the
// daemon's lifetime and starts empty on every process start.
func NewRegistry() *Registry {
	return &Registry{
		perConversation: make(map[string]map[JobID]struct{}),
		global:          make(map[JobID]struct{}),
	}
}

// TryAdmit admits one job for the conversation.
//
// When maxConcurrent is zero or negative, concurrency is unbounded for the
// conversation. Otherwise the job is rejected with *ErrConcurrentJobs once
// the conversation's in-flight count has reached the limit.
//
// On success a fresh JobID is recorded in both sets and returned. The caller
// must arrange for Release to run on every exit path.
func (r *Registry) TryAdmit(conversationID string, maxConcurrent int) (JobID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs := r.perConversation[conversationID]
	if maxConcurrent > 0 && len(jobs) >= maxConcurrent {
		return "", &ErrConcurrentJobs{ConversationID: conversationID, Limit: maxConcurrent}
	}

	id := JobID(uuid.NewString())
	if jobs == nil {
		jobs = make(map[JobID]struct{})
		r.perConversation[conversationID] = jobs
	}
	jobs[id] = struct{}{}
	r.global[id] = struct{}{}
	return id, nil
}

// Release removes the job from both sets. It is idempotent: releasing an
// unknown or already-released id is a no-op.
func (r *Registry) Release(conversationID string, id JobID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if jobs, ok := r.perConversation[conversationID]; ok {
		delete(jobs, id)
		if len(jobs) == 0 {
			delete(r.perConversation, conversationID)
		}
	}
	delete(r.global, id)
}

// GlobalPending returns a snapshot of the global in-flight count. Callers
// reporting queue depth read this before admitting their own job, so the
// count excludes the request being admitted.
func (r *Registry) GlobalPending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.global)
}

// ConversationPending returns the in-flight count for one conversation.
func (r *Registry) ConversationPending(conversationID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.perConversation[conversationID])
}
