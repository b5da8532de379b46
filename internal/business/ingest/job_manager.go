package ingest

import (
	"context"
	"sync"
)

// JobManager manages cancel functions for queued and running upload jobs.
// It allows external cancellation of jobs by their upload ID.
type JobManager struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewJobManager creates a new JobManager instance.
func NewJobManager() *JobManager {
	return &JobManager{
		cancels: make(map[string]context.CancelFunc),
	}
}

// Register stores a cancel function for a job.
func (jm *JobManager) Register(uploadID string, cancel context.CancelFunc) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.cancels[uploadID] = cancel
}

// Cancel invokes the cancel function for a job if it exists.
// Returns true if the job was found and cancelled.
func (jm *JobManager) Cancel(uploadID string) bool {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	if cancel, ok := jm.cancels[uploadID]; ok {
		cancel()
		delete(jm.cancels, uploadID)
		return true
	}
	return false
}

// CancelAll cancels every registered job and returns how many there were.
func (jm *JobManager) CancelAll() int {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	n := len(jm.cancels)
	for id, cancel := range jm.cancels {
		cancel()
		delete(jm.cancels, id)
	}
	return n
}

// Unregister removes a job's cancel function once the job has finished.
func (jm *JobManager) Unregister(uploadID string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	delete(jm.cancels, uploadID)
}
