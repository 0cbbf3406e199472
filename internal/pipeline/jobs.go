package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a batch extraction job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusExtracting JobStatus = "extracting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// File is one uploaded document.
type File struct {
	Name string
	Data []byte
}

// Job tracks the state of one batch of uploaded documents.
type Job struct {
	mu sync.Mutex

	ID     string    `json:"job_id"`
	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`
	// Force disables content-hash deduplication.
	Force bool `json:"force"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	files    []File
	spellIDs []string
	errors   []string
}

// Progress tracks processing progress.
type Progress struct {
	FilesTotal     int      `json:"files_total"`
	FilesProcessed int      `json:"files_processed"`
	Extracted      int      `json:"extracted"`
	Skipped        int      `json:"skipped"`
	Duplicates     int      `json:"duplicates"`
	Errors         []string `json:"errors"`
}

// NewJob returns a queued job for files.
func NewJob(files []File, force bool) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Force:     force,
		Progress:  Progress{FilesTotal: len(files)},
		CreatedAt: now,
		UpdatedAt: now,
		files:     files,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.updatedAt()) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.UpdatedAt
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// AddExtracted records a stored spell.
func (j *Job) AddExtracted(spellID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.spellIDs = append(j.spellIDs, spellID)
	j.Progress.Extracted++
	j.Progress.FilesProcessed++
	j.UpdatedAt = time.Now()
}

// AddSkipped records a document that produced no spell.
func (j *Job) AddSkipped(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.Progress.Skipped++
	j.Progress.FilesProcessed++
	j.UpdatedAt = time.Now()
}

// AddDuplicate records a document whose content was already stored.
func (j *Job) AddDuplicate(spellID string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.spellIDs = append(j.spellIDs, spellID)
	j.Progress.Duplicates++
	j.Progress.FilesProcessed++
	j.UpdatedAt = time.Now()
}

// Files returns the uploaded documents.
func (j *Job) Files() []File {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.files
}

// releaseFiles drops the uploaded bytes once the job is done with them.
func (j *Job) releaseFiles() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.files = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Progress  Progress  `json:"progress"`
	SpellIDs  []string  `json:"spell_ids"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.Progress.Errors...)
	ids := append([]string{}, j.spellIDs...)
	p := j.Progress
	p.Errors = errs
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Phase:     j.Phase,
		Progress:  p,
		SpellIDs:  ids,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
