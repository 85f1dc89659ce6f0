package elevenlabs

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobState is a generation job lifecycle state.
type JobState string

const (
	// JobPending means the job was created but not yet run.
	JobPending JobState = "pending"

	// JobSubmitted means a request is in flight.
	JobSubmitted JobState = "submitted"

	// JobRetrying means the job is backing off before another attempt.
	JobRetrying JobState = "retrying"

	// JobSucceeded means audio was produced.
	JobSucceeded JobState = "succeeded"

	// JobFailed means the job ended without a result.
	JobFailed JobState = "failed"
)

// Terminal reports whether the state ends the lifecycle.
func (s JobState) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// JobKind names the generation operation a job wraps.
type JobKind string

const (
	JobTTS         JobKind = "text_to_speech"
	JobConvert     JobKind = "speech_to_speech"
	JobSoundEffect JobKind = "sound_effect"
	JobMusic       JobKind = "music"
)

// GenerationRequest is implemented by the request types that produce
// audio and can run as jobs.
type GenerationRequest interface {
	jobKind() JobKind
	validate() error
	run(ctx context.Context, c *Client) (*Audio, error)
}

func (r *TTSRequest) jobKind() JobKind { return JobTTS }
func (r *TTSRequest) run(ctx context.Context, c *Client) (*Audio, error) {
	return c.TTS.Synthesize(ctx, r)
}

func (r *ConvertRequest) jobKind() JobKind { return JobConvert }
func (r *ConvertRequest) run(ctx context.Context, c *Client) (*Audio, error) {
	return c.Speech.Convert(ctx, r)
}

func (r *SoundEffectRequest) jobKind() JobKind { return JobSoundEffect }
func (r *SoundEffectRequest) run(ctx context.Context, c *Client) (*Audio, error) {
	return c.SoundEffects.Generate(ctx, r)
}

func (r *MusicRequest) jobKind() JobKind { return JobMusic }
func (r *MusicRequest) run(ctx context.Context, c *Client) (*Audio, error) {
	return c.Music.Compose(ctx, r)
}

// Transition records one job state change.
type Transition struct {
	From JobState  `json:"from"`
	To   JobState  `json:"to"`
	At   time.Time `json:"at"`
}

// Job tracks one generation request through its lifecycle:
// Pending, Submitted, a Retrying loop while the transport backs off,
// then Succeeded or Failed. A job runs once.
type Job struct {
	// ID is a unique job id, suitable for logs and history records.
	ID string

	// Kind names the wrapped operation.
	Kind JobKind

	client *Client
	req    GenerationRequest

	mu          sync.Mutex
	state       JobState
	attempts    int
	transitions []Transition
	result      *Audio
	err         error
}

// NewJob wraps a generation request in a lifecycle-tracked job.
func (c *Client) NewJob(req GenerationRequest) *Job {
	return &Job{
		ID:     uuid.NewString(),
		Kind:   req.jobKind(),
		client: c,
		req:    req,
		state:  JobPending,
	}
}

// Generate runs req as a job and returns its audio.
func (c *Client) Generate(ctx context.Context, req GenerationRequest) (*Audio, error) {
	return c.NewJob(req).Run(ctx)
}

// Run executes the job to completion and returns its audio.
//
// Validation failures fail the job before anything goes on the wire.
// Cancelling ctx fails the job with no partial result. Run returns an
// error if called on a job that already ran.
func (j *Job) Run(ctx context.Context) (*Audio, error) {
	j.mu.Lock()
	if j.state != JobPending {
		state := j.state
		j.mu.Unlock()
		return nil, fmt.Errorf("job %s already ran (state %s)", j.ID, state)
	}
	j.mu.Unlock()

	if err := j.req.validate(); err != nil {
		j.finish(JobFailed, nil, err)
		return nil, err
	}

	j.transition(JobSubmitted)
	audio, err := j.req.run(withRetryObserver(ctx, jobObserver{job: j}), j.client)
	if err != nil {
		j.finish(JobFailed, nil, err)
		return nil, err
	}
	j.finish(JobSucceeded, audio, nil)
	return audio, nil
}

// State returns the current lifecycle state.
func (j *Job) State() JobState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Attempts returns how many times the generation request went on the
// wire. It is 0 when validation failed before any transport call.
func (j *Job) Attempts() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.attempts
}

// Transitions returns the recorded state changes in order.
func (j *Job) Transitions() []Transition {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.transitions)
}

// Result returns the job outcome once it reaches a terminal state.
func (j *Job) Result() (*Audio, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}

func (j *Job) transition(to JobState) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.transitionLocked(to)
}

func (j *Job) transitionLocked(to JobState) {
	slog.Debug("elevenlabs: job state",
		"job", j.ID, "kind", j.Kind, "from", j.state, "to", to)
	j.transitions = append(j.transitions, Transition{From: j.state, To: to, At: time.Now()})
	j.state = to
}

func (j *Job) finish(to JobState, audio *Audio, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.transitionLocked(to)
	j.result = audio
	j.err = err
}

// jobObserver feeds transport attempt signals back into the job state
// machine. A job's run may issue several requests (voice resolution
// then generation); attempt 0 marks each fresh request, so the counter
// ends up reflecting the final generation call.
type jobObserver struct {
	job *Job
}

func (o jobObserver) AttemptStarted(attempt int) {
	j := o.job
	j.mu.Lock()
	defer j.mu.Unlock()
	j.attempts = attempt + 1
	if j.state == JobRetrying {
		j.transitionLocked(JobSubmitted)
	}
}

func (o jobObserver) RetryScheduled(attempt int, err error, pause time.Duration) {
	j := o.job
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state == JobSubmitted {
		j.transitionLocked(JobRetrying)
	}
}
