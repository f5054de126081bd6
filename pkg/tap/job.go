package tap

import (
	"context"
	stderrors "errors"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tmarkert/skyquery/pkg/errors"
	"github.com/tmarkert/skyquery/pkg/observability"
	"github.com/tmarkert/skyquery/pkg/voclient"
	"github.com/tmarkert/skyquery/pkg/votable"
)

// Job is a handle on an asynchronous TAP query. Jobs live on the service
// until deleted or reaped at their destruction time, so a handle can outlive
// the process that created it: persist [Job.ID] and reattach with
// [Client.ResumeJob].
type Job struct {
	// ID is the identifier the service assigned to this job.
	ID string
	// URL is the job's UWS resource.
	URL string

	client *Client
	phase  string
}

// errStillRunning signals the poll loop to keep waiting.
var errStillRunning = stderrors.New("job still running")

// LastPhase returns the most recently observed phase without contacting the
// service. Empty until the job has been polled at least once.
func (j *Job) LastPhase() string { return j.phase }

// Phase fetches the job's current lifecycle phase.
func (j *Job) Phase(ctx context.Context) (string, error) {
	data, err := j.client.vo.GetBytes(ctx, j.URL+"/phase", nil)
	if err != nil {
		return "", j.mapJobError(err)
	}
	phase := strings.ToUpper(strings.TrimSpace(string(data)))
	j.phase = phase
	return phase, nil
}

// Info fetches the full UWS job description.
func (j *Job) Info(ctx context.Context) (*Info, error) {
	data, err := j.client.vo.GetBytes(ctx, j.URL, nil)
	if err != nil {
		return nil, j.mapJobError(err)
	}
	info, err := parseJobInfo(data)
	if err != nil {
		return nil, err
	}
	j.phase = info.Phase
	return info, nil
}

// Wait polls the job phase at the client's poll interval until the job
// reaches a terminal phase, then resolves it: COMPLETED jobs yield their
// result table, ERROR jobs surface the service's error summary as a
// JOB_FAILED error, and ABORTED jobs report JOB_ABORTED. If the job is
// still running when the client's wait timeout expires, Wait returns a
// JOB_TIMEOUT error and leaves the job running on the service.
func (j *Job) Wait(ctx context.Context) (*votable.Result, error) {
	start := time.Now()
	res, err := j.wait(ctx)
	observability.Query().OnJobComplete(ctx, j.client.vo.Service(), j.ID, time.Since(start), err)
	return res, err
}

func (j *Job) wait(ctx context.Context) (*votable.Result, error) {
	waitCtx, cancel := context.WithTimeout(ctx, j.client.timeout)
	defer cancel()

	var phase string
	poll := func() error {
		p, err := j.Phase(waitCtx)
		if err != nil {
			return backoff.Permanent(err)
		}
		observability.Query().OnJobPhase(waitCtx, j.client.vo.Service(), j.ID, p)
		phase = p
		if TerminalPhase(p) {
			return nil
		}
		return errStillRunning
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(j.client.poll), waitCtx)
	if err := backoff.Retry(poll, b); err != nil {
		if stderrors.Is(err, errStillRunning) || stderrors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, errors.New(errors.ErrCodeJobTimeout,
				"job %s did not finish within %s", j.ID, j.client.timeout)
		}
		return nil, err
	}

	// Result and error fetches run on the caller's context: the wait
	// timeout may be nearly spent by the time the job completes.
	switch phase {
	case PhaseCompleted:
		return j.Result(ctx)
	case PhaseError:
		return nil, j.fetchError(ctx)
	case PhaseAborted:
		return nil, errors.New(errors.ErrCodeJobAborted, "job %s was aborted", j.ID)
	default:
		return nil, errors.New(errors.ErrCodeNotFound, "job %s was archived by the service", j.ID)
	}
}

// Result fetches the result table of a completed job.
func (j *Job) Result(ctx context.Context) (*votable.Result, error) {
	data, err := j.client.vo.GetBytes(ctx, j.URL+"/results/result", nil)
	if err != nil {
		return nil, j.mapJobError(err)
	}
	return j.client.parseResult(data)
}

// Abort asks the service to cancel the job. The job record remains, in
// phase ABORTED, until deleted.
func (j *Job) Abort(ctx context.Context) error {
	form := url.Values{}
	form.Set("PHASE", "ABORT")
	_, err := j.client.vo.PostForm(ctx, j.URL+"/phase", form)
	return j.mapJobError(err)
}

// Delete removes the job record from the service.
func (j *Job) Delete(ctx context.Context) error {
	form := url.Values{}
	form.Set("ACTION", "DELETE")
	_, err := j.client.vo.PostForm(ctx, j.URL, form)
	return j.mapJobError(err)
}

// fetchError retrieves the error document of a failed job and wraps it as a
// JOB_FAILED error.
func (j *Job) fetchError(ctx context.Context) error {
	return errors.Wrap(errors.ErrCodeJobFailed, j.errorDetail(ctx), "job %s failed", j.ID)
}

// errorDetail reads the job's error resource, which services serve either as
// plain text or as a VOTable or UWS document.
func (j *Job) errorDetail(ctx context.Context) error {
	service := j.client.vo.Service()
	data, err := j.client.vo.GetBytes(ctx, j.URL+"/error", nil)
	if err != nil {
		return &errors.ServiceError{Service: service, Message: "no error detail available"}
	}

	msg := strings.TrimSpace(string(data))
	if strings.HasPrefix(msg, "<") {
		msg = ""
		if _, perr := votable.ParseBytes(data); perr != nil {
			var svc *errors.ServiceError
			if stderrors.As(perr, &svc) {
				svc.Service = service
				return svc
			}
		}
		if info, uerr := parseJobInfo(data); uerr == nil && info.Error != nil {
			msg = strings.TrimSpace(info.Error.Message)
		}
	}
	if msg == "" {
		msg = "no error detail available"
	}
	return &errors.ServiceError{Service: service, Message: msg}
}

// mapJobError makes a 404 from any job resource explicit: the service has
// deleted the job, typically because its destruction time passed.
func (j *Job) mapJobError(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, voclient.ErrNotFound) {
		return errors.Wrap(errors.ErrCodeNotFound, err, "job %s no longer exists on the service", j.ID)
	}
	return err
}
