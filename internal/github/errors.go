package github

import "fmt"

// UpstreamError describes a failed issue-list request.
type UpstreamError struct {
	Repo       string
	StatusCode int  // set when the API answered with a client or server error
	Timeout    bool // set when the request deadline elapsed
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("github: fetch issues for %s: timed out: %v", e.Repo, e.Err)
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("github: fetch issues for %s: unexpected status %d: %v", e.Repo, e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("github: fetch issues for %s: unexpected status %d", e.Repo, e.StatusCode)
	default:
		return fmt.Sprintf("github: fetch issues for %s: %v", e.Repo, e.Err)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
