package instagram

import (
	"context"
	"fmt"
	"time"

	"crosspost/domain/model"
)

type containerState int

const (
	statePending containerState = iota
	stateFinished
	stateErrored
	stateTimeout
)

func (s containerState) String() string {
	switch s {
	case stateFinished:
		return "finished"
	case stateErrored:
		return "errored"
	case stateTimeout:
		return "timeout"
	default:
		return "pending"
	}
}

// stateOf maps a container status_code onto the poll state machine
func stateOf(statusCode string) containerState {
	switch statusCode {
	case "FINISHED", "PUBLISHED":
		return stateFinished
	case "ERROR", "EXPIRED":
		return stateErrored
	default:
		return statePending
	}
}

type containerStatus struct {
	ID         string `json:"id"`
	StatusCode string `json:"status_code"`
	Status     string `json:"status"`
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// awaitContainer polls at most pollAttempts times, waiting pollInterval before each poll.
// Only stateFinished lets the caller go on to media_publish.
func (c *Client) awaitContainer(ctx context.Context, containerID, accessToken string) (containerState, error) {
	var last containerStatus
	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		if err := c.sleep(ctx, c.pollInterval); err != nil {
			return statePending, err
		}
		last = containerStatus{}
		err := c.graph.Get(ctx, containerID, fieldsParams{Fields: "status_code,status", AccessToken: accessToken}, &last)
		if err != nil {
			return statePending, err
		}
		switch state := stateOf(last.StatusCode); state {
		case stateFinished:
			return state, nil
		case stateErrored:
			msg := last.Status
			if msg == "" {
				msg = last.StatusCode
			}
			return state, model.NewPlatformAPIError(model.ProviderInstagram, 0, fmt.Sprintf("container %s: %s", containerID, msg), nil)
		}
	}
	return stateTimeout, model.NewPlatformAPIError(model.ProviderInstagram, 0, stateTimeout.String(), nil)
}
