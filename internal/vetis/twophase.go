package vetis

import (
	"context"
	"strings"
)

// Two-phase application protocol: submit an application, then poll for its
// result. Submission must come back ACCEPTED; polls run on the poll policy's
// schedule until COMPLETED, a REJECTED verdict, or the budget is exhausted.

// SubmitApplication sends the application body and returns the registry's
// application id. Any submission status other than ACCEPTED is fatal.
func (c *Client) SubmitApplication(ctx context.Context, acc Account, appData string) (string, error) {
	const action = "submitApplicationRequest"

	resp, err := c.Send(ctx, acc, SubmitApplicationRequest(acc, c.now(), appData))
	if err != nil {
		return "", err
	}

	var parsed submitApplicationResponse
	if err := unmarshalBody(action, resp.Body, &parsed); err != nil {
		return "", err
	}
	app := parsed.Application
	if app == nil || app.ApplicationID == "" {
		return "", mappingErr(action, "missing application element")
	}
	if app.Status != AppStatusAccepted {
		return "", &ProtocolError{Action: action, Status: app.Status, Detail: joinAppErrors(app.Errors)}
	}
	return app.ApplicationID, nil
}

// PollApplicationResult polls receiveApplicationResult until the application
// completes. On success it returns the raw result payload for the caller to
// parse. REJECTED is fatal immediately; running out of polls is a fatal
// timeout reporting the last observed status.
func (c *Client) PollApplicationResult(ctx context.Context, acc Account, applicationID string) ([]byte, error) {
	const action = "receiveApplicationResult"

	lastStatus := AppStatusInProcess
	for attempt := 0; attempt < c.pollPolicy.Attempts(); attempt++ {
		c.pollPolicy.Wait(attempt)

		resp, err := c.Send(ctx, acc, ReceiveApplicationResultRequest(acc, applicationID))
		if err != nil {
			return nil, err
		}

		var parsed receiveApplicationResultResponse
		if err := unmarshalBody(action, resp.Body, &parsed); err != nil {
			return nil, err
		}
		app := parsed.Application
		if app == nil {
			return nil, mappingErr(action, "missing application element")
		}

		switch app.Status {
		case AppStatusCompleted:
			return app.Result.Inner, nil
		case AppStatusRejected:
			return nil, &ProtocolError{Action: action, Status: app.Status, Detail: joinAppErrors(app.Errors)}
		default:
			lastStatus = app.Status
		}
	}

	return nil, &ProtocolError{
		Action: action,
		Status: lastStatus,
		Detail: "application did not complete within the poll budget",
	}
}

// RunApplication is the full two-phase cycle for one application body.
func (c *Client) RunApplication(ctx context.Context, acc Account, appData string) ([]byte, error) {
	appID, err := c.SubmitApplication(ctx, acc, appData)
	if err != nil {
		return nil, err
	}
	return c.PollApplicationResult(ctx, acc, appID)
}

func joinAppErrors(errs []applicationError) string {
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Code != "" {
			parts = append(parts, e.Code+": "+strings.TrimSpace(e.Message))
		} else {
			parts = append(parts, strings.TrimSpace(e.Message))
		}
	}
	return strings.Join(parts, "; ")
}
