package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/oarlock/ferry/pkg/errors"
	"github.com/oarlock/ferry/pkg/structs"
)

// genericDo issues a request with a JSON body (if any) and unmarshals the
// response, translating transport & status errors into ferry errors.
func genericDo(ctx context.Context, method string, addr *url.URL, in interface{}, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, addr.String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		// connection refused, dns failure, timeout .. the server may be fine
		// later, so this is the retryable class
		return fmt.Errorf("%w %v", errors.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if err := mapStatusCode(resp.StatusCode, data); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// mapStatusCode translates an http status into the error class the caller
// should react to, keeping the server's message for context.
func mapStatusCode(code int, body []byte) error {
	switch {
	case code < 400:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w %s", errors.ErrNotFound, string(body))
	case code == http.StatusConflict:
		return fmt.Errorf("%w %s", errors.ErrETagMismatch, string(body))
	case code < 500:
		return fmt.Errorf("%w status %d: %s", errors.ErrRejected, code, string(body))
	default:
		return fmt.Errorf("%w status %d: %s", errors.ErrBackendUnavailable, code, string(body))
	}
}

func genericPost(ctx context.Context, addr *url.URL, in interface{}, out interface{}) error {
	return genericDo(ctx, http.MethodPost, addr, in, out)
}

func genericPatch(ctx context.Context, addr *url.URL, in interface{}, out interface{}) error {
	return genericDo(ctx, http.MethodPatch, addr, in, out)
}

func genericGet(ctx context.Context, addr *url.URL, out interface{}) error {
	return genericDo(ctx, http.MethodGet, addr, nil, out)
}

// setQueryString sets the query string of a URL based on the given query object.
func setQueryString(u *url.URL, q *structs.Query) {
	q.Sanitize()
	values := u.Query()

	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		values.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.JobIDs != nil {
		values["job_ids"] = q.JobIDs
	}
	if q.Entrypoints != nil {
		values["entrypoints"] = q.Entrypoints
	}
	if q.States != nil {
		ss := []string{}
		for _, s := range q.States {
			ss = append(ss, string(s))
		}
		values["states"] = ss
	}

	u.RawQuery = values.Encode()
}
