package client

import (
	"context"
	"net/url"

	"github.com/oarlock/ferry/pkg/api/http/common"
	"github.com/oarlock/ferry/pkg/structs"
)

// Client talks to a ferry server over its REST API.
type Client struct {
	url *url.URL
}

func New(address string) (*Client, error) {
	u, err := url.Parse(address)
	return &Client{url: u}, err
}

func (c *Client) SubmitJob(ctx context.Context, spec *structs.JobSpec) (*structs.Job, error) {
	addr := c.addr(common.API_JOBS)
	var out structs.Job
	return &out, genericPost(ctx, addr, spec, &out)
}

func (c *Client) Jobs(ctx context.Context, q *structs.Query) ([]*structs.Job, error) {
	addr := c.addr(common.API_JOBS)
	setQueryString(addr, q)
	var out []*structs.Job
	return out, genericGet(ctx, addr, &out)
}

func (c *Client) Cancel(ctx context.Context, in []*structs.ObjectRef) (int64, error) {
	addr := c.addr(common.API_CANCEL)
	var out common.UpdateResponse
	return out.Updated, genericPatch(ctx, addr, in, &out)
}

func (c *Client) Health(ctx context.Context) error {
	return genericGet(ctx, c.addr(common.API_HEALTH), nil)
}

func (c *Client) addr(path string) *url.URL {
	return &url.URL{Scheme: c.url.Scheme, Host: c.url.Host, Path: path}
}
