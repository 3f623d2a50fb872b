package common

// UpdateResponse is returned by endpoints that update some number of jobs.
type UpdateResponse struct {
	Updated int64 `json:"updated"`
}
