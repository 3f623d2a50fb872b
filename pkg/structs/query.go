package structs

const (
	queryLimitDefault = 1000
	queryLimitMax     = 10000
)

type Query struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Filters
	JobIDs      []string `json:"job_ids,omitempty"`
	States      []State  `json:"states,omitempty"`
	Entrypoints []string `json:"entrypoints,omitempty"`
}

func (q *Query) Sanitize() {
	if q.Limit <= 0 {
		q.Limit = queryLimitDefault
	}
	if q.Limit > queryLimitMax {
		q.Limit = queryLimitMax
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.JobIDs == nil || len(q.JobIDs) == 0 {
		q.JobIDs = nil
	}
	if q.States == nil || len(q.States) == 0 {
		q.States = nil
	}
	if q.Entrypoints == nil || len(q.Entrypoints) == 0 {
		q.Entrypoints = nil
	}
}
