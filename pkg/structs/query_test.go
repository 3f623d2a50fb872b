package structs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		Name   string
		Given  *Query
		Expect *Query
	}{
		{
			"Empty",
			&Query{},
			&Query{Limit: queryLimitDefault},
		},
		{
			"LimitTooHigh",
			&Query{Limit: queryLimitMax + 1},
			&Query{Limit: queryLimitMax},
		},
		{
			"NegativeOffset",
			&Query{Offset: -10},
			&Query{Limit: queryLimitDefault},
		},
		{
			"EmptySlicesNiled",
			&Query{JobIDs: []string{}, States: []State{}, Entrypoints: []string{}},
			&Query{Limit: queryLimitDefault},
		},
		{
			"FiltersKept",
			&Query{Limit: 5, JobIDs: []string{"a"}, States: []State{RUNNING}},
			&Query{Limit: 5, JobIDs: []string{"a"}, States: []State{RUNNING}},
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			c.Given.Sanitize()

			assert.Equal(t, c.Expect, c.Given)
		})
	}
}
