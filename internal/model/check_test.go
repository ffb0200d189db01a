package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/invk/internal/model"
)

func TestSummarizeChecks(t *testing.T) {
	tests := map[string]struct {
		results   []model.CheckResult
		expSum    model.CheckSummary
		expFailed bool
	}{
		"No results should be an empty summary.": {
			expSum: model.CheckSummary{},
		},

		"Results should be counted by status.": {
			results: []model.CheckResult{
				{ID: "a", Status: model.CheckStatusOK},
				{ID: "b", Status: model.CheckStatusWarning},
				{ID: "c", Status: model.CheckStatusOK},
			},
			expSum: model.CheckSummary{OK: 2, Warnings: 1},
		},

		"An error should fail the summary.": {
			results: []model.CheckResult{
				{ID: "a", Status: model.CheckStatusOK},
				{ID: "b", Status: model.CheckStatusError},
			},
			expSum:    model.CheckSummary{OK: 1, Errors: 1},
			expFailed: true,
		},

		"Unknown statuses should be ignored.": {
			results: []model.CheckResult{
				{ID: "a", Status: "unknown"},
			},
			expSum: model.CheckSummary{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := model.SummarizeChecks(test.results)
			assert.Equal(t, test.expSum, got)
			assert.Equal(t, test.expFailed, got.Failed())
		})
	}
}
