package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/cloud"
)

func TestHandleRejectsBadRequests(t *testing.T) {
	h := handler{}
	tests := []struct {
		name string
		req  cloud.ReportRequest
		want string
	}{
		{"missing site", cloud.ReportRequest{}, "site_id is required"},
		{"bad start", cloud.ReportRequest{SiteID: "hq", Start: "monday", End: "2024-01-08T00:00:00Z"}, "invalid start"},
		{"missing end", cloud.ReportRequest{SiteID: "hq", Start: "2024-01-01T00:00:00Z"}, "invalid end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Handle(context.Background(), tt.req)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
