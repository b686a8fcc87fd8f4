package cloud

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// ReportRequest is the payload of the report generation function. Empty
// bounds mean the last complete week.
type ReportRequest struct {
	SiteID string `json:"site_id"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
}

// ReportResponse is what the function returns on synchronous invocation.
type ReportResponse struct {
	ReportID string `json:"report_id"`
	URL      string `json:"url,omitempty"`
}

// LambdaClient triggers report generation off the request path.
type LambdaClient struct {
	svc      *lambda.Client
	function string
}

func NewLambdaClient(cfg aws.Config, function string) *LambdaClient {
	return &LambdaClient{svc: lambda.NewFromConfig(cfg), function: function}
}

// InvokeReport runs the function and waits for its result.
func (c *LambdaClient) InvokeReport(ctx context.Context, req ReportRequest) (ReportResponse, error) {
	var resp ReportResponse
	payload, err := json.Marshal(req)
	if err != nil {
		return resp, fmt.Errorf("failed to marshal payload: %w", err)
	}
	result, err := c.svc.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(c.function),
		Payload:        payload,
		InvocationType: types.InvocationTypeRequestResponse,
	})
	if err != nil {
		return resp, fmt.Errorf("failed to invoke Lambda: %w", err)
	}
	if result.FunctionError != nil {
		return resp, fmt.Errorf("lambda function error: %s", *result.FunctionError)
	}
	if err := json.Unmarshal(result.Payload, &resp); err != nil {
		return resp, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return resp, nil
}

// InvokeReportAsync queues a report run without waiting.
func (c *LambdaClient) InvokeReportAsync(ctx context.Context, req ReportRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	_, err = c.svc.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(c.function),
		Payload:        payload,
		InvocationType: types.InvocationTypeEvent,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke Lambda: %w", err)
	}
	return nil
}
