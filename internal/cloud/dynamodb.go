package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBClient keeps a per-site index of generated reports.
type DynamoDBClient struct {
	svc   *dynamodb.Client
	table string
}

func NewDynamoDBClient(cfg aws.Config, table string) *DynamoDBClient {
	return &DynamoDBClient{svc: dynamodb.NewFromConfig(cfg), table: table}
}

// ReportSummary is keyed by siteId (partition) and generatedAt (sort, unix seconds).
type ReportSummary struct {
	SiteID       string  `dynamodbav:"siteId" json:"site_id"`
	GeneratedAt  int64   `dynamodbav:"generatedAt" json:"generated_at"`
	ReportID     string  `dynamodbav:"reportId" json:"report_id"`
	PeriodStart  string  `dynamodbav:"periodStart" json:"period_start"`
	PeriodEnd    string  `dynamodbav:"periodEnd" json:"period_end"`
	QuickWins    int     `dynamodbav:"quickWins" json:"quick_wins"`
	SensorIssues int     `dynamodbav:"sensorIssues" json:"sensor_issues"`
	WeeklyKWh    float64 `dynamodbav:"weeklyKwh" json:"weekly_kwh"`
	Headline     string  `dynamodbav:"headline" json:"headline"`
	S3Key        string  `dynamodbav:"s3Key,omitempty" json:"s3_key,omitempty"`
}

func (c *DynamoDBClient) PutReportSummary(ctx context.Context, s ReportSummary) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("failed to marshal report summary: %w", err)
	}
	_, err = c.svc.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}
	return nil
}

// ListReportSummaries returns the newest summaries for a site first.
func (c *DynamoDBClient) ListReportSummaries(ctx context.Context, siteID string, limit int32) ([]ReportSummary, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(c.table),
		KeyConditionExpression: aws.String("siteId = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: siteID},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}
	result, err := c.svc.Query(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query DynamoDB: %w", err)
	}
	var out []ReportSummary
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &out); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report summaries: %w", err)
	}
	return out, nil
}
