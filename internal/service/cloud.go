package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/cloud"
	"github.com/ANIKETSHETTY47/energy-weekly-brief/internal/config"
)

// CloudOptions wires the AWS collaborators when USE_CLOUD_SERVICES is set.
// The async invoker is left out when withInvoker is false, e.g. inside the
// report function itself.
func CloudOptions(ctx context.Context, withInvoker bool) ([]Option, error) {
	if !config.UseCloudServices() {
		return nil, nil
	}
	cfg, err := cloud.LoadConfig(ctx, config.AWSRegion())
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithObjectStore(cloud.NewS3Client(cfg, config.S3Bucket())),
		WithSummaryIndex(cloud.NewDynamoDBClient(cfg, config.DynamoTable())),
	}
	if arn := config.SNSTopicArn(); arn != "" {
		opts = append(opts, WithNotifier(cloud.NewSNSClient(cfg, arn)))
	}
	if withInvoker {
		opts = append(opts, WithInvoker(cloud.NewLambdaClient(cfg, config.ReportLambdaName())))
	}
	log.Info().Str("region", config.AWSRegion()).Msg("cloud services enabled")
	return opts, nil
}
