package pricing

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awspricing "github.com/aws/aws-sdk-go-v2/service/pricing"
	pricingtypes "github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "stackcost/internal/errors"
)

// pricingAPIRegion is where the pricing API itself lives, independent
// of the region being priced
const pricingAPIRegion = "us-east-1"

// AWSSource queries the AWS Pricing API for single-SKU unit prices
type AWSSource struct {
	client *awspricing.Client
	cfg    aws.Config
	logger *zap.Logger
}

// NewAWSSource builds a source from the ambient AWS configuration
// (environment, shared config, instance role)
func NewAWSSource(ctx context.Context, logger *zap.Logger) (*AWSSource, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(pricingAPIRegion))
	if err != nil {
		return nil, apperrors.Credential(
			"could not load AWS configuration for the pricing source", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AWSSource{
		client: awspricing.NewFromConfig(cfg),
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Preflight verifies that credentials resolve before the first network
// call, so a missing credential chain produces one actionable error
// instead of a failure per resource.
func (s *AWSSource) Preflight(ctx context.Context) error {
	if _, err := s.cfg.Credentials.Retrieve(ctx); err != nil {
		return apperrors.Credential(
			"pricing-source credentials unavailable; configure AWS credentials "+
				"(environment, shared config file, or instance role) and retry", err)
	}
	return nil
}

// GetPrice implements Source. The region code is normalized to the
// pricing API's location vocabulary and applied as a term-match
// filter alongside the query's own filters.
func (s *AWSSource) GetPrice(ctx context.Context, query Query) (*decimal.Decimal, error) {
	filters := make([]pricingtypes.Filter, 0, len(query.Filters)+1)
	filters = append(filters, pricingtypes.Filter{
		Type:  pricingtypes.FilterTypeTermMatch,
		Field: aws.String("location"),
		Value: aws.String(NormalizeRegion(query.Region)),
	})
	for _, f := range query.Filters {
		filters = append(filters, pricingtypes.Filter{
			Type:  pricingtypes.FilterTypeTermMatch,
			Field: aws.String(f.Field),
			Value: aws.String(f.Value),
		})
	}

	out, err := s.client.GetProducts(ctx, &awspricing.GetProductsInput{
		ServiceCode: aws.String(query.ServiceCode),
		Filters:     filters,
		MaxResults:  aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}

	if len(out.PriceList) == 0 {
		s.logger.Debug("no price match",
			zap.String("service_code", query.ServiceCode),
			zap.String("region", query.Region))
		return nil, nil
	}

	return parsePriceList(out.PriceList[0])
}

// parsePriceList extracts the USD unit price from one pricing API
// offer document: terms.OnDemand.<sku>.priceDimensions.<dim>.pricePerUnit.USD
func parsePriceList(raw string) (*decimal.Decimal, error) {
	var doc struct {
		Terms struct {
			OnDemand map[string]struct {
				PriceDimensions map[string]struct {
					PricePerUnit map[string]string `json:"pricePerUnit"`
				} `json:"priceDimensions"`
			} `json:"OnDemand"`
		} `json:"terms"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, apperrors.Internal("unparseable price list entry", err)
	}

	for _, term := range doc.Terms.OnDemand {
		for _, dim := range term.PriceDimensions {
			usd, ok := dim.PricePerUnit["USD"]
			if !ok {
				continue
			}
			price, err := decimal.NewFromString(usd)
			if err != nil {
				continue
			}
			return &price, nil
		}
	}

	// Offer exists but carries no on-demand USD dimension
	return nil, nil
}
