package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ashureev/shopchat/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Getter is the part of the S3 client used to fetch catalog objects.
type S3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// loadS3 downloads s3://bucket/key and parses it according to the key's extension.
func loadS3(ctx context.Context, uri string, o *loadOptions) ([]domain.Product, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, err
	}

	kind := kindOf(key)
	if kind != kindCSV && kind != kindXLSX {
		return nil, fmt.Errorf("unsupported s3 object type %q", key)
	}

	client := o.s3
	if client == nil {
		var cfgOpts []func(*awsconfig.LoadOptions) error
		if o.awsRegion != "" {
			cfgOpts = append(cfgOpts, awsconfig.WithRegion(o.awsRegion))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, cfgOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client = s3.NewFromConfig(cfg)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer func() { _ = out.Body.Close() }()

	if kind == kindXLSX {
		return readXLSX(out.Body)
	}
	return readCSV(out.Body)
}

func parseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse s3 uri: %w", err)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri %q must be s3://bucket/key", uri)
	}
	return u.Host, key, nil
}
