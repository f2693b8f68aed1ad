package blob

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Sink writes text blobs, overwriting any existing blob with the same key.
type Sink interface {
	Put(ctx context.Context, key string, payload string) error
	Close() error
}

// Location is a parsed sink URI.
type Location struct {
	Scheme string
	// Account is only set for azure://account/container/prefix.
	Account string
	Bucket  string
	Prefix  string
}

// ParseLocation splits a sink URI into its parts. Supported forms:
//
//	gs://bucket/prefix
//	s3://bucket/prefix
//	azure://account/container/prefix
//	file:///absolute/dir
func ParseLocation(uri string) (Location, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Location{}, fmt.Errorf("invalid sink URI %q: %w", uri, err)
	}

	path := strings.Trim(u.Path, "/")
	switch u.Scheme {
	case "gs", "gcs", "s3":
		if u.Host == "" {
			return Location{}, fmt.Errorf("sink URI %q has no bucket", uri)
		}
		scheme := u.Scheme
		if scheme == "gcs" {
			scheme = "gs"
		}
		return Location{Scheme: scheme, Bucket: u.Host, Prefix: path}, nil
	case "azure":
		container, prefix, _ := strings.Cut(path, "/")
		if u.Host == "" || container == "" {
			return Location{}, fmt.Errorf("sink URI %q must look like azure://account/container[/prefix]", uri)
		}
		return Location{Scheme: u.Scheme, Account: u.Host, Bucket: container, Prefix: prefix}, nil
	case "file":
		if u.Path == "" {
			return Location{}, fmt.Errorf("sink URI %q has no directory", uri)
		}
		return Location{Scheme: u.Scheme, Prefix: u.Path}, nil
	default:
		return Location{}, fmt.Errorf("unsupported sink scheme %q", u.Scheme)
	}
}

// NewSink creates the sink addressed by uri.
func NewSink(ctx context.Context, uri string) (Sink, error) {
	loc, err := ParseLocation(uri)
	if err != nil {
		return nil, err
	}

	switch loc.Scheme {
	case "gs":
		return NewGCSSink(ctx, loc.Bucket, loc.Prefix)
	case "s3":
		return NewS3Sink(ctx, loc.Bucket, loc.Prefix)
	case "azure":
		return NewAzureSink(loc.Account, loc.Bucket, loc.Prefix)
	default:
		return NewFileSink(loc.Prefix)
	}
}

// ResolveKey joins a base prefix with a key without introducing double slashes.
func ResolveKey(prefix string, key string) string {
	cleanPrefix := strings.TrimPrefix(prefix, "/")
	cleanKey := strings.TrimPrefix(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	if strings.HasSuffix(cleanPrefix, "/") {
		return cleanPrefix + cleanKey
	}
	return cleanPrefix + "/" + cleanKey
}
