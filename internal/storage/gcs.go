// Package storage lists and signs the unlabeled sprite captures the
// extractor uploads to object storage.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// ObjectStore is the slice of object storage the labeling flow needs.
type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]string, error)
	SignedURL(ctx context.Context, name string, ttl time.Duration) (string, error)
}

// GCSStore reads a single Cloud Storage bucket.
type GCSStore struct {
	client *storage.Client
	bucket string
}

// NewGCSStore uses application default credentials.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// List returns the .png objects directly under prefix. Sub-directories are
// not descended into.
func (s *GCSStore) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{
		Prefix:    prefix,
		Delimiter: "/",
	})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", prefix, err)
		}
		// synthetic directory entries only carry Prefix
		if attrs.Name == "" {
			continue
		}
		names = append(names, attrs.Name)
	}
	return FilterPNG(names), nil
}

// SignedURL returns a V4 read-only URL valid for ttl.
func (s *GCSStore) SignedURL(ctx context.Context, name string, ttl time.Duration) (string, error) {
	url, err := s.client.Bucket(s.bucket).SignedURL(name, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", name, err)
	}
	return url, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

// FilterPNG keeps names ending in .png, sorted.
func FilterPNG(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if strings.HasSuffix(strings.ToLower(n), ".png") {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// UnknownPokemonPrefix is where unidentified sprite captures are uploaded.
func UnknownPokemonPrefix(trainerDBID int) string {
	return fmt.Sprintf("pokemon_templates/users/%d/unknown_pokemon_templates/", trainerDBID)
}

// UnknownNameWindowPrefix is where unreadable name-window captures go.
func UnknownNameWindowPrefix(trainerDBID int) string {
	return fmt.Sprintf("pokemon_name_window_templates/users/%d/unknown_pokemon_name_window_templates/", trainerDBID)
}
