// Package store is the client for the hosted document store that owns
// profile persistence. Profiles are JSON documents in an object bucket,
// one per user, written whole: the consistency model is last-writer-wins
// and the core adds nothing on top of it.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	cache "github.com/patrickmn/go-cache"

	"socialtt/internal/config"
	appLog "socialtt/internal/log"
	"socialtt/internal/model"
)

const profilePrefix = "users/"

// Store reads and writes profile documents. Reads go through a short-lived
// cache so rendering a week of merged grids does not refetch every friend's
// document per day.
type Store struct {
	client   *minio.Client
	bucket   string
	profiles *cache.Cache
}

// New connects to the configured object store and ensures the profile
// bucket exists.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating store client: %w", err)
	}

	s := &Store{
		client:   client,
		bucket:   cfg.MinIO.Bucket,
		profiles: cache.New(cfg.CacheTTL(), 2*cfg.CacheTTL()),
	}

	exists, err := client.BucketExists(ctx, s.bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %q: %w", s.bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("creating bucket %q: %w", s.bucket, err)
		}
		appLog.Info("created profile bucket", "bucket", s.bucket)
	}
	return s, nil
}

func objectKey(id string) string {
	return profilePrefix + id + ".json"
}

// GetProfile loads one profile document. A missing document yields
// model.ErrNoProfile.
//
// The cache holds raw document bytes and every call unmarshals a fresh
// value, so callers can mutate the result freely before writing it back.
func (s *Store) GetProfile(ctx context.Context, id string) (*model.UserProfile, error) {
	if cached, ok := s.profiles.Get(id); ok {
		return decodeProfile(id, cached.([]byte))
	}

	obj, err := s.client.GetObject(ctx, s.bucket, objectKey(id), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("reading profile %q: %w", id, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, fmt.Errorf("profile %q: %w", id, model.ErrNoProfile)
		}
		return nil, fmt.Errorf("reading profile %q: %w", id, err)
	}

	s.profiles.SetDefault(id, data)
	return decodeProfile(id, data)
}

func decodeProfile(id string, data []byte) (*model.UserProfile, error) {
	var p model.UserProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding profile %q: %w", id, err)
	}
	return &p, nil
}

// PutProfile writes the whole profile document, replacing any previous
// version, and invalidates the read cache.
func (s *Store) PutProfile(ctx context.Context, p *model.UserProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile %q: %w", p.ID, err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, objectKey(p.ID),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("writing profile %q: %w", p.ID, err)
	}

	s.profiles.Delete(p.ID)
	return nil
}

// SearchIDs lists profile IDs starting with the given prefix, for the
// friend-search typeahead. Results are capped at limit.
func (s *Store) SearchIDs(ctx context.Context, prefix string, limit int) ([]string, error) {
	opts := minio.ListObjectsOptions{
		Prefix:    profilePrefix + prefix,
		Recursive: true,
	}

	ids := make([]string, 0, limit)
	for object := range s.client.ListObjects(ctx, s.bucket, opts) {
		if object.Err != nil {
			return nil, fmt.Errorf("listing profiles: %w", object.Err)
		}
		id := strings.TrimSuffix(strings.TrimPrefix(object.Key, profilePrefix), ".json")
		ids = append(ids, id)
		if len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

// Friends resolves a profile's friend list plus the profile itself, in a
// stable order (owner first, then friends sorted by ID). Friends whose
// documents fail to load are skipped so one broken record cannot blank the
// whole grid.
func (s *Store) Friends(ctx context.Context, p *model.UserProfile) []*model.UserProfile {
	profiles := []*model.UserProfile{p}

	sorted := make([]string, len(p.Friends))
	copy(sorted, p.Friends)
	sort.Strings(sorted)

	for _, id := range sorted {
		friend, err := s.GetProfile(ctx, id)
		if err != nil {
			appLog.Warn("skipping unloadable friend profile", "id", id, "err", err)
			continue
		}
		profiles = append(profiles, friend)
	}
	return profiles
}

// AllProfiles streams every stored profile, for the refresh scheduler.
func (s *Store) AllProfiles(ctx context.Context) ([]*model.UserProfile, error) {
	ids, err := s.SearchIDs(ctx, "", 10000)
	if err != nil {
		return nil, err
	}

	profiles := make([]*model.UserProfile, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetProfile(ctx, id)
		if err != nil {
			appLog.Warn("skipping unloadable profile", "id", id, "err", err)
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}
