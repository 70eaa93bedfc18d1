// Package store provides the NATS JetStream KeyValue implementation of the
// voice, generation, and profile stores.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/voiceforge/voiceforge-api/internal/core"
)

// keySeparator joins the user id and generation id into a KV key so a
// per-user prefix scan serves the trailing-window count.
const keySeparator = "."

// ErrProfileNotFound indicates no profile row exists for the user.
var ErrProfileNotFound = errors.New("profile not found")

// Store implements core.VoiceStore, core.GenerationStore, and
// core.ProfileStore on top of three JetStream KeyValue buckets.
type Store struct {
	voices      nats.KeyValue
	generations nats.KeyValue
	profiles    nats.KeyValue
}

// Buckets names the KeyValue buckets backing the store.
type Buckets struct {
	Voices      string
	Generations string
	Profiles    string
}

// New creates and initializes the store, creating each bucket with a
// create-first approach and binding to it when it already exists.
func New(jetstreamContext nats.JetStreamContext, buckets Buckets) (*Store, error) {
	voices, err := ensureBucket(jetstreamContext, buckets.Voices)
	if err != nil {
		return nil, err
	}

	generations, err := ensureBucket(jetstreamContext, buckets.Generations)
	if err != nil {
		return nil, err
	}

	profiles, err := ensureBucket(jetstreamContext, buckets.Profiles)
	if err != nil {
		return nil, err
	}

	return &Store{
		voices:      voices,
		generations: generations,
		profiles:    profiles,
	}, nil
}

func ensureBucket(jetstreamContext nats.JetStreamContext, name string) (nats.KeyValue, error) {
	bucket, err := jetstreamContext.CreateKeyValue(&nats.KeyValueConfig{
		Bucket:       name,
		Description:  fmt.Sprintf("Storage for the %s bucket.", name),
		MaxValueSize: 0,
		History:      1,
		TTL:          0,
		MaxBytes:     0,
		Storage:      nats.FileStorage,
		Replicas:     1,
		Placement:    nil,
		RePublish:    nil,
		Mirror:       nil,
		Sources:      nil,
		Compression:  false,
	})
	if err != nil {
		if errors.Is(err, jetstream.ErrBucketExists) {
			bucket, err = jetstreamContext.KeyValue(name)
			if err != nil {
				return nil, fmt.Errorf("failed to bind to existing bucket '%s': %w", name, err)
			}

			return bucket, nil
		}

		return nil, fmt.Errorf("failed to create bucket '%s': %w", name, err)
	}

	return bucket, nil
}

// GetVoice fetches a voice by id.
func (s *Store) GetVoice(_ context.Context, voiceID string) (*core.Voice, error) {
	entry, err := s.voices.Get(voiceID)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, core.ErrVoiceNotFound
		}

		return nil, fmt.Errorf("failed to get voice '%s': %w", voiceID, err)
	}

	var voice core.Voice

	err = json.Unmarshal(entry.Value(), &voice)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal voice '%s': %w", voiceID, err)
	}

	return &voice, nil
}

// PutVoice inserts or replaces a voice row.
func (s *Store) PutVoice(_ context.Context, voice *core.Voice) error {
	data, err := json.Marshal(voice)
	if err != nil {
		return fmt.Errorf("failed to marshal voice '%s': %w", voice.ID, err)
	}

	_, err = s.voices.Put(voice.ID, data)
	if err != nil {
		return fmt.Errorf("failed to put voice '%s': %w", voice.ID, err)
	}

	return nil
}

// DeleteVoice removes a voice row.
func (s *Store) DeleteVoice(_ context.Context, voiceID string) error {
	err := s.voices.Delete(voiceID)
	if err != nil {
		return fmt.Errorf("failed to delete voice '%s': %w", voiceID, err)
	}

	return nil
}

// ListVoices returns the user's own voices plus globally shared defaults,
// newest first.
func (s *Store) ListVoices(_ context.Context, userID string) ([]*core.Voice, error) {
	keys, err := bucketKeys(s.voices)
	if err != nil {
		return nil, err
	}

	voices := make([]*core.Voice, 0, len(keys))

	for _, key := range keys {
		entry, getErr := s.voices.Get(key)
		if getErr != nil {
			// Deleted between listing and fetch.
			if errors.Is(getErr, nats.ErrKeyNotFound) {
				continue
			}

			return nil, fmt.Errorf("failed to get voice '%s': %w", key, getErr)
		}

		var voice core.Voice

		unmarshalErr := json.Unmarshal(entry.Value(), &voice)
		if unmarshalErr != nil {
			return nil, fmt.Errorf("failed to unmarshal voice '%s': %w", key, unmarshalErr)
		}

		if voice.AccessibleBy(userID) {
			voices = append(voices, &voice)
		}
	}

	sort.Slice(voices, func(i, j int) bool {
		return voices[i].CreatedAt.After(voices[j].CreatedAt)
	})

	return voices, nil
}

// InsertGeneration appends a generation row to the log.
func (s *Store) InsertGeneration(_ context.Context, generation *core.Generation) error {
	data, err := json.Marshal(generation)
	if err != nil {
		return fmt.Errorf("failed to marshal generation '%s': %w", generation.ID, err)
	}

	key := generation.UserID + keySeparator + generation.ID

	_, err = s.generations.Put(key, data)
	if err != nil {
		return fmt.Errorf("failed to put generation '%s': %w", generation.ID, err)
	}

	return nil
}

// CountGenerationsSince counts the user's generations created at or after
// the given instant.
func (s *Store) CountGenerationsSince(
	ctx context.Context,
	userID string,
	since time.Time,
) (int, error) {
	generations, err := s.userGenerations(ctx, userID)
	if err != nil {
		return 0, err
	}

	count := 0

	for _, generation := range generations {
		if !generation.CreatedAt.Before(since) {
			count++
		}
	}

	return count, nil
}

// ListGenerations returns the user's generation history, newest first.
func (s *Store) ListGenerations(ctx context.Context, userID string) ([]*core.Generation, error) {
	generations, err := s.userGenerations(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.Slice(generations, func(i, j int) bool {
		return generations[i].CreatedAt.After(generations[j].CreatedAt)
	})

	return generations, nil
}

func (s *Store) userGenerations(_ context.Context, userID string) ([]*core.Generation, error) {
	keys, err := bucketKeys(s.generations)
	if err != nil {
		return nil, err
	}

	prefix := userID + keySeparator
	generations := make([]*core.Generation, 0, len(keys))

	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		entry, getErr := s.generations.Get(key)
		if getErr != nil {
			if errors.Is(getErr, nats.ErrKeyNotFound) {
				continue
			}

			return nil, fmt.Errorf("failed to get generation '%s': %w", key, getErr)
		}

		var generation core.Generation

		unmarshalErr := json.Unmarshal(entry.Value(), &generation)
		if unmarshalErr != nil {
			return nil, fmt.Errorf("failed to unmarshal generation '%s': %w", key, unmarshalErr)
		}

		generations = append(generations, &generation)
	}

	return generations, nil
}

// GetProfile fetches the user's profile row.
func (s *Store) GetProfile(_ context.Context, userID string) (*core.Profile, error) {
	entry, err := s.profiles.Get(userID)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return nil, ErrProfileNotFound
		}

		return nil, fmt.Errorf("failed to get profile for user '%s': %w", userID, err)
	}

	var profile core.Profile

	err = json.Unmarshal(entry.Value(), &profile)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile for user '%s': %w", userID, err)
	}

	return &profile, nil
}

// UpsertProfile inserts or replaces the user's profile row.
func (s *Store) UpsertProfile(_ context.Context, profile *core.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile for user '%s': %w", profile.UserID, err)
	}

	_, err = s.profiles.Put(profile.UserID, data)
	if err != nil {
		return fmt.Errorf("failed to put profile for user '%s': %w", profile.UserID, err)
	}

	return nil
}

// IncrementGenerationCount bumps the informational running counter on the
// user's profile, creating a default profile row when none exists. The
// rolling 24-hour count is the quota's source of truth, so a lost update
// here is tolerable.
func (s *Store) IncrementGenerationCount(ctx context.Context, userID string) error {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrProfileNotFound) {
			return err
		}

		profile = defaultProfile(userID)
	}

	profile.GenerationCount++
	profile.UpdatedAt = time.Now().UTC()

	return s.UpsertProfile(ctx, profile)
}

func defaultProfile(userID string) *core.Profile {
	now := time.Now().UTC()

	return &core.Profile{
		ID:                   userID,
		UserID:               userID,
		Plan:                 core.PlanFree,
		DailyGenerationLimit: 0,
		GenerationCount:      0,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// bucketKeys lists a bucket's keys, treating an empty bucket as no keys.
func bucketKeys(bucket nats.KeyValue) ([]string, error) {
	keys, err := bucket.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	return keys, nil
}
