package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/require"

	"github.com/voiceforge/voiceforge-api/internal/core"
	"github.com/voiceforge/voiceforge-api/internal/service"
	"github.com/voiceforge/voiceforge-api/internal/store"
)

// mockVoiceStore is an in-memory core.VoiceStore.
type mockVoiceStore struct {
	mu     sync.Mutex
	voices map[string]*core.Voice
	putErr error
}

func newMockVoiceStore() *mockVoiceStore {
	return &mockVoiceStore{voices: make(map[string]*core.Voice)}
}

func (m *mockVoiceStore) GetVoice(_ context.Context, voiceID string) (*core.Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	voice, ok := m.voices[voiceID]
	if !ok {
		return nil, core.ErrVoiceNotFound
	}

	copied := *voice

	return &copied, nil
}

func (m *mockVoiceStore) PutVoice(_ context.Context, voice *core.Voice) error {
	if m.putErr != nil {
		return m.putErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *voice
	m.voices[voice.ID] = &copied

	return nil
}

func (m *mockVoiceStore) DeleteVoice(_ context.Context, voiceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.voices, voiceID)

	return nil
}

func (m *mockVoiceStore) ListVoices(_ context.Context, userID string) ([]*core.Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var voices []*core.Voice

	for _, voice := range m.voices {
		if voice.AccessibleBy(userID) {
			copied := *voice
			voices = append(voices, &copied)
		}
	}

	return voices, nil
}

// mockGenerationStore is an in-memory core.GenerationStore with injectable
// failures.
type mockGenerationStore struct {
	mu          sync.Mutex
	generations []*core.Generation
	insertErr   error
	countErr    error
}

func (m *mockGenerationStore) InsertGeneration(_ context.Context, generation *core.Generation) error {
	if m.insertErr != nil {
		return m.insertErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *generation
	m.generations = append(m.generations, &copied)

	return nil
}

func (m *mockGenerationStore) CountGenerationsSince(
	_ context.Context,
	userID string,
	since time.Time,
) (int, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0

	for _, generation := range m.generations {
		if generation.UserID == userID && !generation.CreatedAt.Before(since) {
			count++
		}
	}

	return count, nil
}

func (m *mockGenerationStore) ListGenerations(_ context.Context, userID string) ([]*core.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var generations []*core.Generation

	for _, generation := range m.generations {
		if generation.UserID == userID {
			copied := *generation
			generations = append(generations, &copied)
		}
	}

	return generations, nil
}

// seedGenerations backfills count rows for the user inside the rolling window.
func (m *mockGenerationStore) seedGenerations(userID string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := 0; i < count; i++ {
		m.generations = append(m.generations, &core.Generation{
			ID:        fmt.Sprintf("seed-%s-%d", userID, i),
			UserID:    userID,
			VoiceID:   "seed-voice",
			Text:      "seeded",
			Language:  "en",
			CreatedAt: time.Now().UTC().Add(-time.Minute),
		})
	}
}

// mockProfileStore is an in-memory core.ProfileStore.
type mockProfileStore struct {
	mu         sync.Mutex
	profiles   map[string]*core.Profile
	increments int
}

func newMockProfileStore() *mockProfileStore {
	return &mockProfileStore{profiles: make(map[string]*core.Profile)}
}

func (m *mockProfileStore) GetProfile(_ context.Context, userID string) (*core.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, ok := m.profiles[userID]
	if !ok {
		return nil, store.ErrProfileNotFound
	}

	copied := *profile

	return &copied, nil
}

func (m *mockProfileStore) UpsertProfile(_ context.Context, profile *core.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *profile
	m.profiles[profile.UserID] = &copied

	return nil
}

func (m *mockProfileStore) IncrementGenerationCount(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.increments++

	if profile, ok := m.profiles[userID]; ok {
		profile.GenerationCount++
	}

	return nil
}

// mockObjectStore is an in-memory core.ObjectStore with injectable failures.
type mockObjectStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	uploads     int
	uploadErr   error
	downloadErr error
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{objects: make(map[string][]byte)}
}

func (m *mockObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.downloadErr != nil {
		return nil, m.downloadErr
	}

	data, ok := m.objects[key]
	if !ok {
		return nil, core.ErrAudioNotFound
	}

	return data, nil
}

func (m *mockObjectStore) Upload(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.uploads++

	if m.uploadErr != nil {
		return m.uploadErr
	}

	m.objects[key] = data

	return nil
}

// mockSynthesizer records provider calls and returns canned audio or an
// injected error.
type mockSynthesizer struct {
	mu       sync.Mutex
	calls    int
	lastReq  core.SynthesisRequest
	audio    []byte
	synthErr error
}

func (m *mockSynthesizer) Synthesize(_ context.Context, req core.SynthesisRequest) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastReq = req

	if m.synthErr != nil {
		return nil, m.synthErr
	}

	return m.audio, nil
}

// mockSigner mints deterministic signed paths.
type mockSigner struct{}

func (mockSigner) Sign(key string, _ time.Duration) string {
	return "/v1/audio/" + key + "?exp=1&sig=test"
}

// mockPublisher records published events.
type mockPublisher struct {
	mu     sync.Mutex
	events []*core.GenerationCreatedEvent
}

func (m *mockPublisher) PublishGenerationCreated(
	_ context.Context,
	event *core.GenerationCreatedEvent,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, event)

	return nil
}

// testEnv bundles a Service wired to fresh mocks.
type testEnv struct {
	svc         *service.Service
	voices      *mockVoiceStore
	generations *mockGenerationStore
	profiles    *mockProfileStore
	objects     *mockObjectStore
	synthesizer *mockSynthesizer
	publisher   *mockPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		closeErr := log.Close()
		require.NoError(t, closeErr)
	})

	env := &testEnv{
		voices:      newMockVoiceStore(),
		generations: &mockGenerationStore{},
		profiles:    newMockProfileStore(),
		objects:     newMockObjectStore(),
		synthesizer: &mockSynthesizer{audio: []byte("fake-audio")},
		publisher:   &mockPublisher{},
		svc:         nil,
	}

	env.svc = service.New(service.Options{
		Voices:       env.voices,
		Generations:  env.generations,
		Profiles:     env.profiles,
		Objects:      env.objects,
		Synthesizer:  env.synthesizer,
		Signer:       mockSigner{},
		Publisher:    env.publisher,
		Logger:       log,
		PublicURL:    "https://api.voiceforge.example",
		SignedURLTTL: time.Hour,
	})

	return env
}

// addSharedVoice registers a globally shared default voice and returns its id.
func (e *testEnv) addSharedVoice(t *testing.T, voiceID string) {
	t.Helper()

	err := e.voices.PutVoice(context.Background(), &core.Voice{
		ID:          voiceID,
		UserID:      nil,
		Name:        "Shared Default",
		Type:        core.VoiceTypeDefault,
		SourceModel: "Qwen3-TTS-Base",
		Language:    "en",
		Params: core.TaskParams{
			TaskType: core.TaskTypeCustomVoice,
			Speaker:  "serena",
		},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}
