package otp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/PixelShop/internal/pkg/cache/cachetest"
	"github.com/ManuelReschke/PixelShop/internal/pkg/mail"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string]string{}}
}

func (s *memoryStore) Save(ctx context.Context, key, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = code
	return nil
}

func (s *memoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.data[key]
	return code, ok, nil
}

func (s *memoryStore) Delete(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	delete(s.data, key)
	return ok, nil
}

// gatedStore holds every Get until all readers have arrived, so each one
// sees the code before any of them deletes it.
type gatedStore struct {
	*memoryStore
	readers sync.WaitGroup
}

func (s *gatedStore) Get(ctx context.Context, key string) (string, bool, error) {
	code, found, err := s.memoryStore.Get(ctx, key)
	s.readers.Done()
	s.readers.Wait()
	return code, found, err
}

type captureDispatcher struct {
	msgs []mail.Message
	err  error
}

func (d *captureDispatcher) Dispatch(ctx context.Context, msg mail.Message) error {
	d.msgs = append(d.msgs, msg)
	return d.err
}

func TestGenerateCode(t *testing.T) {
	for _, n := range []int{4, 6, 8} {
		code, err := GenerateCode(n)
		require.NoError(t, err)
		assert.Len(t, code, n)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
	_, err := GenerateCode(0)
	assert.Error(t, err)
}

func TestKeysAreNamespaced(t *testing.T) {
	assert.Equal(t, "otp:register:a@x.com", Key(PurposeRegister, "a@x.com"))
	assert.Equal(t, "otp:reset-password:a@x.com", Key(PurposeResetPassword, "a@x.com"))
}

func TestSendAndVerifyIsSingleUse(t *testing.T) {
	store := newMemoryStore()
	d := &captureDispatcher{}
	svc := NewService(store, d, 5*time.Minute, 6)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, PurposeRegister, "a@x.com"))
	require.Len(t, d.msgs, 1)
	assert.Equal(t, mail.TemplateOTPRegistration, d.msgs[0].Template)
	assert.Equal(t, "5", d.msgs[0].Data["ttlMinutes"])
	code := d.msgs[0].Data["code"]

	ok, err := svc.Verify(ctx, PurposeRegister, "a@x.com", code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.Verify(ctx, PurposeRegister, "a@x.com", code)
	require.NoError(t, err)
	assert.False(t, ok, "a consumed code must not verify again")
}

func TestConcurrentVerifyConsumesOnce(t *testing.T) {
	const callers = 2
	store := &gatedStore{memoryStore: newMemoryStore()}
	store.readers.Add(callers)
	d := &captureDispatcher{}
	svc := NewService(store, d, 5*time.Minute, 6)
	ctx := context.Background()

	code := "424242"
	require.NoError(t, store.Save(ctx, Key(PurposeRegister, "a@x.com"), code, time.Minute))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.Verify(ctx, PurposeRegister, "a@x.com", code)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestWrongCodeLeavesStoreUntouched(t *testing.T) {
	store := newMemoryStore()
	d := &captureDispatcher{}
	svc := NewService(store, d, 5*time.Minute, 6)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, PurposeResetPassword, "a@x.com"))
	code := d.msgs[0].Data["code"]

	ok, err := svc.Verify(ctx, PurposeResetPassword, "a@x.com", "xxxxxx")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Verify(ctx, PurposeResetPassword, "a@x.com", code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPurposesDoNotCollide(t *testing.T) {
	d := &captureDispatcher{}
	svc := NewService(newMemoryStore(), d, 5*time.Minute, 6)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, PurposeRegister, "a@x.com"))
	code := d.msgs[0].Data["code"]

	ok, err := svc.Verify(ctx, PurposeResetPassword, "a@x.com", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResendOverwritesPendingCode(t *testing.T) {
	store := newMemoryStore()
	d := &captureDispatcher{}
	svc := NewService(store, d, 5*time.Minute, 6)
	ctx := context.Background()

	require.NoError(t, svc.Send(ctx, PurposeRegister, "a@x.com"))
	require.NoError(t, svc.Send(ctx, PurposeRegister, "a@x.com"))
	latest := d.msgs[1].Data["code"]

	stored, found, err := store.Get(ctx, Key(PurposeRegister, "a@x.com"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, latest, stored)
}

func TestSendSurvivesDispatchFailure(t *testing.T) {
	d := &captureDispatcher{err: errors.New("queue down")}
	svc := NewService(newMemoryStore(), d, 5*time.Minute, 6)

	assert.NoError(t, svc.Send(context.Background(), PurposeRegister, "a@x.com"))
}

func TestRedisStoreTTL(t *testing.T) {
	client := cachetest.NewClient(t, 12)
	store := NewRedisStore(client)
	ctx := context.Background()
	key := Key(PurposeRegister, "a@x.com")

	_, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Save(ctx, key, "111111", time.Minute))
	require.NoError(t, store.Save(ctx, key, "222222", 200*time.Millisecond))
	code, found, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "222222", code)

	assert.Eventually(t, func() bool {
		_, found, _ := store.Get(ctx, key)
		return !found
	}, 2*time.Second, 50*time.Millisecond)
}

func TestRedisStoreDeleteReportsRemoval(t *testing.T) {
	client := cachetest.NewClient(t, 12)
	store := NewRedisStore(client)
	ctx := context.Background()
	key := Key(PurposeResetPassword, "b@x.com")

	require.NoError(t, store.Save(ctx, key, "333333", time.Minute))
	deleted, err := store.Delete(ctx, key)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.Delete(ctx, key)
	require.NoError(t, err)
	assert.False(t, deleted)
}
