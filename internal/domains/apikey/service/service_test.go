package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sizechart-backend/internal/domains/apikey/model"
	"sizechart-backend/internal/shared"
)

// =====================================================
// FAKES
// =====================================================

type fakeRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*model.APIKey
	touched map[uuid.UUID]time.Time
	failGet error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: map[uuid.UUID]*model.APIKey{}, touched: map[uuid.UUID]time.Time{}}
}

func (f *fakeRepo) Create(_ context.Context, k *model.APIKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[k.ID] = k
	return nil
}

func (f *fakeRepo) GetByHash(_ context.Context, hash string) (*model.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	for _, k := range f.byID {
		if k.KeyHash == hash {
			return k, nil
		}
	}
	return nil, model.ErrKeyNotFound
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (*model.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if k, ok := f.byID[id]; ok {
		return k, nil
	}
	return nil, model.ErrKeyNotFound
}

func (f *fakeRepo) List(context.Context) ([]*model.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.APIKey, 0, len(f.byID))
	for _, k := range f.byID {
		out = append(out, k)
	}
	return out, nil
}

func (f *fakeRepo) SetActive(_ context.Context, id uuid.UUID, active bool) (*model.APIKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k, ok := f.byID[id]
	if !ok {
		return nil, model.ErrKeyNotFound
	}
	k.IsActive = active
	return k, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return model.ErrKeyNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeRepo) TouchLastUsed(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched[id] = at
	return nil
}

func (f *fakeRepo) DeactivateExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range f.byID {
		if k.IsActive && k.IsExpired(now) {
			k.IsActive = false
			n++
		}
	}
	return n, nil
}

func (f *fakeRepo) touchedAt(id uuid.UUID) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.touched[id]
	return t, ok
}

func createKey(t *testing.T, svc *Service, scopes ...model.Scope) (*model.CreateAPIKeyResponse, string) {
	t.Helper()
	resp, err := svc.Create(context.Background(), model.CreateAPIKeyRequest{Name: "shop", Scopes: scopes})
	require.NoError(t, err)
	return resp, resp.Key
}

func codeOf(t *testing.T, err error) (int, string) {
	t.Helper()
	var appErr *shared.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	return appErr.HTTPStatus, appErr.Code
}

// =====================================================
// TESTS
// =====================================================

func TestService_ValidateOrder(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(repo, nil).WithClock(func() time.Time { return now })
	ctx := context.Background()

	created, raw := createKey(t, svc, model.ScopeReadSizeCharts)

	k, err := svc.Validate(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, created.APIKey.ID, k.ID)

	tests := []struct {
		name string
		raw  string
		prep func()
		code string
	}{
		{"missing", "  ", nil, model.ErrCodeKeyMissing},
		{"malformed", "not-a-key", nil, model.ErrCodeKeyMalformed},
		{"unknown", "sck_" + "0000000000000000000000000000000000000000", nil, model.ErrCodeKeyInvalid},
		{"inactive", raw, func() { repo.byID[k.ID].IsActive = false }, model.ErrCodeKeyInactive},
		{"expired", raw, func() {
			repo.byID[k.ID].IsActive = true
			exp := now
			repo.byID[k.ID].ExpiresAt = &exp
		}, model.ErrCodeKeyExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.prep != nil {
				tt.prep()
			}
			_, err := svc.Validate(ctx, tt.raw)
			status, code := codeOf(t, err)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestService_ValidateRepositoryFailureIsInternal(t *testing.T) {
	repo := newFakeRepo()
	repo.failGet = errors.New("connection refused")
	svc := NewService(repo, nil)

	_, err := svc.Validate(context.Background(), "sck_"+"abcdefghijABCDEFGHIJ0123456789abcdefghij")
	status, code := codeOf(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, shared.CodeInternal, code)
}

func TestService_AuthorizeIs403(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	k := &model.APIKey{Scopes: []model.Scope{model.ScopeReadCategories}}

	assert.NoError(t, svc.Authorize(k, model.ScopeReadCategories))

	status, code := codeOf(t, svc.Authorize(k, model.ScopeReadSizeCharts))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, model.ErrCodeScopeDenied, code)
}

func TestService_CreateStoresHashOnly(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)

	resp, raw := createKey(t, svc, model.ScopeReadLabels, model.ScopeReadLabels)
	stored := repo.byID[resp.APIKey.ID]
	require.NotNil(t, stored)

	assert.Equal(t, model.HashKey(raw), stored.KeyHash)
	assert.NotContains(t, stored.KeyHash, raw)
	assert.Equal(t, raw[:12], stored.KeyPrefix)
	assert.Equal(t, []model.Scope{model.ScopeReadLabels}, stored.Scopes)
	assert.True(t, stored.IsActive)
}

func TestService_CreateValidation(t *testing.T) {
	svc := NewService(newFakeRepo(), nil)
	_, err := svc.Create(context.Background(), model.CreateAPIKeyRequest{Scopes: []model.Scope{"nope"}})

	var appErr *shared.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Contains(t, appErr.Details, "name")
	assert.Contains(t, appErr.Details, "scopes")
}

func TestService_SetActiveAndRevoke(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	resp, _ := createKey(t, svc, model.ScopeReadLabels)

	updated, err := svc.SetActive(ctx, resp.APIKey.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	require.NoError(t, svc.Revoke(ctx, resp.APIKey.ID))

	status, code := codeOf(t, svc.Revoke(ctx, resp.APIKey.ID))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, model.ErrCodeKeyNotFound, code)
}

func TestService_DeactivateExpired(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	svc := NewService(repo, nil).WithClock(func() time.Time { return now })
	resp, _ := createKey(t, svc, model.ScopeReadLabels)
	past := now.Add(-time.Minute)
	repo.byID[resp.APIKey.ID].ExpiresAt = &past

	n, err := svc.DeactivateExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, repo.byID[resp.APIKey.ID].IsActive)
}

func TestAsyncRecorder_RecordsInBackground(t *testing.T) {
	repo := newFakeRepo()
	rec := NewAsyncRecorder(repo, time.Second)
	svc := NewService(repo, rec)

	k := &model.APIKey{ID: uuid.New()}
	svc.RecordUsage(context.Background(), k)
	rec.Wait()

	_, ok := repo.touchedAt(k.ID)
	assert.True(t, ok)
}

type failingToucher struct{}

func (failingToucher) TouchLastUsed(context.Context, uuid.UUID, time.Time) error {
	return errors.New("db down")
}

func TestAsyncRecorder_SwallowsErrors(t *testing.T) {
	rec := NewAsyncRecorder(failingToucher{}, time.Second)
	assert.NotPanics(t, func() {
		rec.Record(context.Background(), uuid.New(), time.Now())
		rec.Wait()
	})
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, f.err
}

func TestQueueRecorder_EnqueuesTouchTask(t *testing.T) {
	q := &fakeEnqueuer{}
	rec := NewQueueRecorder(q)
	id := uuid.New()

	rec.Record(context.Background(), id, time.Now())

	require.Len(t, q.tasks, 1)
	assert.Equal(t, model.TypeTouchLastUsed, q.tasks[0].Type())
	assert.Contains(t, string(q.tasks[0].Payload()), id.String())

	q.err = errors.New("redis down")
	assert.NotPanics(t, func() { rec.Record(context.Background(), id, time.Now()) })
}
