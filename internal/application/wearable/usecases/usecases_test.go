package usecases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsync "github.com/vitalink-io/vitalink/internal/application/wearable/sync"
	"github.com/vitalink-io/vitalink/internal/domain/wearable"
	apperrors "github.com/vitalink-io/vitalink/internal/shared/errors"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

// nopLogger is a no-op logger for testing.
type nopLogger struct{}

func newNopLogger() logger.Interface { return &nopLogger{} }

func (l *nopLogger) Debug(msg string, args ...any)                   {}
func (l *nopLogger) Info(msg string, args ...any)                    {}
func (l *nopLogger) Warn(msg string, args ...any)                    {}
func (l *nopLogger) Error(msg string, args ...any)                   {}
func (l *nopLogger) With(args ...any) logger.Interface               { return l }
func (l *nopLogger) Named(name string) logger.Interface              { return l }
func (l *nopLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Errorw(msg string, keysAndValues ...interface{}) {}

type memConnections struct {
	conns map[string]*wearable.Connection
}

func newMemConnections() *memConnections {
	return &memConnections{conns: make(map[string]*wearable.Connection)}
}

func (m *memConnections) key(userID uint, p wearable.Provider) string {
	return fmt.Sprintf("%d:%s", userID, p)
}

func (m *memConnections) GetByUserAndProvider(_ context.Context, userID uint, p wearable.Provider) (*wearable.Connection, error) {
	return m.conns[m.key(userID, p)], nil
}

func (m *memConnections) Upsert(_ context.Context, conn *wearable.Connection) error {
	m.conns[m.key(conn.UserID, conn.Provider)] = conn
	return nil
}

func (m *memConnections) Delete(_ context.Context, userID uint, p wearable.Provider) error {
	delete(m.conns, m.key(userID, p))
	return nil
}

func (m *memConnections) ListAll(_ context.Context) ([]*wearable.Connection, error) {
	return nil, nil
}

type capturingRecords struct {
	lastQuery wearable.RecordQuery
	out       []*wearable.Record
}

func (r *capturingRecords) Upsert(_ context.Context, _ *wearable.Record) error { return nil }

func (r *capturingRecords) ListByUser(_ context.Context, _ uint, q wearable.RecordQuery) ([]*wearable.Record, error) {
	r.lastQuery = q
	return r.out, nil
}

type fakeInvalidator struct{ calls int }

func (f *fakeInvalidator) Invalidate(context.Context, uint, wearable.Provider) { f.calls++ }

type fakeStarter struct{ url string }

func (f *fakeStarter) AuthorizationURL(_ context.Context, _ uint, _ wearable.Provider) (string, error) {
	return f.url, nil
}

type fakeChecker struct{ configured map[wearable.Provider]bool }

func (f *fakeChecker) IsConfigured(p wearable.Provider) bool { return f.configured[p] }

type fakeRunner struct {
	result *appsync.Result
	err    error
}

func (f *fakeRunner) Run(_ context.Context, _ uint, _ wearable.Provider, _ int) (*appsync.Result, error) {
	return f.result, f.err
}

func TestBeginAuthorization_RejectsUnknownProvider(t *testing.T) {
	uc := NewBeginAuthorizationUseCase(&fakeStarter{}, newNopLogger())

	_, err := uc.Execute(context.Background(), BeginAuthorizationCommand{UserID: 1, Provider: "pebble"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnsupportedProvider))
}

func TestBeginAuthorization_ReturnsURL(t *testing.T) {
	uc := NewBeginAuthorizationUseCase(&fakeStarter{url: "https://consent.example"}, newNopLogger())

	result, err := uc.Execute(context.Background(), BeginAuthorizationCommand{UserID: 1, Provider: "fitbit"})
	require.NoError(t, err)
	assert.Equal(t, "https://consent.example", result.AuthURL)
}

func TestSyncProvider_ReportsLatestRecord(t *testing.T) {
	now := time.Now().UTC()
	latest := &wearable.Record{Provider: wearable.ProviderFitbit, Date: now, RecoveryScore: 80}
	older := &wearable.Record{Provider: wearable.ProviderFitbit, Date: now.AddDate(0, 0, -1)}
	uc := NewSyncProviderUseCase(&fakeRunner{result: &appsync.Result{
		Provider:   wearable.ProviderFitbit,
		SyncID:     "run-1",
		SyncedAt:   now,
		DaysSynced: 2,
		Records:    []*wearable.Record{latest, older},
	}}, newNopLogger())

	result, err := uc.Execute(context.Background(), SyncProviderCommand{UserID: 1, Provider: "fitbit"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.DaysSynced)
	assert.Same(t, latest, result.Latest)
}

func TestGetRecords_DefaultWindowIsTwoDays(t *testing.T) {
	records := &capturingRecords{}
	uc := NewGetRecordsUseCase(records, newNopLogger())

	_, err := uc.Execute(context.Background(), GetRecordsCommand{UserID: 1})
	require.NoError(t, err)

	require.NotNil(t, records.lastQuery.StartDate)
	require.NotNil(t, records.lastQuery.EndDate)
	assert.Equal(t, 24*time.Hour, records.lastQuery.EndDate.Sub(*records.lastQuery.StartDate))
	assert.Nil(t, records.lastQuery.Provider)
}

func TestGetRecords_ExplicitDates(t *testing.T) {
	records := &capturingRecords{}
	uc := NewGetRecordsUseCase(records, newNopLogger())

	_, err := uc.Execute(context.Background(), GetRecordsCommand{
		UserID:    1,
		Provider:  "polar",
		StartDate: "2026-02-01",
		EndDate:   "2026-02-07",
	})
	require.NoError(t, err)

	require.NotNil(t, records.lastQuery.Provider)
	assert.Equal(t, wearable.ProviderPolar, *records.lastQuery.Provider)
	assert.Equal(t, "2026-02-01", records.lastQuery.StartDate.Format("2006-01-02"))
	assert.Equal(t, "2026-02-07", records.lastQuery.EndDate.Format("2006-01-02"))
}

func TestGetRecords_RejectsBadInput(t *testing.T) {
	uc := NewGetRecordsUseCase(&capturingRecords{}, newNopLogger())
	ctx := context.Background()

	_, err := uc.Execute(ctx, GetRecordsCommand{UserID: 1, StartDate: "02/01/2026"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	_, err = uc.Execute(ctx, GetRecordsCommand{
		UserID:    1,
		StartDate: "2026-02-07",
		EndDate:   "2026-02-01",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestDisconnectProvider(t *testing.T) {
	conns := newMemConnections()
	invalidator := &fakeInvalidator{}
	uc := NewDisconnectProviderUseCase(conns, invalidator, newNopLogger())
	ctx := context.Background()

	t.Run("not connected", func(t *testing.T) {
		err := uc.Execute(ctx, DisconnectProviderCommand{UserID: 1, Provider: "fitbit"})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotConnected))
	})

	t.Run("removes connection and cache entry", func(t *testing.T) {
		require.NoError(t, conns.Upsert(ctx, &wearable.Connection{
			UserID: 1, Provider: wearable.ProviderFitbit, AccessToken: "a",
		}))

		require.NoError(t, uc.Execute(ctx, DisconnectProviderCommand{UserID: 1, Provider: "fitbit"}))
		assert.Equal(t, 1, invalidator.calls)

		got, err := conns.GetByUserAndProvider(ctx, 1, wearable.ProviderFitbit)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestListProviders(t *testing.T) {
	conns := newMemConnections()
	ctx := context.Background()

	syncedAt := time.Now().UTC()
	require.NoError(t, conns.Upsert(ctx, &wearable.Connection{
		UserID:     1,
		Provider:   wearable.ProviderFitbit,
		LastSyncAt: &syncedAt,
	}))

	uc := NewListProvidersUseCase(&fakeChecker{configured: map[wearable.Provider]bool{
		wearable.ProviderFitbit: true,
		wearable.ProviderPolar:  true,
	}}, conns, newNopLogger())

	result, err := uc.Execute(ctx, ListProvidersCommand{UserID: 1})
	require.NoError(t, err)
	require.Len(t, result.Providers, len(wearable.AllProviders()))

	byName := map[string]ProviderStatus{}
	for _, p := range result.Providers {
		byName[p.Provider] = p
	}

	assert.True(t, byName["fitbit"].Configured)
	assert.True(t, byName["fitbit"].Connected)
	require.NotNil(t, byName["fitbit"].LastSyncAt)

	assert.True(t, byName["polar"].Configured)
	assert.False(t, byName["polar"].Connected)

	assert.False(t, byName["garmin"].Configured)
	assert.False(t, byName["garmin"].Connected)
}
