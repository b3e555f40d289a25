//go:build integration

// Package integration runs the storage adapters against real Postgres and
// Redis containers. Run with: go test -tags integration ./internal/integration/...
package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/ocrjob"
	"github.com/AbilashEG/smart-hr-intake/internal/adapter/repo/postgres"
	"github.com/AbilashEG/smart-hr-intake/internal/domain"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16",
			Env:          map[string]string{"POSTGRES_PASSWORD": "postgres", "POSTGRES_USER": "postgres", "POSTGRES_DB": "app"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })
	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := postgres.NewPool(ctx, "postgres://postgres:postgres@"+host+":"+port.Port()+"/app?sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.Eventually(t, func() bool { return pool.Ping(ctx) == nil }, 30*time.Second, time.Second)
	require.NoError(t, postgres.EnsureSchema(ctx, pool))
	return pool
}

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })
	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	t.Cleanup(func() { _ = rdb.Close() })
	require.Eventually(t, func() bool { return rdb.Ping(ctx).Err() == nil }, 30*time.Second, time.Second)
	return rdb
}

func TestCandidateRepo_Postgres(t *testing.T) {
	pool := startPostgres(t)
	repo := postgres.NewCandidateRepo(pool)
	ctx := context.Background()
	// schema creation is idempotent
	require.NoError(t, postgres.EnsureSchema(ctx, pool))

	now := time.Now().UTC().Truncate(time.Millisecond)
	c := domain.Candidate{
		Email: "jane@example.com", Name: "Jane Doe", Phone: "+1 555 0100",
		Status: domain.StatusPending, Attendance: domain.AttendancePending,
		ResumeKey: "resumes/1_cv.pdf", Questions: "<div>q</div>", AIUsed: true,
		UploadedAt: now, UpdatedAt: now,
	}
	v1, err := repo.Upsert(ctx, c)
	require.NoError(t, err)
	assert.EqualValues(t, 1, v1)

	// re-upload overwrites and bumps the version
	c.Name = "Jane Q. Doe"
	v2, err := repo.Upsert(ctx, c)
	require.NoError(t, err)
	assert.EqualValues(t, 2, v2)

	got, err := repo.Get(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane Q. Doe", got.Name)
	assert.True(t, got.AIUsed)
	assert.True(t, now.Equal(got.UploadedAt))

	got.Status = domain.StatusShortlisted
	got.Review.Rating = "4"
	v3, err := repo.Update(ctx, got, &v2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, v3)

	_, err = repo.Update(ctx, got, &v2)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = repo.Update(ctx, domain.Candidate{Email: "ghost@example.com"}, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = repo.Get(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := repo.Get(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "4", stored.Review.Rating)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

type memBlobs struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memBlobs) Put(_ context.Context, key string, data []byte, _ string) (domain.BlobRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = data
	return domain.BlobRef{Bucket: "test", Key: key}, nil
}

func (m *memBlobs) Get(_ context.Context, ref domain.BlobRef) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[ref.Key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

type lineOCR struct{}

func (lineOCR) DetectText(_ context.Context, data []byte, _ string) ([]string, error) {
	return []string{string(data)}, nil
}

func TestOCRQueue_Redis(t *testing.T) {
	rdb := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	blobs := &memBlobs{data: map[string][]byte{}}
	ref, err := blobs.Put(ctx, "job-descriptions/1_jd.pdf", []byte("Backend Engineer at Acme"), "application/pdf")
	require.NoError(t, err)

	q := ocrjob.NewQueue(rdb, time.Minute)
	w := ocrjob.NewWorker(q, blobs, lineOCR{})
	w.Wait = 200 * time.Millisecond
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	id, err := q.StartJob(ctx, ref)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		job, err := q.PollJob(ctx, id)
		return err == nil && job.Status == domain.OCRJobSucceeded
	}, 10*time.Second, 50*time.Millisecond)

	job, err := q.PollJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"Backend Engineer at Acme"}, job.Lines)

	cancel()
	<-done
}
