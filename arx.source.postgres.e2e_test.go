//go:build integration

package arx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgresSource creates an ephemeral PostgreSQL container for testing.
func setupPostgresSource(t *testing.T) (*PostgresSource, func()) {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15",
		postgres.WithDatabase("arx_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	source, err := NewPostgresSource(PostgresSourceConfig{
		ConnectionString: connStr,
		AutoMigrate:      true,
		QueryTimeout:     30 * time.Second,
	})
	require.NoError(t, err, "failed to create postgres source")

	cleanup := func() {
		if source != nil {
			_ = source.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	}

	return source, cleanup
}

func TestPostgresSource_E2E_CRUD(t *testing.T) {
	source, cleanup := setupPostgresSource(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, source.Put(ctx, "greeting.md", "Hello <ARX [[name]] />"))
	require.NoError(t, source.Put(ctx, "/parts/footer.md", "bye"))

	names, err := source.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting.md", "parts/footer.md"}, names)

	doc, err := source.Load(ctx, "greeting", "")
	require.NoError(t, err)
	assert.Equal(t, "greeting.md", doc.ID)
	assert.Equal(t, "Hello <ARX [[name]] />", doc.Content)

	require.NoError(t, source.Put(ctx, "greeting.md", "Hi"))
	doc, err = source.Load(ctx, "greeting.md", "")
	require.NoError(t, err)
	assert.Equal(t, "Hi", doc.Content)

	deleted, err := source.Delete(ctx, "greeting.md")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = source.Delete(ctx, "greeting.md")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = source.Load(ctx, "greeting", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncludeNotFound))

	deleted, err = source.Delete(ctx, "/parts/footer.md")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestPostgresSource_E2E_EngineIncludes(t *testing.T) {
	source, cleanup := setupPostgresSource(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, source.Put(ctx, "pages/main.md", `[<ARX @"header" {title: "[[name]]"} />]`))
	require.NoError(t, source.Put(ctx, "pages/header.md", `# <ARX [[title]] />`))
	require.NoError(t, source.Put(ctx, "loop/a.md", `<ARX @"b" />`))
	require.NoError(t, source.Put(ctx, "loop/b.md", `<ARX @"a" />`))

	engine, err := New(WithSource(source))
	require.NoError(t, err)

	out, err := engine.RenderTarget(ctx, "pages/main", RenderOptions{
		Primary: []map[string]any{{"name": "Docs"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "[# Docs]", out)

	_, err = engine.RenderTarget(ctx, "loop/a", RenderOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncludeCycle))
}

func TestPostgresSource_E2E_Closed(t *testing.T) {
	source, cleanup := setupPostgresSource(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, source.Close())
	require.NoError(t, source.Close())

	_, err := source.Load(ctx, "x", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgSourceClosed)

	err = source.Put(ctx, "x", "y")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgSourceClosed)
}
