package pg_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/gatekit/pkg/pg"
)

func TestMigrate_ConfigErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()

		err := pg.Migrate(ctx, nil, pg.Config{}, nil)
		assert.ErrorIs(t, err, pg.ErrMigrationPathNotProvided)
	})

	t.Run("nonexistent dir", func(t *testing.T) {
		t.Parallel()

		err := pg.Migrate(ctx, nil, pg.Config{MigrationsPath: "testdata/nope"}, nil)
		assert.ErrorIs(t, err, pg.ErrMigrationsDirNotFound)
	})
}
