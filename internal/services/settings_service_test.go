package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customerrors "github.com/axellelanca/trackit/internal/errors"
	"github.com/axellelanca/trackit/internal/models"
	"github.com/axellelanca/trackit/internal/services"
	"github.com/axellelanca/trackit/internal/tracking"
)

var availableRoles = []string{"administrator", "editor", "author", "contributor", "subscriber"}

func TestSettings_ActivateWritesDefaults(t *testing.T) {
	options := newMemOptions()
	settings := services.NewSettingsService(options, tracking.Configuration{
		TrackedRoles: tracking.NewRoleSet("guest", "editor"),
	}, availableRoles)

	require.NoError(t, settings.Activate(context.Background()))

	raw, ok, err := options.Get(context.Background(), models.OptionTrackRoles)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["editor","guest"]`, raw)

	raw, ok, _ = options.Get(context.Background(), models.OptionEraseUninstall)
	assert.True(t, ok)
	assert.Equal(t, "", raw)

	cur := settings.Current()
	assert.True(t, cur.TrackedRoles.Has("guest"))
	assert.True(t, cur.TrackedRoles.Has("editor"))
	assert.False(t, cur.EraseOnUninstall)
}

func TestSettings_ActivateKeepsExistingValues(t *testing.T) {
	options := newMemOptions()
	options.values[models.OptionTrackRoles] = `["author"]`
	options.values[models.OptionEraseUninstall] = "1"

	settings := services.NewSettingsService(options, tracking.Configuration{
		TrackedRoles: tracking.NewRoleSet("guest"),
	}, availableRoles)
	require.NoError(t, settings.Activate(context.Background()))

	cur := settings.Current()
	assert.Equal(t, []string{"author"}, cur.TrackedRoles.Sorted())
	assert.True(t, cur.EraseOnUninstall)
}

func TestSettings_LoadWithoutOptionsTracksNothing(t *testing.T) {
	settings := services.NewSettingsService(newMemOptions(), tracking.Configuration{}, nil)

	cfg, err := settings.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cfg.TrackedRoles)
	assert.False(t, cfg.EraseOnUninstall)
}

func TestSettings_MalformedRolesReadAsEmpty(t *testing.T) {
	options := newMemOptions()
	options.values[models.OptionTrackRoles] = "not json"
	settings := services.NewSettingsService(options, tracking.Configuration{}, nil)

	cfg, err := settings.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cfg.TrackedRoles)
}

func TestSettings_SaveUpdatesCache(t *testing.T) {
	options := newMemOptions()
	settings := services.NewSettingsService(options, tracking.Configuration{}, availableRoles)
	ctx := context.Background()
	require.NoError(t, settings.Activate(ctx))

	require.NoError(t, settings.Save(ctx, tracking.Configuration{
		TrackedRoles:     tracking.NewRoleSet("guest", "subscriber"),
		EraseOnUninstall: true,
	}))

	cur := settings.Current()
	assert.Equal(t, []string{"guest", "subscriber"}, cur.TrackedRoles.Sorted())
	assert.True(t, cur.EraseOnUninstall)
	assert.Equal(t, "1", options.values[models.OptionEraseUninstall])

	reloaded, err := settings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cur, reloaded)
}

func TestSettings_SaveRejectsUnknownRole(t *testing.T) {
	options := newMemOptions()
	settings := services.NewSettingsService(options, tracking.Configuration{}, availableRoles)

	err := settings.Save(context.Background(), tracking.Configuration{
		TrackedRoles: tracking.NewRoleSet("guest", "shop_manager"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, customerrors.ErrUnknownRole))
	assert.Empty(t, options.values)
}

func TestSettings_AnyRoleAcceptedWithoutAvailableList(t *testing.T) {
	settings := services.NewSettingsService(newMemOptions(), tracking.Configuration{}, nil)

	require.NoError(t, settings.Save(context.Background(), tracking.Configuration{
		TrackedRoles: tracking.NewRoleSet("shop_manager"),
	}))
	assert.Empty(t, settings.AvailableRoles())
}

func TestSettings_AvailableRolesIncludeGuest(t *testing.T) {
	settings := services.NewSettingsService(newMemOptions(), tracking.Configuration{}, []string{"editor"})
	assert.Equal(t, []string{"editor", "guest"}, settings.AvailableRoles())
}

func TestSettings_CurrentIsACopy(t *testing.T) {
	settings := services.NewSettingsService(newMemOptions(), tracking.Configuration{
		TrackedRoles: tracking.NewRoleSet("guest"),
	}, nil)
	require.NoError(t, settings.Activate(context.Background()))

	cur := settings.Current()
	cur.TrackedRoles["editor"] = struct{}{}

	assert.False(t, settings.Current().TrackedRoles.Has("editor"))
}

func TestSettings_StorageErrorsPropagate(t *testing.T) {
	options := newMemOptions()
	options.fail = true
	settings := services.NewSettingsService(options, tracking.Configuration{}, nil)

	err := settings.Activate(context.Background())
	require.Error(t, err)
	assert.True(t, customerrors.IsStorageError(err))
}
