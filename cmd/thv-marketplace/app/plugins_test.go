package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-plugin-marketplace/internal/manifest"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/plugin"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service"
	"github.com/stacklok/toolhive-plugin-marketplace/internal/service/mocks"
)

func runPluginsCmd(t *testing.T, svc service.MarketplaceService, args ...string) (string, error) {
	t.Helper()

	cmd := newPluginsCmdWithFactory(viper.New(), func(*viper.Viper) (service.MarketplaceService, error) {
		return svc, nil
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func sampleEntries() []*service.EnrichedEntry {
	return []*service.EnrichedEntry{
		{
			Entry:    manifest.Entry{Name: "formatter", Description: "Formats code", Source: manifest.LocalSource("formatter")},
			Version:  "2.3.0",
			Author:   "Jane",
			Commands: []plugin.CommandDescriptor{{Name: "fmt", Description: "Format"}},
			GitURL:   "https://github.com/acme/formatter.git",
		},
		{
			Entry:   manifest.Entry{Name: "reviewer", Source: manifest.LocalSource("reviewer")},
			Version: service.DefaultVersion,
			Author:  service.DefaultAuthor,
		},
	}
}

func TestPluginsList_Table(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockMarketplaceService(ctrl)
	svc.EXPECT().ListPlugins(gomock.Any()).Return(sampleEntries(), nil)

	out, err := runPluginsCmd(t, svc, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "formatter")
	assert.Contains(t, out, "2.3.0")
	assert.Contains(t, out, "Jane")
	assert.Contains(t, out, "https://github.com/acme/formatter.git")
	assert.Contains(t, out, "reviewer")
	assert.Contains(t, out, "Unknown")
}

func TestPluginsList_JSON(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockMarketplaceService(ctrl)
	svc.EXPECT().ListPlugins(gomock.Any()).Return(sampleEntries(), nil)

	out, err := runPluginsCmd(t, svc, "list", "--format", "json")
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "formatter", decoded[0]["name"])
	assert.Equal(t, "2.3.0", decoded[0]["version"])
	assert.NotContains(t, decoded[1], "gitUrl")
}

func TestPluginsList_Error(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockMarketplaceService(ctrl)
	svc.EXPECT().ListPlugins(gomock.Any()).Return(nil, service.ErrManifestUnreadable)

	_, err := runPluginsCmd(t, svc, "list")
	assert.ErrorIs(t, err, service.ErrManifestUnreadable)
}

func TestPluginsAdd(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockMarketplaceService(ctrl)
	svc.EXPECT().AddPlugin(gomock.Any(), &service.AddPluginRequest{
		GitURL:      "https://github.com/acme/linter",
		Name:        "lint",
		Description: "Lints",
	}).Return(&service.EnrichedEntry{
		Entry:   manifest.Entry{Name: "lint"},
		Version: "0.4.0",
	}, nil)

	out, err := runPluginsCmd(t, svc, "add", "https://github.com/acme/linter", "--name", "lint", "--description", "Lints")
	require.NoError(t, err)
	assert.Equal(t, "Added plugin lint (version 0.4.0)\n", out)
}

func TestPluginsAdd_Errors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockMarketplaceService(ctrl)
	svc.EXPECT().AddPlugin(gomock.Any(), gomock.Any()).Return(nil, service.ErrAlreadyExists)

	_, err := runPluginsCmd(t, svc, "add", "https://github.com/acme/linter")
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	_, err = runPluginsCmd(t, svc, "add")
	assert.Error(t, err)
}

func TestPluginsUpdate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		result   *service.UpdateResult
		expected string
	}{
		{
			name:     "up to date",
			result:   &service.UpdateResult{Name: "formatter", Version: "2.3.0", PreviousVersion: "2.3.0"},
			expected: "Plugin formatter is up to date (version 2.3.0)\n",
		},
		{
			name:     "updated",
			result:   &service.UpdateResult{Name: "formatter", Version: "2.4.0", PreviousVersion: "2.3.0", Updated: true, Upgraded: true},
			expected: "Updated plugin formatter from 2.3.0 to 2.4.0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			svc := mocks.NewMockMarketplaceService(ctrl)
			svc.EXPECT().UpdatePlugin(gomock.Any(), "formatter").Return(tt.result, nil)

			out, err := runPluginsCmd(t, svc, "update", "formatter")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestPluginsRemove(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	svc := mocks.NewMockMarketplaceService(ctrl)
	svc.EXPECT().RemovePlugin(gomock.Any(), "formatter").Return(nil)
	svc.EXPECT().RemovePlugin(gomock.Any(), "missing").Return(service.ErrNotFound)

	out, err := runPluginsCmd(t, svc, "remove", "formatter")
	require.NoError(t, err)
	assert.Equal(t, "Removed plugin formatter\n", out)

	_, err = runPluginsCmd(t, svc, "remove", "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestPluginsCmd_FactoryError(t *testing.T) {
	t.Parallel()

	cmd := newPluginsCmdWithFactory(viper.New(), func(*viper.Viper) (service.MarketplaceService, error) {
		return nil, errors.New("boom")
	})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"list"})
	assert.EqualError(t, cmd.ExecuteContext(context.Background()), "boom")
}

func TestNewLocalService(t *testing.T) {
	t.Parallel()

	dir := writeMarketplace(t, `{"name":"local","plugins":[{"name":"solo","source":"./plugins/solo"}]}`)

	v := viper.New()
	v.Set("marketplace-dir", dir)
	svc, err := newLocalService(v)
	require.NoError(t, err)

	entries, err := svc.ListPlugins(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "solo", entries[0].Name)
	assert.Equal(t, service.DefaultVersion, entries[0].Version)
}
