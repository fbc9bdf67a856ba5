package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"ask", "chat", "courses", "ingest", "mcp", "search", "serve", "settings", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)

	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("data-dir"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("ephemeral"))
}

func TestLoadServices_NoFactory(t *testing.T) {
	SetFactory(nil)

	svc, err := loadServices(NeedSettings)

	assert.Nil(t, svc)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestLoadServices_BuildsOnce(t *testing.T) {
	calls := 0
	var got Options
	SetFactory(func(opts Options) (*Services, error) {
		calls++
		got = opts
		return &Services{}, nil
	})
	defer SetFactory(nil)

	first, err := loadServices(NeedLLM)
	require.NoError(t, err)
	second, err := loadServices(NeedIndex)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, NeedLLM, got.Needs)
}

func TestLoadServices_FactoryError(t *testing.T) {
	SetFactory(func(Options) (*Services, error) {
		return nil, errors.New("no database")
	})
	defer SetFactory(nil)

	_, err := loadServices(NeedIndex)

	assert.EqualError(t, err, "no database")
}

func TestLoadServices_PassesFlags(t *testing.T) {
	var got Options
	cleanup := setupTestServices(&Services{})
	defer cleanup()
	SetFactory(func(opts Options) (*Services, error) {
		got = opts
		return &Services{Settings: newMockSettingsService()}, nil
	})

	_, err := execute([]string{"--data-dir", "/tmp/cm", "--ephemeral", "settings", "keys"}, "")

	require.NoError(t, err)
	assert.Equal(t, "/tmp/cm", got.DataDir)
	assert.True(t, got.Ephemeral)
	assert.Equal(t, NeedSettings, got.Needs)
}

func TestCloseServices(t *testing.T) {
	closed := false
	SetFactory(func(Options) (*Services, error) {
		return &Services{Close: func() error {
			closed = true
			return nil
		}}, nil
	})
	defer SetFactory(nil)

	_, err := loadServices(NeedIndex)
	require.NoError(t, err)

	closeServices()

	assert.True(t, closed)
	assert.Nil(t, loaded)
}

func TestSetVersion_IgnoresEmpty(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)

	SetVersion("")
	assert.Equal(t, "1.2.3", version)
}

func TestRequireQuery(t *testing.T) {
	assert.Error(t, requireQuery(&Services{}))
	assert.NoError(t, requireQuery(&Services{Query: &mockQueryService{}}))
}
