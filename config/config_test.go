package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/wirespec/bytecodec"
	"github.com/danmuck/wirespec/internal/testutil/testlog"
)

const specDoc = `{
    "frame": [{"name": "header", "type": "HEADER"}],
    "blocks": {
        "HEADER": [
            {"name": "length", "type": "field", "size": 1, "is_length": true}
        ]
    },
    "codes": {}
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	testlog.Start(t)
	e := Default()
	require.NoError(t, e.Validate())
	assert.Equal(t, bytecodec.BigEndian, e.Order())
	assert.False(t, e.StrictBits)
	assert.Equal(t, time.Second, e.ReceiveTimeout)
}

func TestLoadFile(t *testing.T) {
	testlog.Start(t)
	specPath := writeFile(t, "knx.json", specDoc)
	cfgPath := writeFile(t, "wirespec.toml", `
byte_order = "little"
strict_bits = true
spec_files = ["`+specPath+`"]
receive_timeout = "250ms"
`)

	e, err := Load(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, bytecodec.LittleEndian, e.Order())
	assert.True(t, e.StrictBits)
	assert.Equal(t, 250*time.Millisecond, e.ReceiveTimeout)

	r, err := e.Registry()
	require.NoError(t, err)
	assert.NotNil(t, r.BlockTemplate("HEADER"))
}

func TestLoadMissingExplicitFile(t *testing.T) {
	testlog.Start(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, ErrConfig)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	testlog.Start(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	e, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().ByteOrder, e.ByteOrder)
}

func TestEnvironmentOverride(t *testing.T) {
	testlog.Start(t)
	t.Setenv("WIRESPEC_BYTE_ORDER", "little")
	t.Setenv("WIRESPEC_STRICT_BITS", "true")

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	e, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, bytecodec.LittleEndian, e.Order())
	assert.True(t, e.StrictBits)
}

func TestValidateRejectsBadOrder(t *testing.T) {
	testlog.Start(t)
	e := Default()
	e.ByteOrder = "middle"
	assert.ErrorIs(t, e.Validate(), ErrConfig)

	path := writeFile(t, "wirespec.toml", `byte_order = "middle"`)
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestRegistryFailsOnBadSpecFile(t *testing.T) {
	testlog.Start(t)
	e := Default()
	e.SpecFiles = []string{filepath.Join(t.TempDir(), "missing.json")}
	_, err := e.Registry()
	assert.ErrorIs(t, err, ErrConfig)
}

func TestFrameAndEndpointOptions(t *testing.T) {
	testlog.Start(t)
	e := Default()
	e.ByteOrder = "little"
	e.StrictBits = true
	assert.Len(t, e.FrameOptions(), 2)
	assert.Len(t, e.EndpointOptions(), 1)
}
