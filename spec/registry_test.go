package spec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmuck/wirespec/internal/testutil/testlog"
)

func TestLoadValidJSON(t *testing.T) {
	testlog.Start(t)
	r, err := Load("testdata/opcua.json")
	require.NoError(t, err)
	require.Len(t, r.Frame, 2)
	assert.Equal(t, "header", r.Frame[0].Name)
	assert.Equal(t, "depends:message_type", r.Frame[1].Type)
}

func TestLoadInvalidJSON(t *testing.T) {
	testlog.Start(t)
	_, err := Load("testdata/invalid.json")
	assert.ErrorIs(t, err, ErrSpecFile)
}

func TestLoadMissingFile(t *testing.T) {
	testlog.Start(t)
	_, err := Load("testdata/unexisting.json")
	assert.ErrorIs(t, err, ErrSpecFile)
}

func TestLoadTOMLMatchesJSON(t *testing.T) {
	testlog.Start(t)
	fromJSON, err := LoadJSON("testdata/opcua.json")
	require.NoError(t, err)
	fromTOML, err := LoadTOML("testdata/opcua.toml")
	require.NoError(t, err)

	assert.Equal(t, fromJSON.Frame, fromTOML.Frame)
	assert.Equal(t, fromJSON.Blocks["HEADER"], fromTOML.Blocks["HEADER"])
	assert.Equal(t, fromJSON.Blocks["HEL_BODY"], fromTOML.Blocks["HEL_BODY"])
	assert.Equal(t, "HEL_BODY", fromTOML.CodeName("message_type", "HEL"))
}

func TestLoadMergesCategories(t *testing.T) {
	testlog.Start(t)
	r := New()
	require.NoError(t, r.Load("testdata/opcua.json"))
	require.NoError(t, r.Load("testdata/knxnet.json"))

	// Second load replaces the frame layout and adds block types.
	assert.Equal(t, "depends:service identifier", r.Frame[1].Type)
	assert.NotNil(t, r.BlockTemplate("HEL_BODY"))
	assert.NotNil(t, r.BlockTemplate("HPAI"))

	r.Clear()
	assert.Nil(t, r.BlockTemplate("HPAI"))
	assert.Nil(t, r.Frame)
}

func TestBlockTemplateLookup(t *testing.T) {
	testlog.Start(t)
	r, err := Load("testdata/knxnet.json")
	require.NoError(t, err)

	items := r.BlockTemplate("description request")
	require.NotNil(t, items)
	assert.Equal(t, "control endpoint", items[0].Name)

	// Normalization-insensitive match.
	assert.NotNil(t, r.BlockTemplate("DESCRIPTION_REQUEST"))
	assert.Nil(t, r.BlockTemplate("INVALID"))
	assert.Nil(t, r.BlockTemplate(""))
}

func TestItemTemplateLookup(t *testing.T) {
	testlog.Start(t)
	r, err := Load("testdata/opcua.json")
	require.NoError(t, err)

	item := r.ItemTemplate("HEL_BODY", "protocol_version")
	require.NotNil(t, item)
	assert.Equal(t, 4, item.Size)
	assert.True(t, item.IsField())

	assert.Nil(t, r.ItemTemplate("HEL_BODY", "INVALID"))
	assert.Nil(t, r.ItemTemplate("INVALID", "INVALID"))
}

func TestCodeNameAndCodeID(t *testing.T) {
	testlog.Start(t)
	r, err := Load("testdata/knxnet.json")
	require.NoError(t, err)

	assert.Equal(t, "DESCRIPTION REQUEST", r.CodeName("service identifier", []byte{0x02, 0x03}))
	assert.Equal(t, "", r.CodeName("service identifier", []byte{0xff, 0xff}))
	assert.Equal(t, "", r.CodeName("INVALID", []byte{0x02, 0x03}))

	assert.Equal(t, []byte{0x02, 0x03}, r.CodeID("service identifier", "description request"))
	assert.Equal(t, []byte{0x04}, r.CodeID("connection type code", "CRI CONNECTION REQUEST"))
	assert.Nil(t, r.CodeID("service identifier", "INVALID"))
}

func TestCodeNameSymbolicKeys(t *testing.T) {
	testlog.Start(t)
	r, err := Load("testdata/opcua.json")
	require.NoError(t, err)

	assert.Equal(t, "HEL_BODY", r.CodeName("message_type", "HEL"))
	assert.Equal(t, "HEL_BODY", r.CodeName("message_type", "hel"))
	assert.Equal(t, "", r.CodeName("message_type", "BYE"))

	// Symbolic keys come back as their raw bytes.
	assert.Equal(t, []byte("HEL"), r.CodeID("message_type", "HEL_BODY"))
}

func TestCodeNameMatchesValues(t *testing.T) {
	testlog.Start(t)
	r, err := Load("testdata/knxnet.json")
	require.NoError(t, err)

	// Symbolic names resolve against hex-keyed tables too.
	assert.Equal(t, "DESCRIPTION REQUEST", r.CodeName("service identifier", "description request"))
	assert.Equal(t, "CONNECT REQUEST", r.CodeName("service identifier", "CONNECT REQUEST"))
	assert.Equal(t, "", r.CodeName("service identifier", "SEARCH REQUEST"))
}

func TestNormalize(t *testing.T) {
	testlog.Start(t)
	assert.Equal(t, "service_identifier", Normalize("Service Identifier"))
	assert.Equal(t, "cri_connection_request", Normalize("CRI-CONNECTION-REQUEST"))
	assert.Equal(t, "total_length", Normalize("total_length"))
	assert.Equal(t, "ip_address", Normalize("IP Address!"))
}

func TestItemTemplateDependsOn(t *testing.T) {
	testlog.Start(t)
	tpl := ItemTemplate{Name: "body", Type: "depends:service identifier"}
	assert.Equal(t, "service identifier", tpl.DependsOn())
	assert.Equal(t, "", ItemTemplate{Name: "header", Type: "HEADER"}.DependsOn())
}
