package universe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUniverse(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "universe.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeUniverse(t, "code,name\nSZ000004,国华网安\nsh600601,方正科技\n")

	instruments, err := Load(path)
	require.NoError(t, err)
	require.Len(t, instruments, 2)
	assert.Equal(t, "sz000004", instruments[0].Code, "exchange prefix is lower-cased")
	assert.Equal(t, "国华网安", instruments[0].Name)
	assert.Equal(t, "sh600601", instruments[1].Code)
}

func TestLoadWithoutHeader(t *testing.T) {
	path := writeUniverse(t, "sz000004,one\nsz000005,two\n")
	instruments, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, instruments, 2)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoadEmptyUniverse(t *testing.T) {
	path := writeUniverse(t, "code,name\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "sz000004", NormalizeCode("SZ000004"))
	assert.Equal(t, "sh600601", NormalizeCode("SH600601"))
	assert.Equal(t, "sz000004", NormalizeCode("sz000004"))
	assert.Equal(t, "x", NormalizeCode("x"))
}
