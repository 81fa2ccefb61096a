package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ngssc/internal/errors"
	"github.com/conneroisu/ngssc/internal/types"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestDiscoverDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.js":      `a=((self.process||{}).env||{}).TEST;b=((self.process||{}).env||{}).TEST`,
		"polyfills.js": `c=((self.process||{}).env||{}).TEST2;d=((self.process||{}).env||{}).TEST`,
		"de/main.js":   `e=process.env.TEST;f=process.env.TEST2`,
		"index.html":   `<script>((self.process||{}).env||{}).NOT_A_SCRIPT</script>`,
		"styles.css":   `body{}`,
	})

	reg, err := New(types.VariantProcess)
	require.NoError(t, err)

	set, err := reg.Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"TEST", "TEST2"}, set.Names())
}

func TestDiscoverFirstSeenOrderAcrossFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.js":     `x=(self.NG_ENV||{}).SECOND`,
		"b/b.js":   `y=(self.NG_ENV||{}).FIRST;z=(self.NG_ENV||{}).SECOND`,
		"c.mjs":    `w=NG_ENV.THIRD`,
		"d.js.map": `(self.NG_ENV||{}).IN_SOURCE_MAP`,
	})

	reg, err := New(types.VariantNgEnv)
	require.NoError(t, err)

	set, err := reg.Discover(root)
	require.NoError(t, err)
	// a.js, b/b.js, c.mjs in lexical order
	assert.Equal(t, []string{"SECOND", "FIRST", "THIRD"}, set.Names())
}

func TestDiscoverSingleFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.js": `a=((self.process||{}).env||{}).API_URL`,
	})

	reg, err := New(types.VariantProcess)
	require.NoError(t, err)

	set, err := reg.Discover(filepath.Join(root, "main.js"))
	require.NoError(t, err)
	assert.Equal(t, []string{"API_URL"}, set.Names())
}

func TestDiscoverNothingFound(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"main.js": `console.log("hello")`})

	reg, err := New(types.VariantProcess)
	require.NoError(t, err)

	set, err := reg.Discover(root)
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.Names())
}

func TestDiscoverMissingPath(t *testing.T) {
	reg, err := New(types.VariantProcess)
	require.NoError(t, err)

	_, err = reg.Discover(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestCustomPatterns(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"main.js":   `a=process.env.FROM_JS`,
		"server.ts": `a=process.env.FROM_TS`,
	})

	reg, err := New(types.VariantProcess, "**/*.ts")
	require.NoError(t, err)

	set, err := reg.Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"FROM_TS"}, set.Names())
}

func TestNewValidation(t *testing.T) {
	_, err := New(types.Variant("other"))
	assert.True(t, errors.IsConfigError(err))

	_, err = New(types.VariantProcess, "[")
	assert.True(t, errors.IsConfigError(err))
}

func TestExtract(t *testing.T) {
	reg, err := New(types.VariantProcess)
	require.NoError(t, err)

	set := reg.Extract(`x=((self.process||{}).env||{}).B+process.env.A+(self.NG_ENV||{}).C`)
	assert.Equal(t, []string{"B", "A"}, set.Names())
}
