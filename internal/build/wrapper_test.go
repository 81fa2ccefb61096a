package build

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/ngssc/internal/errors"
	"github.com/conneroisu/ngssc/internal/scanner"
	"github.com/conneroisu/ngssc/internal/tokenizer"
	"github.com/conneroisu/ngssc/internal/types"
)

const environmentFile = "src/environments/environment.prod.ts"

const environmentSource = `export const environment = {
  production: true,
  apiUrl: process.env.TEST,
  title: process.env.TEST2,
};
`

// project creates an Angular style project with the environment file.
func project(t *testing.T, source string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, filepath.FromSlash(environmentFile))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return dir
}

func readEnvironment(t *testing.T, dir string) string {
	t.Helper()
	content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(environmentFile)))
	require.NoError(t, err)
	return string(content)
}

// fakeCompiler emulates an ahead-of-time build: it copies the environment
// file, tokens included, into dist/main.js and a locale bundle.
func fakeCompiler(t *testing.T, seen *string) SpawnFunc {
	return func(ctx context.Context, dir string, command []string) error {
		source := readEnvironment(t, dir)
		if seen != nil {
			*seen = source
		}
		compiled := "(function(){var e=" + source[strings.Index(source, "{"):] + "})();"
		for _, out := range []string{"dist/main.js", "dist/de/main.js"} {
			path := filepath.Join(dir, filepath.FromSlash(out))
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(compiled), 0o644); err != nil {
				return err
			}
		}
		return os.WriteFile(filepath.Join(dir, "dist", "styles.css"), []byte("body{}"), 0o644)
	}
}

func newTestWrapper(spawn SpawnFunc) *Wrapper {
	w := NewWrapper(nil)
	w.Spawn = spawn
	return w
}

func options(dir string) WrapOptions {
	return WrapOptions{
		Directory:       dir,
		EnvironmentFile: environmentFile,
		Dist:            "dist",
		Variant:         types.VariantProcess,
		Tokenize:        true,
		Command:         []string{"ng", "build"},
	}
}

func TestRunNoCommand(t *testing.T) {
	w := newTestWrapper(nil)
	for _, command := range [][]string{nil, {}, {""}} {
		opts := options(t.TempDir())
		opts.Command = command
		_, err := w.Run(context.Background(), opts)
		require.Error(t, err)
		assert.True(t, errors.IsConfigError(err))
		assert.Contains(t, err.Error(), "no command given")
	}
}

func TestRunInvalidVariantBeforeIO(t *testing.T) {
	called := false
	w := newTestWrapper(func(context.Context, string, []string) error {
		called = true
		return nil
	})

	opts := options(filepath.Join(t.TempDir(), "does-not-exist"))
	opts.Variant = types.Variant("both")
	_, err := w.Run(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, errors.IsConfigError(err))
	assert.False(t, called)
}

func TestRunMissingEnvironmentFile(t *testing.T) {
	w := newTestWrapper(fakeCompiler(t, nil))
	dir := t.TempDir()

	_, err := w.Run(context.Background(), options(dir))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), filepath.Join(dir, filepath.FromSlash(environmentFile)))
}

func TestRunDependencyMissing(t *testing.T) {
	dir := project(t, environmentSource)
	called := false
	w := newTestWrapper(func(context.Context, string, []string) error {
		called = true
		return nil
	})
	w.LoadParser = func() (scanner.Parser, error) {
		return nil, stderrors.New("esbuild not available")
	}

	_, err := w.Run(context.Background(), options(dir))
	require.Error(t, err)
	assert.True(t, errors.IsDependencyMissing(err))
	assert.False(t, called)
	assert.Equal(t, environmentSource, readEnvironment(t, dir))
}

func TestRunParseErrorLeavesSourceUntouched(t *testing.T) {
	broken := "export const environment = { apiUrl: process.env.TEST,, };\n"
	dir := project(t, broken)
	called := false
	w := newTestWrapper(func(context.Context, string, []string) error {
		called = true
		return nil
	})

	_, err := w.Run(context.Background(), options(dir))
	require.Error(t, err)
	assert.True(t, errors.IsParseError(err))
	assert.False(t, called)
	assert.Equal(t, broken, readEnvironment(t, dir))
}

func TestRunEndToEnd(t *testing.T) {
	dir := project(t, environmentSource)
	var seen string
	w := newTestWrapper(fakeCompiler(t, &seen))

	result, err := w.Run(context.Background(), options(dir))
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, 2, result.References)
	assert.Equal(t, []string{"TEST", "TEST2"}, result.Variables)
	assert.Equal(t, []string{
		filepath.Join(dir, "dist", "de", "main.js"),
		filepath.Join(dir, "dist", "main.js"),
	}, result.Artifacts)

	// The build saw tokens instead of references
	assert.NotContains(t, seen, "process.env")
	tokens := tokenizer.FindTokens(seen)
	require.Len(t, tokens, 2)
	assert.Equal(t, 0, tokens[0].Index)
	assert.Equal(t, 1, tokens[1].Index)

	// The source is restored byte for byte
	assert.Equal(t, environmentSource, readEnvironment(t, dir))

	// Every artifact carries runtime lookups and no token
	for _, artifact := range result.Artifacts {
		content, err := os.ReadFile(artifact)
		require.NoError(t, err)
		assert.Contains(t, string(content), "apiUrl: ((self.process||{}).env||{}).TEST,")
		assert.Contains(t, string(content), "title: ((self.process||{}).env||{}).TEST2,")
		assert.NotContains(t, string(content), tokenizer.TokenPrefix)
	}
}

func TestRunVariablesAreDistinct(t *testing.T) {
	source := `export const environment = {
  apiUrl: process.env.API_URL,
  title: process.env.TITLE,
  fallback: process.env.API_URL || 'http://localhost',
};
`
	dir := project(t, source)
	var seen string
	w := newTestWrapper(fakeCompiler(t, &seen))

	result, err := w.Run(context.Background(), options(dir))
	require.NoError(t, err)
	assert.Equal(t, 3, result.References)
	assert.Equal(t, []string{"API_URL", "TITLE"}, result.Variables)

	// Every occurrence still has its own token
	tokens := tokenizer.FindTokens(seen)
	require.Len(t, tokens, 3)
	assert.Equal(t, 2, tokens[2].Index)

	content, err := os.ReadFile(filepath.Join(dir, "dist", "main.js"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "fallback: ((self.process||{}).env||{}).API_URL || 'http://localhost'")
}

func TestRunNgEnvVariant(t *testing.T) {
	dir := project(t, "export const environment = { apiUrl: NG_ENV.API_URL };\n")
	w := newTestWrapper(fakeCompiler(t, nil))

	opts := options(dir)
	opts.Variant = types.VariantNgEnv
	result, err := w.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"API_URL"}, result.Variables)

	content, err := os.ReadFile(filepath.Join(dir, "dist", "main.js"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "apiUrl: (self.NG_ENV||{}).API_URL")
}

func TestRunRestoresAfterFailedBuild(t *testing.T) {
	dir := project(t, environmentSource)
	buildErr := stderrors.New("compilation failed")
	w := newTestWrapper(func(ctx context.Context, d string, command []string) error {
		assert.NotEqual(t, environmentSource, readEnvironment(t, d))
		require.NoError(t, os.MkdirAll(filepath.Join(d, "dist"), 0o755))
		return buildErr
	})

	result, err := w.Run(context.Background(), options(dir))
	require.NoError(t, err)
	assert.False(t, result.Success())
	assert.ErrorIs(t, result.CommandErr, buildErr)
	assert.Equal(t, -1, result.ExitCode)
	assert.Equal(t, environmentSource, readEnvironment(t, dir))
}

func TestRunRestoresAfterPanic(t *testing.T) {
	dir := project(t, environmentSource)
	w := newTestWrapper(func(context.Context, string, []string) error {
		panic("spawn exploded")
	})

	result, err := w.Run(context.Background(), options(dir))
	// No output directory was produced
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	require.NotNil(t, result)
	require.Error(t, result.CommandErr)
	assert.Contains(t, result.CommandErr.Error(), "spawn exploded")
	assert.Equal(t, environmentSource, readEnvironment(t, dir))
}

func TestRunMissingDist(t *testing.T) {
	dir := project(t, environmentSource)
	w := newTestWrapper(func(context.Context, string, []string) error { return nil })

	_, err := w.Run(context.Background(), options(dir))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), filepath.Join(dir, "dist"))
	assert.Equal(t, environmentSource, readEnvironment(t, dir))
}

func TestRunCorruptTokens(t *testing.T) {
	dir := project(t, environmentSource)
	w := newTestWrapper(func(ctx context.Context, d string, command []string) error {
		if err := fakeCompiler(t, nil)(ctx, d, command); err != nil {
			return err
		}
		stale := "var stale=" + tokenizer.Token(0, 1) + ";"
		return os.WriteFile(filepath.Join(d, "dist", "stale.js"), []byte(stale), 0o644)
	})

	result, err := w.Run(context.Background(), options(dir))
	require.NoError(t, err)
	assert.False(t, result.Success())
	require.Len(t, result.Errors, 1)
	assert.True(t, errors.IsCorruptToken(result.Errors[0]))

	// Valid artifacts are still rewritten
	content, err := os.ReadFile(filepath.Join(dir, "dist", "main.js"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), tokenizer.TokenPrefix)
	assert.Equal(t, environmentSource, readEnvironment(t, dir))
}

func TestRunWithoutTokenize(t *testing.T) {
	dir := project(t, environmentSource)
	var seen string
	w := newTestWrapper(func(ctx context.Context, d string, command []string) error {
		seen = readEnvironment(t, d)
		return nil
	})
	w.LoadParser = func() (scanner.Parser, error) {
		return nil, stderrors.New("not needed")
	}

	opts := options(dir)
	opts.Tokenize = false
	result, err := w.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.True(t, result.Success())
	assert.Equal(t, environmentSource, seen)
	assert.Empty(t, result.Variables)
}

func TestRunInvalidCommand(t *testing.T) {
	dir := project(t, environmentSource)
	w := NewWrapper(nil)

	opts := options(dir)
	opts.Tokenize = false
	opts.Command = []string{"ngssc-command-that-does-not-exist"}
	result, err := w.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, -1, result.ExitCode)
	assert.Error(t, result.CommandErr)
	assert.False(t, result.Success())
}

func TestRunExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	dir := project(t, environmentSource)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist"), 0o755))
	w := NewWrapper(nil)

	opts := options(dir)
	opts.Command = []string{"sh", "-c", "exit 3"}
	result, err := w.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, environmentSource, readEnvironment(t, dir))
}
