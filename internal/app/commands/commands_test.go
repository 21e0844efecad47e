package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smileys/smileys/internal/config"
	"github.com/smileys/smileys/internal/observability/logging"
	"github.com/smileys/smileys/internal/ui"
)

const classicPack = `name: Classic
version: 2.0.0
smileys:
  - icon: happy.gif
    title: Happy
    triggers: [":-)"]
  - icon: cool.gif
    triggers: ["8-)"]
`

type testEnv struct {
	dir      string
	packsDir string
	out      *ui.MockUserOutput
	logger   *logging.MockLogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("HOME", dir)
	chdir(t, dir)

	packsDir := filepath.Join(dir, "packs")
	require.NoError(t, os.MkdirAll(filepath.Join(packsDir, "classic"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(packsDir, "classic", "pack.yaml"), []byte(classicPack), 0o644))

	return &testEnv{
		dir:      dir,
		packsDir: packsDir,
		out:      ui.NewMockUserOutput(),
		logger:   logging.NewMockLogger(),
	}
}

// run executes sub under a root carrying the global flags.
func (e *testEnv) run(t *testing.T, sub *cobra.Command, args ...string) error {
	t.Helper()
	root := &cobra.Command{Use: "smileys", SilenceErrors: true, SilenceUsage: true}
	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("profile", "default", "configuration profile")
	root.AddCommand(sub)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestProcessCommand(t *testing.T) {
	t.Run("single file goes to stdout", func(t *testing.T) {
		env := newTestEnv(t)
		path := env.write(t, "post.html", "<p>hi :-)</p><pre>:-)</pre>")

		cmd := NewProcessHandler(env.logger, env.out).CreateCommand()
		require.NoError(t, env.run(t, cmd, "process", "--packs-dir", env.packsDir, "--pack", "classic", path))

		raw := env.out.GetMessagesOfLevel("RAW")
		require.Len(t, raw, 1)
		assert.Contains(t, raw[0].Message, `src="/user/data/smileys/classic/happy.gif"`)
		assert.Contains(t, raw[0].Message, "<pre>:-)</pre>")

		data, _ := os.ReadFile(path)
		assert.Equal(t, "<p>hi :-)</p><pre>:-)</pre>", string(data))
	})

	t.Run("several files need in-place or dry-run", func(t *testing.T) {
		env := newTestEnv(t)
		env.write(t, "docs/a.md", ":-)")
		env.write(t, "docs/b.md", ":-)")

		cmd := NewProcessHandler(env.logger, env.out).CreateCommand()
		err := env.run(t, cmd, "process", filepath.Join(env.dir, "docs"))
		assert.ErrorContains(t, err, "use --in-place or --dry-run")
	})

	t.Run("dry run leaves files alone", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.write(t, "docs/a.md", "a :-)")
		env.write(t, "docs/b.md", "no emoticons")

		cmd := NewProcessHandler(env.logger, env.out).CreateCommand()
		require.NoError(t, env.run(t, cmd, "process", "--dry-run", "--packs-dir", env.packsDir, "--pack", "classic", filepath.Join(env.dir, "docs")))

		data, _ := os.ReadFile(a)
		assert.Equal(t, "a :-)", string(data))
		results := env.out.GetMessagesOfLevel("RESULT")
		require.Len(t, results, 1)
		assert.Contains(t, results[0].Message, "dry run")
		assert.Equal(t, 1, env.out.CountLevel("SUCCESS"))
	})

	t.Run("in place with backup and json report", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.write(t, "docs/a.md", "a :-) 8-)")

		cmd := NewProcessHandler(env.logger, env.out).CreateCommand()
		require.NoError(t, env.run(t, cmd, "process", "-i", "--backup", "--format", "json",
			"--packs-dir", env.packsDir, "--pack", "classic", filepath.Join(env.dir, "docs")))

		data, _ := os.ReadFile(a)
		assert.Contains(t, string(data), "happy.gif")
		assert.Contains(t, string(data), "cool.gif")

		reports := env.out.GetMessagesOfLevel("JSON")
		require.Len(t, reports, 1)
		report := reports[0].Args[0].(processReport)
		assert.Equal(t, 1, report.Changed)
		assert.Equal(t, 2, report.Substitutions)
		require.Len(t, report.Files, 1)
		assert.True(t, report.Files[0].Written)
		require.NotEmpty(t, report.Files[0].Backup)

		backup, err := os.ReadFile(report.Files[0].Backup)
		require.NoError(t, err)
		assert.Equal(t, "a :-) 8-)", string(backup))
	})

	t.Run("stdin with pattern warning", func(t *testing.T) {
		env := newTestEnv(t)
		cfgPath := env.write(t, "smileys.yaml", "profiles:\n  default:\n    exclude:\n      patterns: [\"/([a/\"]\n")

		cmd := NewProcessHandler(env.logger, env.out).CreateCommand()
		root := &cobra.Command{Use: "smileys", SilenceErrors: true, SilenceUsage: true}
		root.PersistentFlags().String("config", "", "")
		root.PersistentFlags().String("profile", "default", "")
		root.AddCommand(cmd)
		root.SetIn(bytes.NewBufferString(":-)"))
		root.SetArgs([]string{"--config", cfgPath, "process", "--packs-dir", env.packsDir, "--pack", "classic", "-"})
		require.NoError(t, root.Execute())

		raw := env.out.GetMessagesOfLevel("RAW")
		require.Len(t, raw, 1)
		assert.Contains(t, raw[0].Message, "happy.gif")
		assert.Equal(t, 1, env.out.CountLevel("WARNING"))
	})

	t.Run("invalid format", func(t *testing.T) {
		env := newTestEnv(t)
		cmd := NewProcessHandler(env.logger, env.out).CreateCommand()
		assert.ErrorContains(t, env.run(t, cmd, "process", "--format", "csv"), "unsupported format")
	})

	t.Run("missing file fails", func(t *testing.T) {
		env := newTestEnv(t)
		cmd := NewProcessHandler(env.logger, env.out).CreateCommand()
		assert.Error(t, env.run(t, cmd, "process", filepath.Join(env.dir, "missing.md")))
	})
}

func TestPacksCommand(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		env := newTestEnv(t)
		cmd := NewPacksHandler(env.logger, env.out).CreateCommand()
		require.NoError(t, env.run(t, cmd, "packs", "list", "--packs-dir", env.packsDir, "--pack", "classic"))

		tables := env.out.GetMessagesOfLevel("TABLE")
		require.Len(t, tables, 1)
		rows := tables[0].Args[0].([][]string)
		require.Len(t, rows, 2)
		assert.Equal(t, []string{"*classic", "Classic", "2.0.0", "2", "ok"}, rows[0])
		assert.Equal(t, "(built-in)", rows[1][0])
	})

	t.Run("list without packs dir", func(t *testing.T) {
		env := newTestEnv(t)
		cmd := NewPacksHandler(env.logger, env.out).CreateCommand()
		require.NoError(t, env.run(t, cmd, "packs", "list", "--packs-dir", filepath.Join(env.dir, "none")))

		rows := env.out.GetMessagesOfLevel("TABLE")[0].Args[0].([][]string)
		assert.Len(t, rows, 1)
	})

	t.Run("show", func(t *testing.T) {
		env := newTestEnv(t)
		cmd := NewPacksHandler(env.logger, env.out).CreateCommand()
		require.NoError(t, env.run(t, cmd, "packs", "show", "--packs-dir", env.packsDir, "classic"))

		rows := env.out.GetMessagesOfLevel("TABLE")[0].Args[0].([][]string)
		require.Len(t, rows, 2)
		assert.Equal(t, []string{":-)", "happy.gif", "Happy", ""}, rows[0])
		assert.Equal(t, []string{"8-)", "cool.gif", "", ""}, rows[1])
	})

	t.Run("show falls back", func(t *testing.T) {
		env := newTestEnv(t)
		cmd := NewPacksHandler(env.logger, env.out).CreateCommand()
		require.NoError(t, env.run(t, cmd, "packs", "show", "--packs-dir", env.packsDir, "--format", "json", "missing"))

		assert.Equal(t, 1, env.out.CountLevel("WARNING"))
		require.Len(t, env.out.GetMessagesOfLevel("JSON"), 1)
	})
}

func TestConfigCommand(t *testing.T) {
	t.Run("init then validate", func(t *testing.T) {
		env := newTestEnv(t)
		path := filepath.Join(env.dir, "out", "config.yaml")

		require.NoError(t, env.run(t, NewConfigHandler(env.logger, env.out).CreateCommand(), "config", "init", "-o", path))
		assert.FileExists(t, path)

		err := env.run(t, NewConfigHandler(env.logger, env.out).CreateCommand(), "config", "init", "-o", path)
		assert.ErrorContains(t, err, "already exists")

		require.NoError(t, env.run(t, NewConfigHandler(env.logger, env.out).CreateCommand(), "config", "validate", path))
		assert.Equal(t, 2, env.out.CountLevel("SUCCESS"))
	})

	t.Run("validate reports errors", func(t *testing.T) {
		env := newTestEnv(t)
		path := env.write(t, "bad.yaml", "profiles:\n  default:\n    render: ascii\n    workers: 100\n")

		err := env.run(t, NewConfigHandler(env.logger, env.out).CreateCommand(), "config", "validate", path)
		assert.ErrorContains(t, err, "1 configuration errors")
		assert.Equal(t, 1, env.out.CountLevel("ERROR"))
		assert.Equal(t, 1, env.out.CountLevel("WARNING"))
	})

	t.Run("init default location is found by validate", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.run(t, NewConfigHandler(env.logger, env.out).CreateCommand(), "config", "init"))
		assert.FileExists(t, filepath.Join(env.dir, "config", "smileys", config.FileName))

		require.NoError(t, env.run(t, NewConfigHandler(env.logger, env.out).CreateCommand(), "config", "validate"))
	})
}

func TestProcessReportJSON(t *testing.T) {
	data, err := json.Marshal(processReport{Files: []fileReport{{Path: "a.md", Substitutions: 1}}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"path":"a.md"`)
	assert.NotContains(t, string(data), `"backup"`)
}

// chdir changes the working directory for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
