package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfig creates a sqlite + file-accounts config inside a temp dir.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`env: "dev"
storage_driver: "sqlite"
storage_path: %q
accounts:
  backend: "file"
  dir: %q
http_server:
  address: "localhost:0"
`, filepath.Join(dir, "students.db"), filepath.Join(dir, "accounts"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// run executes one command line against cfg and returns stdout.
func run(t *testing.T, cfg, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", cfg}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestStudentCommands(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "", "student", "add", "--name", "Ahmed Ali", "--age", "20", "--grade", "A")
	require.NoError(t, err)
	assert.Equal(t, "Student added with ID 1\n", out)

	out, err = run(t, cfg, "", "student", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Ahmed Ali")
	assert.Contains(t, out, "GRADE")

	out, err = run(t, cfg, "", "student", "get", "1")
	require.NoError(t, err)
	assert.Equal(t, "ID: 1, Name: Ahmed Ali, Age: 20, Grade: A\n", out)

	out, err = run(t, cfg, "", "student", "update", "1", "--name", "Ahmed Ali", "--age", "21", "--grade", "A+")
	require.NoError(t, err)
	assert.Equal(t, "Student 1 updated, new ID 2\n", out)

	_, err = run(t, cfg, "", "student", "get", "1")
	assert.Error(t, err)

	out, err = run(t, cfg, "", "student", "find", "Ahmed Ali")
	require.NoError(t, err)
	assert.Contains(t, out, "A+")

	out, err = run(t, cfg, "", "student", "find", "ahmed ali")
	require.NoError(t, err)
	assert.Equal(t, "No students found.\n", out)

	out, err = run(t, cfg, "", "student", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total students: 1")
	assert.Contains(t, out, "Youngest age:   21")

	out, err = run(t, cfg, "", "student", "delete", "2")
	require.NoError(t, err)
	assert.Equal(t, "Student 2 deleted\n", out)

	out, err = run(t, cfg, "", "student", "delete", "2")
	require.NoError(t, err)
	assert.Equal(t, "No student with ID 2\n", out)
}

func TestStudentCommandValidation(t *testing.T) {
	cfg := writeConfig(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing name", []string{"student", "add", "--age", "20", "--grade", "A"}, "--name is required"},
		{"age too high", []string{"student", "add", "--name", "A", "--age", "101", "--grade", "A"}, "--age must be between 1 and 100"},
		{"bad id", []string{"student", "get", "abc"}, "must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, cfg, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestImportExport(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "", "import", "--sample")
	require.NoError(t, err)
	assert.Equal(t, "Imported 3 students, 0 failed\n", out)

	out, err = run(t, cfg, "Name,Age,Grade\nLaila,22,B\nBad,x,C\n", "import", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "line 3 (Bad)")
	assert.Contains(t, out, "Imported 1 students, 1 failed")

	_, err = run(t, cfg, "Foo,Bar\n", "import", "-")
	assert.Error(t, err)

	_, err = run(t, cfg, "", "import")
	assert.Error(t, err)

	out, err = run(t, cfg, "", "export")
	require.NoError(t, err)
	assert.Equal(t, "ID,Name,Age,Grade\n"+
		"1,Ahmed Ali,20,A\n"+
		"2,Sara Mohamed,19,B+\n"+
		"3,Omar Hassan,21,A-\n"+
		"4,Laila,22,B\n", out)

	file := filepath.Join(t.TempDir(), "out.csv")
	_, err = run(t, cfg, "", "export", "-o", file)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestAccountCommands(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "secret\nsecret\n", "account", "register", "alice", "--role", "admin")
	require.NoError(t, err)
	assert.Equal(t, "Registered admin account alice\n", out)

	_, err = run(t, cfg, "secret\nsecret\n", "account", "register", "alice", "--role", "admin")
	assert.Error(t, err)

	_, err = run(t, cfg, "a\nb\n", "account", "register", "bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")

	out, err = run(t, cfg, "secret\n", "account", "login", "alice", "--role", "admin")
	require.NoError(t, err)
	assert.Equal(t, "Welcome, alice (admin)\n", out)

	// Namespaces are separate.
	_, err = run(t, cfg, "secret\n", "account", "login", "alice", "--role", "user")
	assert.Error(t, err)

	_, err = run(t, cfg, "wrong\n", "account", "login", "alice", "--role", "admin")
	assert.Error(t, err)

	_, err = run(t, cfg, "secret\n", "account", "login", "alice", "--role", "guest")
	assert.Error(t, err)
}

func TestChatCommand(t *testing.T) {
	cfg := writeConfig(t)

	out, err := run(t, cfg, "", "chat", "list students")
	require.NoError(t, err)
	assert.Equal(t, "No students found in the database.\n", out)

	_, err = run(t, cfg, "", "import", "--sample")
	require.NoError(t, err)

	out, err = run(t, cfg, "", "chat", "count", "students")
	require.NoError(t, err)
	assert.Equal(t, "Total number of students: 3\n", out)

	_, err = run(t, cfg, "", "student", "add", "--name", "Laila", "--age", "22", "--grade", "B")
	require.NoError(t, err)

	// Only the first letter is capitalised, so multi-word names miss.
	out, err = run(t, cfg, "", "chat", "find student sara mohamed")
	require.NoError(t, err)
	assert.Equal(t, "No student found with the name 'Sara mohamed'.\n", out)

	out, err = run(t, cfg, "find student laila\n:history\n:clear\n:history\n:quit\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "Found: ID 4, Name: Laila, Age: 22, Grade: B")
	assert.Equal(t, 1, strings.Count(out, "You: find student laila"))
	assert.Contains(t, out, "Chat history cleared.")
}

func TestMissingConfig(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"student", "list"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path is not set")
}

func TestMemoryDriverWarns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`storage_driver: "memory"
accounts:
  dir: "`+t.TempDir()+`"
`), 0o600))

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"--config", path, "student", "list"})
	require.NoError(t, root.Execute())

	assert.Equal(t, "No students found.\n", out.String())
	assert.Contains(t, errOut.String(), "memory storage driver")
}
