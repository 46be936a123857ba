package main

import (
	"testing"
)

func TestRootRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"serve", "scheduler", "migrate", "seed", "run-task"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == nil || cmd.Name() != name {
			t.Fatalf("subcommand %q not registered: %v", name, err)
		}
	}
}

func TestRunTaskRequiresName(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run-task"})
	if err := root.Execute(); err == nil {
		t.Fatalf("run-task without a task name should fail")
	}
}

func TestMigrateAndSeedAgainstSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOG_MODE", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", dir+"/cli.db")

	root := newRootCmd()
	root.SetArgs([]string{"migrate"})
	if err := root.Execute(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	root = newRootCmd()
	root.SetArgs([]string{"seed", "--file", dir + "/missing.yaml"})
	if err := root.Execute(); err == nil {
		t.Fatalf("seed with a missing file should fail")
	}
}
