package main

import (
	"flag"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runSetupLogger(t *testing.T, level string) error {
	t.Helper()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("log-level", "", "")
	require.NoError(t, set.Set("log-level", level))

	return setupLogger(cli.NewContext(cli.NewApp(), set, nil))
}

func TestSetupLogger(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	tests := []struct {
		level   string
		wantErr bool
	}{
		{level: "debug"},
		{level: "info"},
		{level: "WARN"},
		{level: "error"},
		{level: "verbose", wantErr: true},
		{level: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			err := runSetupLogger(t, tt.level)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestServiceFlagsRequireDBAndTenant(t *testing.T) {
	var dbRequired, tenantRequired bool
	for _, f := range serviceFlags() {
		sf, ok := f.(*cli.StringFlag)
		if !ok {
			continue
		}
		switch sf.Name {
		case "db":
			dbRequired = sf.Required
		case "tenant":
			tenantRequired = sf.Required
		}
	}
	assert.True(t, dbRequired)
	assert.True(t, tenantRequired)
}

func TestAPITokenComesFromEnvironment(t *testing.T) {
	for _, f := range serviceFlags() {
		if sf, ok := f.(*cli.StringFlag); ok && sf.Name == "api-token" {
			assert.Contains(t, sf.EnvVars, "KNOWLEDGE_API_TOKEN")
			return
		}
	}
	t.Fatal("api-token flag not found")
}

func TestIngestCommandRejectsMissingFile(t *testing.T) {
	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Action: ingestCommand,
				Flags:  serviceFlags(),
			},
		},
	}

	err := app.Run([]string{"knowledge", "ingest",
		"--db", t.TempDir(), "--tenant", "tenant-a",
		"/nonexistent/file.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read")
}
