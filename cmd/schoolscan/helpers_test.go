package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

const testDatasetHeader = "URN,EstablishmentName,Street,Town,Postcode,TypeOfEstablishment (name),PhaseOfEducation (name),NumberOfPupils,PercentageFSM,SchoolWebsite\n"

// writeDataset writes a dataset CSV with two schools. The first school's
// website is set to website.
func writeDataset(t *testing.T, website string) string {
	t.Helper()

	content := testDatasetHeader +
		"100001,Oak Primary School,1 Oak Lane,Leeds,LS1 1AA,Community school,Primary,420,36.5," + website + "\n" +
		"100002,Birch Academy,2 Birch Road,York,YO1 2BB,Academy converter,Secondary,1200,12,\n"

	path := filepath.Join(t.TempDir(), "edubase.csv")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}
	return path
}

// writeConfig writes a configuration file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".schoolscan")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
