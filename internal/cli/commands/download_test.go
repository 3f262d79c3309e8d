package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gobis-cli/gobis/internal/openbis"
)

func TestNewDownloadCommand_Flags(t *testing.T) {
	cmd := NewDownloadCommand()

	if cmd.Use != "download <dataset-code>" {
		t.Errorf("expected Use to be 'download <dataset-code>', got %s", cmd.Use)
	}

	for _, flag := range []string{"output", "list-only"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag to be registered", flag)
		}
	}
}

func TestNewDownloadCollectionCommand_Flags(t *testing.T) {
	cmd := NewDownloadCollectionCommand()

	if cmd.Use != "download-collection <collection-path>" {
		t.Errorf("expected Use to be 'download-collection <collection-path>', got %s", cmd.Use)
	}

	for _, flag := range []string{"output", "list-only", "limit"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected --%s flag to be registered", flag)
		}
	}
}

func TestRenderFileList(t *testing.T) {
	var buf bytes.Buffer
	files := []openbis.DataSetFile{
		{Path: "report.log.txt", Size: 1024},
		{Path: "lib/predicted.speclib", Size: 4096},
	}

	renderFileList(&buf, "Files", files, true)
	out := buf.String()

	expected := []string{
		"Files",
		"report.log.txt",
		"lib/predicted.speclib",
		"2 files",
	}
	for _, exp := range expected {
		if !strings.Contains(out, exp) {
			t.Errorf("expected output to contain %q, got:\n%s", exp, out)
		}
	}
}
