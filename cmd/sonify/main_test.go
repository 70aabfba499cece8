package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hydrophone-sonify/internal/domain"
	"github.com/couchcryptid/hydrophone-sonify/internal/pipeline"
)

const testFolder = "https://rawdata-west.oceanobservatories.org/files/RS03AXPS/PC03A/HYDBBA303/2025/05/14/"

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCommand()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["serve"])
	assert.True(t, names["folders"])
}

func TestFoldersCommand(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"folders", "--folder", testFolder, "--folder", "https://mirror.test/hydrophone"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "RS03AXPS_PC03A_HYDBBA303_2025_05_14")
	assert.Contains(t, out.String(), domain.FallbackLabel)
	assert.Contains(t, out.String(), "https://mirror.test/hydrophone/")
}

func TestFoldersCommand_DefaultStations(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"folders"})

	require.NoError(t, root.Execute())
	today := domain.Now().Format("2006_01_02")
	assert.Equal(t, 5, strings.Count(out.String(), "_"+today))
}

func TestRunFlagsOverrideEnv(t *testing.T) {
	t.Setenv("NUM_FILES", "2")
	t.Setenv("EXPORT_FORMAT", "wav")

	cmd := &cobra.Command{Use: "run"}
	var flags runFlags
	flags.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"-n", "7", "--export-format", "MP3", "--folder", testFolder}))

	cfg, err := flags.loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.NumFiles)
	assert.Equal(t, domain.FormatMP3, cfg.ExportFormat)
	assert.Equal(t, []string{testFolder}, cfg.Folders)
	assert.Empty(t, cfg.BaseURLs)
	assert.Equal(t, 8, cfg.MaxWorkers, "unset flags keep the environment value")
}

func TestRunFlagsValidated(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"run", "--num-files", "0"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NUM_FILES")
}

func TestRenderRunSummary(t *testing.T) {
	report := pipeline.RunReport{
		RunID:    "run-42",
		Duration: 3 * time.Second,
		Folders: []pipeline.FolderReport{
			{
				Folder:     domain.ParseFolder(testFolder),
				Selected:   4,
				Outcomes:   []domain.FileOutcome{{Kind: domain.OutcomeSuccess}, {Kind: domain.OutcomeSuccess}, {Kind: domain.OutcomeSuccess}, {Kind: domain.OutcomeFetchFailed}},
				Progress:   domain.Progress{Bytes: 3 << 20},
				SampleRate: 64000,
				Samples:    64000 * 90,
				Clipped:    1200,
				Path:       "sonifications/RS03AXPS_PC03A_HYDBBA303_2025_05_14_120000_sonification.wav",
				Status:     pipeline.StatusExported,
			},
			{
				Folder: domain.ParseFolder("https://rawdata-west.oceanobservatories.org/files/CE02SHBP/LJ01D/HYDBBA106/2025/05/14/"),
				Status: pipeline.StatusNoFiles,
				Err:    errors.New("listing failed"),
			},
		},
	}

	out := renderRunSummary(report)
	assert.Contains(t, out, "RS03AXPS_PC03A_HYDBBA303_2025_05_14")
	assert.Contains(t, out, "exported (1,200 clipped)")
	assert.Contains(t, out, "3/4")
	assert.Contains(t, out, "1m30s")
	assert.Contains(t, out, "3.0 MiB")
	assert.Contains(t, out, "RS03AXPS_PC03A_HYDBBA303_2025_05_14_120000_sonification.wav")
	assert.Contains(t, out, "no files")
	assert.Contains(t, out, "1 of 2 folders exported")
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "1 exported", "totals footer")
}

func TestRenderTable_PadsRowsAndRendersFooter(t *testing.T) {
	out := renderTable(
		[]column{{header: "Name"}, {header: "Size", numeric: true}},
		[][]string{{"short-row"}, {"full", "3.0 MiB"}},
		[]string{"total", "3.0 MiB"},
	)

	assert.Contains(t, out, "short-row")
	assert.Contains(t, out, "total", "footer keeps its case")
	assert.Equal(t, 2, strings.Count(out, "3.0 MiB"))
	assert.Empty(t, renderTable(nil, nil, nil))
}

func TestProgressObserver_NonTerminal(t *testing.T) {
	assert.Nil(t, newProgressObserver(&bytes.Buffer{}))
}

func TestBarObserver(t *testing.T) {
	var out bytes.Buffer
	obs := &barObserver{w: &out}
	folder := domain.ParseFolder(testFolder)

	obs.Progress(folder, domain.Progress{Completed: 1}) // before start: ignored
	obs.FolderStarted(folder, 2)
	obs.Progress(folder, domain.Progress{Total: 2, Completed: 1, ThroughputMBps: 1, Remaining: 2 * time.Second})
	obs.Progress(folder, domain.Progress{Total: 2, Completed: 2, ThroughputMBps: 1})
	obs.FolderFinished(pipeline.FolderReport{})

	assert.Nil(t, obs.bar)
	assert.Contains(t, out.String(), "RS03AXPS_PC03A_HYDBBA303_2025_05_14")
}

func TestProgressDescription(t *testing.T) {
	desc := progressDescription(domain.ParseFolder(testFolder), domain.Progress{ThroughputMBps: 2, Remaining: 1500 * time.Millisecond})
	assert.Equal(t, "RS03AXPS_PC03A_HYDBBA303_2025_05_14 2.0 MiB/s eta 2s", desc)
}
