package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFolderURL = "https://rawdata-west.oceanobservatories.org/files/CE02SHBP/LJ01D/HYDBBA106/2025/05/14/"

func TestParseFolder(t *testing.T) {
	t.Run("archive layout", func(t *testing.T) {
		f := ParseFolder(testFolderURL)
		assert.Equal(t, testFolderURL, f.URL)

		info, ok := f.Info.(ParsedFolder)
		require.True(t, ok, "expected ParsedFolder, got %T", f.Info)
		assert.Equal(t, ParsedFolder{
			Site: "CE02SHBP", Node: "LJ01D", Sensor: "HYDBBA106",
			Year: "2025", Month: "05", Day: "14",
		}, info)
		assert.Equal(t, "CE02SHBP_LJ01D_HYDBBA106_2025_05_14", f.Info.FolderPart())
	})

	t.Run("missing trailing slash", func(t *testing.T) {
		f := ParseFolder("https://rawdata-west.oceanobservatories.org/files/RS03AXPS/PC03A/HYDBBA303/2025/01/02")
		assert.Equal(t, "https://rawdata-west.oceanobservatories.org/files/RS03AXPS/PC03A/HYDBBA303/2025/01/02/", f.URL)
		assert.Equal(t, "RS03AXPS_PC03A_HYDBBA303_2025_01_02", f.Info.FolderPart())
	})

	t.Run("unrecognized layout", func(t *testing.T) {
		f := ParseFolder("http://localhost:8080/data/")
		assert.IsType(t, OpaqueFolder{}, f.Info)
		assert.Equal(t, FallbackLabel, f.Info.FolderPart())
	})

	t.Run("non-numeric date", func(t *testing.T) {
		f := ParseFolder("https://example.org/files/A/B/C/20xx/05/14/")
		assert.Equal(t, FallbackLabel, f.Info.FolderPart())
	})
}

func TestFoldersForDate(t *testing.T) {
	day := time.Date(2025, time.March, 7, 23, 59, 0, 0, time.UTC)
	folders := FoldersForDate([]string{
		"https://rawdata-west.oceanobservatories.org/files/CE02SHBP/LJ01D/HYDBBA106",
		"https://rawdata-west.oceanobservatories.org/files/RS01SBPS/PC01A/HYDBBA103/",
		"  ",
	}, day)

	require.Len(t, folders, 2)
	assert.Equal(t, "https://rawdata-west.oceanobservatories.org/files/CE02SHBP/LJ01D/HYDBBA106/2025/03/07/", folders[0].URL)
	assert.Equal(t, "RS01SBPS_PC01A_HYDBBA103_2025_03_07", folders[1].Info.FolderPart())
}

func TestFoldersForDate_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	day := time.Date(2025, time.March, 7, 20, 0, 0, 0, loc) // 2025-03-08 04:00 UTC
	folders := FoldersForDate([]string{"https://example.org/files/A/B/C"}, day)
	require.Len(t, folders, 1)
	assert.Equal(t, "A_B_C_2025_03_08", folders[0].Info.FolderPart())
}
