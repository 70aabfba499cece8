package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const archiveFolder = "/files/RS03AXPS/PC03A/HYDBBA303/2025/05/14/"

// mseedRecord encodes samples as one 512-byte big-endian INT32 data record at
// 100 Hz.
func mseedRecord(start time.Time, samples ...int32) []byte {
	buf := make([]byte, 512)
	be := binary.BigEndian

	copy(buf[0:8], "000001D ")
	copy(buf[8:20], "AXBA1  HDHOO")
	be.PutUint16(buf[20:22], uint16(start.Year()))
	be.PutUint16(buf[22:24], uint16(start.YearDay()))
	buf[24], buf[25], buf[26] = byte(start.Hour()), byte(start.Minute()), byte(start.Second())
	be.PutUint16(buf[30:32], uint16(len(samples)))
	be.PutUint16(buf[32:34], 100)
	be.PutUint16(buf[34:36], 1)
	buf[39] = 1
	be.PutUint16(buf[44:46], 64)
	be.PutUint16(buf[46:48], 48)

	be.PutUint16(buf[48:50], 1000)
	buf[52], buf[53], buf[54] = 3, 1, 9

	for i, s := range samples {
		be.PutUint32(buf[64+4*i:], uint32(s))
	}
	return buf
}

func newArchiveServer(t *testing.T) *httptest.Server {
	t.Helper()
	start := time.Date(2025, 5, 14, 7, 0, 0, 0, time.UTC)
	files := map[string][]byte{
		"a.mseed": mseedRecord(start, 10, 20, 30, 40),
		"b.mseed": mseedRecord(start.Add(5*time.Minute), 50, 60, 70, 80),
		// still being written, never selected
		"c.mseed": []byte("partial"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+archiveFolder+"{$}", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><pre>`)
		for _, name := range []string{"a.mseed", "b.mseed", "c.mseed"} {
			fmt.Fprintf(w, `<a href="%s">%s</a>`+"\n", name, name)
		}
		fmt.Fprint(w, `</pre></body></html>`)
	})
	mux.HandleFunc("GET "+archiveFolder+"{name}", func(w http.ResponseWriter, r *http.Request) {
		data, ok := files[r.PathValue("name")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, r.PathValue("name"), time.Time{}, bytes.NewReader(data))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunCommand_ExportsFolderFromArchive(t *testing.T) {
	t.Setenv("FETCH_RETRY_DELAY", "0s")
	t.Setenv("LOG_LEVEL", "error")
	srv := newArchiveServer(t)
	outDir := filepath.Join(t.TempDir(), "out")

	root := newRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"run",
		"--folder", srv.URL + archiveFolder,
		"--num-files", "2",
		"--max-workers", "2",
		"--output-dir", outDir,
	})

	require.NoError(t, root.Execute())

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, regexp.MustCompile(`^RS03AXPS_PC03A_HYDBBA303_2025_05_14_\d{6}_sonification\.wav$`), entries[0].Name())

	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, int64(44+2*8), info.Size(), "44-byte header plus eight 16-bit samples")

	assert.Contains(t, stdout.String(), "2/2")
	assert.Contains(t, stdout.String(), "1 of 1 folders exported")
}
