package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// FallbackLabel names exports from folders whose URL does not follow the
// archive's site/node/sensor/date layout.
const FallbackLabel = "HYDROPHONE_SONIFICATION"

// folderRe matches the archive layout "/files/<site>/<node>/<sensor>/<yyyy>/<mm>/<dd>/".
var folderRe = regexp.MustCompile(`/files/([^/]+)/([^/]+)/([^/]+)/(\d{4})/(\d{2})/(\d{2})/`)

// FolderInfo is the metadata recovered from a folder URL. It is either a
// ParsedFolder or an OpaqueFolder.
type FolderInfo interface {
	// FolderPart is the prefix used when naming exported files.
	FolderPart() string
	isFolderInfo()
}

// ParsedFolder is a folder URL that matched the archive layout.
type ParsedFolder struct {
	Site   string
	Node   string
	Sensor string
	Year   string
	Month  string
	Day    string
}

func (p ParsedFolder) FolderPart() string {
	return strings.Join([]string{p.Site, p.Node, p.Sensor, p.Year, p.Month, p.Day}, "_")
}

func (ParsedFolder) isFolderInfo() {}

// OpaqueFolder is a folder URL with no recognizable structure.
type OpaqueFolder struct {
	Label string
}

func (o OpaqueFolder) FolderPart() string { return o.Label }

func (OpaqueFolder) isFolderInfo() {}

// RemoteFolder identifies one archive directory to process.
type RemoteFolder struct {
	URL  string
	Info FolderInfo
}

// FileHandle is the URL of one remote MiniSEED file.
type FileHandle string

// ParseFolder builds a RemoteFolder from a URL. A trailing slash is added when
// missing so relative file links resolve inside the folder.
func ParseFolder(rawURL string) RemoteFolder {
	u := strings.TrimSpace(rawURL)
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}

	m := folderRe.FindStringSubmatch(u)
	if m == nil {
		return RemoteFolder{URL: u, Info: OpaqueFolder{Label: FallbackLabel}}
	}
	return RemoteFolder{
		URL: u,
		Info: ParsedFolder{
			Site:   m[1],
			Node:   m[2],
			Sensor: m[3],
			Year:   m[4],
			Month:  m[5],
			Day:    m[6],
		},
	}
}

// FoldersForDate appends the UTC date of day to each base URL, producing the
// archive folder for that day.
func FoldersForDate(baseURLs []string, day time.Time) []RemoteFolder {
	d := day.UTC()
	folders := make([]RemoteFolder, 0, len(baseURLs))
	for _, base := range baseURLs {
		base = strings.TrimRight(strings.TrimSpace(base), "/")
		if base == "" {
			continue
		}
		folders = append(folders, ParseFolder(fmt.Sprintf("%s/%04d/%02d/%02d/", base, d.Year(), int(d.Month()), d.Day())))
	}
	return folders
}
