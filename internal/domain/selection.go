package domain

// SelectFiles picks the files to process from a chronological listing: the
// last n files before the newest one. The newest file may still be mid-write
// at the archive, so it is skipped whenever there is more than one file. A
// listing of zero or one file is returned unchanged.
func SelectFiles(files []FileHandle, n int) []FileHandle {
	if len(files) <= 1 {
		return append([]FileHandle(nil), files...)
	}
	end := len(files) - 1
	if n <= 0 {
		return []FileHandle{}
	}
	start := max(end-n, 0)
	return append([]FileHandle(nil), files[start:end]...)
}
