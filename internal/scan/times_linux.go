package scan

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// fileTimes returns the opening and closing dates for a file: birth time when
// the filesystem records one, otherwise the inode change time, paired with
// the modification time.
func fileTimes(path string, info os.FileInfo) (opening, closing time.Time) {
	closing = info.ModTime()
	opening = closing

	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stx); err == nil {
		if stx.Mask&unix.STATX_BTIME != 0 && stx.Btime.Sec != 0 {
			opening = time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
			return opening, closing
		}
	}

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err == nil {
		opening = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return opening, closing
}
