package cli

import "fmt"

// FormatDuration renders a millisecond count for humans, e.g. "750ms",
// "2.5s", "1m12.0s".
func FormatDuration(ms int) string {
	switch {
	case ms < 1000:
		return fmt.Sprintf("%dms", ms)
	case ms < 60_000:
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%dm%.1fs", ms/60_000, float64(ms%60_000)/1000)
}

// FormatBytes renders a byte count for humans, e.g. "1.25 MB".
func FormatBytes(bytes int64) string {
	units := []struct {
		size int64
		name string
	}{
		{1 << 30, "GB"},
		{1 << 20, "MB"},
		{1 << 10, "KB"},
	}
	for _, u := range units {
		if bytes >= u.size {
			return fmt.Sprintf("%.2f %s", float64(bytes)/float64(u.size), u.name)
		}
	}
	return fmt.Sprintf("%d B", bytes)
}

// FormatBytesInt is FormatBytes for int counts.
func FormatBytesInt(bytes int) string {
	return FormatBytes(int64(bytes))
}
