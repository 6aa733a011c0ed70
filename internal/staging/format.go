package staging

import (
	"math"
	"strconv"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders bytes with binary units and up to two decimals,
// e.g. 2048 -> "2 KB", 1536 -> "1.5 KB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

var icons = map[string]string{
	".pdf":  "📄",
	".doc":  "📝",
	".docx": "📝",
	".txt":  "📄",
	".jpg":  "🖼️",
	".png":  "🖼️",
	".zip":  "📦",
}

// Icon returns a display hint for the extension, falling back to a generic document.
func Icon(ext string) string {
	if icon, ok := icons[ext]; ok {
		return icon
	}
	return "📄"
}
