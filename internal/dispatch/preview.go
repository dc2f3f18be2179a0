package dispatch

// previewLimit caps message text echoed into progress lines and the
// received-data log. The transport always gets the full text; this only
// keeps log lines bounded and comparable for later discovery parsing.
const previewLimit = 150

// Preview returns s capped at the preview limit, with an ellipsis marker
// when anything was cut. Rune-based so multi-byte text is never split.
func Preview(s string) string {
	rs := []rune(s)
	if len(rs) <= previewLimit {
		return s
	}
	return string(rs[:previewLimit]) + "..."
}
