package models

// denyList holds packages that must never be offered for hiding.
// Hiding root from these breaks the WebView stack or the system itself.
var denyList = NewHideSet(
	"android",
	"com.android.chrome",
	"com.chrome.beta",
	"com.chrome.dev",
	"com.chrome.canary",
	"com.android.webview",
	"com.google.android.webview",
	"com.topjohnwu.magisk",
)

// IsDenied reports whether pkg is on the fixed deny-list
func IsDenied(pkg string) bool {
	return denyList.Has(pkg)
}

// DenyList returns a copy of the fixed deny-list
func DenyList() []string {
	return denyList.Sorted()
}
