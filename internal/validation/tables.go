package validation

// highRiskExtensions is the hardcoded set of executable and script
// extensions. It feeds the double-extension heuristic, the advisory warning,
// and the fallback policy when a declared content type is missing or unknown.
// Initialized once, never mutated.
var highRiskExtensions = map[string]struct{}{
	"exe": {}, "com": {}, "bat": {}, "cmd": {}, "scr": {}, "vbs": {},
	"vbe": {}, "js": {}, "jse": {}, "ws": {}, "wsf": {}, "wsc": {},
	"wsh": {}, "ps1": {}, "ps1xml": {}, "ps2": {}, "ps2xml": {},
	"psc1": {}, "psc2": {}, "msh": {}, "msh1": {}, "msh2": {},
	"mshxml": {}, "msh1xml": {}, "msh2xml": {}, "scf": {}, "lnk": {},
	"inf": {}, "reg": {}, "dll": {}, "app": {}, "jar": {}, "jsp": {},
	"jspx": {}, "asp": {}, "aspx": {}, "php": {}, "php3": {},
	"php4": {}, "php5": {},
}

// contentTypeExtensions maps a declared content type to the extensions it may
// legitimately carry. Content types absent from this table fall back to the
// high-risk check.
var contentTypeExtensions = map[string]map[string]struct{}{
	"application/x-msdownload":    {"exe": {}, "dll": {}, "com": {}},
	"application/x-msdos-program": {"exe": {}, "com": {}, "bat": {}},
	"application/x-executable":    {"exe": {}},
	"application/x-sh":            {"sh": {}},
	"application/x-batch":         {"bat": {}, "cmd": {}},
	"text/javascript":             {"js": {}},
	"application/javascript":      {"js": {}},
	"application/x-vbscript":      {"vbs": {}},
	"application/java-archive":    {"jar": {}},
	"application/pdf":             {"pdf": {}},
	"image/jpeg":                  {"jpg": {}, "jpeg": {}},
	"image/png":                   {"png": {}},
	"image/gif":                   {"gif": {}},
}

// IsHighRisk reports whether the lowercased extension belongs to the static
// high-risk set.
func IsHighRisk(ext string) bool {
	_, found := highRiskExtensions[ext]
	return found
}
