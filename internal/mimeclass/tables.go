package mimeclass

// Canonical extension tables. Lookups use the lowercased dotted suffix.
// Extensions absent from both sets fall through to the content heuristics.

var textualExtensions = map[string]bool{
	".c": true, ".cc": true, ".cfg": true, ".cmake": true, ".conf": true,
	".cpp": true, ".cs": true, ".css": true, ".csv": true, ".dart": true,
	".env": true, ".go": true, ".gradle": true, ".h": true, ".hpp": true,
	".html": true, ".ini": true, ".java": true, ".js": true, ".json": true,
	".jsx": true, ".kt": true, ".less": true, ".lock": true, ".lua": true,
	".m": true, ".md": true, ".php": true, ".pl": true, ".properties": true,
	".ps1": true, ".py": true, ".pyi": true, ".r": true, ".rb": true,
	".rs": true, ".rst": true, ".sass": true, ".scala": true, ".scss": true,
	".sh": true, ".sql": true, ".swift": true, ".toml": true, ".ts": true,
	".tsx": true, ".txt": true, ".vue": true, ".yaml": true, ".yml": true,
}

var binaryExtensions = map[string]bool{
	".7z": true, ".apng": true, ".avi": true, ".bmp": true, ".class": true,
	".dll": true, ".dylib": true, ".exe": true, ".gif": true, ".gz": true,
	".ico": true, ".iso": true, ".jar": true, ".jpeg": true, ".jpg": true,
	".lz": true, ".mkv": true, ".mov": true, ".mp3": true, ".mp4": true,
	".ogg": true, ".otf": true, ".pdf": true, ".png": true, ".psd": true,
	".pyd": true, ".rar": true, ".so": true, ".svgz": true, ".tar": true,
	".tgz": true, ".ttf": true, ".wav": true, ".webm": true, ".webp": true,
	".woff": true, ".woff2": true, ".xz": true, ".zip": true,
}

var textualMIMEPrefixes = []string{
	"text/",
	"application/json",
	"application/xml",
	"application/javascript",
	"application/x-javascript",
	"application/x-sh",
}

var textualMIMETypes = map[string]bool{
	"application/x-empty": true,
	"inode/x-empty":       true,
}
