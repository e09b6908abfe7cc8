// Package assets provides the stylesheet and HTML page template for the
// live preview.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (default assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// The CLI uses EmbeddedLoader unless an asset path is configured
// (--asset-path or preview.assetPath); it then uses an AssetResolver, which
// tries the custom FilesystemLoader first and falls back to EmbeddedLoader
// if the asset is not found, so a user can override only the stylesheet
// and keep the page.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css
//	└── templates/
//	    └── {name}.html
//
// # Page
//
// BuildPage renders the page template with the current preview, the buffer
// and the chroma stylesheet for highlighted code. Math spans are typeset in
// the browser by KaTeX, loaded from a CDN.
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
