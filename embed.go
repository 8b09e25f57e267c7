package portalengine

import "embed"

// EmbeddedAssets contains static assets shipped with the engine:
// portal.css, admin.css, admin.js
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
