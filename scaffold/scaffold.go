// Package scaffold embeds the project template rendered by the
// portalengine CLI's "new" command.
package scaffold

import "embed"

// Templates holds the scaffolding tree. Files ending in .tmpl are rendered
// as Go text templates; the "dotenv" file is written out as .env.example.
//
//go:embed all:templates
var Templates embed.FS
