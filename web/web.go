// Package web holds the embedded single page chat UI.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte
