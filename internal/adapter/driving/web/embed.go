package web

import "embed"

// StaticFS holds the embedded static assets (stylesheet and the toast and
// password-toggle script).
//
//go:embed static/*
var StaticFS embed.FS
