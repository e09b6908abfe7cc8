// Package server serves the live editing page.
//
// One Editor is shared by every connected browser. The Hub fans editor
// output (preview surface, banners, file label, busy state, finished
// downloads) out to all WebSocket clients; edits, clear and convert
// requests flow back into the Editor.
//
// Server to client messages are JSON objects with a "type" field:
//
//	surface  {version, kind, html}
//	text     {text}
//	banner   {banner: {kind, message, visible}}
//	label    {label}
//	busy     {busy}
//	download {url, filename}
//
// Client to server messages: edit {text}, clear {confirmed}, convert.
package server
