package server

import (
	"github.com/alnah/go-md2docx/internal/status"
	"github.com/alnah/go-md2docx/internal/surface"
)

// Message types.
const (
	TypeSurface  = "surface"
	TypeText     = "text"
	TypeBanner   = "banner"
	TypeLabel    = "label"
	TypeBusy     = "busy"
	TypeDownload = "download"

	TypeEdit    = "edit"
	TypeClear   = "clear"
	TypeConvert = "convert"
)

type surfaceMsg struct {
	Type    string `json:"type"`
	Version uint64 `json:"version"`
	Kind    string `json:"kind"`
	HTML    string `json:"html"`
}

func newSurfaceMsg(s surface.Snapshot) surfaceMsg {
	return surfaceMsg{Type: TypeSurface, Version: s.Version, Kind: s.Kind.String(), HTML: s.HTML}
}

type textMsg struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type bannerMsg struct {
	Type   string        `json:"type"`
	Banner status.Banner `json:"banner"`
}

type labelMsg struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

type busyMsg struct {
	Type string `json:"type"`
	Busy bool   `json:"busy"`
}

type downloadMsg struct {
	Type     string `json:"type"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// inbound is any client to server message.
type inbound struct {
	Type      string `json:"type"`
	Text      string `json:"text"`
	Confirmed bool   `json:"confirmed"`
}
