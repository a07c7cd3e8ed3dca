package types

import (
	"slices"
	"time"
)

const (
	AdapterQiwa   = "qiwa"
	AdapterGOSI   = "gosi"
	AdapterAbsher = "absher"
	AdapterSeha   = "seha"
	AdapterNCAAA  = "ncaaa"
	AdapterQiyas  = "qiyas"
	AdapterCHI    = "chi"
)

var adapters = []string{
	AdapterQiwa, AdapterGOSI, AdapterAbsher, AdapterSeha, AdapterNCAAA, AdapterQiyas, AdapterCHI,
}

func Adapters() []string { return slices.Clone(adapters) }

func KnownAdapter(name string) bool { return slices.Contains(adapters, name) }

// SyncResult is the outcome of one adapter sync. A failed adapter never
// affects the result of another.
type SyncResult struct {
	Adapter  string    `json:"adapter"`
	Success  bool      `json:"success"`
	Message  string    `json:"message,omitempty"`
	Records  int       `json:"records"`
	SyncedAt time.Time `json:"synced_at"`
}

type AdapterStatus struct {
	Adapter    string         `json:"adapter"`
	Configured bool           `json:"configured"`
	Portal     map[string]any `json:"portal,omitempty"`
	LastSync   *SyncResult    `json:"last_sync,omitempty"`
}
