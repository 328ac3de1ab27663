package model

import (
	"fmt"
	"time"
)

// SaveHeader is the metadata block found at the start of every save container.
// It is built once by the header decoder and treated as read-only afterwards.
type SaveHeader struct {
	// HeaderVersion is the version of the header layout itself.
	HeaderVersion uint32 `json:"headerVersion"`

	// SaveVersion is the version of the world serialization.
	SaveVersion uint32 `json:"saveVersion"`

	// BuildVersion is the game build (changelist) that wrote the save.
	BuildVersion uint32 `json:"buildVersion"`

	// SaveName is the file-level name chosen by the player.
	SaveName string `json:"saveName"`

	// MapName is the level the session runs on.
	MapName string `json:"mapName"`

	// SessionName groups all saves written by the same playthrough.
	SessionName string `json:"sessionName"`

	// PlayTimeSeconds is the accumulated play time.
	PlayTimeSeconds uint32 `json:"playTimeSeconds"`

	// PlayTime is PlayTimeSeconds rendered as "<h>h <m>m <s>s".
	PlayTime string `json:"playTime"`

	// SaveDateTicks is the raw timestamp in 100ns ticks since 0001-01-01.
	SaveDateTicks uint64 `json:"saveDateTicks"`

	// SaveTime is SaveDateTicks converted to UTC.
	// Absent when the tick count is outside the representable range.
	SaveTime Optional[time.Time] `json:"saveTime"`

	// Visibility is the session visibility flag.
	Visibility uint8 `json:"visibility"`

	// EditorObjectVersion is the object serialization version.
	EditorObjectVersion uint32 `json:"editorObjectVersion"`

	// Mods is the mod list parsed from the embedded metadata blob.
	Mods Optional[ModList] `json:"mods,omitzero"`

	// ModMetadataRaw keeps a truncated copy of mod metadata that could not
	// be parsed as JSON.
	ModMetadataRaw string `json:"modMetadataRaw,omitempty"`

	// IsModded is true when the save was written with mods enabled.
	IsModded bool `json:"isModded"`

	// PersistentID identifies the save across renames.
	PersistentID string `json:"persistentId"`
}

// ModList summarizes the mods recorded in the save metadata.
type ModList struct {
	// Count is the total number of mods, including ones not listed in Names.
	Count int `json:"count"`

	// Names holds up to MaxModNames mod names.
	Names []string `json:"names"`
}

// MaxModNames caps the number of mod names kept in a ModList.
const MaxModNames = 50

// FormatPlayTime renders seconds as "<h>h <m>m <s>s".
func FormatPlayTime(seconds uint32) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
