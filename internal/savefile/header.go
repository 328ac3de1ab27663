package savefile

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/nao1215/savestat/internal/binread"
	"github.com/nao1215/savestat/internal/model"
)

// MinHeaderSize is the size of a header whose strings are all empty.
// Six string prefixes, six uint32 fields, the tick count and one flag byte.
const MinHeaderSize = 6*4 + 6*4 + 8 + 1

const (
	ticksPerSecond = 10_000_000

	// ticksEpochOffset is the number of seconds between 0001-01-01 and the
	// Unix epoch.
	ticksEpochOffset = 62_135_596_800

	// maxRawModMetadata is the number of runes of unparsable mod metadata
	// kept in the header.
	maxRawModMetadata = 200
)

// DecodeHeader decodes the save header at the start of data.
// Any read error is fatal and returned wrapped in ErrMalformedHeader.
// Problems with best-effort fields are returned as diagnostics.
func (d *Decoder) DecodeHeader(data []byte) (*model.SaveHeader, []model.Diagnostic, error) {
	if len(data) < MinHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes, need at least %d: %w",
			ErrMalformedHeader, len(data), MinHeaderSize, binread.ErrUnexpectedEOF)
	}

	hr := headerReader{r: binread.NewReader(data, binread.WithMaxStringBytes(d.maxStringBytes))}
	h := &model.SaveHeader{}

	h.HeaderVersion = hr.u32("headerVersion")
	h.SaveVersion = hr.u32("saveVersion")
	h.BuildVersion = hr.u32("buildVersion")
	h.SaveName = hr.str("saveName")
	h.MapName = hr.str("mapName")
	_ = hr.str("mapOptions")
	h.SessionName = hr.str("sessionName")
	h.PlayTimeSeconds = hr.u32("playTime")
	h.SaveDateTicks = hr.u64("saveDateTicks")
	h.Visibility = hr.u8("visibility")
	h.EditorObjectVersion = hr.u32("editorObjectVersion")
	modMetadata := hr.str("modMetadata")
	isModded := hr.u32("isModded")
	h.PersistentID = hr.str("persistentId")

	if hr.err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedHeader, hr.err)
	}

	h.PlayTime = model.FormatPlayTime(h.PlayTimeSeconds)
	h.IsModded = isModded != 0

	var diags []model.Diagnostic

	h.SaveTime = TicksToTime(h.SaveDateTicks)
	if !h.SaveTime.Valid {
		diags = append(diags, model.NewDiagnostic(model.SeverityInfo, model.StageHeader,
			"save timestamp %d is out of range", h.SaveDateTicks))
	}

	if modMetadata != "" {
		mods, err := parseModMetadata(modMetadata)
		if err != nil {
			h.ModMetadataRaw = truncateRunes(modMetadata, maxRawModMetadata)
			diags = append(diags, model.NewDiagnostic(model.SeverityWarning, model.StageHeader,
				"mod metadata is not valid JSON: %v", err))
		} else {
			h.Mods = model.Some(mods)
		}
	}

	return h, diags, nil
}

// TicksToTime converts 100ns ticks since 0001-01-01 to a UTC time.
// Results outside years 1 through 9999 are absent.
func TicksToTime(ticks uint64) model.Optional[time.Time] {
	secs := int64(ticks / ticksPerSecond)
	nanos := int64(ticks%ticksPerSecond) * 100
	t := time.Unix(secs-ticksEpochOffset, nanos).UTC()
	if t.Year() < 1 || t.Year() > 9999 {
		return model.None[time.Time]()
	}
	return model.Some(t)
}

type modMetadata struct {
	Mods []struct {
		Name      string `json:"Name"`
		Reference string `json:"Reference"`
	} `json:"Mods"`
}

func parseModMetadata(raw string) (model.ModList, error) {
	var meta modMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return model.ModList{}, err
	}

	list := model.ModList{
		Count: len(meta.Mods),
		Names: make([]string, 0, min(len(meta.Mods), model.MaxModNames)),
	}
	for _, m := range meta.Mods {
		if len(list.Names) == model.MaxModNames {
			break
		}
		switch {
		case m.Name != "":
			list.Names = append(list.Names, m.Name)
		case m.Reference != "":
			list.Names = append(list.Names, m.Reference)
		default:
			list.Names = append(list.Names, "?")
		}
	}
	return list, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}

// headerReader reads header fields in order and remembers the first error,
// so that DecodeHeader reads like the field table.
//
// Design decision: We record the first error and turn later reads into no-ops
// returning zero values rather than checking an error after every field. The
// header has over a dozen fields and the error still names the first one that
// failed.
type headerReader struct {
	r   *binread.Reader
	err error
}

func (hr *headerReader) fail(field string, err error) {
	if hr.err == nil {
		hr.err = fmt.Errorf("field %s: %w", field, err)
	}
}

func (hr *headerReader) u8(field string) uint8 {
	if hr.err != nil {
		return 0
	}
	v, err := hr.r.ReadUint8()
	if err != nil {
		hr.fail(field, err)
	}
	return v
}

func (hr *headerReader) u32(field string) uint32 {
	if hr.err != nil {
		return 0
	}
	v, err := hr.r.ReadUint32()
	if err != nil {
		hr.fail(field, err)
	}
	return v
}

func (hr *headerReader) u64(field string) uint64 {
	if hr.err != nil {
		return 0
	}
	v, err := hr.r.ReadUint64()
	if err != nil {
		hr.fail(field, err)
	}
	return v
}

func (hr *headerReader) str(field string) string {
	if hr.err != nil {
		return ""
	}
	v, err := hr.r.ReadString()
	if err != nil {
		hr.fail(field, err)
	}
	return v
}
