package domain

import (
	"strconv"
	"strings"
)

// PlanID enumerates subscription plans.
type PlanID string

const (
	PlanFree      PlanID = "free"
	PlanPro       PlanID = "pro"
	PlanExclusive PlanID = "exclusive"
)

// PlanOrder is the fixed display order of the catalog.
var PlanOrder = []PlanID{PlanFree, PlanPro, PlanExclusive}

// ParsePlanID normalizes raw and reports whether it names a known plan.
func ParsePlanID(raw string) (PlanID, bool) {
	id := PlanID(strings.ToLower(strings.TrimSpace(raw)))
	switch id {
	case PlanFree, PlanPro, PlanExclusive:
		return id, true
	}
	return "", false
}

// ToolAccess describes which tools a plan unlocks.
type ToolAccess string

const (
	ToolAccessBasic ToolAccess = "basic"
	ToolAccessAll   ToolAccess = "all"
)

// Tool is a download or conversion tool offered by the front end.
type Tool string

const (
	ToolVideo     Tool = "video"
	ToolAudio     Tool = "audio"
	ToolConvert   Tool = "convert"
	ToolCompress  Tool = "compress"
	ToolPlaylist  Tool = "playlist"
	ToolSubtitles Tool = "subtitles"
)

var basicTools = map[Tool]struct{}{
	ToolVideo: {},
	ToolAudio: {},
}

// ParseTool normalizes raw into a known tool.
func ParseTool(raw string) (Tool, bool) {
	t := Tool(strings.ToLower(strings.TrimSpace(raw)))
	switch t {
	case ToolVideo, ToolAudio, ToolConvert, ToolCompress, ToolPlaylist, ToolSubtitles:
		return t, true
	}
	return "", false
}

// DailyLimit is a per-day download allowance. Unlimited is the only negative value.
type DailyLimit int

// Unlimited marks a plan without a daily cap.
const Unlimited DailyLimit = -1

// IsUnlimited reports whether the limit is uncapped.
func (l DailyLimit) IsUnlimited() bool { return l < 0 }

// MarshalJSON renders unlimited as null so clients never see the sentinel.
func (l DailyLimit) MarshalJSON() ([]byte, error) {
	if l.IsUnlimited() {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(int(l))), nil
}

// PlanConfig is the immutable description of one plan.
type PlanConfig struct {
	ID                PlanID     `json:"id"`
	Label             string     `json:"label"`
	MonthlyPriceCents int        `json:"monthlyPriceCents"`
	DailyLimit        DailyLimit `json:"dailyLimit"`
	Features          []string   `json:"features"`
	ToolAccess        ToolAccess `json:"toolAccess"`
}

// AllowsTool reports whether the plan grants access to tool.
func (p PlanConfig) AllowsTool(tool Tool) bool {
	if p.ToolAccess == ToolAccessAll {
		return true
	}
	_, ok := basicTools[tool]
	return ok
}
