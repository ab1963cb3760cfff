package models

import (
	"fmt"
	"time"
)

// Stage is a step of the premium reminder ladder.
type Stage int

const (
	StageInstant Stage = iota + 1
	StageTwentyFourHour
	StageFiveDay
	StageWeekly
)

func (s Stage) String() string {
	switch s {
	case StageInstant:
		return "instant"
	case StageTwentyFourHour:
		return "24hour"
	case StageFiveDay:
		return "5day"
	case StageWeekly:
		return "weekly"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ParseStage is the inverse of Stage.String.
func ParseStage(s string) (Stage, error) {
	switch s {
	case "instant":
		return StageInstant, nil
	case "24hour":
		return StageTwentyFourHour, nil
	case "5day":
		return StageFiveDay, nil
	case "weekly":
		return StageWeekly, nil
	default:
		return 0, fmt.Errorf("unknown reminder stage %q", s)
	}
}

func (s Stage) Valid() bool {
	return s >= StageInstant && s <= StageWeekly
}

// Delay is how far after the previous firing this stage is scheduled.
// Instant is measured from the first app close, the others are snapped to
// the ladder's time of day afterwards.
func (s Stage) Delay() time.Duration {
	switch s {
	case StageInstant:
		return 30 * time.Minute
	case StageTwentyFourHour:
		return 24 * time.Hour
	case StageFiveDay:
		return 5 * 24 * time.Hour
	case StageWeekly:
		return 7 * 24 * time.Hour
	default:
		return 0
	}
}

// Slot is the alarm slot that holds a pending alarm for this stage.
// 24hour and 5day share one slot.
func (s Stage) Slot() Slot {
	switch s {
	case StageInstant:
		return SlotInstant
	case StageTwentyFourHour, StageFiveDay:
		return SlotLadder
	case StageWeekly:
		return SlotWeekly
	default:
		return ""
	}
}

// Next returns the stage to arm after s has fired and count reminders
// have been sent. ok is false once the ladder is finished.
func (s Stage) Next(count, limit int) (next Stage, ok bool) {
	if count >= limit {
		return 0, false
	}
	switch s {
	case StageInstant:
		return StageTwentyFourHour, true
	case StageTwentyFourHour:
		return StageFiveDay, true
	case StageFiveDay, StageWeekly:
		return StageWeekly, true
	default:
		return 0, false
	}
}

// Slot identifies an alarm slot. At most one alarm is pending per slot.
type Slot string

const (
	SlotDaily   Slot = "daily"
	SlotInstant Slot = "instant"
	SlotLadder  Slot = "ladder"
	SlotWeekly  Slot = "weekly"
)

// PremiumSlots lists every slot the premium ladder may occupy.
var PremiumSlots = []Slot{SlotInstant, SlotLadder, SlotWeekly}
