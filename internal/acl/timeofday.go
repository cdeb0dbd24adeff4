package acl

import (
	"strings"
	"time"
)

// weekdays is a set of days, bit i standing for time.Weekday(i).
type weekdays uint8

func (w weekdays) has(d time.Weekday) bool {
	return w&(1<<uint(d)) != 0
}

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// decodeDayOfWeek parses "mon,tue,...".
func decodeDayOfWeek(value string) (weekdays, error) {
	var w weekdays
	for _, part := range strings.Split(value, ",") {
		d, ok := dayNames[strings.ToLower(strings.TrimSpace(part))]
		if !ok {
			return 0, newSyntaxError(ErrInvalidBindRule, MsgDayOfWeek, part, "invalid day of week")
		}
		w |= 1 << uint(d)
	}
	return w, nil
}

func (l *BindLeaf) evalDayOfWeek(ctx *EvalContext) Result {
	return boolResult(l.days.has(ctx.now().Weekday())).withType(l.Type, false)
}

// decodeTimeOfDay parses an HHMM time between 0000 and 2359.
func decodeTimeOfDay(value string) (int, error) {
	v := strings.TrimSpace(value)
	if len(v) != 4 {
		return 0, newSyntaxError(ErrInvalidBindRule, MsgTimeOfDay, value, "time of day must be four digits HHMM")
	}
	n := 0
	for i := 0; i < 4; i++ {
		if v[i] < '0' || v[i] > '9' {
			return 0, newSyntaxError(ErrInvalidBindRule, MsgTimeOfDay, value, "time of day must be four digits HHMM")
		}
		n = n*10 + int(v[i]-'0')
	}
	if n/100 > 23 || n%100 > 59 {
		return 0, newSyntaxError(ErrInvalidBindRule, MsgTimeOfDay, value, "time of day is out of range")
	}
	return n, nil
}

func (l *BindLeaf) evalTimeOfDay(ctx *EvalContext) Result {
	now := ctx.now()
	cur := now.Hour()*100 + now.Minute()
	var ok bool
	switch l.Type {
	case OpEqual, OpNotEqual:
		ok = cur == l.timeOfDay
	case OpLess:
		ok = cur < l.timeOfDay
	case OpLessOrEqual:
		ok = cur <= l.timeOfDay
	case OpGreater:
		ok = cur > l.timeOfDay
	case OpGreaterOrEqual:
		ok = cur >= l.timeOfDay
	}
	return boolResult(ok).withType(l.Type, false)
}
