package availability

import (
	"sort"
	"time"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// Input всё, что нужно для расчёта свободных слотов одного дня
type Input struct {
	Date          time.Time      // любой момент внутри нужного дня, день определяется в Location
	Location      *time.Location // часовой пояс арендатора
	SlotDuration  time.Duration  // шаг сетки
	Buffer        time.Duration  // зазор с обеих сторон существующих записей
	TotalDuration time.Duration  // длительность услуги с учётом доп. слотов
	Now           time.Time      // слоты, начинающиеся не позже этого момента, не предлагаются

	Staff        []domain.StaffMember // уже отфильтрованы по услуге
	WorkingHours []domain.WorkingHoursEntry
	Bookings     []domain.Booking
	Blackouts    []domain.BlackoutPeriod
	Holds        []domain.ReservationHold
}

// Calculate возвращает упорядоченный по времени (затем по staff id) список допустимых начал.
// Начало t допустимо, только если весь интервал [t, t+TotalDuration) лежит в одном свободном отрезке
func Calculate(in Input) []domain.AvailableSlot {
	slots := make([]domain.AvailableSlot, 0)
	if in.SlotDuration <= 0 || in.TotalDuration <= 0 {
		return slots
	}

	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	day := in.Date.In(loc)

	for _, staff := range in.Staff {
		segments := WorkingSegments(staff.ID, day, loc, in.WorkingHours)
		if len(segments) == 0 {
			continue
		}

		busy := BusyRanges(staff.ID, in.Buffer, in.Now, in.Bookings, in.Blackouts, in.Holds)
		free := Subtract(segments, busy)

		for _, seg := range segments {
			for t := seg.Start; !t.Add(in.TotalDuration).After(seg.End); t = t.Add(in.SlotDuration) {
				if !t.After(in.Now) {
					continue
				}
				candidate := domain.TimeRange{Start: t, End: t.Add(in.TotalDuration)}
				if Fits(candidate, free) {
					slots = append(slots, domain.AvailableSlot{StartsAt: t, StaffID: staff.ID})
				}
			}
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].StartsAt.Equal(slots[j].StartsAt) {
			return slots[i].StartsAt.Before(slots[j].StartsAt)
		}
		return slots[i].StaffID < slots[j].StaffID
	})

	return slots
}

// WorkingSegments рабочие отрезки сотрудника в указанный день за вычетом перерывов
func WorkingSegments(staffID int64, day time.Time, loc *time.Location, entries []domain.WorkingHoursEntry) []domain.TimeRange {
	segments := make([]domain.TimeRange, 0, 2)
	weekday := day.Weekday()

	for _, e := range entries {
		if e.StaffID != staffID || e.Weekday != weekday || !e.Active {
			continue
		}
		if !e.StartTime.IsBefore(e.EndTime) {
			continue
		}

		open := e.StartTime.On(day, loc)
		closeAt := e.EndTime.On(day, loc)

		if e.HasBreak() {
			breakStart := e.BreakStart.On(day, loc)
			breakEnd := e.BreakEnd.On(day, loc)
			segments = appendNonEmpty(segments, domain.TimeRange{Start: open, End: minTime(breakStart, closeAt)})
			segments = appendNonEmpty(segments, domain.TimeRange{Start: maxTime(breakEnd, open), End: closeAt})
			continue
		}

		segments = appendNonEmpty(segments, domain.TimeRange{Start: open, End: closeAt})
	}

	sort.Slice(segments, func(i, j int) bool { return segments[i].Start.Before(segments[j].Start) })
	return segments
}

// BusyRanges занятые интервалы сотрудника: записи и удержания расширяются на buffer с обеих сторон,
// блокировки (свои и общие для арендатора) берутся как есть
func BusyRanges(
	staffID int64,
	buffer time.Duration,
	now time.Time,
	bookings []domain.Booking,
	blackouts []domain.BlackoutPeriod,
	holds []domain.ReservationHold,
) []domain.TimeRange {
	busy := make([]domain.TimeRange, 0, len(bookings)+len(blackouts)+len(holds))

	for i := range bookings {
		b := &bookings[i]
		if b.StaffID != staffID || !b.IsBlocking() {
			continue
		}
		busy = append(busy, domain.TimeRange{Start: b.StartsAt, End: b.EndsAt}.Expand(buffer))
	}

	for i := range blackouts {
		bl := &blackouts[i]
		if !bl.AppliesTo(staffID) {
			continue
		}
		busy = appendNonEmpty(busy, domain.TimeRange{Start: bl.StartsAt, End: bl.EndsAt})
	}

	for i := range holds {
		h := &holds[i]
		if h.StaffID != staffID || !h.IsActiveAt(now) {
			continue
		}
		busy = append(busy, h.Range().Expand(buffer))
	}

	return merge(busy)
}

// Conflicts возвращает true, если интервал пересекается хотя бы с одним занятым
func Conflicts(candidate domain.TimeRange, busy []domain.TimeRange) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

// Fits возвращает true, если интервал целиком помещается в один из свободных отрезков
func Fits(candidate domain.TimeRange, free []domain.TimeRange) bool {
	for _, f := range free {
		if f.Contains(candidate) {
			return true
		}
	}
	return false
}

// Subtract вычитает занятые интервалы из свободных
func Subtract(free, busy []domain.TimeRange) []domain.TimeRange {
	busy = merge(busy)
	result := make([]domain.TimeRange, 0, len(free))

	for _, f := range free {
		cur := f
		for _, b := range busy {
			if !b.Overlaps(cur) {
				continue
			}
			if b.Start.After(cur.Start) {
				result = append(result, domain.TimeRange{Start: cur.Start, End: b.Start})
			}
			cur.Start = b.End
			if !cur.Start.Before(cur.End) {
				break
			}
		}
		result = appendNonEmpty(result, cur)
	}

	return result
}

// merge сортирует и склеивает пересекающиеся и соприкасающиеся интервалы
func merge(ranges []domain.TimeRange) []domain.TimeRange {
	if len(ranges) < 2 {
		return ranges
	}

	sorted := make([]domain.TimeRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	out := []domain.TimeRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if !r.Start.After(last.End) {
			last.End = maxTime(last.End, r.End)
			continue
		}
		out = append(out, r)
	}
	return out
}

func appendNonEmpty(ranges []domain.TimeRange, r domain.TimeRange) []domain.TimeRange {
	if r.IsEmpty() {
		return ranges
	}
	return append(ranges, r)
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
