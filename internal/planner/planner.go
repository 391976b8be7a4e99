// Package planner keeps each company's deadline calendar: entries grouped by
// day (YYYY-MM-DD). Boards live in process memory only.
package planner

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lllllllleong/jobgrid/internal/models"
)

const dayLayout = "2006-01-02"

var (
	ErrInvalid  = errors.New("invalid planner entry")
	ErrNotFound = errors.New("planner entry not found")
)

// Board is one user's calendar.
type Board struct {
	mu   sync.Mutex
	days map[string][]models.Deadline
}

func NewBoard() *Board {
	return &Board{days: map[string][]models.Deadline{}}
}

// Add appends an entry to day. Both a day and a title are required.
func (b *Board) Add(day string, in models.DeadlineInput) (models.Deadline, error) {
	if err := checkDay(day); err != nil {
		return models.Deadline{}, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return models.Deadline{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}

	d := models.Deadline{
		ID:       uuid.NewString(),
		Title:    strings.TrimSpace(in.Title),
		Deadline: day,
		Details:  in.Details,
		Time:     in.Time,
		Duration: in.Duration,
	}
	b.mu.Lock()
	b.days[day] = append(b.days[day], d)
	b.mu.Unlock()
	return withRange(d), nil
}

func (b *Board) Delete(day, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, err := b.find(day, id)
	if err != nil {
		return err
	}
	entries := b.days[day]
	b.days[day] = append(entries[:i:i], entries[i+1:]...)
	if len(b.days[day]) == 0 {
		delete(b.days, day)
	}
	return nil
}

// Edit replaces the text fields of an entry, keeping its completion state.
func (b *Board) Edit(day, id string, in models.DeadlineInput) (models.Deadline, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.Deadline{}, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	i, err := b.find(day, id)
	if err != nil {
		return models.Deadline{}, err
	}
	d := &b.days[day][i]
	d.Title = strings.TrimSpace(in.Title)
	d.Details = in.Details
	d.Time = in.Time
	d.Duration = in.Duration
	return withRange(*d), nil
}

func (b *Board) ToggleComplete(day, id string) (models.Deadline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, err := b.find(day, id)
	if err != nil {
		return models.Deadline{}, err
	}
	d := &b.days[day][i]
	d.Completed = !d.Completed
	return withRange(*d), nil
}

// ForDay returns a copy of day's entries in insertion order.
func (b *Board) ForDay(day string) []models.Deadline {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Deadline, 0, len(b.days[day]))
	for _, d := range b.days[day] {
		out = append(out, withRange(d))
	}
	return out
}

// MarkedDays lists the days that have at least one entry, oldest first.
func (b *Board) MarkedDays() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.days))
	for day := range b.days {
		out = append(out, day)
	}
	sort.Strings(out)
	return out
}

func (b *Board) find(day, id string) (int, error) {
	for i, d := range b.days[day] {
		if d.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%s on %s: %w", id, day, ErrNotFound)
}

func checkDay(day string) error {
	if day == "" {
		return fmt.Errorf("%w: select a day first", ErrInvalid)
	}
	if _, err := time.Parse(dayLayout, day); err != nil {
		return fmt.Errorf("%w: day %q is not YYYY-MM-DD", ErrInvalid, day)
	}
	return nil
}

// Boards hands out one Board per user.
type Boards struct {
	mu     sync.Mutex
	boards map[string]*Board
}

func NewBoards() *Boards {
	return &Boards{boards: map[string]*Board{}}
}

func (bs *Boards) For(uid string) *Board {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	b, ok := bs.boards[uid]
	if !ok {
		b = NewBoard()
		bs.boards[uid] = b
	}
	return b
}

var (
	hoursRe = regexp.MustCompile(`^\d+(\.\d+)?h$`)
	daysRe  = regexp.MustCompile(`^\d+d$`)
)

// TimeRange renders a start time and a duration such as "1.5h" or "2d"
// as "09:00 - 10:30" or "09:00 + 2 days". Unparseable input yields "-".
func TimeRange(start, duration string) string {
	if start == "" || duration == "" {
		return "-"
	}
	hh, mm, ok := strings.Cut(start, ":")
	if !ok {
		return "-"
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil {
		return "-"
	}

	switch {
	case hoursRe.MatchString(duration):
		hours, _ := strconv.ParseFloat(strings.TrimSuffix(duration, "h"), 64)
		whole := int(hours)
		endH := h + whole
		endM := m + int((hours-float64(whole))*60+0.5)
		endH += endM / 60
		endM %= 60
		return fmt.Sprintf("%s - %02d:%02d", start, endH, endM)
	case daysRe.MatchString(duration):
		days, _ := strconv.Atoi(strings.TrimSuffix(duration, "d"))
		unit := "day"
		if days > 1 {
			unit = "days"
		}
		return fmt.Sprintf("%s + %d %s", start, days, unit)
	}
	return "-"
}

func withRange(d models.Deadline) models.Deadline {
	d.TimeRange = TimeRange(d.Time, d.Duration)
	return d
}
