package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/forgo/worship/api/internal/model"
)

const (
	scheduleSheet = "Schedule"
	teamSheet     = "Team"

	// defaultExportDays is the window exported when no end date is given.
	defaultExportDays = 90
)

var (
	scheduleHeader = []interface{}{"Date", "Service", "Title", "Start", "Status", "Leader", "Leader Source", "Set Status", "Songs"}
	teamHeader     = []interface{}{"Date", "Service", "Instrument", "Musician", "Response"}
)

// ExportService renders the service schedule as a spreadsheet.
type ExportService struct {
	types       ServiceTypeRepository
	services    CalendarRepository
	sets        WorshipSetRepository
	setSongs    SetSongRepository
	songs       SongRepository
	assignments AssignmentRepository
	instruments InstrumentRepository
	users       UserRepository
	clock       Clock
}

// ExportServiceConfig holds the export dependencies
type ExportServiceConfig struct {
	ServiceTypeRepo ServiceTypeRepository
	CalendarRepo    CalendarRepository
	WorshipSetRepo  WorshipSetRepository
	SetSongRepo     SetSongRepository
	SongRepo        SongRepository
	AssignmentRepo  AssignmentRepository
	InstrumentRepo  InstrumentRepository
	UserRepo        UserRepository
	Clock           Clock
}

// NewExportService creates a new export service
func NewExportService(cfg ExportServiceConfig) *ExportService {
	return &ExportService{
		types:       cfg.ServiceTypeRepo,
		services:    cfg.CalendarRepo,
		sets:        cfg.WorshipSetRepo,
		setSongs:    cfg.SetSongRepo,
		songs:       cfg.SongRepo,
		assignments: cfg.AssignmentRepo,
		instruments: cfg.InstrumentRepo,
		users:       cfg.UserRepo,
		clock:       cfg.Clock,
	}
}

// exportLookup caches names while a workbook is built.
type exportLookup struct {
	s           *ExportService
	types       map[string]string
	users       map[string]string
	songs       map[string]string
	instruments map[string]string
}

// Schedule writes an xlsx workbook for services dated in [from, to]. An empty
// from means today; an empty to means 90 days after from.
func (s *ExportService) Schedule(ctx context.Context, from, to string, w io.Writer) error {
	from, to, err := s.window(from, to)
	if err != nil {
		return err
	}
	services, err := s.services.List(ctx, model.ServiceFilter{From: from, To: to})
	if err != nil {
		return err
	}
	lookup, err := s.newLookup(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", scheduleSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(teamSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := writeHeader(f, scheduleSheet, scheduleHeader, bold); err != nil {
		return err
	}
	if err := writeHeader(f, teamSheet, teamHeader, bold); err != nil {
		return err
	}

	row, teamRow := 2, 2
	for _, svc := range services {
		typeName := lookup.types[svc.ServiceTypeID]
		values := []interface{}{svc.Date, typeName, stringValue(svc.Title), stringValue(svc.StartTime), string(svc.Status), "", "", "", ""}

		ws, err := s.sets.GetByServiceID(ctx, svc.ID)
		if err != nil {
			return err
		}
		if ws != nil {
			if ws.LeaderID != nil {
				values[5] = lookup.user(ctx, *ws.LeaderID)
			}
			values[6] = string(ws.LeaderSource)
			values[7] = string(ws.Status)

			lineup, err := s.setSongs.ListBySet(ctx, ws.ID)
			if err != nil {
				return err
			}
			titles := make([]string, 0, len(lineup))
			for _, e := range lineup {
				t := lookup.song(ctx, e.SongID)
				if e.Key != nil {
					t += " (" + *e.Key + ")"
				}
				titles = append(titles, t)
			}
			values[8] = strings.Join(titles, "; ")

			team, err := s.assignments.ListBySet(ctx, ws.ID)
			if err != nil {
				return err
			}
			for _, a := range team {
				if err := writeRow(f, teamSheet, teamRow, []interface{}{
					svc.Date, typeName, lookup.instruments[a.InstrumentID], lookup.user(ctx, a.UserID), string(a.Status),
				}); err != nil {
					return err
				}
				teamRow++
			}
		}

		if err := writeRow(f, scheduleSheet, row, values); err != nil {
			return err
		}
		row++
	}

	if err := f.SetColWidth(scheduleSheet, "A", "H", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(scheduleSheet, "I", "I", 60); err != nil {
		return err
	}
	if err := f.SetColWidth(teamSheet, "A", "E", 18); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

func (s *ExportService) window(from, to string) (string, string, error) {
	if from == "" {
		from = s.clock.today()
	}
	start, err := parseDate(from)
	if err != nil {
		return "", "", err
	}
	if to == "" {
		return from, start.AddDate(0, 0, defaultExportDays).Format(model.DateLayout), nil
	}
	end, err := parseDate(to)
	if err != nil {
		return "", "", err
	}
	if end.Before(start) || end.Sub(start) > model.MaxGenerateSpanDays*24*time.Hour {
		return "", "", ErrInvalidDateRange
	}
	return from, to, nil
}

func (s *ExportService) newLookup(ctx context.Context) (*exportLookup, error) {
	l := &exportLookup{
		s:           s,
		types:       map[string]string{},
		users:       map[string]string{},
		songs:       map[string]string{},
		instruments: map[string]string{},
	}
	types, err := s.types.List(ctx, true)
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		l.types[t.ID] = t.Name
	}
	instruments, err := s.instruments.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, i := range instruments {
		l.instruments[i.ID] = i.Name
	}
	return l, nil
}

// user and song fall back to the raw id when a lookup fails.
func (l *exportLookup) user(ctx context.Context, id string) string {
	if name, ok := l.users[id]; ok {
		return name
	}
	name := id
	if u, err := l.s.users.GetByID(ctx, id); err == nil && u != nil {
		name = u.FullName()
	}
	l.users[id] = name
	return name
}

func (l *exportLookup) song(ctx context.Context, id string) string {
	if title, ok := l.songs[id]; ok {
		return title
	}
	title := id
	if song, err := l.s.songs.GetByID(ctx, id); err == nil && song != nil {
		title = song.Title
	}
	l.songs[id] = title
	return title
}

func writeHeader(f *excelize.File, sheet string, header []interface{}, style int) error {
	if err := writeRow(f, sheet, 1, header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
