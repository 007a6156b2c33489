package services

import (
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/ru"
	"github.com/rickar/cal/v2/us"
)

// HolidayService answers whether a date is a workday, per country. Scheduled
// email reports skip weekends and public holidays.
type HolidayService struct {
	calendars map[string]*cal.BusinessCalendar
}

func NewHolidayService() *HolidayService {
	s := &HolidayService{
		calendars: make(map[string]*cal.BusinessCalendar),
	}
	s.calendars["RU"] = s.createCalendar("Russia", ru.Holidays...)
	s.calendars["US"] = s.createCalendar("United States", us.Holidays...)
	s.calendars["GB"] = s.createCalendar("United Kingdom", gb.Holidays...)
	s.calendars["DE"] = s.createCalendar("Germany", de.Holidays...)
	return s
}

func (s *HolidayService) createCalendar(name string, holidays ...*cal.Holiday) *cal.BusinessCalendar {
	c := cal.NewBusinessCalendar()
	c.Name = name
	c.AddHoliday(holidays...)
	return c
}

// IsWorkday reports whether the date is a business day in the given country.
// Unknown country codes fall back to a plain weekday check.
func (s *HolidayService) IsWorkday(country string, date time.Time) bool {
	calendar, ok := s.calendars[country]
	if !ok {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return calendar.IsWorkday(date)
}
