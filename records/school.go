package records

import (
	"fmt"
	"io"
	"strconv"

	"region-index/assign"
)

// School is one school profile for a given year.
type School struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Year                 int      `json:"year"`
	StudentCount         *float64 `json:"student_count"`
	IsHighSchool         bool     `json:"is_high_school"`
	IsMiddleSchool       bool     `json:"is_middle_school"`
	IsElementarySchool   bool     `json:"is_ele_school"`
	IsPreSchool          bool     `json:"is_pre_school"`
	AttendanceRate       *float64 `json:"attendance_rate"`
	GraduationRate       *float64 `json:"graduation_rate"`
	DropoutRate          *float64 `json:"dropout_rate"`
	NumDropouts          *float64 `json:"num_dropouts"`
	TotalStudentsDropout *float64 `json:"total_students_dropout"`
	Street               string   `json:"add_street"`
	State                string   `json:"add_state"`
	ZipCode              string   `json:"add_zipcode"`
	assign.Location
}

var schoolHeaders = []string{
	"id", "name", "year", "latitude", "longitude", "student_count",
	"is_high_school", "is_middle_school", "is_ele_school", "is_pre_school",
	"attendance_rate", "graduation_rate", "dropout_rate", "num_dropouts", "total_students_dropout",
	"add_street", "add_state", "add_zipcode", "region_id",
}

// LoadSchools accepts both the merged school profile export column names and
// the snake_case names written by WriteSchools.
func LoadSchools(r io.Reader) ([]*School, error) {
	return load(r, fromSchoolCSV)
}

func fromSchoolCSV(cols columns, record []string) (*School, error) {
	s := &School{
		ID:                   cols.get(record, "id", "school id"),
		Name:                 cols.get(record, "name", "school name", "school name_x"),
		StudentCount:         parseOptionalFloat(cols.get(record, "student_count", "student count")),
		IsHighSchool:         parseBool(cols.get(record, "is_high_school", "is high school")),
		IsMiddleSchool:       parseBool(cols.get(record, "is_middle_school", "is middle school")),
		IsElementarySchool:   parseBool(cols.get(record, "is_ele_school", "is elementary school", "is elementarty school")),
		IsPreSchool:          parseBool(cols.get(record, "is_pre_school", "is pre school")),
		AttendanceRate:       parseOptionalFloat(cols.get(record, "attendance_rate", "attendance rate current year", "atttendance rate current year")),
		GraduationRate:       parseOptionalFloat(cols.get(record, "graduation_rate", "graduation rate")),
		DropoutRate:          parseOptionalFloat(cols.get(record, "dropout_rate", "dropoutrate")),
		NumDropouts:          parseOptionalFloat(cols.get(record, "num_dropouts", "numdropouts")),
		TotalStudentsDropout: parseOptionalFloat(cols.get(record, "total_students_dropout", "totalstudents")),
		Street:               cols.get(record, "add_street", "address street"),
		State:                cols.get(record, "add_state", "address state"),
		ZipCode:              cols.get(record, "add_zipcode", "address zip code"),
	}
	if s.ID == "" {
		return nil, fmt.Errorf("missing school id")
	}
	s.Longitude = parseCoordinate(cols.get(record, "longitude"))
	s.Latitude = parseCoordinate(cols.get(record, "latitude"))
	s.Region = parseString(cols.get(record, "region_id"))

	// A blank year is kept as 0 so the row still gets a region.
	if year := cols.get(record, "year"); year != "" {
		y, err := strconv.Atoi(year)
		if err != nil {
			return nil, fmt.Errorf("school %s: invalid year %q", s.ID, year)
		}
		s.Year = y
	}
	return s, nil
}

func WriteSchools(w io.Writer, schools []*School) error {
	return write(w, schoolHeaders, schools, func(s *School) []string {
		return []string{
			s.ID,
			s.Name,
			strconv.Itoa(s.Year),
			formatFloat(s.Latitude),
			formatFloat(s.Longitude),
			formatFloat(s.StudentCount),
			strconv.FormatBool(s.IsHighSchool),
			strconv.FormatBool(s.IsMiddleSchool),
			strconv.FormatBool(s.IsElementarySchool),
			strconv.FormatBool(s.IsPreSchool),
			formatFloat(s.AttendanceRate),
			formatFloat(s.GraduationRate),
			formatFloat(s.DropoutRate),
			formatFloat(s.NumDropouts),
			formatFloat(s.TotalStudentsDropout),
			s.Street,
			s.State,
			s.ZipCode,
			formatString(s.RegionID()),
		}
	})
}
