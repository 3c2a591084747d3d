// Package people resolves recognized names to personnel records.
package people

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/facekiosk/internal/logging"
)

// FieldCount is the number of comma-separated fields in an info line.
const FieldCount = 6

// DateLayout formats the entry date shown on a card.
const DateLayout = "2006-01-02"

// UnknownField fills card fields that have no value.
const UnknownField = "Unknown"

// Person is one record from the info file.
type Person struct {
	Name           string `json:"name"`
	Gender         string `json:"gender"`
	StudentID      string `json:"student_id"`
	College        string `json:"college"`
	PersonType     string `json:"person_type"`
	EnrollmentTime string `json:"enrollment_time"`
	ImagePath      string `json:"image_path"`
}

// ParseInfo reads records from r, one per line. Blank lines and lines that do
// not have exactly six fields are skipped, whatever their length. Each
// record's ImagePath points at <galleryDir>/<name>.jpg. A later line for the
// same name replaces an earlier one. On a read error the records parsed so far
// are returned along with the error.
func ParseInfo(r io.Reader, galleryDir string) (map[string]Person, error) {
	records := make(map[string]Person)

	reader := bufio.NewReader(r)
	lineNo := 0
	for {
		raw, readErr := reader.ReadString('\n')
		if raw != "" {
			lineNo++
			if p, ok := parseLine(raw, galleryDir); ok {
				records[p.Name] = p
			} else if strings.TrimSpace(raw) != "" {
				logging.Component("people").Debugf("skipping line %d: malformed", lineNo)
			}
		}
		if readErr == io.EOF {
			return records, nil
		}
		if readErr != nil {
			return records, fmt.Errorf("read info: %w", readErr)
		}
	}
}

func parseLine(raw, galleryDir string) (Person, bool) {
	line := strings.TrimSpace(raw)
	if line == "" {
		return Person{}, false
	}

	fields := strings.Split(line, ",")
	if len(fields) != FieldCount {
		return Person{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	return Person{
		Name:           fields[0],
		Gender:         fields[1],
		StudentID:      fields[2],
		College:        fields[3],
		PersonType:     fields[4],
		EnrollmentTime: fields[5],
		ImagePath:      filepath.Join(galleryDir, fields[0]+".jpg"),
	}, true
}

// Directory is a lazily loaded, process-lifetime cache of the info file.
type Directory struct {
	path       string
	galleryDir string

	once    sync.Once
	records map[string]Person
	err     error
}

// NewDirectory creates a Directory for the info file at path. Nothing is read
// until the first lookup.
func NewDirectory(path, galleryDir string) *Directory {
	return &Directory{path: path, galleryDir: galleryDir}
}

// NewDirectoryFromRecords creates an already loaded Directory.
func NewDirectoryFromRecords(records []Person) *Directory {
	d := &Directory{records: make(map[string]Person, len(records))}
	for _, p := range records {
		d.records[p.Name] = p
	}
	d.once.Do(func() {})
	return d
}

func (d *Directory) load() {
	d.once.Do(func() {
		d.records = make(map[string]Person)

		f, err := os.Open(d.path)
		if err != nil {
			if !os.IsNotExist(err) {
				d.err = fmt.Errorf("open info file: %w", err)
				logging.Component("people").WithError(err).Warn("Info file unreadable, continuing without records")
			}
			return
		}
		defer f.Close()

		records, err := ParseInfo(f, d.galleryDir)
		if err != nil {
			d.err = err
			logging.Component("people").WithError(err).Warnf("Info file read failed, keeping %d records", len(records))
		}
		d.records = records
		logging.Component("people").Infof("Loaded %d person records", len(records))
	})
}

// Err returns the load error, if any. It forces the load.
func (d *Directory) Err() error {
	d.load()
	return d.err
}

// Lookup returns the record for name.
func (d *Directory) Lookup(name string) (Person, bool) {
	d.load()
	p, ok := d.records[name]
	return p, ok
}

// All returns every record sorted by name.
func (d *Directory) All() []Person {
	d.load()
	out := make([]Person, 0, len(d.records))
	for _, p := range d.records {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of records.
func (d *Directory) Len() int {
	d.load()
	return len(d.records)
}

// Card is the text panel shown next to the video.
type Card struct {
	Name           string `json:"name"`
	Gender         string `json:"gender"`
	StudentID      string `json:"student_id"`
	College        string `json:"college"`
	PersonType     string `json:"person_type"`
	EnrollmentTime string `json:"enrollment_time"`
	EntryDate      string `json:"entry_date"`
	Known          bool   `json:"known"`
	// ImagePath is the record's photo, empty when there is no record.
	ImagePath string `json:"-"`
}

// Text renders the card as display lines.
func (c Card) Text() string {
	lines := []string{
		"Name: " + c.Name,
		"Gender: " + c.Gender,
		"Student ID: " + c.StudentID,
		"College: " + c.College,
		"Person type: " + c.PersonType,
		"Enrolled: " + c.EnrollmentTime,
		"Entered: " + c.EntryDate,
	}
	return strings.Join(lines, "\n\n")
}

// Card builds the card for a recognition result. Unknown identities and known
// names without a record get "Unknown" fields.
func (d *Directory) Card(name string, known bool, now time.Time) Card {
	c := Card{
		Name:           UnknownField,
		Gender:         UnknownField,
		StudentID:      UnknownField,
		College:        UnknownField,
		PersonType:     UnknownField,
		EnrollmentTime: UnknownField,
		EntryDate:      now.Format(DateLayout),
		Known:          known,
	}
	if !known {
		return c
	}

	c.Name = name
	if p, ok := d.Lookup(name); ok {
		c.Gender = p.Gender
		c.StudentID = p.StudentID
		c.College = p.College
		c.PersonType = p.PersonType
		c.EnrollmentTime = p.EnrollmentTime
		c.ImagePath = p.ImagePath
	}
	return c
}
