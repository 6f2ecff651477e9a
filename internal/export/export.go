// Package export renders an instance's full comment list as a downloadable
// JSON document or CSV file.
package export

import (
	"bytes"
	"strings"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/easycomment/easycomment-server/internal/domain"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ContentType returns the media type served for the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// Filename returns the attachment name for an instance export.
func Filename(instanceID string, f Format) string {
	return "comments_" + instanceID + "." + string(f)
}

// Document is the JSON export body.
type Document struct {
	ExportDate   time.Time         `json:"export_date"`
	InstanceID   string            `json:"instance_id"`
	InstanceName string            `json:"instance_name"`
	Comments     []*domain.Comment `json:"comments"`
}

// NewDocument builds the JSON export of an instance. Hidden comments are
// included.
func NewDocument(instance *domain.Instance, comments []*domain.Comment, now time.Time) *Document {
	if comments == nil {
		comments = []*domain.Comment{}
	}
	return &Document{
		InstanceID:   instance.ID,
		InstanceName: instance.Name,
		ExportDate:   now,
		Comments:     comments,
	}
}

// JSON encodes the document.
func JSON(doc *Document) ([]byte, error) {
	return json.Marshal(doc)
}

var csvHeader = []string{"ID", "Author", "Content", "Timestamp"}

// CSV renders comments with a header row. Every field is quoted and
// embedded quotes are doubled, so the output never depends on content.
func CSV(comments []*domain.Comment) []byte {
	var buf bytes.Buffer
	writeRow(&buf, csvHeader...)
	for _, c := range comments {
		writeRow(&buf, c.ID, c.Author, c.Content, c.Timestamp.Format(time.RFC3339Nano))
	}
	return buf.Bytes()
}

func writeRow(buf *bytes.Buffer, fields ...string) {
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(field, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}
