package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// ParticipationCertificate carries the fields printed on an event certificate.
type ParticipationCertificate struct {
	CertificateID string
	StudentName   string
	RollNumber    string
	Department    string
	EventTitle    string
	EventDate     time.Time
	Venue         string
	Category      string
	Hours         float64
	Institution   string
	Unit          string
}

// CompletionCertificate carries the fields printed on a year completion or
// final certificate. PerformanceRating is set on final certificates only.
type CompletionCertificate struct {
	CertificateID     string
	StudentName       string
	RollNumber        string
	Department        string
	TotalHours        float64
	TotalEvents       int
	PerformanceRating string
	Institution       string
	Unit              string
}

// CertificateRenderer draws decorated landscape certificates.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a certificate renderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

const certMotto = `"NOT ME, BUT YOU"`

// saffron and india-green, matching the unit branding.
var (
	certSaffron = [3]int{255, 102, 0}
	certGreen   = [3]int{19, 136, 8}
	certCream   = [3]int{255, 248, 240}
	certGrey    = [3]int{102, 102, 102}
)

// RenderParticipation renders a certificate of appreciation for a single event.
func (r *CertificateRenderer) RenderParticipation(data ParticipationCertificate) ([]byte, error) {
	if data.StudentName == "" || data.EventTitle == "" {
		return nil, fmt.Errorf("certificate requires student and event")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	w, h := pdf.GetPageSize()

	r.drawFrame(pdf, w, h)

	pdf.SetFont("Helvetica", "B", 34)
	pdf.SetTextColor(certSaffron[0], certSaffron[1], certSaffron[2])
	r.centered(pdf, w, 26, "NSS")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(0, 0, 0)
	r.centered(pdf, w, 42, strings.ToUpper(data.Institution))

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(certGrey[0], certGrey[1], certGrey[2])
	r.centered(pdf, w, 50, data.Unit)

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(certSaffron[0], certSaffron[1], certSaffron[2])
	r.centered(pdf, w, 62, "CERTIFICATE OF APPRECIATION")

	pdf.SetDrawColor(certGreen[0], certGreen[1], certGreen[2])
	pdf.SetLineWidth(0.8)
	pdf.Line(50, 70, w-50, 70)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	r.centered(pdf, w, 80, "This is to certify that")

	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(certSaffron[0], certSaffron[1], certSaffron[2])
	r.centered(pdf, w, 92, strings.ToUpper(data.StudentName))

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(certGrey[0], certGrey[1], certGrey[2])
	r.centered(pdf, w, 100, fmt.Sprintf("Roll No: %s | Department: %s", data.RollNumber, orNA(data.Department)))

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	r.centered(pdf, w, 110, "has successfully participated in the NSS activity")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetTextColor(certGreen[0], certGreen[1], certGreen[2])
	r.centered(pdf, w, 120, fmt.Sprintf("%q", data.EventTitle))

	boxW := 170.0
	boxX := (w - boxW) / 2
	boxY := 130.0
	pdf.SetFillColor(240, 248, 255)
	pdf.SetDrawColor(certGreen[0], certGreen[1], certGreen[2])
	pdf.Rect(boxX, boxY, boxW, 22, "FD")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(boxX+8, boxY+8, fmt.Sprintf("Date: %s", data.EventDate.Format("2 January 2006")))
	pdf.Text(boxX+8, boxY+16, fmt.Sprintf("Venue: %s", data.Venue))
	pdf.Text(boxX+boxW/2+4, boxY+8, fmt.Sprintf("Category: %s", data.Category))
	pdf.Text(boxX+boxW/2+4, boxY+16, fmt.Sprintf("Hours: %g hours", data.Hours))

	pdf.SetFont("Helvetica", "I", 11)
	r.centered(pdf, w, 162, "We appreciate your dedication and contribution to society")

	r.signature(pdf, 55, 178, "NSS Coordinator")
	r.signature(pdf, w-105, 178, "Principal")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(153, 153, 153)
	r.centered(pdf, w, h-16, fmt.Sprintf("Certificate ID: %s | Generated on: %s", data.CertificateID, time.Now().Format("02/01/2006")))

	pdf.SetFont("Helvetica", "BI", 10)
	pdf.SetTextColor(certSaffron[0], certSaffron[1], certSaffron[2])
	r.centered(pdf, w, h-9, certMotto)

	return r.output(pdf)
}

// RenderCompletion renders the year completion certificate for a volunteer.
func (r *CertificateRenderer) RenderCompletion(data CompletionCertificate) ([]byte, error) {
	if data.StudentName == "" {
		return nil, fmt.Errorf("certificate requires a student")
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	w, h := pdf.GetPageSize()

	r.drawFrame(pdf, w, h)

	pdf.SetFont("Helvetica", "B", 38)
	pdf.SetTextColor(certSaffron[0], certSaffron[1], certSaffron[2])
	r.centered(pdf, w, 26, "NSS")

	pdf.SetFont("Helvetica", "B", 19)
	pdf.SetTextColor(0, 0, 0)
	r.centered(pdf, w, 42, strings.ToUpper(data.Institution))

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(certGrey[0], certGrey[1], certGrey[2])
	r.centered(pdf, w, 50, data.Unit)

	pdf.SetFont("Helvetica", "B", 26)
	pdf.SetTextColor(certSaffron[0], certSaffron[1], certSaffron[2])
	r.centered(pdf, w, 63, "YEAR COMPLETION CERTIFICATE")

	pdf.SetDrawColor(certGreen[0], certGreen[1], certGreen[2])
	pdf.SetLineWidth(0.8)
	pdf.Line(42, 70, w-42, 70)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	r.centered(pdf, w, 80, "This is to certify that")

	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetTextColor(certSaffron[0], certSaffron[1], certSaffron[2])
	r.centered(pdf, w, 92, strings.ToUpper(data.StudentName))

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(certGrey[0], certGrey[1], certGrey[2])
	r.centered(pdf, w, 100, fmt.Sprintf("Roll No: %s | Department: %s", data.RollNumber, orNA(data.Department)))

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	r.centered(pdf, w, 110, "has successfully completed ONE YEAR of dedicated service")
	r.centered(pdf, w, 117, "as an NSS Volunteer and contributed")

	pdf.SetFont("Helvetica", "B", 28)
	pdf.SetTextColor(certGreen[0], certGreen[1], certGreen[2])
	r.centered(pdf, w, 130, fmt.Sprintf("%g HOURS", data.TotalHours))

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	r.centered(pdf, w, 140, "to various social service activities")

	boxW := 170.0
	boxX := (w - boxW) / 2
	boxY := 146.0
	pdf.SetFillColor(240, 248, 255)
	pdf.SetDrawColor(certGreen[0], certGreen[1], certGreen[2])
	pdf.Rect(boxX, boxY, boxW, 14, "FD")
	pdf.SetFont("Helvetica", "B", 11)
	summary := fmt.Sprintf("Total Events Participated: %d", data.TotalEvents)
	if data.PerformanceRating != "" {
		summary = fmt.Sprintf("%s | Performance: %s", summary, data.PerformanceRating)
	}
	r.centered(pdf, w, boxY+9, summary)

	pdf.SetFont("Helvetica", "BI", 11)
	r.centered(pdf, w, 170, "In recognition of outstanding commitment to community service")

	r.signature(pdf, 40, 182, "NSS Coordinator")
	r.signature(pdf, w/2-25, 182, "NSS Program Officer")
	r.signature(pdf, w-90, 182, "Principal")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(153, 153, 153)
	r.centered(pdf, w, h-16, fmt.Sprintf("Certificate ID: YC-%s | Issued on: %s", data.CertificateID, time.Now().Format("02/01/2006")))

	pdf.SetFont("Helvetica", "BI", 10)
	pdf.SetTextColor(certSaffron[0], certSaffron[1], certSaffron[2])
	r.centered(pdf, w, h-9, certMotto)

	return r.output(pdf)
}

func (r *CertificateRenderer) drawFrame(pdf *gofpdf.Fpdf, w, h float64) {
	pdf.SetFillColor(certCream[0], certCream[1], certCream[2])
	pdf.Rect(0, 0, w, h, "F")

	pdf.SetDrawColor(certSaffron[0], certSaffron[1], certSaffron[2])
	pdf.SetLineWidth(1.5)
	pdf.Rect(8, 8, w-16, h-16, "D")

	pdf.SetDrawColor(certGreen[0], certGreen[1], certGreen[2])
	pdf.SetLineWidth(0.7)
	pdf.Rect(12, 12, w-24, h-24, "D")

	pdf.SetFillColor(certSaffron[0], certSaffron[1], certSaffron[2])
	pdf.Circle(15, 15, 4, "F")
	pdf.Circle(w-15, h-15, 4, "F")
	pdf.SetFillColor(certGreen[0], certGreen[1], certGreen[2])
	pdf.Circle(w-15, 15, 4, "F")
	pdf.Circle(15, h-15, 4, "F")
}

func (r *CertificateRenderer) centered(pdf *gofpdf.Fpdf, pageWidth, y float64, text string) {
	width := pdf.GetStringWidth(text)
	pdf.Text((pageWidth-width)/2, y, text)
}

func (r *CertificateRenderer) signature(pdf *gofpdf.Fpdf, x, y float64, label string) {
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Text(x, y, "_____________________")
	pdf.SetFont("Helvetica", "B", 8)
	labelWidth := pdf.GetStringWidth(label)
	pdf.Text(x+(38-labelWidth)/2, y+7, label)
}

func (r *CertificateRenderer) output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
