// Package report renders extracted rosters for people who want a document
// rather than JSON.
package report

import (
    "fmt"
    "io"
    "strings"
    "time"

    "github.com/jung-kurt/gofpdf"

    "github.com/hyperifyio/rosterscan/internal/candidate"
)

var columns = []struct {
    title string
    width float64
}{
    {"Name", 55},
    {"Specialty", 50},
    {"Year", 20},
    {"Confidence", 25},
    {"Contact", 40},
}

// WriteRosterPDF renders records as a table to path.
func WriteRosterPDF(path, title string, records []candidate.Record) error {
    pdf := build(title, records, time.Now())
    return pdf.OutputFileAndClose(path)
}

// RenderRosterPDF renders records as a table to w.
func RenderRosterPDF(w io.Writer, title string, records []candidate.Record) error {
    pdf := build(title, records, time.Now())
    return pdf.Output(w)
}

func build(title string, records []candidate.Record, now time.Time) *gofpdf.Fpdf {
    pdf := gofpdf.New("P", "mm", "A4", "")
    // Core fonts are cp1252; translate so accented names survive
    tr := pdf.UnicodeTranslatorFromDescriptor("")
    pdf.SetTitle(title, true)
    pdf.SetCreator("rosterscan", true)
    pdf.SetFooterFunc(func() {
        pdf.SetY(-12)
        pdf.SetFont("Helvetica", "I", 8)
        pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
    })
    pdf.AddPage()

    pdf.SetFont("Helvetica", "B", 14)
    pdf.CellFormat(0, 8, tr(title), "", 1, "L", false, 0, "")
    pdf.SetFont("Helvetica", "", 9)
    pdf.CellFormat(0, 5, fmt.Sprintf("%d trainees, generated %s", len(records), now.UTC().Format("2006-01-02 15:04 UTC")), "", 1, "L", false, 0, "")
    pdf.Ln(3)

    header := func() {
        pdf.SetFont("Helvetica", "B", 10)
        pdf.SetFillColor(230, 230, 230)
        for _, c := range columns {
            pdf.CellFormat(c.width, 7, c.title, "1", 0, "L", true, 0, "")
        }
        pdf.Ln(-1)
    }
    header()

    _, pageH := pdf.GetPageSize()
    _, _, _, bottom := pdf.GetMargins()
    for _, r := range records {
        // Keep a row and its evidence line on the same page
        if pdf.GetY()+14 > pageH-bottom-10 {
            pdf.AddPage()
            header()
        }
        pdf.SetFont("Helvetica", "", 10)
        cells := []string{
            r.Name,
            r.Specialty,
            r.TrainingYear,
            fmt.Sprintf("%.2f", r.Confidence),
            contact(r),
        }
        for i, c := range columns {
            pdf.CellFormat(c.width, 7, fit(pdf, tr(cells[i]), c.width-2), "LR", 0, "L", false, 0, "")
        }
        pdf.Ln(-1)
        if s := strings.TrimSpace(r.Snippet()); s != "" {
            pdf.SetFont("Helvetica", "I", 8)
            pdf.MultiCell(190, 4, tr("\""+strings.Join(strings.Fields(s), " ")+"\""), "LRB", "L", false)
        } else {
            pdf.CellFormat(190, 0, "", "T", 1, "L", false, 0, "")
        }
    }
    return pdf
}

func contact(r candidate.Record) string {
    for _, p := range []*string{r.Email, r.Phone, r.Location} {
        if p != nil && strings.TrimSpace(*p) != "" {
            return strings.TrimSpace(*p)
        }
    }
    return ""
}

// fit shortens s with an ellipsis until it fits width. s is already
// translated to the single-byte font encoding.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
    if pdf.GetStringWidth(s) <= width {
        return s
    }
    for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
        s = s[:len(s)-1]
    }
    return s + "..."
}
