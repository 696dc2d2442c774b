// Package document генерирует PDF-подтверждение регистрации пакета клиента.
package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/magabrotheeeer/package-tracker/internal/models"
	services "github.com/magabrotheeeer/package-tracker/internal/services/pipeline"
)

const (
	dateLayout  = "January 2, 2006"
	stampLayout = "January 2, 2006, 3:04:05 pm"
)

var terms = []string{
	"1. This agreement constitutes the entire understanding between the parties.",
	"2. All packages are non-transferable and non-refundable.",
	"3. The client must notify the provider of any changes to contact information.",
	"4. The provider reserves the right to modify terms with 30 days notice.",
	"5. Disputes shall be resolved through mediation in the first instance.",
}

// Renderer пишет PDF-файлы в каталог outputDir.
type Renderer struct {
	outputDir string
	logoPath  string
	title     string
	now       func() time.Time
}

// NewRenderer создает новый экземпляр Renderer.
// logoPath может быть пустым, тогда логотип не выводится.
func NewRenderer(outputDir, logoPath, title string) *Renderer {
	return &Renderer{
		outputDir: outputDir,
		logoPath:  logoPath,
		title:     title,
		now:       time.Now,
	}
}

// FileName возвращает имя файла документа клиента на дату t.
func FileName(clientID string, t time.Time) string {
	return fmt.Sprintf("client_%s_%s.pdf", clientID, t.Format("20060102"))
}

// Render формирует документ по снимку клиента. Файл сначала пишется во
// временный файл и переименовывается только после успешной записи.
func (r *Renderer) Render(ctx context.Context, client *models.Client) (services.Artifact, error) {
	const op = "document.Render"

	if err := ctx.Err(); err != nil {
		return services.Artifact{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return services.Artifact{}, fmt.Errorf("%s: %w", op, err)
	}

	now := r.now()
	name := FileName(client.ID, now)
	finalPath := filepath.Join(r.outputDir, name)

	pdf := r.build(client, now)
	if err := pdf.Error(); err != nil {
		return services.Artifact{}, fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(r.outputDir, name+".*.tmp")
	if err != nil {
		return services.Artifact{}, fmt.Errorf("%s: %w", op, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if err := pdf.Output(tmp); err != nil {
		_ = tmp.Close()
		return services.Artifact{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		return services.Artifact{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := ctx.Err(); err != nil {
		return services.Artifact{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return services.Artifact{}, fmt.Errorf("%s: %w", op, err)
	}

	return services.Artifact{Path: finalPath, FileName: name}, nil
}

func (r *Renderer) build(c *models.Client, now time.Time) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 16, 18)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("Confidential Document - %s - %d", c.Name, now.Year())),
			"", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	// шапка
	titleX := 18.0
	if r.logoPath != "" {
		if _, err := os.Stat(r.logoPath); err == nil {
			pdf.ImageOptions(r.logoPath, 18, 14, 18, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
			titleX = 40
		}
	}
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(titleX, 24, tr(r.title))
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(18, 32)
	pdf.CellFormat(0, 6, "Generated: "+now.Format(stampLayout), "", 1, "R", false, 0, "")
	pdf.Line(18, 40, 192, 40)

	// клиент
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(18, 50, "CLIENT INFORMATION")
	detailRow(pdf, tr, 60, "Full Name:", c.Name)
	detailRow(pdf, tr, 68, "Email Address:", c.Email)
	detailRow(pdf, tr, 76, "Phone Number:", c.Phone)
	detailRow(pdf, tr, 84, "Registration Date:", c.CreatedAt.Format(dateLayout))

	// пакет
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(18, 100, "PACKAGE DETAILS")
	detailRow(pdf, tr, 110, "Package Name:", c.PackageName)
	detailRow(pdf, tr, 118, "Duration:", strconv.Itoa(c.PackageDuration)+" days")
	detailRow(pdf, tr, 126, "Start Date:", c.PackageStart.Format(dateLayout))

	active := false
	if c.PackageStatus != nil {
		active = c.PackageStatus.IsActive
		detailRow(pdf, tr, 134, "Expiry Date:", c.PackageStatus.ExpiryDate.Format(dateLayout))
	}
	statusBadge(pdf, active)

	// условия
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Text(18, 26, "TERMS AND CONDITIONS")
	pdf.SetFont("Helvetica", "", 10)
	for i, term := range terms {
		pdf.Text(18, 40+float64(i)*9, term)
	}

	// подписи
	pdf.Line(18, 110, 88, 110)
	pdf.Text(18, 115, "Client Signature")
	pdf.Line(122, 110, 192, 110)
	pdf.Text(122, 115, "Authorized Representative")

	return pdf
}

func detailRow(pdf *fpdf.Fpdf, tr func(string) string, y float64, label, value string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(18, y, label)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(60, y, tr(value))
}

func statusBadge(pdf *fpdf.Fpdf, active bool) {
	label := "EXPIRED"
	pdf.SetFillColor(0xF4, 0x43, 0x36)
	if active {
		label = "ACTIVE"
		pdf.SetFillColor(0x4C, 0xAF, 0x50)
	}
	pdf.Rect(152, 126, 36, 11, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(152, 126)
	pdf.CellFormat(36, 11, label, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}
