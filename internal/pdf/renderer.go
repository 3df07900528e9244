// Package pdf renders the printable rent receipt ("quittance de
// loyer"): a fixed-layout single A4 page with the period, the parties,
// a French attestation paragraph and a payment breakdown.
package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/mathieuventurini/QuittanceOnClick/internal/domain"
)

// Breakdown is the configured rent/charges split. Amounts equal to
// Total are itemized as Rent + Charges and spelled out with Words;
// any other amount is treated as rent only with a placeholder.
type Breakdown struct {
	Total   decimal.Decimal
	Rent    decimal.Decimal
	Charges decimal.Decimal
	Words   string
}

// Config holds the renderer's fixed values: the signing owner and the
// city the receipt is issued in.
type Config struct {
	OwnerName string
	City      string
	Breakdown Breakdown
}

// ReceiptData is the per-receipt input.
type ReceiptData struct {
	TenantName string
	Address    string
	Amount     decimal.Decimal
	Period     string // "Janvier 2026" or "08 Janvier 2026"
	Date       time.Time
}

// Renderer produces the receipt PDF. Pure with respect to its inputs:
// identical ReceiptData yields byte-identical output, which the golden
// tests rely on.
type Renderer struct {
	cfg Config
}

func NewRenderer(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Split applies the configured breakdown to amount. The returned words
// are "..." when the amount does not match the configured total.
func (r *Renderer) Split(amount decimal.Decimal) (rent, charges decimal.Decimal, words string) {
	if amount.Equal(r.cfg.Breakdown.Total) {
		return r.cfg.Breakdown.Rent, r.cfg.Breakdown.Charges, r.cfg.Breakdown.Words
	}
	return amount, decimal.Zero, "..."
}

func (r *Renderer) Render(data ReceiptData) ([]byte, error) {
	period, err := domain.ParsePeriod(data.Period)
	if err != nil {
		return nil, err
	}

	rent, charges, words := r.Split(data.Amount)

	doc := fpdf.New("P", "mm", "A4", "")
	// Pin both dates to the receipt date so output is byte-stable.
	doc.SetCreationDate(data.Date.UTC())
	doc.SetModificationDate(data.Date.UTC())
	// Sort catalog objects; otherwise fpdf emits fonts in map order.
	doc.SetCatalogSort(true)
	doc.SetMargins(18, 18, 18)
	doc.AddPage()

	// Core fonts are cp1252; the translator maps the French accents.
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 8, tr("QUITTANCE DE LOYER"), "", 1, "C", false, 0, "")
	doc.Ln(12)

	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, tr(fmt.Sprintf("Période : %s", period.RangeLabel())), "", 1, "L", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(0, 6, tr(fmt.Sprintf("Bailleur : %s", r.cfg.OwnerName)), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, tr(fmt.Sprintf("Locataire : %s", data.TenantName)), "", 1, "L", false, 0, "")

	doc.SetFont("Helvetica", "", 11)
	doc.MultiCell(0, 6, tr(data.Address), "", "L", false)
	doc.Ln(10)

	attestation := fmt.Sprintf(
		"Je soussigné(e) %s, propriétaire du logement situé au %s, déclare avoir reçu de la part de %s la somme de %s au titre du loyer et des charges pour la période d'occupation %s.",
		r.cfg.OwnerName,
		strings.ReplaceAll(data.Address, "\n", ", "),
		data.TenantName,
		FrenchAmount(data.Amount),
		period.LongLabel(),
	)
	doc.MultiCell(0, 6, tr(attestation), "", "J", false)
	doc.Ln(10)

	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(0, 6, tr("Détail du règlement :"), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, tr(fmt.Sprintf("Loyer net hors charges : %s", FrenchAmount(rent))), "", 1, "L", false, 0, "")
	doc.CellFormat(0, 6, tr(fmt.Sprintf("Provisions pour charges : %s", FrenchAmount(charges))), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(0, 6, tr(fmt.Sprintf("Montant total reçu : %s", FrenchAmount(data.Amount))), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, tr(fmt.Sprintf("Soit en toutes lettres : %s", words)), "", 1, "L", false, 0, "")
	doc.Ln(6)

	doc.SetFont("Helvetica", "", 10)
	doc.MultiCell(0, 5, tr("Cette quittance annule tout reçu relatif à la période susmentionnée et ne peut servir de quittance pour les termes précédents."), "", "L", false)
	doc.Ln(10)

	doc.SetFont("Helvetica", "", 11)
	doc.CellFormat(0, 6, tr(fmt.Sprintf("Fait à %s, le %s.", r.cfg.City, data.Date.Format("02/01/2006"))), "", 1, "R", false, 0, "")
	doc.Ln(3)
	doc.CellFormat(0, 6, tr("Signature du bailleur :"), "", 1, "R", false, 0, "")
	doc.Ln(6)
	doc.CellFormat(0, 6, "______________________________", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

// FrenchAmount formats an amount as "715,00 €".
func FrenchAmount(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1) + " €"
}
