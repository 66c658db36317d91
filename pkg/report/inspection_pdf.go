// Package report renders inspection sheets as printable A4 PDF documents.
package report

import (
	"bytes"
	"fmt"

	"automedon/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// InspectionReport renders a vehicle-condition report for one direction of a
// mission. The layout is a single structured A4 page per sheet: vehicle
// identity header, scores, condition narrative, checklist (departure only)
// and signature lines.
func InspectionReport(mission *models.Mission, sheet *models.InspectionSheet) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	// Core fonts are cp1252; the translator keeps the French accents legible.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := "Fiche d'inspection - Départ"
	if sheet.Direction == models.SheetArrival {
		title = "Fiche d'inspection - Arrivée"
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr("Véhicule"), "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	row := func(label, value string) {
		pdf.CellFormat(50, 6, tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr(value), "", 1, "L", false, 0, "")
	}
	row("Immatriculation", mission.Immatriculation)
	row("Modèle", mission.Modele)
	row("Trajet", fmt.Sprintf("%s / %s", mission.LieuDepart, mission.LieuArrivee))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr("État relevé"), "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	row("Kilométrage", fmt.Sprintf("%d km", sheet.Mileage))
	row("Niveau de carburant", fmt.Sprintf("%d / 8", sheet.FuelLevel))
	row("Propreté", fmt.Sprintf("%d / 8", sheet.Cleanliness))
	pdf.Ln(2)

	if sheet.ConditionNotes != "" {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, "Observations", "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(sheet.ConditionNotes), "", "L", false)
		pdf.Ln(2)
	}

	if sheet.Checklist != nil {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, tr("Inventaire au départ"), "B", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		for _, item := range checklistItems(sheet.Checklist) {
			mark := "Non"
			if item.present {
				mark = "Oui"
			}
			pdf.CellFormat(80, 5, tr(item.label), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 5, mark, "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Signatures", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	row("Convoyeur", sheet.ConvoyeurSignature)
	row("Client", sheet.ClientSignature)
	row("Établie le", sheet.UpdatedAt.Format("02/01/2006 15:04"))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("report.InspectionReport: %w", err)
	}
	return buf.Bytes(), nil
}

type checklistItem struct {
	label   string
	present bool
}

func checklistItems(c *models.Checklist) []checklistItem {
	return []checklistItem{
		{"Carte grise", c.CarteGrise},
		{"Attestation d'assurance", c.Assurance},
		{"Double des clés", c.DoubleCles},
		{"Roue de secours", c.RoueSecours},
		{"Kit de sécurité", c.KitSecurite},
		{"Gilet et triangle", c.GiletTriangle},
		{"Carnet d'entretien", c.CarnetEntretien},
		{"Manuel d'utilisation", c.ManuelUtilisation},
		{"Tapis de sol", c.TapisSol},
		{"Antenne", c.Antenne},
		{"Enjoliveurs complets", c.EnjoliveursComplet},
		{"Câble de recharge", c.CableRecharge},
		{"Plein de carburant", c.CarburantPlein},
	}
}
