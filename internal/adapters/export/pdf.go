package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/okian/pumpcurve/internal/adapters/messages"
	"github.com/okian/pumpcurve/internal/domain/operating"
	"github.com/okian/pumpcurve/internal/domain/pump"
)

type labels struct {
	title, pump, ratedPower, speed, npshRated, effRated string
	point, flow, headUser, headCurve, power, eff, npsh   string
	status, notes, none                                  string
}

var reportLabels = map[messages.Lang]labels{
	messages.English: {
		title: "Operating Point Report", pump: "Pump", ratedPower: "Rated power", speed: "Rated speed",
		npshRated: "Rated NPSH", effRated: "Rated efficiency",
		point: "Operating point", flow: "Flow", headUser: "Specified head", headCurve: "Curve head",
		power: "Power", eff: "Efficiency", npsh: "Required NPSH",
		status: "Status", notes: "Notes", none: "not given",
	},
	messages.Portuguese: {
		title: "Relatório do Ponto de Operação", pump: "Bomba", ratedPower: "Potência nominal", speed: "Rotação nominal",
		npshRated: "NPSH nominal", effRated: "Rendimento nominal",
		point: "Ponto de operação", flow: "Vazão", headUser: "Altura informada", headCurve: "Altura da curva",
		power: "Potência", eff: "Rendimento", npsh: "NPSH requerido",
		status: "Situação", notes: "Observações", none: "não informada",
	},
}

// OperatingPointPDF renders a one-page report of a resolved point.
func OperatingPointPDF(lang messages.Lang, spec pump.Spec, res operating.Result) ([]byte, error) {
	l, ok := reportLabels[lang]
	if !ok {
		l = reportLabels[messages.English]
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(l.title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, tr(l.title))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, tr(fmt.Sprintf("%s: %s", l.pump, spec.Name)))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr(fmt.Sprintf("%s: %.1f CV   %s: %.0f rpm", l.ratedPower, spec.RatedPowerCV, l.speed, spec.RatedRPM)))
	pdf.Ln(6)
	pdf.Cell(0, 6, tr(fmt.Sprintf("%s: %.2f m   %s: %.2f %%", l.npshRated, spec.RatedNPSHM, l.effRated, spec.RatedEfficiencyPercent)))
	pdf.Ln(10)

	userHead := l.none
	if res.UserHead != nil {
		userHead = fmt.Sprintf("%.2f m", *res.UserHead)
	}
	rows := [][2]string{
		{l.flow, fmt.Sprintf("%.2f m³/h", res.Flow)},
		{l.headUser, userHead},
		{l.headCurve, fmt.Sprintf("%.2f m", res.ResolvedHead)},
		{l.power, fmt.Sprintf("%.2f CV", res.Power)},
		{l.eff, fmt.Sprintf("%.2f %%", res.Efficiency)},
		{l.npsh, fmt.Sprintf("%.2f m", res.NPSH)},
		{l.status, messages.Status(lang, res.Verdict.Status)},
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr(l.point), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		pdf.CellFormat(60, 6, tr(r[0]), "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 6, tr(r[1]), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr(l.notes), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range messages.Verdict(lang, res.Verdict) {
		pdf.MultiCell(0, 6, tr("- "+line), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
