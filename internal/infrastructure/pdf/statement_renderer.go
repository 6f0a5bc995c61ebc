// Package pdf genera el estado de cuenta de una factura: cabecera, saldo y pagos aplicados.
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  Empresa + NIT               │  N° Factura + fechas         │
//	│  CLIENTE                                                    │
//	│  RESUMEN: Total / Impuestos / Pagado / Saldo / A favor      │
//	│  PAGOS: Fecha | Medio | Referencia | Importe                │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jhoicas/erp-ledger/internal/application/billing"
	"github.com/jhoicas/erp-ledger/internal/domain/entity"
)

var _ billing.StatementRenderer = (*StatementRenderer)(nil)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 170, Green: 30, Blue: 30}
)

// StatementRenderer implementa billing.StatementRenderer con Maroto v2.
type StatementRenderer struct {
	printer *message.Printer
}

// NewStatementRenderer construye el renderer. tag define separadores de miles y decimales.
func NewStatementRenderer(tag language.Tag) *StatementRenderer {
	return &StatementRenderer{printer: message.NewPrinter(tag)}
}

// RenderInvoiceStatement devuelve los bytes del PDF.
func (r *StatementRenderer) RenderInvoiceStatement(_ context.Context, st billing.Statement) ([]byte, error) {
	if st.Invoice == nil || st.Company == nil {
		return nil, fmt.Errorf("pdf: factura y empresa requeridas")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Estado de cuenta "+st.Invoice.Number, true).
		WithAuthor(st.Company.Name, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(r.headerRow(st.Invoice, st.Company))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(st.Customer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(r.summaryRows(st)...)
	m.AddRows(line.NewRow(3))
	m.AddRows(r.paymentRows(st.Invoice.Currency, st.Payments)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func (r *StatementRenderer) headerRow(inv *entity.Invoice, company *entity.Company) core.Row {
	due := "—"
	if inv.DueDate != nil {
		due = inv.DueDate.Format("02/01/2006")
	}
	return row.New(22).Add(
		col.New(7).Add(
			text.New(company.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("NIT: "+company.TaxID, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("ESTADO DE CUENTA", props.Text{Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1}),
			text.New(inv.Number, props.Text{Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6}),
			text.New("Emisión: "+inv.IssuedDate.Format("02/01/2006"), props.Text{Size: 8, Align: align.Right, Top: 13, Color: colorGray}),
			text.New("Vencimiento: "+due, props.Text{Size: 8, Align: align.Right, Top: 17, Color: colorGray}),
		),
	)
}

func customerRow(c *entity.Customer) core.Row {
	name, detail := "Sin cliente asociado", ""
	if c != nil {
		name = c.Name
		detail = fmt.Sprintf("NIT/CC: %s   |   Email: %s   |   Tel: %s",
			nonEmpty(c.TaxID, "—"), nonEmpty(c.Email, "—"), nonEmpty(c.Phone, "—"))
	}
	return row.New(16).Add(col.New(12).Add(
		text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		text.New(name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		text.New(detail, props.Text{Size: 8, Top: 12, Color: colorGray}),
	))
}

func (r *StatementRenderer) summaryRows(st billing.Statement) []core.Row {
	cur := st.Invoice.Currency
	entry := func(label, value string, c *props.Color, style fontstyle.Type) core.Row {
		return row.New(6).Add(
			col.New(6),
			col.New(3).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Color: c})),
			col.New(3).Add(text.New(value, props.Text{Style: style, Size: 9, Align: align.Right, Right: 1, Color: c})),
		)
	}
	rows := []core.Row{
		entry("Estado:", string(st.Invoice.Status), nil, fontstyle.Normal),
		entry("Total factura:", r.FormatAmount(cur, st.Balance.Total), nil, fontstyle.Normal),
		entry("Impuestos incluidos:", r.FormatAmount(cur, st.Invoice.TaxAmount), colorGray, fontstyle.Normal),
		entry("Pagado:", r.FormatAmount(cur, st.Balance.Paid), nil, fontstyle.Normal),
		entry("SALDO PENDIENTE:", r.FormatAmount(cur, st.Balance.Outstanding), colorPrimary, fontstyle.Bold),
	}
	if st.Balance.Overpaid.IsPositive() {
		rows = append(rows, entry("Saldo a favor:", r.FormatAmount(cur, st.Balance.Overpaid), colorAlert, fontstyle.Bold))
	}
	return rows
}

func (r *StatementRenderer) paymentRows(cur string, payments []*entity.Payment) []core.Row {
	head := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2}))
	}
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(text.New("PAGOS APLICADOS", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}))),
		row.New(8).Add(
			head("Fecha", 3, align.Left),
			head("Medio", 3, align.Left),
			head("Referencia", 3, align.Left),
			head("Importe", 3, align.Right),
		),
	}
	if len(payments) == 0 {
		return append(rows, row.New(7).Add(col.New(12).Add(
			text.New("Sin pagos registrados", props.Text{Size: 8, Color: colorGray, Top: 1}),
		)))
	}
	for _, p := range payments {
		rows = append(rows, row.New(7).Add(
			col.New(3).Add(text.New(p.PaymentDate.Format("02/01/2006"), props.Text{Size: 8, Top: 1})),
			col.New(3).Add(text.New(string(p.Method), props.Text{Size: 8, Top: 1})),
			col.New(3).Add(text.New(nonEmpty(p.Reference, "—"), props.Text{Size: 8, Top: 1})),
			col.New(3).Add(text.New(r.FormatAmount(cur, p.Amount), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return rows
}

// FormatAmount importe con dos decimales, separadores del idioma configurado y código ISO de moneda.
func (r *StatementRenderer) FormatAmount(code string, amount decimal.Decimal) string {
	if unit, err := currency.ParseISO(code); err == nil {
		code = unit.String()
	}
	return code + " " + r.printer.Sprint(number.Decimal(amount.InexactFloat64(), number.Scale(2)))
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
