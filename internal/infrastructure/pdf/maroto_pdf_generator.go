// Package pdf genera la representación imprimible de una factura de venta.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Sucursal + código   │  N° Factura + Fecha          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  SUCURSAL: Dirección / Tel / Email                           │
//	│  CLIENTE: Nombre + vendedor                                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Producto | Lote | P.Unit | Total              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Descuento / Impuesto / TOTAL            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el número de factura                         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
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

	appbilling "github.com/jhoicas/inventorypro-ledger/internal/application/billing"
	"github.com/jhoicas/inventorypro-ledger/internal/domain/entity"
)

var _ appbilling.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	currency string
}

// NewMarotoPDFGenerator construye el generador. currency es el símbolo antepuesto a los importes.
func NewMarotoPDFGenerator(currency string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{currency: currency}
}

// GenerateInvoicePDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateInvoicePDF(
	_ context.Context,
	invoice *entity.Invoice,
	branch *entity.Branch,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura "+invoice.Number, true).
		WithAuthor(branch.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(invoice, branch))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(branchRow(branch))
	m.AddRows(customerRow(invoice))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(g.tableDetailRows(invoice.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(g.totalsRow(invoice))

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRow(invoice))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: sucursal + código (izq) y N° factura + fecha (der).
func headerRow(invoice *entity.Invoice, branch *entity.Branch) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(branch.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Código: "+branch.Code, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("FACTURA DE VENTA", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(invoice.Number, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+invoice.Date.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func branchRow(branch *entity.Branch) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New("SUCURSAL", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Dirección: %s   |   Tel: %s   |   Email: %s",
				nonEmpty(branch.Address, "-"),
				nonEmpty(branch.Phone, "-"),
				nonEmpty(branch.Email, "-"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func customerRow(invoice *entity.Invoice) core.Row {
	return row.New(14).Add(
		col.New(12).Add(
			text.New("CLIENTE", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(invoice.CustomerName, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New("Vendedor: "+nonEmpty(invoice.SalesRep, "-"), props.Text{
				Size: 8, Top: 12, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Producto", 4, align.Left),
		h("Lote", 2, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Total", 3, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableDetailRows: una fila por línea, con el nombre y SKU copiados al vender.
func (g *MarotoPDFGenerator) tableDetailRows(lines []entity.InvoiceLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(9).Add(
			col.New(1).Add(text.New(
				fmt.Sprintf("%d", l.Quantity),
				props.Text{Size: 8, Align: align.Center, Top: 1},
			)),
			col.New(4).Add(
				text.New(l.ProductName, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1}),
				text.New(l.SKU, props.Text{Size: 6.5, Align: align.Left, Top: 5, Left: 1, Color: colorGray}),
			),
			col.New(2).Add(text.New(
				l.BatchID,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				g.money(l.UnitPrice),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(3).Add(text.New(
				g.money(l.Total),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func (g *MarotoPDFGenerator) totalsRow(invoice *entity.Invoice) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top,
		})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	grand := props.Text{
		Style: fontstyle.Bold, Size: 10, Align: align.Right,
		Color: colorPrimary, Right: 1, Top: 20,
	}

	return row.New(28).Add(
		col.New(3),
		col.New(3).Add(
			label("Subtotal:", 1),
			label("Descuento:", 7),
			label("Impuesto:", 13),
			text.New("TOTAL:", grand),
		),
		col.New(3).Add(
			value(g.money(invoice.Subtotal), 1),
			value("-"+g.money(invoice.Discount), 7),
			value(g.money(invoice.Tax), 13),
			text.New(g.money(invoice.Total), grand),
		),
		col.New(3),
	)
}

// footerRow: QR con el número de factura para buscarla en el sistema.
func footerRow(invoice *entity.Invoice) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(invoice.Number, props.Rect{
			Percent: 90,
			Center:  true,
		})),
		col.New(9).Add(
			text.New(fmt.Sprintf("%d producto(s) facturado(s).", invoice.ItemCount()), props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Gracias por su compra.", props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 14, Left: 3, Color: colorPrimary,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func (g *MarotoPDFGenerator) money(d decimal.Decimal) string {
	return g.currency + formatMoney(d)
}

// formatMoney importe con separador de miles y dos decimales.
// Ej: 25000 → "25,000.00", 1000000.5 → "1,000,000.50"
func formatMoney(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "." + frac
	if d.IsNegative() {
		return "-" + out
	}
	return out
}
