package document

import (
	"strconv"

	"github.com/altamar/tour-vouchers/internal/models"
	"github.com/altamar/tour-vouchers/internal/money"
	"go.uber.org/zap"
)

var (
	headingStyle = &Style{Bold: true, FontSize: 14, Color: "#1A3C5E"}
	tableHeader  = &Style{Bold: true, FillColor: "#E8EEF4"}
	totalStyle   = &Style{Bold: true, FontSize: 12}
	brandStyle   = &Style{Bold: true, FontSize: 18}
)

// Assembler maps canonical voucher records into Document trees
type Assembler struct {
	brandName string
	logger    *zap.Logger
}

// NewAssembler creates a new document assembler
func NewAssembler(brandName string, logger *zap.Logger) *Assembler {
	return &Assembler{brandName: brandName, logger: logger}
}

// Build deterministically assembles the document description for a voucher.
// Items and passengers render in record order. The totals block recomputes
// the remaining balance from total and down payment at build time; the
// stored derived field is never read here, so a stale record cannot leak a
// wrong balance into the printed voucher. A nil logo simply omits the image
// region.
func (a *Assembler) Build(rec *models.VoucherRecord, logo *Image) *Document {
	doc := &Document{
		Title: a.brandName,
		Code:  rec.Code,
		Logo:  logo,
	}
	if logo == nil {
		a.logger.Debug("Building document without logo", zap.String("code", rec.Code))
	}

	doc.Sections = append(doc.Sections,
		a.headerSection(rec),
		a.clientSection(rec),
		a.itemsSection(rec),
		a.passengersSection(rec),
		a.totalsSection(rec),
	)

	if rec.Notes != "" {
		doc.Sections = append(doc.Sections, Section{
			Title: "Observações",
			Lines: []Text{{Value: rec.Notes}},
		})
	}

	return doc
}

func (a *Assembler) headerSection(rec *models.VoucherRecord) Section {
	lines := []Text{
		{Value: a.brandName, Style: brandStyle},
		{Value: "Voucher " + rec.Code, Style: headingStyle},
	}
	if rec.SellerName != "" {
		lines = append(lines, Text{Value: "Vendedor: " + rec.SellerName})
	}
	if rec.OperatorName != "" {
		lines = append(lines, Text{Value: "Operadora: " + rec.OperatorName})
	}
	return Section{Lines: lines}
}

func (a *Assembler) clientSection(rec *models.VoucherRecord) Section {
	kvs := []KeyValue{
		{Key: "Contratante", Value: rec.ClientName},
	}
	if rec.ClientPhone != "" {
		kvs = append(kvs, KeyValue{Key: "Telefone", Value: rec.ClientPhone})
	}
	if rec.EmbarkPlace != "" {
		kvs = append(kvs, KeyValue{Key: "Local de embarque", Value: rec.EmbarkPlace})
	}
	return Section{Title: "Cliente", Style: headingStyle, KeyValues: kvs}
}

func (a *Assembler) itemsSection(rec *models.VoucherRecord) Section {
	table := &Table{
		Header:      []string{"Passeio", "Data", "Horário", "Qtd", "Observações"},
		Widths:      []int{4, 2, 1, 1, 3},
		HeaderStyle: tableHeader,
		Rows:        make([][]string, 0, len(rec.Items)),
	}
	for _, item := range rec.Items {
		table.Rows = append(table.Rows, []string{
			item.Description,
			item.TripDate,
			item.TripTime,
			strconv.Itoa(item.Quantity),
			item.Notes,
		})
	}
	return Section{Title: "Passeios", Style: headingStyle, Table: table}
}

func (a *Assembler) passengersSection(rec *models.VoucherRecord) Section {
	table := &Table{
		Header:      []string{"Passageiro", "Telefone", "Colo"},
		Widths:      []int{5, 3, 1},
		HeaderStyle: tableHeader,
		Rows:        make([][]string, 0, len(rec.Passengers)),
	}
	for _, p := range rec.Passengers {
		infant := "-"
		if p.IsInfant {
			infant = "Sim"
		}
		table.Rows = append(table.Rows, []string{p.Name, p.Phone, infant})
	}
	return Section{Title: "Passageiros", Style: headingStyle, Table: table}
}

func (a *Assembler) totalsSection(rec *models.VoucherRecord) Section {
	remaining := money.Remaining(rec.TotalCents, rec.DownPaymentCents)
	return Section{
		Title: "Valores",
		Style: headingStyle,
		KeyValues: []KeyValue{
			{Key: "Total", Value: money.FormatBRL(rec.TotalCents)},
			{Key: "Entrada", Value: money.FormatBRL(rec.DownPaymentCents)},
			{Key: "Restante", Value: money.FormatBRL(remaining), Style: totalStyle},
		},
	}
}
