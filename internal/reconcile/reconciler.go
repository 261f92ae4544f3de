// Package reconcile normalizes the heterogeneous voucher and reservation
// payload shapes that accumulated over the life of the back office into the
// one canonical VoucherRecord the rest of the pipeline operates on.
package reconcile

import (
	"strings"

	"github.com/altamar/tour-vouchers/internal/models"
	"github.com/altamar/tour-vouchers/internal/money"
	"go.uber.org/zap"
)

// Reconciler decodes raw payloads into canonical voucher records
type Reconciler struct {
	logger *zap.Logger
}

// NewReconciler creates a new payload reconciler
func NewReconciler(logger *zap.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Reconcile maps a raw payload of any known historical shape into a
// canonical VoucherRecord. Missing optional fields become zero values, never
// nils that leak into document assembly. A missing client name or a missing
// or non-list items field fails with *ReconciliationError.
func (r *Reconciler) Reconcile(raw map[string]interface{}) (*models.VoucherRecord, error) {
	if raw == nil {
		return nil, missingField("client_name")
	}

	clientName := stringField(raw, "client_name")
	if strings.TrimSpace(clientName) == "" {
		return nil, missingField("client_name")
	}

	rawItems, ok := lookup(raw, "items", headerAliases)
	if !ok {
		return nil, missingField("items")
	}
	itemList, ok := rawItems.([]interface{})
	if !ok {
		return nil, badType("items", "a list")
	}

	rec := &models.VoucherRecord{
		Code:         stringField(raw, "code"),
		ClientName:   strings.TrimSpace(clientName),
		ClientPhone:  stringField(raw, "client_phone"),
		EmbarkPlace:  stringField(raw, "embark_place"),
		SellerName:   stringField(raw, "seller_name"),
		OperatorName: stringField(raw, "operator_name"),
		Notes:        stringField(raw, "notes"),
		Status:       parseStatus(stringField(raw, "status")),
		Items:        make([]models.VoucherItem, 0, len(itemList)),
		Passengers:   []models.Passenger{},
	}

	rec.TotalCents = r.moneyField(raw, "total_centavos")
	rec.DownPaymentCents = r.moneyField(raw, "down_payment_centavos")
	// derived, never trusted from the payload
	rec.RemainingCents = money.Remaining(rec.TotalCents, rec.DownPaymentCents)

	for i, entry := range itemList {
		m, ok := entry.(map[string]interface{})
		if !ok {
			return nil, badType("items", "a list of objects")
		}
		rec.Items = append(rec.Items, reconcileItem(m, i))
	}

	if rawPax, ok := lookup(raw, "passengers", headerAliases); ok {
		paxList, ok := rawPax.([]interface{})
		if !ok {
			return nil, badType("passengers", "a list")
		}
		for i, entry := range paxList {
			m, ok := entry.(map[string]interface{})
			if !ok {
				return nil, badType("passengers", "a list of objects")
			}
			rec.Passengers = append(rec.Passengers, reconcilePassenger(m, i))
		}
	}

	return rec, nil
}

// moneyField resolves a monetary value to centavos. A minor-unit sibling
// field (canonical or alias) signals the payload already stores centavos;
// only when none exists does the decimal alias get converted.
func (r *Reconciler) moneyField(raw map[string]interface{}, canonical string) int64 {
	mf := moneyAliases[canonical]

	for _, key := range append([]string{canonical}, mf.centsAliases...) {
		if v, ok := raw[key]; ok {
			if f, ok := money.ParseAmount(v); ok {
				return int64(f)
			}
			r.logger.Warn("Unparseable minor-unit field, treating as zero",
				zap.String("field", key))
			return 0
		}
	}

	for _, key := range mf.decimalAliases {
		if v, ok := raw[key]; ok {
			if f, ok := money.ParseAmount(v); ok {
				return money.ToCents(f)
			}
			r.logger.Warn("Unparseable decimal money field, treating as zero",
				zap.String("field", key))
			return 0
		}
	}

	return 0
}

func reconcileItem(raw map[string]interface{}, position int) models.VoucherItem {
	qty := 1
	if v, ok := lookup(raw, "quantity", itemAliases); ok {
		if f, ok := money.ParseAmount(v); ok && f >= 1 {
			qty = int(f)
		}
	}
	return models.VoucherItem{
		Position:    position,
		Description: itemString(raw, "description"),
		TripDate:    itemString(raw, "date"),
		TripTime:    itemString(raw, "time"),
		Quantity:    qty,
		Notes:       itemString(raw, "notes"),
	}
}

func reconcilePassenger(raw map[string]interface{}, position int) models.Passenger {
	infant := false
	if v, ok := lookup(raw, "is_infant", passengerAliases); ok {
		infant = truthy(v)
	}
	return models.Passenger{
		Position: position,
		Name:     paxString(raw, "name"),
		Phone:    paxString(raw, "phone"),
		IsInfant: infant,
	}
}

func stringField(raw map[string]interface{}, canonical string) string {
	v, ok := lookup(raw, canonical, headerAliases)
	if !ok {
		return ""
	}
	return coerceString(v)
}

func itemString(raw map[string]interface{}, canonical string) string {
	v, ok := lookup(raw, canonical, itemAliases)
	if !ok {
		return ""
	}
	return coerceString(v)
}

func paxString(raw map[string]interface{}, canonical string) string {
	v, ok := lookup(raw, canonical, passengerAliases)
	if !ok {
		return ""
	}
	return coerceString(v)
}

func coerceString(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

func truthy(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "sim", "1", "yes":
			return true
		}
		return false
	case float64:
		return b != 0
	case int:
		return b != 0
	default:
		return false
	}
}

func parseStatus(s string) models.VoucherStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "issued", "emitido":
		return models.StatusIssued
	case "cancelled", "canceled", "cancelado":
		return models.StatusCancelled
	default:
		return models.StatusDraft
	}
}
