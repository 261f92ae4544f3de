package reconcile

import (
	"testing"

	"github.com/altamar/tour-vouchers/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReconciler_Reconcile(t *testing.T) {
	r := NewReconciler(zap.NewNop())

	t.Run("canonical shape passes through", func(t *testing.T) {
		rec, err := r.Reconcile(map[string]interface{}{
			"code":                  "ATV-2403151430-ABCD",
			"client_name":           "Maria Souza",
			"client_phone":          "11 98888-7777",
			"embark_place":          "Hotel Praia Azul",
			"seller_name":           "Carlos",
			"operator_name":         "Mar Aberto Tur",
			"total_centavos":        float64(125000),
			"down_payment_centavos": float64(50000),
			"notes":                 "cliente vip",
			"items": []interface{}{
				map[string]interface{}{"description": "Passeio de escuna", "date": "2024-04-01", "time": "09:00", "quantity": float64(2)},
			},
			"passengers": []interface{}{
				map[string]interface{}{"name": "Maria Souza"},
				map[string]interface{}{"name": "Bebê Souza", "is_infant": true},
			},
		})

		require.NoError(t, err)
		assert.Equal(t, "ATV-2403151430-ABCD", rec.Code)
		assert.Equal(t, "Maria Souza", rec.ClientName)
		assert.Equal(t, int64(125000), rec.TotalCents)
		assert.Equal(t, int64(50000), rec.DownPaymentCents)
		assert.Equal(t, int64(75000), rec.RemainingCents)
		require.Len(t, rec.Items, 1)
		assert.Equal(t, 2, rec.Items[0].Quantity)
		require.Len(t, rec.Passengers, 2)
		assert.False(t, rec.Passengers[0].IsInfant)
		assert.True(t, rec.Passengers[1].IsInfant)
	})

	t.Run("legacy and canonical shapes reconcile identically", func(t *testing.T) {
		legacy := map[string]interface{}{
			"contratante": "Maria Souza",
			"telefone":    "11 98888-7777",
			"total":       1250.00,
			"entrada":     500.00,
			"itens": []interface{}{
				map[string]interface{}{"passeio": "Passeio de escuna", "data": "2024-04-01", "horario": "09:00", "qty": float64(2)},
			},
			"passageiros": []interface{}{
				map[string]interface{}{"nome": "Maria Souza"},
				map[string]interface{}{"nome": "Bebê Souza", "colo": "sim"},
			},
		}
		canonical := map[string]interface{}{
			"client_name":           "Maria Souza",
			"client_phone":          "11 98888-7777",
			"total_centavos":        float64(125000),
			"down_payment_centavos": float64(50000),
			"items": []interface{}{
				map[string]interface{}{"description": "Passeio de escuna", "date": "2024-04-01", "time": "09:00", "quantity": float64(2)},
			},
			"passengers": []interface{}{
				map[string]interface{}{"name": "Maria Souza"},
				map[string]interface{}{"name": "Bebê Souza", "is_infant": true},
			},
		}

		a, err := r.Reconcile(legacy)
		require.NoError(t, err)
		b, err := r.Reconcile(canonical)
		require.NoError(t, err)

		assert.Equal(t, b, a)
	})

	t.Run("centavos sibling wins over decimal field", func(t *testing.T) {
		rec, err := r.Reconcile(map[string]interface{}{
			"client_name":    "João",
			"total_centavos": float64(9990),
			"total":          99.90, // already represented by the sibling
			"items":          []interface{}{},
		})

		require.NoError(t, err)
		assert.Equal(t, int64(9990), rec.TotalCents)
	})

	t.Run("decimal-only payload is converted", func(t *testing.T) {
		rec, err := r.Reconcile(map[string]interface{}{
			"client_name": "João",
			"total":       99.90,
			"entrada":     10.00,
			"items":       []interface{}{},
		})

		require.NoError(t, err)
		assert.Equal(t, int64(9990), rec.TotalCents)
		assert.Equal(t, int64(1000), rec.DownPaymentCents)
		assert.Equal(t, int64(8990), rec.RemainingCents)
	})

	t.Run("remaining is always recomputed, stored value ignored", func(t *testing.T) {
		rec, err := r.Reconcile(map[string]interface{}{
			"client_name":           "João",
			"total_centavos":        float64(10000),
			"down_payment_centavos": float64(4000),
			"remaining_centavos":    float64(99999), // stale
			"items":                 []interface{}{},
		})

		require.NoError(t, err)
		assert.Equal(t, int64(6000), rec.RemainingCents)
	})

	t.Run("missing client name fails naming the field", func(t *testing.T) {
		_, err := r.Reconcile(map[string]interface{}{
			"items": []interface{}{},
		})

		var rErr *ReconciliationError
		require.ErrorAs(t, err, &rErr)
		assert.Equal(t, "client_name", rErr.Field)
	})

	t.Run("blank client name fails too", func(t *testing.T) {
		_, err := r.Reconcile(map[string]interface{}{
			"client_name": "   ",
			"items":       []interface{}{},
		})

		var rErr *ReconciliationError
		require.ErrorAs(t, err, &rErr)
		assert.Equal(t, "client_name", rErr.Field)
	})

	t.Run("missing items list fails", func(t *testing.T) {
		_, err := r.Reconcile(map[string]interface{}{
			"client_name": "Maria",
		})

		var rErr *ReconciliationError
		require.ErrorAs(t, err, &rErr)
		assert.Equal(t, "items", rErr.Field)
	})

	t.Run("items must be a list, not a scalar", func(t *testing.T) {
		_, err := r.Reconcile(map[string]interface{}{
			"client_name": "Maria",
			"items":       "not a list",
		})

		var rErr *ReconciliationError
		require.ErrorAs(t, err, &rErr)
		assert.Equal(t, "items", rErr.Field)
	})

	t.Run("empty items list is valid", func(t *testing.T) {
		rec, err := r.Reconcile(map[string]interface{}{
			"client_name": "Maria",
			"items":       []interface{}{},
		})

		require.NoError(t, err)
		assert.Empty(t, rec.Items)
		assert.NotNil(t, rec.Items)
		assert.NotNil(t, rec.Passengers)
	})

	t.Run("nil payload fails", func(t *testing.T) {
		_, err := r.Reconcile(nil)
		assert.Error(t, err)
	})

	t.Run("optional fields default to zero values", func(t *testing.T) {
		rec, err := r.Reconcile(map[string]interface{}{
			"client_name": "Maria",
			"items":       []interface{}{},
		})

		require.NoError(t, err)
		assert.Empty(t, rec.ClientPhone)
		assert.Empty(t, rec.EmbarkPlace)
		assert.Empty(t, rec.Notes)
		assert.Zero(t, rec.TotalCents)
		assert.Equal(t, models.StatusDraft, rec.Status)
	})

	t.Run("status aliases", func(t *testing.T) {
		rec, err := r.Reconcile(map[string]interface{}{
			"client_name": "Maria",
			"situacao":    "emitido",
			"items":       []interface{}{},
		})

		require.NoError(t, err)
		assert.Equal(t, models.StatusIssued, rec.Status)
	})

	t.Run("item quantity defaults to one", func(t *testing.T) {
		rec, err := r.Reconcile(map[string]interface{}{
			"client_name": "Maria",
			"items": []interface{}{
				map[string]interface{}{"description": "City tour"},
			},
		})

		require.NoError(t, err)
		require.Len(t, rec.Items, 1)
		assert.Equal(t, 1, rec.Items[0].Quantity)
	})

	t.Run("item order is preserved", func(t *testing.T) {
		rec, err := r.Reconcile(map[string]interface{}{
			"client_name": "Maria",
			"items": []interface{}{
				map[string]interface{}{"description": "first"},
				map[string]interface{}{"description": "second"},
				map[string]interface{}{"description": "third"},
			},
		})

		require.NoError(t, err)
		require.Len(t, rec.Items, 3)
		assert.Equal(t, "first", rec.Items[0].Description)
		assert.Equal(t, 0, rec.Items[0].Position)
		assert.Equal(t, "second", rec.Items[1].Description)
		assert.Equal(t, "third", rec.Items[2].Description)
		assert.Equal(t, 2, rec.Items[2].Position)
	})
}
