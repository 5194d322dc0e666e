package inventory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStockChangedEventAlerting(t *testing.T) {
	cases := []struct {
		name     string
		evt      StockChangedEvent
		alert    bool
		severity Severity
	}{
		{"crosses level", StockChangedEvent{PreviousStock: 12, NewStock: 4, ReorderLevel: 5}, true, SeverityWarning},
		{"lands on level", StockChangedEvent{PreviousStock: 6, NewStock: 5, ReorderLevel: 5}, true, SeverityWarning},
		{"already low", StockChangedEvent{PreviousStock: 4, NewStock: 3, ReorderLevel: 5}, false, SeverityWarning},
		{"runs out while low", StockChangedEvent{PreviousStock: 3, NewStock: 0, ReorderLevel: 5}, true, SeverityCritical},
		{"restock", StockChangedEvent{PreviousStock: 0, NewStock: 40, ReorderLevel: 5}, false, SeverityWarning},
		{"still healthy", StockChangedEvent{PreviousStock: 40, NewStock: 30, ReorderLevel: 5}, false, SeverityWarning},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.alert, tc.evt.NeedsAlert())
			require.Equal(t, tc.severity, tc.evt.Severity())
		})
	}
}
