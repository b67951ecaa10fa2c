package types_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/memberops-lab/memberflow/pkg/domain/types"
)

func TestPeriodKey(t *testing.T) {
	// 23:30 on the last day of March in UTC-2 is already April in UTC
	loc := time.FixedZone("UTC-2", -2*60*60)
	at := time.Date(2026, 3, 31, 23, 30, 0, 0, loc)

	gt.Value(t, types.MonthlyPeriodKey(at)).Equal(types.PeriodKey("2026-04"))
	gt.Value(t, types.DailyPeriodKey(at)).Equal(types.PeriodKey("2026-04-01"))

	t.Run("validate", func(t *testing.T) {
		gt.NoError(t, types.PeriodKey("2026-03").Validate())
		gt.NoError(t, types.PeriodKey("2026-03-15").Validate())
		gt.Error(t, types.PeriodKey("2026-3").Validate())
		gt.Error(t, types.PeriodKey("march").Validate())
	})
}
