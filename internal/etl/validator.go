package etl

import (
	"fmt"

	"github.com/BartekS5/zabbix-audit/pkg/models"
)

type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateBatch rejects a batch whose cursor field is not ascending, since the
// forwarded cursor is taken from the last record. It returns how many records
// sit at or below the start cursor; those are replays the sink will see again.
func (v *Validator) ValidateBatch(batch []models.AuditRecord, cursor models.Cursor) (int, error) {
	replays := 0
	for i, rec := range batch {
		if i > 0 && rec.ActionID < batch[i-1].ActionID {
			return 0, fmt.Errorf("%w: record %d has cursor %d after %d", ErrExtraction, i+1, rec.ActionID, batch[i-1].ActionID)
		}
		if cursor > 0 && rec.ActionID <= cursor {
			replays++
		}
	}
	return replays, nil
}
